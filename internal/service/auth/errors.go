package auth

import "errors"

var (
	ErrMissingFields      = errors.New("email y contraseña son requeridos")
	ErrInvalidEmail       = errors.New("el correo electrónico no es válido")
	ErrWeakPassword       = errors.New("la contraseña es demasiado corta")
	ErrEmailInUse         = errors.New("este correo electrónico ya está registrado")
	ErrInvalidCredentials = errors.New("correo o contraseña incorrectos")
	ErrAccountDisabled    = errors.New("la cuenta ha sido deshabilitada")
	ErrTooManyAttempts    = errors.New("demasiados intentos fallidos, intenta nuevamente más tarde")
	ErrNoRoleRecord       = errors.New("no se encontró la información del usuario")
	ErrRoleNotAllowed     = errors.New("este usuario no tiene permisos para esta aplicación")
	ErrSessionNotFound    = errors.New("la sesión no existe o expiró")
	ErrInvalidToken       = errors.New("token inválido o expirado")
)
