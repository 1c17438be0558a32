package patient

import "errors"

var (
	ErrMissingEmail      = errors.New("el correo del paciente es obligatorio")
	ErrMissingName       = errors.New("el nombre del paciente es obligatorio")
	ErrMissingCaller     = errors.New("falta userUid")
	ErrNotAuthorized     = errors.New("no autorizado")
	ErrNotFound          = errors.New("paciente no encontrado")
	ErrEmailInUse        = errors.New("el correo ya está registrado")
	ErrInvalidEmail      = errors.New("el correo no es válido")
	ErrWeakPassword      = errors.New("la contraseña no cumple los requisitos mínimos")
	ErrMailNotConfigured = errors.New("configuración de correo no válida, verifica las variables SMTP_HOST, SMTP_USER y SMTP_PASS")
	ErrMailFailed        = errors.New("no se pudo enviar el correo al paciente, intenta nuevamente")
)
