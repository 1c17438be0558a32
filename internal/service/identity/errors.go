package identity

import "errors"

var (
	ErrMissingCaller = errors.New("falta userUid")
	ErrUnknownCaller = errors.New("el usuario no tiene un rol asignado")
)
