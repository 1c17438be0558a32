package clinician

import "errors"

var (
	ErrMissingID      = errors.New("falta id")
	ErrNotFound       = errors.New("médico no encontrado")
	ErrAccountRemoval = errors.New("no se pudo eliminar la cuenta del médico")
)
