package appointment

import "errors"

var (
	ErrMissingID        = errors.New("falta el id de la cita")
	ErrMissingCaller    = errors.New("falta userUid")
	ErrNotFound         = errors.New("cita no encontrada")
	ErrPermissionDenied = errors.New("no tienes permiso para modificar esta cita")
	ErrInvalidEstado    = errors.New("estado debe ser un texto no vacío")
	ErrInvalidState     = errors.New("la cita no admite esta operación en su estado actual")
)
