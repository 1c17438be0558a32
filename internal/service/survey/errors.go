package survey

import "errors"

var (
	ErrMissingID = errors.New("falta id")
	ErrNotFound  = errors.New("encuesta no encontrada")
)
