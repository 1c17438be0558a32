package response

import "errors"

var (
	ErrMissingFields  = errors.New("faltan pacienteId o encuestaId")
	ErrUnknownPatient = errors.New("paciente no autorizado")
	ErrSurveyNotFound = errors.New("encuesta no encontrada")
)
