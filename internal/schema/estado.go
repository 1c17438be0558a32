package schema

import "strings"

// Appointment states.
const (
	EstadoPendiente            = "pendiente"
	EstadoConfirmado           = "confirmado"
	EstadoRechazado            = "rechazado"
	EstadoCanceladoPorPaciente = "cancelado_por_paciente"
)

// NormalizeEstado lower-cases and trims an estado. Empty and unknown values
// read as pendiente.
func NormalizeEstado(estado string) string {
	switch e := strings.ToLower(strings.TrimSpace(estado)); e {
	case EstadoConfirmado, EstadoRechazado, EstadoCanceladoPorPaciente:
		return e
	default:
		return EstadoPendiente
	}
}

// IsTerminal reports whether no further transition is allowed from estado.
func IsTerminal(estado string) bool {
	switch NormalizeEstado(estado) {
	case EstadoConfirmado, EstadoRechazado, EstadoCanceladoPorPaciente:
		return true
	}
	return false
}
