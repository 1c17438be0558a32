package notification

import (
	"fmt"
	"html"
	"strings"

	"github.com/clinicheck/clinicheck_backend/internal/schema"
	"github.com/clinicheck/clinicheck_backend/pkg/docstore"
	"github.com/clinicheck/clinicheck_backend/pkg/email"
)

// AppointmentStatusMessage builds the email telling a patient that the
// estado of their appointment changed. The recipient is the patient's
// email; an empty email yields a message without recipients.
func AppointmentStatusMessage(appName, estado string, patient, cita *docstore.Document) email.Message {
	if appName == "" {
		appName = "CliniCheck"
	}

	nombre := strings.TrimSpace(patient.String(schema.FieldNombre))
	if nombre == "" {
		nombre = "Paciente"
	}
	cuando := describeSlot(cita.String(schema.FieldFecha), cita.String(schema.FieldHora))

	var subject, line string
	switch schema.NormalizeEstado(estado) {
	case schema.EstadoConfirmado:
		subject = "Tu cita fue confirmada"
		line = fmt.Sprintf("Tu cita%s fue confirmada. Te esperamos.", cuando)
	case schema.EstadoRechazado:
		subject = "Tu cita no pudo ser confirmada"
		line = fmt.Sprintf("Tu solicitud de cita%s fue rechazada. Puedes solicitar una nueva desde la aplicación.", cuando)
	default:
		subject = "Actualización de tu cita"
		line = fmt.Sprintf("El estado de tu cita%s cambió a: %s.", cuando, strings.TrimSpace(estado))
	}

	if motivo := strings.TrimSpace(cita.String(schema.FieldMotivo)); motivo != "" {
		line += " Motivo: " + motivo + "."
	}

	textBody := fmt.Sprintf("Hola %s,\n\n%s\n\nGracias,\nEquipo %s", nombre, line, appName)
	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <p>Hola <strong>%s</strong>,</p>
    <p>%s</p>
    <p style="color: #6b7280; font-size: 14px; margin-top: 30px;">Gracias,<br>Equipo %s</p>
</body>
</html>`, html.EscapeString(nombre), html.EscapeString(line), html.EscapeString(appName))

	var to []string
	if addr := strings.TrimSpace(patient.String(schema.FieldEmail)); addr != "" {
		to = []string{addr}
	}

	return email.Message{
		To:       to,
		Subject:  fmt.Sprintf("%s - %s", subject, appName),
		TextBody: textBody,
		HTMLBody: htmlBody,
	}
}

func describeSlot(fecha, hora string) string {
	fecha, hora = strings.TrimSpace(fecha), strings.TrimSpace(hora)
	switch {
	case fecha != "" && hora != "":
		return fmt.Sprintf(" del %s a las %s", fecha, hora)
	case fecha != "":
		return " del " + fecha
	default:
		return ""
	}
}
