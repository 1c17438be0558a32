package email

import (
	"fmt"
	"html"
	"strings"
)

// PatientWelcomeData is what the welcome email needs to hand a new patient
// their mobile credentials.
type PatientWelcomeData struct {
	Nombre      string
	Email       string
	Password    string
	DownloadURL string
	AppName     string
}

// BuildPatientWelcomeEmail creates the credentials email sent when a
// patient account is created from the dashboard.
func BuildPatientWelcomeEmail(data PatientWelcomeData) Message {
	appName := data.AppName
	if appName == "" {
		appName = "CliniCheck"
	}

	nombre := strings.TrimSpace(data.Nombre)
	if nombre == "" {
		nombre = "Paciente"
	}

	subject := fmt.Sprintf("Tu acceso a %s", appName)

	textBody := fmt.Sprintf(`Hola %s,

Tu cuenta en %s se creó correctamente.

Correo: %s
Contraseña: %s

Descarga la aplicación móvil desde: %s

Te recomendamos iniciar sesión dentro de la app para empezar con las encuestas.

Gracias,
Equipo %s`,
		nombre, appName, data.Email, data.Password, data.DownloadURL, appName)

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <p>Hola <strong>%s</strong>,</p>
    <p>Tu cuenta en %s se creó correctamente.</p>
    <p><strong>Correo:</strong> %s<br><strong>Contraseña:</strong> %s</p>
    <p><strong>Descarga la aplicación:</strong> <a href="%s">%s</a></p>
    <p>Te recomendamos iniciar sesión dentro de la app para empezar con las encuestas.</p>
    <p style="color: #6b7280; font-size: 14px; margin-top: 30px;">Gracias,<br>Equipo %s</p>
</body>
</html>`,
		html.EscapeString(nombre), appName, html.EscapeString(data.Email), html.EscapeString(data.Password),
		data.DownloadURL, html.EscapeString(data.DownloadURL), appName)

	return Message{
		To:       []string{data.Email},
		Subject:  subject,
		TextBody: textBody,
		HTMLBody: htmlBody,
	}
}
