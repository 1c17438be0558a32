package email

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicheck/clinicheck_backend/config"
)

func TestFromCentralConfig(t *testing.T) {
	cfg := FromCentralConfig(config.EmailConfig{
		Enabled: true,
		SMTP:    config.SMTPConfig{Host: "smtp.test", Port: 465, Username: "mailer@test"},
	})
	assert.Equal(t, "CliniCheck <mailer@test>", cfg.From)
	assert.True(t, cfg.SMTPUseTLS)
	assert.Equal(t, "CliniCheck", cfg.AppName)

	explicit := FromCentralConfig(config.EmailConfig{From: " Clinic <a@b.c> ", SMTP: config.SMTPConfig{Port: 587}})
	assert.Equal(t, "Clinic <a@b.c>", explicit.From)
	assert.False(t, explicit.SMTPUseTLS)
}

func TestClient_Configured(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want bool
	}{
		{"disabled", Config{SMTPHost: "h", From: "f"}, false},
		{"no from", Config{Enabled: true, SMTPHost: "h"}, false},
		{"ready", Config{Enabled: true, SMTPHost: "h", From: "f"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Configured())
		})
	}

	_, err := New(Config{Enabled: true})
	assert.Error(t, err)
}

func TestClient_SendDisabled(t *testing.T) {
	c, err := New(Config{})
	require.NoError(t, err)
	err = c.Send(context.Background(), Message{To: []string{"x@y.z"}, Subject: "s", TextBody: "b"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestBuildMessage_Validation(t *testing.T) {
	_, err := buildMessage("", Message{Subject: "s", TextBody: "b"})
	assert.ErrorIs(t, err, ErrInvalidMessage)

	_, err = buildMessage("from@x", Message{TextBody: "b"})
	assert.ErrorIs(t, err, ErrInvalidMessage)

	_, err = buildMessage("from@x", Message{Subject: "s"})
	assert.ErrorIs(t, err, ErrInvalidMessage)

	msg, err := buildMessage("from@x", Message{To: []string{" a@b.c ", ""}, Subject: "s", HTMLBody: "<p>x</p>"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a@b.c"}, msg.GetHeader("To"))
}

type mockSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (m *mockSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	m.input = in
	if m.err != nil {
		return nil, m.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("mid-1")}, nil
}

func TestSESSender_Send(t *testing.T) {
	mock := &mockSES{}
	s := NewSESSender(mock, Config{Enabled: true, From: "CliniCheck <no-reply@test>", SESConfigurationSet: "tracking"})
	require.True(t, s.Configured())

	err := s.Send(context.Background(), Message{
		To:       []string{"ana@test"},
		Subject:  "Hola",
		TextBody: "texto",
		HTMLBody: "<p>html</p>",
	})
	require.NoError(t, err)

	require.NotNil(t, mock.input)
	assert.Equal(t, "CliniCheck <no-reply@test>", aws.ToString(mock.input.FromEmailAddress))
	assert.Equal(t, []string{"ana@test"}, mock.input.Destination.ToAddresses)
	assert.Equal(t, "Hola", aws.ToString(mock.input.Content.Simple.Subject.Data))
	assert.Equal(t, "texto", aws.ToString(mock.input.Content.Simple.Body.Text.Data))
	assert.Equal(t, "tracking", aws.ToString(mock.input.ConfigurationSetName))
}

func TestSESSender_Errors(t *testing.T) {
	disabled := NewSESSender(&mockSES{}, Config{From: "x"})
	assert.False(t, disabled.Configured())
	assert.ErrorIs(t, disabled.Send(context.Background(), Message{}), ErrNotConfigured)

	mock := &mockSES{err: errors.New("throttled")}
	s := NewSESSender(mock, Config{Enabled: true, From: "x@y"})
	err := s.Send(context.Background(), Message{To: []string{"a@b"}, Subject: "s", TextBody: "b"})
	var delivery *DeliveryError
	require.ErrorAs(t, err, &delivery)
	assert.Equal(t, "aws/sesv2", delivery.Provider)
	assert.EqualError(t, errors.Unwrap(err), "throttled")

	err = s.Send(context.Background(), Message{Subject: "s", TextBody: "b"})
	assert.ErrorIs(t, err, ErrInvalidMessage)
}

func TestBuildPatientWelcomeEmail(t *testing.T) {
	msg := BuildPatientWelcomeEmail(PatientWelcomeData{
		Nombre:      "Ana <b>",
		Email:       "ana@test",
		Password:    "Xy23abcdEF",
		DownloadURL: "https://app.test/descargar",
	})

	assert.Equal(t, []string{"ana@test"}, msg.To)
	assert.Equal(t, "Tu acceso a CliniCheck", msg.Subject)
	assert.Contains(t, msg.TextBody, "Contraseña: Xy23abcdEF")
	assert.Contains(t, msg.TextBody, "https://app.test/descargar")
	assert.Contains(t, msg.HTMLBody, "Ana &lt;b&gt;")

	anon := BuildPatientWelcomeEmail(PatientWelcomeData{Email: "x@test"})
	assert.Contains(t, anon.TextBody, "Hola Paciente,")
}
