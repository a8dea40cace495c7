package notifications

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMTPConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  SMTPConfig
		wantErr bool
	}{
		{"valid", SMTPConfig{Host: "smtp.example.com", Port: 587, From: "noreply@example.com"}, false},
		{"missing host", SMTPConfig{Port: 587, From: "noreply@example.com"}, true},
		{"missing port", SMTPConfig{Host: "smtp.example.com", From: "noreply@example.com"}, true},
		{"missing from", SMTPConfig{Host: "smtp.example.com", Port: 587}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func newTestService(t *testing.T) *EmailService {
	t.Helper()
	svc, err := NewEmailService(SMTPConfig{
		Host: "smtp.example.com",
		Port: 587,
		From: "noreply@linkstream.example",
	}, "https://app.linkstream.example", zerolog.Nop())
	require.NoError(t, err)
	return svc
}

func TestTemplatesRender(t *testing.T) {
	svc := newTestService(t)

	cases := []struct {
		template string
		data     interface{}
		contains []string
	}{
		{
			"team_invite.html",
			TeamInviteData{TeamName: "Acme", InviterName: "Ada", AcceptURL: "https://app.linkstream.example/invites/tok", ExpiresIn: "7 days"},
			[]string{"Acme", "Ada", "/invites/tok", "7 days"},
		},
		{
			"analysis_complete.html",
			AnalysisCompleteData{Name: "Ada", Connections: 1234, InsightCount: 4, BackupURL: "https://app.linkstream.example/backups/x"},
			[]string{"Ada", "1234", "/backups/x"},
		},
		{
			"export_reminder.html",
			ExportReminderData{Name: "Ada", LastExport: "2025-05-01", UploadURL: "https://app.linkstream.example/upload", Frequency: "monthly"},
			[]string{"Ada", "2025-05-01", "monthly"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.template, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, svc.templates.ExecuteTemplate(&buf, tc.template, tc.data))
			for _, want := range tc.contains {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestExportReminderNoLastExport(t *testing.T) {
	svc := newTestService(t)

	var buf bytes.Buffer
	require.NoError(t, svc.templates.ExecuteTemplate(&buf, "export_reminder.html", ExportReminderData{
		Name: "Ada", UploadURL: "https://app.linkstream.example/upload", Frequency: "monthly",
	}))
	assert.Contains(t, buf.String(), "haven't uploaded a LinkedIn export yet")
}

func TestBuildMessage(t *testing.T) {
	svc := newTestService(t)
	msg := string(svc.buildMessage([]string{"a@example.com"}, "Hello", "<p>Hi</p>"))

	assert.Contains(t, msg, "From: noreply@linkstream.example\r\n")
	assert.Contains(t, msg, "To: a@example.com\r\n")
	assert.Contains(t, msg, "Subject: Hello\r\n")
	assert.Contains(t, msg, "Content-Type: text/html")
	assert.Contains(t, msg, "<p>Hi</p>")
}
