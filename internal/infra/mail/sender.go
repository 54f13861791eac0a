package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"

	"github.com/xavierca1/realty-crm/internal/entity"
)

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

var layout = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html><body style="font-family: Arial, sans-serif; color: #222;">
<h2 style="color: #B8860B;">{{.Subject}}</h2>
{{range .Paragraphs}}<p>{{.}}</p>
{{end}}<hr><p style="font-size: 12px; color: #888;">{{.AgentName}}{{if .Company}} · {{.Company}}{{end}}</p>
</body></html>`))

func NewEmailSender(host string, port int, user, password, from, company string) *EmailSender {
	return &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
		Company:  company,
		dialer:   gomail.NewDialer(host, port, user, password),
	}
}

// Send delivers e over SMTP. The agent's address goes in Reply-To so the
// envelope sender stays the configured account.
func (s *EmailSender) Send(ctx context.Context, e *entity.Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m, err := s.message(e)
	if err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send email via SMTP: %w", err)
	}
	return nil
}

func (s *EmailSender) message(e *entity.Email) (*gomail.Message, error) {
	var body bytes.Buffer
	data := layoutData{
		Subject:    e.Subject,
		Paragraphs: paragraphs(e.Content),
		AgentName:  e.AgentName,
		Company:    s.Company,
	}
	if err := layout.Execute(&body, data); err != nil {
		return nil, fmt.Errorf("render email layout: %w", err)
	}

	from := s.From
	if from == "" {
		from = e.FromEmail
	}
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(from, e.AgentName))
	m.SetHeader("To", e.ToEmail)
	if e.FromEmail != "" && e.FromEmail != from {
		m.SetHeader("Reply-To", e.FromEmail)
	}
	m.SetHeader("Subject", e.Subject)
	m.SetBody("text/plain", e.Content)
	m.AddAlternative("text/html", body.String())
	return m, nil
}

// paragraphs splits plain text on blank lines, keeping single line breaks.
func paragraphs(s string) []string {
	var out []string
	for _, p := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LogSender stands in for SMTP when it is not configured. It only logs.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, e *entity.Email) error {
	zerolog.Ctx(ctx).Info().
		Str("email_id", entity.FormatID(e.ID)).
		Str("to", e.ToEmail).
		Str("subject", e.Subject).
		Msg("smtp not configured, email logged instead of sent")
	return nil
}
