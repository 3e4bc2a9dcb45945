package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"lmswatch-backend/internal/assert"
	"lmswatch-backend/internal/telemetry"

	"github.com/jordan-wright/email"
)

const report_email_send = "email.send"

type EmailConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	From     string `json:"from"`
	Subject  string `json:"subject"`
}

// Email delivers documents over smtp, the target is an email address.
type Email struct {
	config EmailConfig
	tel    telemetry.API
}

func NewEmail(config EmailConfig, tel telemetry.API) *Email {
	assert.NotNil(tel, "telemetry")
	assert.NotEmptyStr(config.Host, "smtp host")
	if config.Port == 0 {
		config.Port = 587
	}
	if config.Subject == "" {
		config.Subject = "New course activity"
	}
	return &Email{
		config: config,
		tel:    telemetry.NewScopedAPI("email", tel),
	}
}

func (e *Email) Send(ctx context.Context, address, document string) error {
	err := ctx.Err()
	if err != nil {
		return err
	}

	mail := email.NewEmail()
	mail.From = e.config.From
	mail.To = []string{address}
	mail.Subject = e.config.Subject
	mail.HTML = []byte(strings.ReplaceAll(document, "\n", "<br>\n"))

	addr := fmt.Sprintf("%s:%d", e.config.Host, e.config.Port)
	var auth smtp.Auth
	if e.config.Username != "" {
		auth = smtp.PlainAuth("", e.config.Username, e.config.Password, e.config.Host)
	}

	err = mail.Send(addr, auth)
	if err != nil && auth != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		e.tel.ReportWarning(report_email_send, err, address)
		return fmt.Errorf("email: send: %w", err)
	}
	return nil
}
