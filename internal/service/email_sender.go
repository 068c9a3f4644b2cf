package service

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/shelfmark/shelfmark/internal/config"
	appErr "github.com/shelfmark/shelfmark/internal/pkg/errors"
)

// EmailSender delivers invitation notices. Delivery is best effort; callers
// never block a request on it.
type EmailSender interface {
	Send(to, subject, body string) error
}

type smtpSender struct {
	cfg config.MailConfig
}

func NewEmailSender(cfg config.MailConfig) EmailSender {
	return &smtpSender{cfg: cfg}
}

func (s *smtpSender) Send(to, subject, body string) error {
	from := strings.TrimSpace(s.cfg.From)
	to = strings.TrimSpace(to)
	if s.cfg.Host == "" || s.cfg.Port == 0 || from == "" || to == "" {
		return appErr.ErrInvalid
	}
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	return smtp.SendMail(addr, auth, from, []string{to}, []byte(msg.String()))
}
