package email

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"canvango_backend/internal/config"
)

// AlertSender delivers critical security alerts over SMTP.
type AlertSender struct {
	cfg *config.Config
}

func NewAlertSender(cfg *config.Config) *AlertSender {
	return &AlertSender{cfg: cfg}
}

// Send emails one alert to the configured recipients.
func (s *AlertSender) Send(subject, body string) error {
	if len(s.cfg.Alerts.Recipients) == 0 {
		return fmt.Errorf("no alert recipients configured")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.Alerts.FromEmail)
	m.SetHeader("To", s.cfg.Alerts.Recipients...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(
		s.cfg.Alerts.SMTPHost,
		s.cfg.Alerts.SMTPPort,
		s.cfg.Alerts.SMTPUser,
		s.cfg.Alerts.SMTPPassword,
	)

	return d.DialAndSend(m)
}
