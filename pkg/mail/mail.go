// Package mail sends account notifications over SMTP.
package mail

import (
	"fmt"
	"html"

	"gopkg.in/gomail.v2"
)

type Config struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type Mailer struct {
	from   string
	sender sender
}

func New(cfg Config) *Mailer {
	return &Mailer{
		from:   cfg.From,
		sender: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

// SendReferralLink welcomes a freshly registered account and hands it the
// link to share with the people it invites.
func (m *Mailer) SendReferralLink(to, name, link string) error {
	if err := m.sender.DialAndSend(referralMessage(m.from, to, name, link)); err != nil {
		return fmt.Errorf("failed to send referral mail: %w", err)
	}

	return nil
}

func referralMessage(from, to, name, link string) *gomail.Message {
	m := gomail.NewMessage()

	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Your referral link")
	m.SetBody("text/plain", fmt.Sprintf("Hi %s,\n\nShare this link to invite people to the survey:\n%s\n", name, link))
	m.AddAlternative("text/html", fmt.Sprintf(
		"<p>Hi %s,</p><p>Share <a href='%s'>this link</a> to invite people to the survey.</p>",
		html.EscapeString(name), html.EscapeString(link),
	))

	return m
}

// Nop is used when mail is disabled.
type Nop struct{}

func (Nop) SendReferralLink(to, name, link string) error {
	return nil
}
