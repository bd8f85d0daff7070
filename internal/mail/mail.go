// Package mail delivers the verification and reset emails that carry raw
// one-time tokens. Delivery is best effort: a failed send surfaces as a
// generic error and never invalidates the already-committed token record.
package mail

import (
	"bytes"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"

	"github.com/memoriesapp/memories-service/internal/config"
)

// Mailer sends account emails. Handlers depend on this interface; tests
// substitute a recording fake.
type Mailer interface {
	SendVerification(to, lastName, link string) error
	SendPasswordReset(to, lastName, link string) error
}

var verificationTmpl = template.Must(template.New("verification").Parse(`<div style="color:#333;font-size:20px;font-family:Arial,sans-serif">
<h1>Please verify your email address</h1>
<hr>
<h4>Hello {{.LastName}},</h4>
<p>Please verify your email address to continue sharing your memories with the people around you.</p>
<p>The link <b>expires in 1 hour</b>.</p>
<a href="{{.Link}}" style="padding:14px;border-radius:5px;color:#fff;text-decoration:none;background-color:#000">Verify Email Address</a>
<div style="margin-top:20px"><h5>Best Regards</h5><h5>Memories Team</h5></div>
</div>`))

var resetTmpl = template.Must(template.New("reset").Parse(`<div style="color:#333;font-size:20px;font-family:Arial,sans-serif">
<h4>Hello {{.LastName}},</h4>
<h3>Password reset requested. Click the link below to choose a new password.</h3>
<p><b>The link expires in 10 minutes.</b></p>
<a href="{{.Link}}" style="padding:14px;border-radius:5px;color:#fff;text-decoration:none;background-color:crimson">Reset Password</a>
<div style="margin-top:20px"><h5>Best Regards</h5><h5>Memories Team</h5></div>
</div>`))

type linkData struct {
	LastName string
	Link     string
}

// SMTPMailer delivers over an authenticated SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(cfg config.SMTP) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (m *SMTPMailer) SendVerification(to, lastName, link string) error {
	return m.send(to, "Memories: Email Verification", verificationTmpl, linkData{LastName: lastName, Link: link})
}

func (m *SMTPMailer) SendPasswordReset(to, lastName, link string) error {
	return m.send(to, "Memories: Password Reset Request", resetTmpl, linkData{LastName: lastName, Link: link})
}

func (m *SMTPMailer) send(to, subject string, tmpl *template.Template, data linkData) error {
	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("rendering mail body: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body.String())

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("sending mail: %w", err)
	}
	return nil
}
