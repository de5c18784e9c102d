package queue

import (
    "context"
    "fmt"
    "net"
    "net/smtp"
    "strings"
    "time"
)

const (
    welcomeSubject = "Welcome to Movie Platform!"
    welcomeBody    = "Thank you for registering on our platform."
)

// Mail is a plain-text message with a single recipient.
type Mail struct {
    From    string
    To      string
    Subject string
    Body    string
}

// Mailer delivers mail.
type Mailer interface {
    Send(ctx context.Context, m Mail) error
}

// WelcomeMail builds the message sent to a newly registered user.
func WelcomeMail(from string, ev UserRegisteredEvent) Mail {
    return Mail{From: from, To: ev.Email, Subject: welcomeSubject, Body: welcomeBody}
}

// SMTPMailer sends mail through an SMTP relay.  PLAIN auth is used when a
// user is configured.
type SMTPMailer struct {
    Host string
    Port string
    User string
    Pass string

    send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(host, port, user, pass string) *SMTPMailer {
    return &SMTPMailer{Host: host, Port: port, User: user, Pass: pass, send: smtp.SendMail}
}

func (s *SMTPMailer) Send(ctx context.Context, m Mail) error {
    if err := ctx.Err(); err != nil {
        return err
    }
    if strings.ContainsAny(m.To, "\r\n") || strings.ContainsAny(m.From, "\r\n") {
        return fmt.Errorf("smtp: invalid address")
    }
    var auth smtp.Auth
    if s.User != "" {
        auth = smtp.PlainAuth("", s.User, s.Pass, s.Host)
    }
    return s.send(net.JoinHostPort(s.Host, s.Port), auth, m.From, []string{m.To}, formatMail(m, time.Now()))
}

func formatMail(m Mail, now time.Time) []byte {
    var b strings.Builder
    b.WriteString("From: " + m.From + "\r\n")
    b.WriteString("To: " + m.To + "\r\n")
    b.WriteString("Subject: " + m.Subject + "\r\n")
    b.WriteString("Date: " + now.UTC().Format(time.RFC1123Z) + "\r\n")
    b.WriteString("MIME-Version: 1.0\r\n")
    b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
    b.WriteString("\r\n")
    b.WriteString(m.Body + "\r\n")
    return []byte(b.String())
}
