package notification

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/logicalc/loancalc/internal/domain/event"
	"github.com/logicalc/loancalc/internal/domain/model"
	"github.com/logicalc/loancalc/internal/domain/port"
)

// Subject of every company message email.
const Subject = "Information request from logicalc"

var _ port.NotificationSink = (*SMTPSink)(nil)

var bodyTemplate = template.Must(template.New("company_message").Parse(
	`Hello {{.Company.Title}},

A borrower using the logicalc calculator has asked to be contacted.

From: {{.Event.Sender}}
{{- if .Event.CalculationID}}
Calculation: {{.Event.CalculationID}}
{{- end}}
Sent: {{.Event.OccurredAt.Format "2006-01-02 15:04 MST"}}

{{if .Event.Message}}{{.Event.Message}}{{else}}(no message){{end}}
`))

// SMTPConfig configures the SMTP sink.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// BCC receives a blind copy of every message when set.
	BCC      string
	// Timeout bounds one SMTP session. Zero means DefaultTimeout.
	Timeout  time.Duration
}

// DefaultTimeout bounds an SMTP session when SMTPConfig.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// SendFunc delivers msg to the SMTP server at addr.
type SendFunc func(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSink implements port.NotificationSink by emailing the company.
type SMTPSink struct {
	cfg    SMTPConfig
	send   SendFunc
	logger *slog.Logger
}

// NewSMTPSink creates a sink sending through cfg.Host. A nil send dials the
// server itself.
func NewSMTPSink(cfg SMTPConfig, send SendFunc, logger *slog.Logger) *SMTPSink {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &SMTPSink{cfg: cfg, send: send, logger: logger}
	if s.send == nil {
		s.send = s.sendMail
	}
	return s
}

// Notify emails msg to the company. The borrower is set as Reply-To.
func (s *SMTPSink) Notify(ctx context.Context, company model.LoanCompany, msg event.CompanyMessageSubmitted) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := renderMessage(s.cfg.From, company, msg)
	if err != nil {
		return err
	}

	recipients := []string{company.Email}
	if s.cfg.BCC != "" {
		recipients = append(recipients, s.cfg.BCC)
	}

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	if err := s.send(ctx, addr, auth, s.cfg.From, recipients, body); err != nil {
		return fmt.Errorf("send mail via %s: %w", addr, err)
	}

	s.logger.DebugContext(ctx, "company message emailed",
		"message_id", msg.AggregateID(),
		"company_id", company.ID,
		"recipients", len(recipients),
	)
	return nil
}

// sendMail runs one SMTP session bounded by ctx and the configured timeout.
// Cancelling ctx closes the connection.
func (s *SMTPSink) sendMail(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) (err error) {
	var dialer net.Dialer
	dialCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	conn, err := dialer.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		return err
	}
	defer func() {
		if ctxErr := ctx.Err(); err != nil && ctxErr != nil {
			err = errors.Join(ctxErr, err)
		}
	}()

	deadline := time.Now().Add(s.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		_ = conn.Close()
		return err
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	host, _, _ := net.SplitHostPort(addr)
	c, err := smtp.NewClient(conn, host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer func() { _ = c.Close() }()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}); err != nil {
			return err
		}
	}
	if a != nil {
		if ok, _ := c.Extension("AUTH"); !ok {
			return errors.New("server does not support AUTH")
		}
		if err := c.Auth(a); err != nil {
			return err
		}
	}
	if err := c.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

// renderMessage builds an RFC 5322 message. The BCC address never appears in
// the headers.
func renderMessage(from string, company model.LoanCompany, msg event.CompanyMessageSubmitted) ([]byte, error) {
	for _, v := range []string{from, company.Email, msg.Sender} {
		if strings.ContainsAny(v, "\r\n") {
			return nil, fmt.Errorf("invalid address %q", v)
		}
	}

	var text bytes.Buffer
	if err := bodyTemplate.Execute(&text, struct {
		Company model.LoanCompany
		Event   event.CompanyMessageSubmitted
	}{company, msg}); err != nil {
		return nil, fmt.Errorf("render company message: %w", err)
	}

	var b bytes.Buffer
	header := func(k, v string) { fmt.Fprintf(&b, "%s: %s\r\n", k, v) }
	header("From", from)
	header("To", company.Email)
	header("Reply-To", msg.Sender)
	header("Subject", mime.QEncoding.Encode("utf-8", Subject))
	header("Date", msg.OccurredAt().Format(time.RFC1123Z))
	header("Message-ID", "<"+msg.EventID()+"@logicalc>")
	header("MIME-Version", "1.0")
	header("Content-Type", `text/plain; charset="utf-8"`)
	header("Content-Transfer-Encoding", "8bit")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(strings.ReplaceAll(text.String(), "\r\n", "\n"), "\n", "\r\n"))
	return b.Bytes(), nil
}
