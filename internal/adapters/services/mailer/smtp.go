package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"gopkg.in/gomail.v2"
)

const DefaultSMTPTimeout = 10 * time.Second

// SMTP sends mail through one SMTP relay. Every message opens its own
// connection, and the whole exchange is bounded by the timeout and the
// caller's context, whichever ends first.
type SMTP struct {
	host      string
	port      int
	username  string
	password  string
	from      string
	ssl       bool
	tlsConfig *tls.Config
	timeout   time.Duration
}

type SMTPArgs struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// SSL dials with implicit TLS (usually port 465). Otherwise STARTTLS is
	// used when the server offers it.
	SSL                bool
	InsecureSkipVerify bool
	// Timeout bounds one delivery. Zero means DefaultSMTPTimeout.
	Timeout time.Duration
}

func NewSMTP(args SMTPArgs) *SMTP {
	from := args.From
	if from == "" {
		from = args.Username
	}
	if args.Timeout <= 0 {
		args.Timeout = DefaultSMTPTimeout
	}

	return &SMTP{
		host:      args.Host,
		port:      args.Port,
		username:  args.Username,
		password:  args.Password,
		from:      from,
		ssl:       args.SSL,
		tlsConfig: &tls.Config{ServerName: args.Host, InsecureSkipVerify: args.InsecureSkipVerify}, //nolint:gosec
		timeout:   args.Timeout,
	}
}

func (s *SMTP) message(payload Payload) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", payload.To)
	m.SetHeader("Subject", payload.Subject)
	m.SetBody("text/plain", payload.Body)
	return m
}

func (s *SMTP) SendMail(ctx context.Context, payload Payload) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}

	sender := gomail.SendFunc(func(from string, to []string, msg io.WriterTo) error {
		return s.send(ctx, from, to, msg)
	})
	if err := gomail.Send(sender, s.message(payload)); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}

func (s *SMTP) send(ctx context.Context, from string, to []string, msg io.WriterTo) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(s.host, strconv.Itoa(s.port)))
	if err != nil {
		return err
	}
	// Reads and writes fail at the deadline; cancellation closes the socket.
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if s.ssl {
		conn = tls.Client(conn, s.tlsConfig)
	}

	c, err := smtp.NewClient(conn, s.host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer c.Close()

	if !s.ssl {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(s.tlsConfig); err != nil {
				return err
			}
		}
	}
	if s.username != "" {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(smtp.PlainAuth("", s.username, s.password, s.host)); err != nil {
				return err
			}
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
	if _, err := msg.WriteTo(w); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}
