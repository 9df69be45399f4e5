package mailer

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSender struct {
	payloads []Payload
	err      error
}

func (c *captureSender) SendMail(_ context.Context, p Payload) error {
	c.payloads = append(c.payloads, p)
	return c.err
}

func TestVerificationCodePayload(t *testing.T) {
	t.Parallel()

	p := VerificationCodePayload("a@b.com", "042137")
	assert.Equal(t, "a@b.com", p.To)
	assert.Equal(t, "Your Verification Code", p.Subject)
	assert.Equal(t, "Your code is: 042137", p.Body)
	assert.NoError(t, p.Validate())
}

func TestNotifier_Deliver(t *testing.T) {
	t.Parallel()

	sender := &captureSender{}
	n := NewNotifier(NotifierArgs{Sender: sender})

	require.NoError(t, n.Deliver(t.Context(), "a@b.com", "123456"))
	require.Len(t, sender.payloads, 1)
	assert.Equal(t, "Your code is: 123456", sender.payloads[0].Body)

	assert.Error(t, n.Deliver(t.Context(), "not-an-email", "123456"))
	assert.Len(t, sender.payloads, 1)

	sender.err = errors.New("smtp: 421 service not available")
	err := n.Deliver(t.Context(), "a@b.com", "123456")
	assert.ErrorIs(t, err, sender.err)
}

func TestLogSender_NeverLogsBody(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := NewLogSender(slog.New(slog.NewTextHandler(&buf, nil)))
	require.NoError(t, s.SendMail(t.Context(), VerificationCodePayload("alice@example.com", "987654")))

	assert.NotContains(t, buf.String(), "987654")
	assert.NotContains(t, buf.String(), "alice@example.com")
	assert.Contains(t, buf.String(), "Your Verification Code")
}

func TestSMTP_Message(t *testing.T) {
	t.Parallel()

	s := NewSMTP(SMTPArgs{Host: "smtp.example.com", Port: 587, Username: "bot@example.com"})
	m := s.message(VerificationCodePayload("a@b.com", "000111"))

	assert.Equal(t, []string{"bot@example.com"}, m.GetHeader("From"))
	assert.Equal(t, []string{"a@b.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{"Your Verification Code"}, m.GetHeader("Subject"))

	var body bytes.Buffer
	_, err := m.WriteTo(&body)
	require.NoError(t, err)
	assert.Contains(t, body.String(), "Your code is: 000111")
}

func TestSMTP_SendMailHonoursContext(t *testing.T) {
	t.Parallel()

	s := NewSMTP(SMTPArgs{Host: "10.255.255.1", Port: 25, From: "bot@example.com"})
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	err := s.SendMail(ctx, VerificationCodePayload("a@b.com", "000111"))
	assert.ErrorIs(t, err, context.Canceled)
}

// silentServer accepts connections and never sends the SMTP greeting.
func silentServer(t *testing.T) (string, int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var (
		mu    sync.Mutex
		conns []net.Conn
	)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, conn)
			mu.Unlock()
		}
	}()
	t.Cleanup(func() {
		_ = ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			_ = c.Close()
		}
	})

	addr := ln.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port
}

// fakeRelay speaks just enough SMTP to accept one message and returns the
// DATA it received on the channel.
func fakeRelay(t *testing.T) (string, int, <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	received := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.SetDeadline(time.Now().Add(5 * time.Second))

		r := bufio.NewReader(conn)
		reply := func(line string) { _, _ = conn.Write([]byte(line + "\r\n")) }
		reply("220 relay.test ESMTP")

		var data strings.Builder
		inData := false
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			if inData {
				if line == ".\r\n" {
					inData = false
					received <- data.String()
					reply("250 queued")
					continue
				}
				data.WriteString(line)
				continue
			}

			switch cmd := strings.ToUpper(strings.TrimSpace(line)); {
			case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
				reply("250 relay.test")
			case strings.HasPrefix(cmd, "MAIL FROM"), strings.HasPrefix(cmd, "RCPT TO"):
				reply("250 ok")
			case cmd == "DATA":
				inData = true
				reply("354 go ahead")
			case cmd == "QUIT":
				reply("221 bye")
				return
			default:
				reply("502 not implemented")
			}
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port, received
}

func TestSMTP_SendMail(t *testing.T) {
	t.Parallel()

	host, port, received := fakeRelay(t)
	s := NewSMTP(SMTPArgs{Host: host, Port: port, From: "bot@example.com", Timeout: 5 * time.Second})

	require.NoError(t, s.SendMail(t.Context(), VerificationCodePayload("a@b.com", "424242")))

	select {
	case data := <-received:
		assert.Contains(t, data, "Subject: Your Verification Code")
		assert.Contains(t, data, "Your code is: 424242")
	case <-time.After(5 * time.Second):
		t.Fatal("relay did not receive the message")
	}
}

func TestSMTP_SendMailTimesOutOnSilentServer(t *testing.T) {
	t.Parallel()

	host, port := silentServer(t)
	s := NewSMTP(SMTPArgs{Host: host, Port: port, From: "bot@example.com", Timeout: 200 * time.Millisecond})

	done := make(chan error, 1)
	go func() {
		done <- s.SendMail(context.Background(), VerificationCodePayload("a@b.com", "000111"))
	}()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("SendMail did not give up on a server that never greets")
	}
}

func TestSMTP_SendMailAbortsOnCancel(t *testing.T) {
	t.Parallel()

	host, port := silentServer(t)
	s := NewSMTP(SMTPArgs{Host: host, Port: port, From: "bot@example.com", Timeout: time.Minute})

	ctx, cancel := context.WithCancel(t.Context())
	time.AfterFunc(100*time.Millisecond, cancel)

	start := time.Now()
	err := s.SendMail(ctx, VerificationCodePayload("a@b.com", "000111"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 5*time.Second)
}
