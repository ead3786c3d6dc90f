// Package mailer sends out-of-band mail, currently only rejection notices.
// Delivery is best-effort; callers log and swallow failures.
package mailer

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"sync"
)

// Mailer sends a plain-text message to one recipient.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer talks to a plain SMTP relay.
type SMTPMailer struct {
	addr string // host:port
	from string
	auth smtp.Auth
}

func NewSMTPMailer(addr, from, username, password string) *SMTPMailer {
	var auth smtp.Auth
	if username != "" {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			host = addr
		}
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPMailer{addr: addr, from: from, auth: auth}
}

func (m *SMTPMailer) Send(_ context.Context, to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", m.from, to, subject, body)
	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// Message is one captured mail; used by the in-memory mailer.
type Message struct {
	To      string
	Subject string
	Body    string
}

// MemoryMailer records messages for tests.
type MemoryMailer struct {
	mu       sync.Mutex
	messages []Message

	// Err forces every send to fail.
	Err error
}

func NewMemoryMailer() *MemoryMailer { return &MemoryMailer{} }

func (m *MemoryMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.messages = append(m.messages, Message{To: to, Subject: subject, Body: body})
	return nil
}

func (m *MemoryMailer) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message{}, m.messages...)
}
