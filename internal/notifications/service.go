package notifications

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"marquee/internal/config"
	"marquee/internal/request"
)

const posterBaseURL = "https://image.tmdb.org/t/p/w500"

// Recipient is a notification destination.
type Recipient struct {
	Name  string
	Email string
}

// Service defines the notification surface exposed to the orchestrator.
type Service interface {
	RequestReceived(ctx context.Context, req *request.Request, to []Recipient) error
	TestNotification(ctx context.Context, to []Recipient) error
}

// sendFunc matches smtp.SendMail and exists so tests can capture outbound
// mail without a live server.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// NewService builds a notification service backed by SMTP when mail is
// configured. When mail is disabled or the host is empty, a noop
// implementation is returned.
func NewService(cfg *config.Config) Service {
	return newService(cfg, smtp.SendMail)
}

func newService(cfg *config.Config, send sendFunc) Service {
	host := strings.TrimSpace(cfg.Mail.Host)
	if !cfg.Mail.Enabled || host == "" {
		return noopService{}
	}

	port := cfg.Mail.Port
	if port <= 0 {
		port = 587
	}

	var auth smtp.Auth
	if cfg.Mail.Username != "" {
		auth = smtp.PlainAuth("", cfg.Mail.Username, cfg.Mail.Password, host)
	}

	return &mailService{
		addr:   fmt.Sprintf("%s:%d", host, port),
		auth:   auth,
		from:   strings.TrimSpace(cfg.Mail.From),
		sender: strings.TrimSpace(cfg.Mail.SenderName),
		send:   send,
	}
}

type mailService struct {
	addr   string
	auth   smtp.Auth
	from   string
	sender string
	send   sendFunc
}

func (m *mailService) RequestReceived(ctx context.Context, req *request.Request, to []Recipient) error {
	kind := "TV Show"
	if req.Class == request.ClassMovie {
		kind = "Movie"
	}
	title := strings.TrimSpace(req.Title)
	subject := fmt.Sprintf("You've just requested the %s %s", kind, title)
	heading := fmt.Sprintf("%s: %s", kind, title)
	body := "Your request has been received and you'll receive an email once it has been added to Plex!"
	return m.deliver(ctx, to, subject, heading, body, req.Thumb)
}

func (m *mailService) TestNotification(ctx context.Context, to []Recipient) error {
	return m.deliver(ctx, to, "Marquee Test", "Test", "Notification delivery is working.", "")
}

// deliver sends one message per recipient so that addresses are never
// disclosed to each other.
func (m *mailService) deliver(ctx context.Context, to []Recipient, subject, heading, body, thumb string) error {
	var firstErr error
	for _, recipient := range to {
		address := strings.TrimSpace(recipient.Email)
		if address == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := m.compose(address, recipient.Name, subject, heading, body, thumb)
		if err := m.send(m.addr, m.auth, m.from, []string{address}, msg); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("send mail to %s: %w", address, err)
			}
		}
	}
	return firstErr
}

func (m *mailService) compose(address, name, subject, heading, body, thumb string) []byte {
	var b strings.Builder
	from := m.from
	if m.sender != "" {
		from = fmt.Sprintf("%s <%s>", m.sender, m.from)
	}
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", address)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString("<html><body>")
	fmt.Fprintf(&b, "<h1>%s</h1>", heading)
	if name = strings.TrimSpace(name); name != "" {
		fmt.Fprintf(&b, "<p>Hi %s,</p>", name)
	}
	fmt.Fprintf(&b, "<p>%s</p>", body)
	if thumb = strings.TrimSpace(thumb); thumb != "" {
		fmt.Fprintf(&b, "<p><img src=%q alt=\"poster\" width=\"250\"/></p>", posterBaseURL+thumb)
	}
	b.WriteString("</body></html>\r\n")
	return []byte(b.String())
}

type noopService struct{}

func (noopService) RequestReceived(context.Context, *request.Request, []Recipient) error { return nil }
func (noopService) TestNotification(context.Context, []Recipient) error                  { return nil }
