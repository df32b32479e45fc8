package mailer

import (
	"errors"
	"fmt"
	"mime"
	"net/smtp"
	"strings"
	"sync"
	"time"

	"github.com/ivyforms/ivyforms/internal/model"
)

var errNotConfigured = errors.New("mailer: not configured")

// Config is the SMTP configuration the mailer sends with.
type Config struct {
	Host        string
	Port        int
	User        string
	Pass        string
	FromAddress string
	FromName    string
	AdminEmail  string
}

// NewConfigFromSettings copies the SMTP part of the runtime settings.
func NewConfigFromSettings(s *model.Settings) *Config {
	if s == nil {
		return &Config{}
	}
	return &Config{
		Host:        s.SMTPHost,
		Port:        s.SMTPPort,
		User:        s.SMTPUser,
		Pass:        s.SMTPPass,
		FromAddress: s.SMTPFromAddress,
		FromName:    s.SMTPFromName,
		AdminEmail:  s.AdminEmail,
	}
}

// Message is a single outgoing email.
type Message struct {
	To       []string
	From     string
	FromName string
	ReplyTo  string
	Subject  string
	Body     string
	IsHTML   bool
}

// Mailer sends emails via SMTP.
type Mailer struct {
	mu     sync.RWMutex
	cfg    *Config
	sendFn func(msg Message) error
}

// New returns a Mailer using cfg. A nil cfg leaves it unconfigured until
// Reconfigure is called.
func New(cfg *Config) *Mailer {
	if cfg == nil {
		cfg = &Config{}
	}
	m := &Mailer{cfg: cfg}
	m.sendFn = m.sendSMTP
	return m
}

// Reconfigure swaps the SMTP configuration used for subsequent sends.
func (m *Mailer) Reconfigure(cfg *Config) {
	m.mu.Lock()
	m.cfg = cfg
	m.mu.Unlock()
}

func (m *Mailer) config() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return *m.cfg
}

// Configured reports whether an SMTP host is set.
func (m *Mailer) Configured() bool {
	return m.config().Host != ""
}

// SendTest sends a test email to the configured admin address.
func (m *Mailer) SendTest() error {
	cfg := m.config()
	if cfg.AdminEmail == "" {
		return fmt.Errorf("mailer: no admin email configured")
	}
	return m.send(Message{
		To:      []string{cfg.AdminEmail},
		Subject: "IvyForms test email",
		Body:    "This is a test email from IvyForms. Your mail settings are working.",
	})
}

func (m *Mailer) send(msg Message) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("mailer: message has no recipients")
	}
	return m.sendFn(msg)
}

func (m *Mailer) sendSMTP(msg Message) error {
	cfg := m.config()
	if cfg.Host == "" {
		return errNotConfigured
	}
	from := msg.From
	if from == "" {
		from = cfg.FromAddress
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	var auth smtp.Auth
	if cfg.User != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host)
	}
	return smtp.SendMail(addr, auth, from, msg.To, []byte(m.formatMessage(msg)))
}

// formatMessage renders headers and body. Sender fields left empty on the
// message fall back to the configured sender.
func (m *Mailer) formatMessage(msg Message) string {
	cfg := m.config()
	fromAddr, fromName := msg.From, msg.FromName
	if fromAddr == "" {
		fromAddr, fromName = cfg.FromAddress, cfg.FromName
	}
	from := fromAddr
	if fromName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", headerSafe(fromName)), fromAddr)
	}

	contentType := "text/plain; charset=UTF-8"
	if msg.IsHTML {
		contentType = "text/html; charset=UTF-8"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", headerSafe(from))
	fmt.Fprintf(&b, "To: %s\r\n", headerSafe(strings.Join(msg.To, ", ")))
	if msg.ReplyTo != "" {
		fmt.Fprintf(&b, "Reply-To: %s\r\n", headerSafe(msg.ReplyTo))
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", headerSafe(msg.Subject)))
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: %s\r\n", contentType)
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	return b.String()
}

// headerSafe strips line breaks so values cannot inject extra headers.
func headerSafe(s string) string {
	return strings.NewReplacer("\r", "", "\n", "").Replace(s)
}
