package smtp

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strings"
	"time"

	mail "github.com/wneessen/go-mail"

	"github.com/bakkerme/boatwatch/internal/outputs/email"
)

const userAgent = "boatwatch"

// TLSMode determines how the SMTP client should negotiate TLS.
type TLSMode string

const (
	// TLSModeAuto uses port-based defaults (implicit TLS on 465, STARTTLS otherwise).
	TLSModeAuto     TLSMode = "auto"
	TLSModeDisabled TLSMode = "disabled"
	TLSModeStartTLS TLSMode = "starttls"
	// TLSModeImplicit uses implicit TLS (SMTPS), typically on port 465.
	TLSModeImplicit TLSMode = "implicit"
)

// Options configure an SMTP relay. TLSMode is optional; an empty value
// applies port-based defaults.
type Options struct {
	Host               string
	Port               int
	Username           string
	Password           string
	TLSMode            string
	InsecureSkipVerify bool
	Timeout            time.Duration
}

type Sender struct {
	opts Options
	mode TLSMode
}

// NewSender validates opts and resolves the TLS mode once, so a bad relay
// configuration fails at startup instead of on the first new listing.
func NewSender(opts Options) (*Sender, error) {
	if err := ValidateConfig(opts.Host, opts.Port); err != nil {
		return nil, err
	}
	mode, err := resolveTLSMode(opts.TLSMode, opts.Port)
	if err != nil {
		return nil, err
	}
	return &Sender{opts: opts, mode: mode}, nil
}

func (s *Sender) Send(ctx context.Context, message email.Message) error {
	if ctx == nil {
		ctx = context.Background()
	}
	msg, err := s.buildMessage(message)
	if err != nil {
		return err
	}

	useAuth := s.opts.Username != ""
	err = s.dialAndSend(ctx, msg, useAuth)
	if err == nil {
		return nil
	}
	// Local sinks such as Mailpit reject AUTH; shared dev credentials should not break delivery there.
	if useAuth && isAuthUnsupported(err) && isLocalDevSMTPHost(s.opts.Host) {
		if retryErr := s.dialAndSend(ctx, msg, false); retryErr == nil {
			return nil
		}
	}
	return err
}

func (s *Sender) buildMessage(message email.Message) (*mail.Msg, error) {
	from := message.From
	if from == "" {
		from = s.opts.Username
	}

	m := mail.NewMsg()
	if err := m.From(from); err != nil {
		return nil, fmt.Errorf("invalid from address %q: %w", from, err)
	}
	if err := m.EnvelopeFrom(from); err != nil {
		return nil, fmt.Errorf("invalid envelope from address %q: %w", from, err)
	}
	if err := m.ToFromString(message.To); err != nil {
		return nil, fmt.Errorf("invalid to address(es) %q: %w", message.To, err)
	}
	m.Subject(message.Subject)
	m.SetUserAgent(userAgent)
	m.SetDate()
	m.SetMessageID()

	if message.TextBody != "" {
		m.SetBodyString(mail.TypeTextPlain, message.TextBody)
		m.AddAlternativeString(mail.TypeTextHTML, message.Body)
	} else {
		m.SetBodyString(mail.TypeTextHTML, message.Body)
	}
	return m, nil
}

func (s *Sender) dialAndSend(ctx context.Context, msg *mail.Msg, withAuth bool) error {
	client, err := mail.NewClient(s.opts.Host, s.clientOptions(withAuth)...)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *Sender) clientOptions(withAuth bool) []mail.Option {
	opts := []mail.Option{
		mail.WithPort(s.opts.Port),
		mail.WithTLSConfig(&tls.Config{
			ServerName:         s.opts.Host,
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: s.opts.InsecureSkipVerify,
		}),
	}
	if s.opts.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(s.opts.Timeout))
	}

	switch s.mode {
	case TLSModeDisabled:
		opts = append(opts, mail.WithTLSPortPolicy(mail.NoTLS))
	case TLSModeImplicit:
		opts = append(opts, mail.WithSSL())
	default:
		opts = append(opts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	}

	if withAuth {
		opts = append(opts,
			mail.WithUsername(s.opts.Username),
			mail.WithPassword(s.opts.Password),
			mail.WithSMTPAuth(mail.SMTPAuthAutoDiscover),
		)
	}
	return opts
}

// resolveTLSMode parses mode and maps auto onto the port convention.
func resolveTLSMode(mode string, port int) (TLSMode, error) {
	switch strings.TrimSpace(strings.ToLower(mode)) {
	case "", string(TLSModeAuto):
		if port == 465 {
			return TLSModeImplicit, nil
		}
		return TLSModeStartTLS, nil
	case "disabled", "off", "none":
		return TLSModeDisabled, nil
	case "starttls", "start_tls":
		return TLSModeStartTLS, nil
	case "implicit", "smtptls", "smtp_tls":
		return TLSModeImplicit, nil
	default:
		return "", fmt.Errorf("invalid smtp tls mode %q (expected: auto, disabled/off/none, starttls/start_tls, implicit/smtptls/smtp_tls)", mode)
	}
}

func ValidateConfig(host string, port int) error {
	if strings.TrimSpace(host) == "" {
		return fmt.Errorf("smtp host is required")
	}
	if port <= 0 || port > 65535 {
		return fmt.Errorf("smtp port must be between 1 and 65535")
	}
	return nil
}

func isAuthUnsupported(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "server does not support SMTP AUTH") ||
		strings.Contains(msg, "SMTP Auth autodiscover was not able to detect a supported authentication mechanism")
}

func isLocalDevSMTPHost(host string) bool {
	host = strings.TrimSpace(strings.ToLower(host))
	switch host {
	case "":
		return false
	case "localhost", "mailpit":
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
