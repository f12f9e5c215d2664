package email

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ietf-tools/datatracker/internal/config"
	"github.com/ietf-tools/datatracker/internal/logging"
)

// Sender delivers composed messages.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
	// Name returns the backend name, as used in the settings file.
	Name() string
}

// Outbox keeps sent messages in memory. Tests inspect it as the mailbox.
type Outbox struct {
	mu       sync.Mutex
	messages []*Message
}

// NewOutbox returns an empty Outbox.
func NewOutbox() *Outbox {
	return &Outbox{}
}

// Send appends msg to the outbox.
func (o *Outbox) Send(_ context.Context, msg *Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.messages = append(o.messages, msg)
	return nil
}

// Name returns "outbox".
func (o *Outbox) Name() string {
	return config.MailBackendOutbox
}

// Messages returns a snapshot of the sent messages, oldest first.
func (o *Outbox) Messages() []*Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]*Message, len(o.messages))
	copy(out, o.messages)
	return out
}

// Len returns the number of sent messages.
func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.messages)
}

// Reset empties the outbox.
func (o *Outbox) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.messages = nil
}

// LogSender writes the envelope of each message to a logger and drops it.
type LogSender struct {
	logger *logging.Logger
}

// NewLogSender returns a LogSender. A nil logger uses the default logger.
func NewLogSender(logger *logging.Logger) *LogSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogSender{logger: logger.With("component", "mail")}
}

// Send logs msg.
func (s *LogSender) Send(_ context.Context, msg *Message) error {
	s.logger.Info("mail not delivered",
		"from", msg.From,
		"to", strings.Join(msg.To, ", "),
		"subject", msg.Subject,
		"message_id", msg.MessageID,
	)
	return nil
}

// Name returns "log".
func (s *LogSender) Name() string {
	return config.MailBackendLog
}

// NewSender builds the Sender selected by cfg.
func NewSender(ctx context.Context, cfg config.Mail) (Sender, error) {
	switch cfg.Backend {
	case config.MailBackendOutbox:
		return NewOutbox(), nil
	case config.MailBackendLog, "":
		return NewLogSender(nil), nil
	case config.MailBackendSES:
		return NewSESSender(ctx, SESConfig{Region: cfg.Region})
	}
	return nil, fmt.Errorf("unknown mail backend %q", cfg.Backend)
}
