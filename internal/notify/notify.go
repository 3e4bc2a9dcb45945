package notify

import (
	"context"
	"fmt"
)

// Notifier delivers a rendered document to a target (a telegram chat id or an
// email address). Any returned error means the document was not delivered.
type Notifier interface {
	Send(ctx context.Context, target, document string) error
}

type Config struct {
	// Kind is either "telegram" or "email".
	Kind     string         `json:"kind"`
	Telegram TelegramConfig `json:"telegram"`
	Email    EmailConfig    `json:"email"`
}

func (c Config) Validate() error {
	switch c.Kind {
	case "", "telegram":
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("notifier: telegram.bot_token must be specified")
		}
	case "email":
		if c.Email.Host == "" || c.Email.From == "" {
			return fmt.Errorf("notifier: email.host and email.from must be specified")
		}
	default:
		return fmt.Errorf("notifier: unknown kind %q", c.Kind)
	}
	return nil
}
