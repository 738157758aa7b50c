// Package notify reports relay outcomes to the user through notification
// services.
package notify

import (
	"errors"

	"github.com/nicholas-fedor/shoutrrr"
	"github.com/rs/zerolog"
)

// Notifier abstracts message dispatch so callers can be tested without
// hitting real services.
type Notifier interface {
	Notify(title, message string) error
}

// Shoutrrr fans a notification out to every configured service URL.
type Shoutrrr struct {
	urls   []string
	logger zerolog.Logger
}

// NewShoutrrr creates a notifier for the given shoutrrr service URLs.
func NewShoutrrr(urls []string, logger zerolog.Logger) *Shoutrrr {
	return &Shoutrrr{urls: urls, logger: logger}
}

func (s *Shoutrrr) Notify(title, message string) error {
	var errs []error
	for _, u := range s.urls {
		if err := shoutrrr.Send(u, title+": "+message); err != nil {
			s.logger.Warn().Err(err).Msg("notification send failed")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards notifications.
type Nop struct{}

func (Nop) Notify(title, message string) error { return nil }
