package backend

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Option configures the adapters produced by New.
type Option func(*options)

type options struct {
	timeout    time.Duration
	httpClient *http.Client
	logger     zerolog.Logger
}

// WithTimeout sets the HTTP timeout for adapter calls.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithHTTPClient replaces the HTTP client the adapter uses. Tests use it to
// trust httptest TLS servers. The qBittorrent adapter builds its client
// through its library and honors WithTimeout only.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithLogger sets the logger adapters emit debug detail on.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New returns the adapter for the given client type. The mapping is pure:
// no I/O happens until the adapter is called, and every value of ClientType
// produced by ParseClientType maps to exactly one adapter.
func New(ct ClientType, opts ...Option) Backend {
	o := options{
		timeout: DefaultTimeout,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = defaultHTTPClient(o.timeout)
	}

	switch ct {
	case QBittorrent:
		return &qbitBackend{opts: o}
	case Transmission:
		return &transmissionBackend{opts: o}
	case Deluge:
		return &delugeBackend{opts: o}
	case RTorrent:
		return &rtorrentBackend{opts: o}
	case Synology:
		return &synologyBackend{opts: o}
	}
	panic(fmt.Sprintf("backend: unhandled client type %q", ct))
}
