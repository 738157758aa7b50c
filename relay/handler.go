package relay

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pgpillar/magnetrelay/backend"
	"github.com/pgpillar/magnetrelay/config"
	"github.com/pgpillar/magnetrelay/notify"
	"github.com/pgpillar/magnetrelay/secrets"
)

// State tracks a single relay operation from receipt to terminal outcome.
type State int

const (
	StateIdle State = iota
	StateResolving
	StateDispatching
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolving:
		return "resolving"
	case StateDispatching:
		return "dispatching"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Result is the terminal outcome of one relay or connection-test operation.
// It is ephemeral: callers hold it only for display.
type Result struct {
	State      State
	ClientType backend.ClientType
	Err        error
}

// OK reports whether the operation completed.
func (r Result) OK() bool { return r.State == StateCompleted }

// ConfigProvider returns the server configuration an operation should run
// against. It is called once at operation start; settings changed mid-flight
// never affect an operation already running.
type ConfigProvider func() (config.ServerConfig, error)

// DefaultMaxInFlight bounds concurrent relays in HandleMagnets.
const DefaultMaxInFlight = 4

// Handler relays magnet URIs to the configured torrent daemon.
//
// Every operation is independent: it snapshots the configuration, looks up
// the credential, builds an adapter and performs a full auth handshake. No
// session state is shared, so all methods are safe for concurrent use.
// Failed relays are never retried automatically.
type Handler struct {
	provider    ConfigProvider
	store       secrets.Store
	notifier    notify.Notifier
	logger      zerolog.Logger
	newBackend  func(config.ServerConfig, backend.ClientType) backend.Backend
	onState     func(State)
	maxInFlight int
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithBackendFactory overrides how adapters are built. Tests use it to
// substitute fakes for the real network adapters.
func WithBackendFactory(f func(config.ServerConfig, backend.ClientType) backend.Backend) HandlerOption {
	return func(h *Handler) { h.newBackend = f }
}

// WithStateListener registers a callback invoked on every state transition.
// A UI layer can use it to drive a progress indicator; the callback runs
// synchronously on the operation's goroutine.
func WithStateListener(fn func(State)) HandlerOption {
	return func(h *Handler) { h.onState = fn }
}

// WithMaxInFlight bounds how many relays HandleMagnets runs at once.
func WithMaxInFlight(n int) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.maxInFlight = n
		}
	}
}

// New creates a handler wired to its collaborators. A nil notifier discards
// notifications; a nil store means only inline config passwords are used.
func New(provider ConfigProvider, store secrets.Store, notifier notify.Notifier, logger zerolog.Logger, opts ...HandlerOption) *Handler {
	h := &Handler{
		provider:    provider,
		store:       store,
		notifier:    notifier,
		logger:      logger,
		maxInFlight: DefaultMaxInFlight,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.notifier == nil {
		h.notifier = notify.Nop{}
	}
	if h.newBackend == nil {
		h.newBackend = func(cfg config.ServerConfig, ct backend.ClientType) backend.Backend {
			return backend.New(ct,
				backend.WithTimeout(cfg.TimeoutDuration()),
				backend.WithLogger(logger),
			)
		}
	}
	return h
}

// HandleMagnet is the asynchronous entry point for one incoming magnet URI.
// It runs the full operation: validate, resolve configuration and
// credential, dispatch to the adapter, and report the outcome to the
// notifier. The returned Result is terminal.
func (h *Handler) HandleMagnet(ctx context.Context, magnetURI string) Result {
	h.setState(StateIdle)

	if strings.TrimSpace(magnetURI) == "" {
		err := &backend.Error{Kind: backend.KindInvalidInput, Op: "relay: input", Message: "magnet link is empty"}
		return h.fail("", err, true)
	}

	h.setState(StateResolving)
	cfg, target, ct, err := h.resolve()
	if err != nil {
		return h.fail(ct, err, true)
	}

	h.setState(StateDispatching)
	adapter := h.newBackend(cfg, ct)

	opCtx, cancel := context.WithTimeout(ctx, cfg.TimeoutDuration())
	defer cancel()

	if err := adapter.AddMagnet(opCtx, target, magnetURI); err != nil {
		h.logger.Error().Err(err).Str("client", string(ct)).Msg("magnet relay failed")
		return h.fail(ct, err, true)
	}

	h.setState(StateCompleted)
	h.logger.Info().Str("client", string(ct)).Msg("magnet sent")
	h.notifyUser("Magnet sent", fmt.Sprintf("Added to %s", ct))
	return Result{State: StateCompleted, ClientType: ct}
}

// HandleMagnets relays several URIs, each as an independent operation with
// its own configuration snapshot and auth handshake. Results keep the input
// order.
func (h *Handler) HandleMagnets(ctx context.Context, magnetURIs []string) []Result {
	results := make([]Result, len(magnetURIs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(h.maxInFlight)

	for i, uri := range magnetURIs {
		g.Go(func() error {
			results[i] = h.HandleMagnet(ctx, uri)
			return nil
		})
	}

	// Operations report failures through their Result, never through the
	// group, so Wait cannot return an error here.
	_ = g.Wait()
	return results
}

// TestConnection verifies reachability and credentials without mutating
// remote state. Unlike HandleMagnet it does not notify: the result goes
// straight back to the caller for display.
func (h *Handler) TestConnection(ctx context.Context) Result {
	h.setState(StateResolving)
	cfg, target, ct, err := h.resolve()
	if err != nil {
		return h.fail(ct, err, false)
	}

	h.setState(StateDispatching)
	adapter := h.newBackend(cfg, ct)

	opCtx, cancel := context.WithTimeout(ctx, cfg.TimeoutDuration())
	defer cancel()

	if err := adapter.TestConnection(opCtx, target); err != nil {
		h.logger.Error().Err(err).Str("client", string(ct)).Msg("connection test failed")
		return h.fail(ct, err, false)
	}

	h.setState(StateCompleted)
	h.logger.Info().Str("client", string(ct)).Msg("connection test succeeded")
	return Result{State: StateCompleted, ClientType: ct}
}

// resolve snapshots the configuration and credential for one operation.
func (h *Handler) resolve() (config.ServerConfig, backend.Target, backend.ClientType, error) {
	var target backend.Target

	cfg, err := h.provider()
	if err != nil {
		return cfg, target, "", fmt.Errorf("loading configuration: %w", err)
	}

	if strings.TrimSpace(cfg.URL) == "" {
		return cfg, target, "", &backend.Error{Kind: backend.KindInvalidInput, Op: "relay: resolve", Message: "no server URL configured"}
	}

	ct, err := backend.ParseClientType(cfg.Client)
	if err != nil {
		return cfg, target, "", &backend.Error{Kind: backend.KindInvalidInput, Op: "relay: resolve", Message: err.Error()}
	}

	password := cfg.Password
	if password == "" && h.store != nil {
		password, err = h.store.GetPassword(cfg.URL, cfg.Username)
		if err != nil {
			return cfg, target, ct, fmt.Errorf("reading credential: %w", err)
		}
	}

	target = backend.Target{
		BaseURL:  cfg.BaseURL(),
		Username: cfg.Username,
		Password: password,
	}
	return cfg, target, ct, nil
}

func (h *Handler) fail(ct backend.ClientType, err error, notifyUser bool) Result {
	h.setState(StateFailed)
	if notifyUser {
		h.notifyUser("Magnet failed", UserMessage(err))
	}
	return Result{State: StateFailed, ClientType: ct, Err: err}
}

func (h *Handler) setState(s State) {
	if h.onState != nil {
		h.onState(s)
	}
}

// notifyUser reports to the notification collaborator. Its failures are
// logged and never change an operation's result.
func (h *Handler) notifyUser(title, message string) {
	if err := h.notifier.Notify(title, message); err != nil {
		h.logger.Warn().Err(err).Msg("notification failed")
	}
}

// UserMessage renders err as a short string fit for end-user display.
// Adapter errors carry their own sanitized message; anything else (config
// load, credential store) collapses to a generic line so internal detail
// stays in the log.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var be *backend.Error
	if errors.As(err, &be) {
		return be.UserMessage()
	}
	return "the operation could not be completed; check the configuration"
}
