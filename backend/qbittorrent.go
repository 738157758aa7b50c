package backend

import (
	"context"
	"strings"

	qbt "github.com/autobrr/go-qbittorrent"
)

// qbitBackend speaks the qBittorrent WebUI API v2 through the autobrr
// client library. A fresh library client is built for every call, so each
// operation performs its own cookie login and the SID never outlives the
// call that obtained it.
type qbitBackend struct {
	opts options
}

func (b *qbitBackend) Type() ClientType { return QBittorrent }

func (b *qbitBackend) newClient(target Target) *qbt.Client {
	return qbt.NewClient(qbt.Config{
		Host:     strings.TrimRight(target.BaseURL, "/"),
		Username: target.Username,
		Password: target.Password,
		Timeout:  int(b.opts.timeout.Seconds()),
	})
}

// login performs the POST /api/v2/auth/login handshake. Any failure that is
// not transport-level means the daemon answered and refused us.
func (b *qbitBackend) login(ctx context.Context, c *qbt.Client) error {
	const op = "qbittorrent: login"
	if err := c.LoginCtx(ctx); err != nil {
		if isTransportErr(err) {
			return wrapTransport(op, err)
		}
		return &Error{Kind: KindAuthRejected, Op: op, Err: err}
	}
	return nil
}

func (b *qbitBackend) TestConnection(ctx context.Context, target Target) error {
	const op = "qbittorrent: test"
	if err := checkTarget(op, target); err != nil {
		return err
	}

	c := b.newClient(target)
	if err := b.login(ctx, c); err != nil {
		return err
	}

	version, err := c.GetAppVersionCtx(ctx)
	if err != nil {
		return classify(op, err)
	}

	b.opts.logger.Debug().Str("version", version).Msg("qBittorrent reachable")
	return nil
}

func (b *qbitBackend) AddMagnet(ctx context.Context, target Target, magnetURI string) error {
	const op = "qbittorrent: add"
	if err := checkTarget(op, target); err != nil {
		return err
	}

	c := b.newClient(target)
	if err := b.login(ctx, c); err != nil {
		return err
	}

	// The library writes the URL into the options map, so it must be non-nil.
	if err := c.AddTorrentFromUrlCtx(ctx, magnetURI, map[string]string{}); err != nil {
		return classify(op, err)
	}

	b.opts.logger.Debug().Msg("magnet submitted to qBittorrent")
	return nil
}
