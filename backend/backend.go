package backend

import (
	"context"
	"fmt"
	"strings"
)

// ClientType identifies which torrent daemon a configured server runs.
type ClientType string

const (
	QBittorrent  ClientType = "qbittorrent"
	Transmission ClientType = "transmission"
	Deluge       ClientType = "deluge"
	RTorrent     ClientType = "rtorrent"
	Synology     ClientType = "synology"
)

// ClientTypes lists every supported client type.
var ClientTypes = []ClientType{QBittorrent, Transmission, Deluge, RTorrent, Synology}

// ParseClientType maps a configuration string onto the closed set of
// supported client types.
func ParseClientType(s string) (ClientType, error) {
	switch ct := ClientType(strings.ToLower(strings.TrimSpace(s))); ct {
	case QBittorrent, Transmission, Deluge, RTorrent, Synology:
		return ct, nil
	}
	return "", fmt.Errorf("unknown client type %q", s)
}

// Target describes the remote daemon a single call should talk to. The
// credential is resolved by the caller; adapters never persist it.
type Target struct {
	BaseURL  string // scheme://host[:port]
	Username string
	Password string
}

// Backend adds magnet links to one kind of torrent daemon.
//
// Implementations are stateless across invocations: every call performs its
// own authentication handshake, and session tokens (cookies, headers, query
// SIDs) live for exactly one operation. This makes adapters safe for
// concurrent use without locking.
type Backend interface {
	// Type reports which client dialect the adapter speaks.
	Type() ClientType

	// TestConnection performs the auth handshake plus one lightweight
	// authenticated call to confirm reachability and credentials. It never
	// mutates remote state.
	TestConnection(ctx context.Context, target Target) error

	// AddMagnet authenticates and submits the magnet URI to the daemon's
	// add-task API. The URI is forwarded opaquely, never parsed.
	AddMagnet(ctx context.Context, target Target, magnetURI string) error
}

// checkTarget rejects calls before any network I/O when the target has no
// server URL.
func checkTarget(op string, target Target) error {
	if strings.TrimSpace(target.BaseURL) == "" {
		return &Error{Kind: KindInvalidInput, Op: op, Message: "server URL is empty"}
	}
	return nil
}
