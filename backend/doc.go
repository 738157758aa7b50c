// Package backend translates generic "test connection" and "add magnet"
// operations into the wire protocol of a specific torrent daemon.
//
// Five dialects are supported, each with its own authentication flow:
//
//   - qBittorrent: form login, session cookie (via autobrr/go-qbittorrent)
//   - Transmission: HTTP Basic plus the 409 X-Transmission-Session-Id handshake
//   - Deluge: JSON-RPC auth.login with the web password only
//   - rTorrent: XML-RPC with HTTP Basic auth on every call, no session
//   - Synology Download Station: auth.cgi login, _sid query parameter, HTTPS only
//
// Adapters are selected through New from a closed ClientType enumeration and
// are stateless across invocations: every call re-authenticates, so callers
// may use one adapter from any number of goroutines.
//
// All failures surface as *Error, classified by Kind so callers can report
// a short user-facing message (UserMessage) without inspecting wire detail.
package backend
