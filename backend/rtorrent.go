package backend

import (
	"bytes"
	"context"
	"net/http"
	"strings"
)

// rtorrentBackend speaks XML-RPC to an rTorrent endpoint published over
// HTTP (usually nginx in front of the SCGI socket). rTorrent has no session
// concept, so every call carries HTTP Basic auth and stands alone.
type rtorrentBackend struct {
	opts options
}

func (b *rtorrentBackend) Type() ClientType { return RTorrent }

func (b *rtorrentBackend) TestConnection(ctx context.Context, target Target) error {
	const op = "rtorrent: test"
	version, err := b.call(ctx, target, op, "system.client_version", nil)
	if err != nil {
		return err
	}
	b.opts.logger.Debug().Str("version", version).Msg("rTorrent reachable")
	return nil
}

func (b *rtorrentBackend) AddMagnet(ctx context.Context, target Target, magnetURI string) error {
	const op = "rtorrent: add"
	if _, err := b.call(ctx, target, op, "load.start", []string{magnetURI}); err != nil {
		return err
	}
	b.opts.logger.Debug().Msg("magnet submitted to rTorrent")
	return nil
}

func (b *rtorrentBackend) call(ctx context.Context, target Target, op, method string, args []string) (string, error) {
	if err := checkTarget(op, target); err != nil {
		return "", err
	}

	endpoint := strings.TrimRight(target.BaseURL, "/") + "/RPC2"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(marshalXMLRPCCall(method, args)))
	if err != nil {
		return "", wrapTransport(op, err)
	}
	req.Header.Set("Content-Type", "text/xml")
	if target.Username != "" || target.Password != "" {
		req.SetBasicAuth(target.Username, target.Password)
	}

	resp, err := b.opts.httpClient.Do(req)
	if err != nil {
		return "", wrapTransport(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errFromStatus(op, resp.StatusCode)
	}

	raw, err := readBody(resp)
	if err != nil {
		return "", wrapTransport(op, err)
	}

	value, fault, err := parseXMLRPCResponse(raw)
	if err != nil {
		return "", &Error{Kind: KindMalformedResponse, Op: op, Err: err}
	}
	if fault != nil {
		if fault.String == "" {
			return "", &Error{Kind: KindMalformedResponse, Op: op, StatusCode: fault.Code, Message: "fault without a message"}
		}
		return "", &Error{Kind: KindServerError, Op: op, StatusCode: fault.Code, Message: fault.String}
	}
	return value, nil
}
