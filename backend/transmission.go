package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// transmissionSessionHeader carries Transmission's CSRF token. The daemon
// answers 409 to any request missing it and supplies the current value in
// the same header.
const transmissionSessionHeader = "X-Transmission-Session-Id"

// transmissionBackend speaks the Transmission RPC protocol: a single JSON
// endpoint, HTTP Basic auth, and the 409 session-id handshake performed
// fresh on every call.
type transmissionBackend struct {
	opts options
}

type transmissionRequest struct {
	Method    string         `json:"method"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

type transmissionResponse struct {
	Result string `json:"result"`
}

func (b *transmissionBackend) Type() ClientType { return Transmission }

func (b *transmissionBackend) TestConnection(ctx context.Context, target Target) error {
	return b.call(ctx, target, "transmission: test", transmissionRequest{
		Method: "session-get",
	})
}

func (b *transmissionBackend) AddMagnet(ctx context.Context, target Target, magnetURI string) error {
	return b.call(ctx, target, "transmission: add", transmissionRequest{
		Method:    "torrent-add",
		Arguments: map[string]any{"filename": magnetURI},
	})
}

func (b *transmissionBackend) call(ctx context.Context, target Target, op string, rpc transmissionRequest) error {
	if err := checkTarget(op, target); err != nil {
		return err
	}

	body, err := json.Marshal(rpc)
	if err != nil {
		return &Error{Kind: KindInvalidInput, Op: op, Err: err}
	}

	endpoint := strings.TrimRight(target.BaseURL, "/") + "/transmission/rpc"

	resp, err := b.post(ctx, target, endpoint, body, "")
	if err != nil {
		return wrapTransport(op, err)
	}

	if resp.StatusCode == http.StatusConflict {
		session := resp.Header.Get(transmissionSessionHeader)
		resp.Body.Close()
		if session == "" {
			return &Error{Kind: KindMalformedResponse, Op: op, Message: "409 without a session id header"}
		}
		// The handshake allows exactly one retry; a second 409 is a failure.
		resp, err = b.post(ctx, target, endpoint, body, session)
		if err != nil {
			return wrapTransport(op, err)
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errFromStatus(op, resp.StatusCode)
	}

	raw, err := readBody(resp)
	if err != nil {
		return wrapTransport(op, err)
	}

	var parsed transmissionResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return &Error{Kind: KindMalformedResponse, Op: op, Err: err}
	}
	if parsed.Result != "success" {
		return &Error{Kind: KindServerError, Op: op, Message: parsed.Result}
	}
	return nil
}

// post issues one RPC attempt. Basic auth goes on every attempt, including
// the pre-handshake probe.
func (b *transmissionBackend) post(ctx context.Context, target Target, endpoint string, body []byte, session string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if target.Username != "" || target.Password != "" {
		req.SetBasicAuth(target.Username, target.Password)
	}
	if session != "" {
		req.Header.Set(transmissionSessionHeader, session)
	}
	return b.opts.httpClient.Do(req)
}
