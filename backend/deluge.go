package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"strings"
)

// delugeBackend speaks the Deluge Web UI JSON-RPC API. The web interface
// authenticates with its password only; the configured username is accepted
// but never sent, matching how the Deluge web auth endpoint works.
type delugeBackend struct {
	opts options
}

type delugeRequest struct {
	Method string `json:"method"`
	Params []any  `json:"params"`
	ID     int    `json:"id"`
}

type delugeError struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type delugeResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *delugeError    `json:"error"`
}

func (b *delugeBackend) Type() ClientType { return Deluge }

func (b *delugeBackend) TestConnection(ctx context.Context, target Target) error {
	const op = "deluge: test"
	if err := checkTarget(op, target); err != nil {
		return err
	}

	client, err := b.sessionClient()
	if err != nil {
		return &Error{Kind: KindUnknown, Op: op, Err: err}
	}
	if err := b.login(ctx, client, target); err != nil {
		return err
	}

	if _, err := b.call(ctx, client, target, op, "web.connected", []any{}); err != nil {
		return err
	}
	return nil
}

func (b *delugeBackend) AddMagnet(ctx context.Context, target Target, magnetURI string) error {
	const op = "deluge: add"
	if err := checkTarget(op, target); err != nil {
		return err
	}

	client, err := b.sessionClient()
	if err != nil {
		return &Error{Kind: KindUnknown, Op: op, Err: err}
	}
	if err := b.login(ctx, client, target); err != nil {
		return err
	}

	if _, err := b.call(ctx, client, target, op, "core.add_torrent_magnet", []any{magnetURI, map[string]any{}}); err != nil {
		return err
	}

	b.opts.logger.Debug().Msg("magnet submitted to Deluge")
	return nil
}

// sessionClient clones the configured HTTP client with a fresh cookie jar,
// so the auth cookie lives for exactly one operation.
func (b *delugeBackend) sessionClient() (*http.Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client := *b.opts.httpClient
	client.Jar = jar
	return &client, nil
}

// login calls auth.login with the password as the sole parameter.
func (b *delugeBackend) login(ctx context.Context, client *http.Client, target Target) error {
	const op = "deluge: login"
	result, err := b.call(ctx, client, target, op, "auth.login", []any{target.Password})
	if err != nil {
		return err
	}

	var ok bool
	if err := json.Unmarshal(result, &ok); err != nil {
		return &Error{Kind: KindMalformedResponse, Op: op, Err: err}
	}
	if !ok {
		return &Error{Kind: KindAuthRejected, Op: op, Message: "web password rejected"}
	}
	return nil
}

func (b *delugeBackend) call(ctx context.Context, client *http.Client, target Target, op, method string, params []any) (json.RawMessage, error) {
	payload, err := json.Marshal(delugeRequest{Method: method, Params: params, ID: 1})
	if err != nil {
		return nil, &Error{Kind: KindInvalidInput, Op: op, Err: err}
	}

	endpoint := strings.TrimRight(target.BaseURL, "/") + "/json"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, wrapTransport(op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, wrapTransport(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errFromStatus(op, resp.StatusCode)
	}

	raw, err := readBody(resp)
	if err != nil {
		return nil, wrapTransport(op, err)
	}

	var parsed delugeResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &Error{Kind: KindMalformedResponse, Op: op, Err: err}
	}
	if parsed.Error != nil {
		if parsed.Error.Message == "" {
			return nil, &Error{Kind: KindMalformedResponse, Op: op, StatusCode: parsed.Error.Code, Message: "error response without a message"}
		}
		return nil, &Error{Kind: KindServerError, Op: op, StatusCode: parsed.Error.Code, Message: parsed.Error.Message}
	}
	return parsed.Result, nil
}
