package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// synologyBackend speaks the Synology Web API (SYNO.API.Auth +
// SYNO.DownloadStation2.Task). DSM sends login credentials in the query
// string, so the adapter refuses to run over plain HTTP and fails before
// any network I/O when the configured scheme is not https.
type synologyBackend struct {
	opts options
}

type synologyError struct {
	Code int `json:"code"`
}

type synologyResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *synologyError  `json:"error"`
}

func (b *synologyBackend) Type() ClientType { return Synology }

func (b *synologyBackend) TestConnection(ctx context.Context, target Target) error {
	const op = "synology: test"
	sid, err := b.login(ctx, target, op)
	if err != nil {
		return err
	}

	form := url.Values{}
	form.Set("api", "SYNO.DownloadStation2.Task")
	form.Set("version", "2")
	form.Set("method", "list")
	_, err = b.taskCall(ctx, target, op, sid, form)
	return err
}

func (b *synologyBackend) AddMagnet(ctx context.Context, target Target, magnetURI string) error {
	const op = "synology: add"
	sid, err := b.login(ctx, target, op)
	if err != nil {
		return err
	}

	form := url.Values{}
	form.Set("api", "SYNO.DownloadStation2.Task")
	form.Set("version", "2")
	form.Set("method", "create")
	form.Set("type", `"url"`)
	form.Set("url", fmt.Sprintf("[%q]", magnetURI))
	form.Set("create_list", "false")
	if _, err := b.taskCall(ctx, target, op, sid, form); err != nil {
		return err
	}

	b.opts.logger.Debug().Msg("magnet submitted to Download Station")
	return nil
}

func (b *synologyBackend) checkScheme(op string, target Target) error {
	if err := checkTarget(op, target); err != nil {
		return err
	}
	u, err := url.Parse(target.BaseURL)
	if err != nil || u.Scheme != "https" {
		return &Error{Kind: KindUnsupportedConfig, Op: op, Message: "Synology requires an HTTPS server URL"}
	}
	return nil
}

// login obtains the session id that the immediately following task call
// appends as _sid. The sid is never reused across operations.
func (b *synologyBackend) login(ctx context.Context, target Target, op string) (string, error) {
	if err := b.checkScheme(op, target); err != nil {
		return "", err
	}

	query := url.Values{}
	query.Set("api", "SYNO.API.Auth")
	query.Set("version", "6")
	query.Set("method", "login")
	query.Set("account", target.Username)
	query.Set("passwd", target.Password)
	query.Set("session", "DownloadStation")
	query.Set("format", "sid")

	endpoint := strings.TrimRight(target.BaseURL, "/") + "/webapi/auth.cgi?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", wrapTransport(op, err)
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

	var parsed synologyResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", &Error{Kind: KindMalformedResponse, Op: op, Err: err}
	}
	if !parsed.Success {
		e := &Error{Kind: KindAuthRejected, Op: op, Message: "login rejected"}
		if parsed.Error != nil {
			e.StatusCode = parsed.Error.Code
		}
		return "", e
	}

	var data struct {
		SID string `json:"sid"`
	}
	if err := json.Unmarshal(parsed.Data, &data); err != nil || data.SID == "" {
		return "", &Error{Kind: KindMalformedResponse, Op: op, Message: "login response carries no sid"}
	}
	return data.SID, nil
}

func (b *synologyBackend) taskCall(ctx context.Context, target Target, op, sid string, form url.Values) (json.RawMessage, error) {
	endpoint := strings.TrimRight(target.BaseURL, "/") + "/webapi/DownloadStation2/Task?_sid=" + url.QueryEscape(sid)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, wrapTransport(op, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := b.opts.httpClient.Do(req)
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

	var parsed synologyResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &Error{Kind: KindMalformedResponse, Op: op, Err: err}
	}
	if !parsed.Success {
		e := &Error{Kind: KindServerError, Op: op, Message: "task request failed"}
		if parsed.Error != nil {
			e.StatusCode = parsed.Error.Code
		}
		return nil, e
	}
	return parsed.Data, nil
}
