package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type delugeCall struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
	body   string
}

type delugeMock struct {
	calls       []delugeCall
	loginResult string // JSON for the auth.login result, default "true"
	addError    string // JSON for the add call's error field, default "null"
}

func newDelugeServer(t *testing.T, mock *delugeMock) *httptest.Server {
	t.Helper()
	if mock.loginResult == "" {
		mock.loginResult = "true"
	}
	if mock.addError == "" {
		mock.addError = "null"
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/json", r.URL.Path)

		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var call delugeCall
		require.NoError(t, json.Unmarshal(raw, &call))
		call.body = string(raw)
		mock.calls = append(mock.calls, call)

		switch call.Method {
		case "auth.login":
			http.SetCookie(w, &http.Cookie{Name: "_session_id", Value: "deadbeef", Path: "/"})
			w.Write([]byte(`{"result": ` + mock.loginResult + `, "error": null, "id": 1}`))
		default:
			if _, err := r.Cookie("_session_id"); err != nil {
				w.Write([]byte(`{"result": null, "error": {"message": "not authenticated", "code": 1}, "id": 1}`))
				return
			}
			w.Write([]byte(`{"result": true, "error": ` + mock.addError + `, "id": 1}`))
		}
	}))
}

func delugeTarget(serverURL string) Target {
	return Target{BaseURL: serverURL, Username: "alice", Password: "secret"}
}

func TestDelugeAddMagnet(t *testing.T) {
	mock := &delugeMock{}
	server := newDelugeServer(t, mock)
	defer server.Close()

	b := New(Deluge)
	err := b.AddMagnet(context.Background(), delugeTarget(server.URL), testMagnet)
	require.NoError(t, err)

	require.Len(t, mock.calls, 2)
	assert.Equal(t, "auth.login", mock.calls[0].Method)
	assert.Equal(t, "core.add_torrent_magnet", mock.calls[1].Method)

	require.Len(t, mock.calls[1].Params, 2)
	var uri string
	require.NoError(t, json.Unmarshal(mock.calls[1].Params[0], &uri))
	assert.Equal(t, testMagnet, uri)
}

// The Deluge web API authenticates with the password alone. The configured
// username must be structurally absent from the login call.
func TestDelugeLoginOmitsUsername(t *testing.T) {
	mock := &delugeMock{}
	server := newDelugeServer(t, mock)
	defer server.Close()

	b := New(Deluge)
	err := b.AddMagnet(context.Background(), delugeTarget(server.URL), testMagnet)
	require.NoError(t, err)

	login := mock.calls[0]
	require.Len(t, login.Params, 1)
	var password string
	require.NoError(t, json.Unmarshal(login.Params[0], &password))
	assert.Equal(t, "secret", password)
	assert.NotContains(t, login.body, "alice")
}

func TestDelugeTestConnection(t *testing.T) {
	mock := &delugeMock{}
	server := newDelugeServer(t, mock)
	defer server.Close()

	b := New(Deluge)
	err := b.TestConnection(context.Background(), delugeTarget(server.URL))
	require.NoError(t, err)

	require.Len(t, mock.calls, 2)
	assert.Equal(t, "web.connected", mock.calls[1].Method)
}

func TestDelugePasswordRejected(t *testing.T) {
	mock := &delugeMock{loginResult: "false"}
	server := newDelugeServer(t, mock)
	defer server.Close()

	b := New(Deluge)
	err := b.AddMagnet(context.Background(), delugeTarget(server.URL), testMagnet)
	require.Error(t, err)
	assert.Equal(t, KindAuthRejected, KindOf(err))
}

func TestDelugeRPCError(t *testing.T) {
	mock := &delugeMock{addError: `{"message": "invalid magnet", "code": 4}`}
	server := newDelugeServer(t, mock)
	defer server.Close()

	b := New(Deluge)
	err := b.AddMagnet(context.Background(), delugeTarget(server.URL), testMagnet)
	require.Error(t, err)
	assert.Equal(t, KindServerError, KindOf(err))
	assert.True(t, strings.Contains(err.Error(), "invalid magnet"))
}

func TestDelugeAuthRejectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	b := New(Deluge)
	err := b.TestConnection(context.Background(), delugeTarget(server.URL))
	require.Error(t, err)
	assert.Equal(t, KindAuthRejected, KindOf(err))
}
