package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type synologyMock struct {
	logins       int
	tasks        int
	loginSuccess bool
	taskSuccess  bool
}

func newSynologyServer(t *testing.T, mock *synologyMock) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("/webapi/auth.cgi", func(w http.ResponseWriter, r *http.Request) {
		mock.logins++
		q := r.URL.Query()
		assert.Equal(t, "SYNO.API.Auth", q.Get("api"))
		assert.Equal(t, "login", q.Get("method"))
		assert.Equal(t, "alice", q.Get("account"))
		assert.Equal(t, "secret", q.Get("passwd"))
		assert.Equal(t, "sid", q.Get("format"))

		if !mock.loginSuccess {
			w.Write([]byte(`{"success": false, "error": {"code": 400}}`))
			return
		}
		w.Write([]byte(`{"success": true, "data": {"sid": "SID123"}}`))
	})

	mux.HandleFunc("/webapi/DownloadStation2/Task", func(w http.ResponseWriter, r *http.Request) {
		mock.tasks++
		assert.Equal(t, "SID123", r.URL.Query().Get("_sid"))
		assert.Equal(t, "SYNO.DownloadStation2.Task", r.FormValue("api"))

		if !mock.taskSuccess {
			w.Write([]byte(`{"success": false, "error": {"code": 408}}`))
			return
		}
		w.Write([]byte(`{"success": true}`))
	})

	// DSM only talks to this adapter over TLS.
	return httptest.NewTLSServer(mux)
}

func synologyBackendFor(server *httptest.Server) Backend {
	return New(Synology, WithHTTPClient(server.Client()))
}

func synologyTarget(serverURL string) Target {
	return Target{BaseURL: serverURL, Username: "alice", Password: "secret"}
}

func TestSynologyAddMagnet(t *testing.T) {
	mock := &synologyMock{loginSuccess: true, taskSuccess: true}
	server := newSynologyServer(t, mock)
	defer server.Close()

	b := synologyBackendFor(server)
	err := b.AddMagnet(context.Background(), synologyTarget(server.URL), testMagnet)
	require.NoError(t, err)
	assert.Equal(t, 1, mock.logins)
	assert.Equal(t, 1, mock.tasks)
}

func TestSynologyTestConnection(t *testing.T) {
	mock := &synologyMock{loginSuccess: true, taskSuccess: true}
	server := newSynologyServer(t, mock)
	defer server.Close()

	b := synologyBackendFor(server)
	err := b.TestConnection(context.Background(), synologyTarget(server.URL))
	require.NoError(t, err)
	assert.Equal(t, 1, mock.logins)
}

// Every operation runs its own login; the sid from the first call is not
// reused by the second.
func TestSynologySidPerOperation(t *testing.T) {
	mock := &synologyMock{loginSuccess: true, taskSuccess: true}
	server := newSynologyServer(t, mock)
	defer server.Close()

	b := synologyBackendFor(server)
	target := synologyTarget(server.URL)
	require.NoError(t, b.TestConnection(context.Background(), target))
	require.NoError(t, b.AddMagnet(context.Background(), target, testMagnet))
	assert.Equal(t, 2, mock.logins)
}

func TestSynologyRequiresHTTPS(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	b := New(Synology)
	err := b.AddMagnet(context.Background(), synologyTarget(server.URL), testMagnet)
	require.Error(t, err)
	assert.Equal(t, KindUnsupportedConfig, KindOf(err))
	assert.Equal(t, 0, requests, "no network call may be issued over plain HTTP")

	err = b.TestConnection(context.Background(), synologyTarget(server.URL))
	require.Error(t, err)
	assert.Equal(t, KindUnsupportedConfig, KindOf(err))
	assert.Equal(t, 0, requests)
}

func TestSynologyLoginRejected(t *testing.T) {
	mock := &synologyMock{loginSuccess: false}
	server := newSynologyServer(t, mock)
	defer server.Close()

	b := synologyBackendFor(server)
	err := b.AddMagnet(context.Background(), synologyTarget(server.URL), testMagnet)
	require.Error(t, err)
	assert.Equal(t, KindAuthRejected, KindOf(err))
	assert.Equal(t, 0, mock.tasks)
}

func TestSynologyTaskError(t *testing.T) {
	mock := &synologyMock{loginSuccess: true, taskSuccess: false}
	server := newSynologyServer(t, mock)
	defer server.Close()

	b := synologyBackendFor(server)
	err := b.AddMagnet(context.Background(), synologyTarget(server.URL), testMagnet)
	require.Error(t, err)
	assert.Equal(t, KindServerError, KindOf(err))

	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, 408, be.StatusCode)
}
