package backend

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rtorrentOkResponse = `<?xml version="1.0"?>
<methodResponse><params><param><value><i4>0</i4></value></param></params></methodResponse>`

const rtorrentFaultResponse = `<?xml version="1.0"?>
<methodResponse><fault><value><struct>
<member><name>faultCode</name><value><int>-501</int></value></member>
<member><name>faultString</name><value><string>Could not create download</string></value></member>
</struct></value></fault></methodResponse>`

type rtorrentMock struct {
	bodies   []string
	response string
	status   int
}

func newRtorrentServer(t *testing.T, mock *rtorrentMock) *httptest.Server {
	t.Helper()
	if mock.response == "" {
		mock.response = rtorrentOkResponse
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/RPC2", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok, "every rTorrent call carries basic auth")
		assert.Equal(t, "alice", user)
		assert.Equal(t, "secret", pass)

		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		mock.bodies = append(mock.bodies, string(raw))

		if mock.status != 0 {
			w.WriteHeader(mock.status)
			return
		}
		w.Header().Set("Content-Type", "text/xml")
		w.Write([]byte(mock.response))
	}))
}

func rtorrentTarget(serverURL string) Target {
	return Target{BaseURL: serverURL, Username: "alice", Password: "secret"}
}

func TestRtorrentAddMagnet(t *testing.T) {
	mock := &rtorrentMock{}
	server := newRtorrentServer(t, mock)
	defer server.Close()

	b := New(RTorrent)
	err := b.AddMagnet(context.Background(), rtorrentTarget(server.URL), testMagnet)
	require.NoError(t, err)

	require.Len(t, mock.bodies, 1)
	assert.Contains(t, mock.bodies[0], "<methodName>load.start</methodName>")
	assert.Contains(t, mock.bodies[0], testMagnet)
}

func TestRtorrentTestConnection(t *testing.T) {
	mock := &rtorrentMock{response: `<?xml version="1.0"?>
<methodResponse><params><param><value><string>0.9.8</string></value></param></params></methodResponse>`}
	server := newRtorrentServer(t, mock)
	defer server.Close()

	b := New(RTorrent)
	err := b.TestConnection(context.Background(), rtorrentTarget(server.URL))
	require.NoError(t, err)

	require.Len(t, mock.bodies, 1)
	assert.Contains(t, mock.bodies[0], "<methodName>system.client_version</methodName>")
}

func TestRtorrentFault(t *testing.T) {
	mock := &rtorrentMock{response: rtorrentFaultResponse}
	server := newRtorrentServer(t, mock)
	defer server.Close()

	b := New(RTorrent)
	err := b.AddMagnet(context.Background(), rtorrentTarget(server.URL), testMagnet)
	require.Error(t, err)
	assert.Equal(t, KindServerError, KindOf(err))

	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, -501, be.StatusCode)
	assert.Equal(t, "Could not create download", be.Message)
}

func TestRtorrentAuthRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	b := New(RTorrent)
	err := b.AddMagnet(context.Background(), rtorrentTarget(server.URL), testMagnet)
	require.Error(t, err)
	assert.Equal(t, KindAuthRejected, KindOf(err))
}

func TestRtorrentGarbageResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not xml-rpc</html>"))
	}))
	defer server.Close()

	b := New(RTorrent)
	err := b.AddMagnet(context.Background(), Target{BaseURL: server.URL}, testMagnet)
	require.Error(t, err)
	assert.Equal(t, KindMalformedResponse, KindOf(err))
}

func TestMarshalXMLRPCCallEscapes(t *testing.T) {
	payload := string(marshalXMLRPCCall("load.start", []string{"magnet:?xt=a&dn=b<c>"}))
	assert.Contains(t, payload, "magnet:?xt=a&amp;dn=b&lt;c&gt;")
	assert.False(t, strings.Contains(payload, "b<c>"))
}
