package mock

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestFixtures(t *testing.T) {
	srv := httptest.NewServer(NewServer(Fixtures()).Handler())
	defer srv.Close()

	t.Run("hello", func(t *testing.T) {
		resp, body := get(t, srv.URL+"/hello")
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, `{"hello":"Hello Scalatra"}`, body)
	})

	t.Run("lotto", func(t *testing.T) {
		resp, body := get(t, srv.URL+"/lotto")
		assert.Equal(t, lottoBody, body)
		assert.Equal(t, "160", resp.Header.Get("Content-Length"))
		assert.Equal(t, "application/json; charset=UTF-8", resp.Header.Get("Content-Type"))
	})

	t.Run("greet", func(t *testing.T) {
		_, body := get(t, srv.URL+"/greet?firstName=John&lastName=Doe")
		assert.Equal(t, `{"greeting":"Greetings John Doe"}`, body)
	})

	t.Run("unknown path", func(t *testing.T) {
		resp, _ := get(t, srv.URL+"/nope")
		assert.Equal(t, 404, resp.StatusCode)
	})

	t.Run("wrong method", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/hello", "text/plain", nil)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

func TestParseRoutes(t *testing.T) {
	routes, err := ParseRoutes([]byte(`
routes:
  - path: users/{id}
    status: 201
    headers:
      X-Second: b
      X-First: a
    body:
      id: "{{path.id}}"
    delay: 10ms
  - name: plain
    method: post
    path: /echo
    body: "raw {{query.q}}"
`))
	require.NoError(t, err)
	require.Len(t, routes, 2)

	assert.Equal(t, "GET /users/{id}", routes[0].Name)
	assert.Equal(t, "/users/{id}", routes[0].Path)
	assert.Equal(t, 201, routes[0].Status)
	assert.Equal(t, HeaderList{{"X-Second", "b"}, {"X-First", "a"}}, routes[0].Headers)
	assert.Equal(t, Body(`{"id":"{{path.id}}"}`), routes[0].Body)
	assert.Equal(t, 10*time.Millisecond, routes[0].Delay)

	assert.Equal(t, "plain", routes[1].Name)
	assert.Equal(t, "POST", routes[1].Method)
	assert.Equal(t, 200, routes[1].Status)
	assert.Equal(t, Body("raw {{query.q}}"), routes[1].Body)
}

func TestParseRoutes_Errors(t *testing.T) {
	_, err := ParseRoutes([]byte("routes:\n  - status: 200\n"))
	assert.ErrorContains(t, err, "path is required")

	_, err = ParseRoutes([]byte("routes:\n  - path: /a\n    delay: soon\n"))
	assert.ErrorContains(t, err, "invalid delay")

	_, err = ParseRoutes([]byte("routes:\n  - path: /a\n    headers: [a]\n"))
	assert.ErrorContains(t, err, "headers must be a mapping")
}

func TestLoadRoutes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("routes:\n  - path: /users/{id}\n    body: '{\"id\":\"{{path.id}}\",\"req\":\"{{uuid()}}\"}'\n"), 0644))

	routes, err := LoadRoutes(path)
	require.NoError(t, err)

	srv := httptest.NewServer(NewServer(routes).Handler())
	defer srv.Close()

	_, body := get(t, srv.URL+"/users/42")
	assert.Regexp(t, `^\{"id":"42","req":"[0-9a-f-]{36}"\}$`, body)

	_, err = LoadRoutes(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestServer_Delay(t *testing.T) {
	routes := []*Route{{Name: "slow", Method: "GET", Path: "/slow", Status: 204, Delay: 30 * time.Millisecond}}
	srv := httptest.NewServer(NewServer(routes, WithDelay(20*time.Millisecond)).Handler())
	defer srv.Close()

	start := time.Now()
	resp, _ := get(t, srv.URL+"/slow")
	assert.Equal(t, 204, resp.StatusCode)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestServer_StartShutdown(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	s := NewServer(Fixtures(), WithLogger(logger), WithAddr("127.0.0.1:0"))
	assert.Empty(t, s.URL())
	require.NoError(t, s.Start())

	resp, body := get(t, s.URL()+"/hello")
	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, body, "Scalatra")

	require.NoError(t, s.Shutdown(context.Background()))
	assert.Equal(t, "mock server started", hook.AllEntries()[0].Message)
	assert.Len(t, s.Routes(), 3)
}

func TestServer_Run(t *testing.T) {
	logger, _ := test.NewNullLogger()
	s := NewServer(Fixtures(), WithLogger(logger), WithAddr("127.0.0.1:0"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return s.URL() != "" }, time.Second, 10*time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
}
