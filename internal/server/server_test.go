package server

import (
	"context"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardeck/cardeck/internal/logging"
	"github.com/cardeck/cardeck/internal/watcher"
)

func testLogger() logging.Logger {
	return logging.NewLogger(&logging.Config{
		Level:  logging.LevelError,
		Format: "text",
		Output: io.Discard,
	})
}

func newTestServer(t *testing.T, root string) (*LiveReloadServer, *httptest.Server) {
	t.Helper()

	registry := watcher.NewRegistry()
	registry.Add(filepath.Join(root, "index.html"))

	s, err := New("127.0.0.1", 0, root, registry, testLogger())
	require.NoError(t, err)

	ts := httptest.NewServer(s.httpServer.Handler)
	t.Cleanup(ts.Close)

	return s, ts
}

func TestServesAssetsDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>deck</html>"), 0o644))

	_, ts := newTestServer(t, dir)

	resp, err := ts.Client().Get(ts.URL + "/index.html")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "<html>deck</html>", string(body))
}

func TestServesLiveReloadScript(t *testing.T) {
	_, ts := newTestServer(t, t.TempDir())

	resp, err := ts.Client().Get(ts.URL + "/__cardeck/livereload.js")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "WebSocket")
	assert.Contains(t, resp.Header.Get("Content-Type"), "javascript")
}

func TestBroadcastReachesWebSocketClient(t *testing.T) {
	s, ts := newTestServer(t, t.TempDir())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go s.runHub(ctx)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/__cardeck/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	// Registration races the broadcast, so keep pushing until the client
	// sees one.
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-done:
				return
			case <-time.After(50 * time.Millisecond):
				select {
				case s.broadcast <- []byte("reload"):
				default:
				}
			}
		}
	}()

	_, message, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "reload", string(message))
}

func TestClientOutlivesUpgradeHandler(t *testing.T) {
	s, ts := newTestServer(t, t.TempDir())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	go s.runHub(ctx)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/__cardeck/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	// The upgrade handler has long since returned by the time these
	// pushes happen; the connection must still deliver every one.
	for i := 0; i < 3; i++ {
		time.Sleep(150 * time.Millisecond)
		s.broadcast <- []byte("reload")

		_, message, err := conn.Read(ctx)
		require.NoError(t, err)
		assert.Equal(t, "reload", string(message))
	}
}

func TestBroadcastSurvivesClientDisconnect(t *testing.T) {
	s, ts := newTestServer(t, t.TempDir())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	go s.runHub(ctx)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/__cardeck/ws"

	leaver, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	stayer, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer stayer.Close(websocket.StatusNormalClosure, "")

	require.NoError(t, leaver.Close(websocket.StatusNormalClosure, "done"))

	// Give the hub time to process the departure, then keep pushing: the
	// hub must neither panic on the gone client nor stop serving the
	// remaining one.
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-done:
				return
			case <-time.After(50 * time.Millisecond):
				select {
				case s.broadcast <- []byte("reload"):
				default:
				}
			}
		}
	}()

	_, message, err := stayer.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "reload", string(message))
}
