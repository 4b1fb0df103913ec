package connection

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// mockWSServer creates a test WebSocket server.
func mockWSServer(t *testing.T, handler func(*websocket.Conn)) *httptest.Server {
	return mockWSServerWithRequest(t, func(conn *websocket.Conn, _ *http.Request) {
		handler(conn)
	})
}

func mockWSServerWithRequest(t *testing.T, handler func(*websocket.Conn, *http.Request)) *httptest.Server {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer conn.Close()
		handler(conn, r)
	}))

	return server
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func testClientConfig(url string) ClientConfig {
	cfg := DefaultClientConfig()
	cfg.URL = url
	cfg.BufferSize = 100
	return cfg
}

// readUntilClosed keeps a server connection open until the client goes away.
func readUntilClosed(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func TestClient_Connect(t *testing.T) {
	server := mockWSServer(t, readUntilClosed)
	defer server.Close()

	client := NewClient(testClientConfig(wsURL(server)), nil)

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	if err := client.Send([]byte(`{"action":"init"}`)); err != nil {
		t.Errorf("Send on open connection: %v", err)
	}

	if err := client.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}

	if err := client.Send([]byte(`{"action":"init"}`)); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Send after Close = %v, want ErrNotConnected", err)
	}

	select {
	case <-client.Done():
	case <-time.After(time.Second):
		t.Error("Done not closed after Close")
	}
}

func TestClient_Headers(t *testing.T) {
	got := make(chan http.Header, 1)
	server := mockWSServerWithRequest(t, func(conn *websocket.Conn, r *http.Request) {
		got <- r.Header.Clone()
		readUntilClosed(conn)
	})
	defer server.Close()

	cfg := testClientConfig(wsURL(server))
	cfg.Origin = "https://rcon.example.com:4326"
	cfg.UserAgent = "rconclient/test"

	client := NewClient(cfg, nil)
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Close()

	select {
	case h := <-got:
		if h.Get("Origin") != cfg.Origin {
			t.Errorf("Origin = %q, want %q", h.Get("Origin"), cfg.Origin)
		}
		if h.Get("User-Agent") != cfg.UserAgent {
			t.Errorf("User-Agent = %q, want %q", h.Get("User-Agent"), cfg.UserAgent)
		}
	case <-time.After(time.Second):
		t.Fatal("server never saw the request")
	}
}

func TestClient_Send(t *testing.T) {
	received := make(chan []byte, 1)

	server := mockWSServer(t, func(conn *websocket.Conn) {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		received <- msg
		readUntilClosed(conn)
	})
	defer server.Close()

	client := NewClient(testClientConfig(wsURL(server)), nil)
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Close()

	testMsg := []byte(`{"action":"init"}`)
	if err := client.Send(testMsg); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	select {
	case msg := <-received:
		if string(msg) != string(testMsg) {
			t.Errorf("received %q, want %q", msg, testMsg)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for server to receive message")
	}
}

func TestClient_Messages(t *testing.T) {
	testMessages := []string{
		`{"action":"a","messageData":1}`,
		`{"action":"b","messageData":2}`,
		`{"action":"c","messageData":3}`,
	}

	server := mockWSServer(t, func(conn *websocket.Conn) {
		for _, msg := range testMessages {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		}
		readUntilClosed(conn)
	})
	defer server.Close()

	client := NewClient(testClientConfig(wsURL(server)), nil)
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Close()

	var received []string
	timeout := time.After(time.Second)

	for i := 0; i < len(testMessages); i++ {
		select {
		case msg := <-client.Messages():
			received = append(received, string(msg))
		case <-timeout:
			t.Fatalf("timeout waiting for messages, received %d of %d", len(received), len(testMessages))
		}
	}

	for i, want := range testMessages {
		if received[i] != want {
			t.Errorf("message %d: got %q, want %q", i, received[i], want)
		}
	}
}

func TestClient_NoDropWhenBufferFull(t *testing.T) {
	const total = 20

	server := mockWSServer(t, func(conn *websocket.Conn) {
		for i := 0; i < total; i++ {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"action":"x"}`)); err != nil {
				return
			}
		}
		readUntilClosed(conn)
	})
	defer server.Close()

	cfg := testClientConfig(wsURL(server))
	cfg.BufferSize = 1

	client := NewClient(cfg, nil)
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Close()

	// Let the reader fill the buffer before draining it.
	time.Sleep(50 * time.Millisecond)

	for i := 0; i < total; i++ {
		select {
		case <-client.Messages():
		case <-time.After(time.Second):
			t.Fatalf("received %d of %d messages", i, total)
		}
	}
}

func TestClient_ServerClose(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte(`{"action":"bye"}`))
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutdown"))
	})
	defer server.Close()

	client := NewClient(testClientConfig(wsURL(server)), nil)
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Close()

	select {
	case <-client.Done():
	case <-time.After(time.Second):
		t.Fatal("Done not closed after server close")
	}

	// Everything read before the close is still delivered.
	select {
	case msg := <-client.Messages():
		if string(msg) != `{"action":"bye"}` {
			t.Errorf("message = %q", msg)
		}
	default:
		t.Error("message sent before close was lost")
	}

	select {
	case err := <-client.Errors():
		if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
			t.Errorf("error = %v, want going away close", err)
		}
	default:
		t.Error("expected close error on Errors()")
	}

	if err := client.Send([]byte(`{"action":"x"}`)); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Send after server close = %v, want ErrNotConnected", err)
	}
}

func TestClient_SendNotConnected(t *testing.T) {
	client := NewClient(testClientConfig("ws://localhost:12345"), nil)

	err := client.Send([]byte("test"))
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}

func TestClient_ConnectAfterClose(t *testing.T) {
	client := NewClient(testClientConfig("ws://localhost:12345"), nil)
	client.Close()

	if err := client.Connect(context.Background()); !errors.Is(err, ErrAlreadyClosed) {
		t.Errorf("Connect after Close = %v, want ErrAlreadyClosed", err)
	}

	select {
	case <-client.Done():
	default:
		t.Error("Done should be closed for a client closed before connecting")
	}
}

func TestClient_DialFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	client := NewClient(testClientConfig(wsURL(server)), nil)
	if err := client.Connect(context.Background()); err == nil {
		t.Fatal("Connect expected error for non-websocket endpoint")
	}
}

func TestClient_DoubleClose(t *testing.T) {
	server := mockWSServer(t, readUntilClosed)
	defer server.Close()

	client := NewClient(testClientConfig(wsURL(server)), nil)
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	if err := client.Close(); err != nil {
		t.Errorf("first Close failed: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}

func TestClient_PingHandler(t *testing.T) {
	var mu sync.Mutex
	var pong string

	server := mockWSServer(t, func(conn *websocket.Conn) {
		conn.SetPongHandler(func(data string) error {
			mu.Lock()
			pong = data
			mu.Unlock()
			return nil
		})
		if err := conn.WriteControl(websocket.PingMessage, []byte("heartbeat"), time.Now().Add(time.Second)); err != nil {
			t.Logf("ping error: %v", err)
			return
		}
		readUntilClosed(conn)
	})
	defer server.Close()

	client := NewClient(testClientConfig(wsURL(server)), nil)
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Close()

	time.Sleep(200 * time.Millisecond)

	if err := client.Send([]byte(`{"action":"x"}`)); err != nil {
		t.Errorf("Send after ping: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if pong != "heartbeat" {
		t.Errorf("pong payload = %q, want %q", pong, "heartbeat")
	}
}

func TestClient_StaleConnection(t *testing.T) {
	// A server that never reads never answers pings.
	server := mockWSServer(t, func(conn *websocket.Conn) {
		time.Sleep(2 * time.Second)
	})
	defer server.Close()

	cfg := testClientConfig(wsURL(server))
	cfg.PingInterval = 20 * time.Millisecond
	cfg.PingTimeout = 50 * time.Millisecond

	client := NewClient(cfg, nil)
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Close()

	select {
	case <-client.Done():
	case <-time.After(time.Second):
		t.Fatal("stale connection was not closed")
	}

	var sawStale bool
	for len(client.Errors()) > 0 {
		if errors.Is(<-client.Errors(), ErrStaleConnection) {
			sawStale = true
		}
	}
	if !sawStale {
		t.Error("expected ErrStaleConnection on Errors()")
	}
}

func TestDefaultClientConfig(t *testing.T) {
	cfg := DefaultClientConfig()
	if cfg.PingTimeout != 60*time.Second {
		t.Errorf("PingTimeout = %v, want 60s", cfg.PingTimeout)
	}
	if cfg.PingInterval != 30*time.Second {
		t.Errorf("PingInterval = %v, want 30s", cfg.PingInterval)
	}
	if cfg.BufferSize != 256 {
		t.Errorf("BufferSize = %d, want 256", cfg.BufferSize)
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateDisconnected, "disconnected"},
		{StateConnecting, "connecting"},
		{StateOpen, "open"},
		{StateClosed, "closed"},
		{State(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
