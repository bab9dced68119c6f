package orderbook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func wsServer(t *testing.T, handler func(*websocket.Conn)) (*httptest.Server, string) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		handler(conn)
	}))
	return srv, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWSClientSignalsDisconnectOnServerDrop(t *testing.T) {
	srv, url := wsServer(t, func(conn *websocket.Conn) {
		conn.Close()
	})
	defer srv.Close()

	client := NewWSClient(url)
	defer client.Close()

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}

	select {
	case <-client.Disconnected():
	case <-time.After(5 * time.Second):
		t.Fatal("disconnect never signalled after server dropped the connection")
	}
}

func TestWSClientCleanCloseIsNotADisconnect(t *testing.T) {
	srv, url := wsServer(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer srv.Close()

	client := NewWSClient(url)
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	client.Close()

	// The read loop exits with an error after Close tears down the
	// connection; that must not read as a connection loss.
	select {
	case <-client.Disconnected():
		t.Fatal("clean close signalled as disconnect")
	case <-time.After(200 * time.Millisecond):
	}
}
