// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"testing"
	"time"
)

// startTestServer runs a server on an ephemeral port and returns the
// dial address and the Serve result channel.
func startTestServer(t *testing.T, ctx context.Context) (string, chan error) {
	t.Helper()
	handler := NewHandler(HandlerOptions{Config: testConfig(), Logger: discardLogger()})
	server := NewServer("127.0.0.1:0", handler, 5*time.Second, discardLogger())

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- server.ServeListener(ctx, listener) }()
	return listener.Addr().String(), done
}

func sendFrame(t *testing.T, conn net.Conn, payload string) {
	t.Helper()
	if _, err := fmt.Fprintf(conn, "%d%s", len(payload), payload); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func readFrame(t *testing.T, reader *bufio.Reader) string {
	t.Helper()
	length := 0
	for {
		b, err := reader.ReadByte()
		if err != nil {
			t.Fatalf("read prefix: %v", err)
		}
		if b == '<' {
			break
		}
		digit, err := strconv.Atoi(string(b))
		if err != nil {
			t.Fatalf("bad prefix byte %q", b)
		}
		length = length*10 + digit
	}
	payload := make([]byte, length)
	payload[0] = '<'
	for read := 1; read < length; {
		n, err := reader.Read(payload[read:])
		if err != nil {
			t.Fatalf("read payload: %v", err)
		}
		read += n
	}
	return string(payload)
}

func TestServerPingAndShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	address, done := startTestServer(t, ctx)

	conn, err := net.Dial("tcp", address)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	reader := bufio.NewReader(conn)

	sendFrame(t, conn, "<PING/>")
	if got := readFrame(t, reader); got != `<STRINGS><STRING VALUE="PONG" /></STRINGS>` {
		t.Errorf("ping response = %s", got)
	}

	sendFrame(t, conn, "<SHUTDOWN/>")
	if got := readFrame(t, reader); got != `<STRINGS><STRING VALUE="CLOSING" /></STRINGS>` {
		t.Errorf("shutdown response = %s", got)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after SHUTDOWN")
	}
}

func TestServerRejectsUnframedRequest(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	address, done := startTestServer(t, ctx)

	conn, err := net.Dial("tcp", address)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	reader := bufio.NewReader(conn)

	sendFrame(t, conn, "garbage")
	want := `<ERROR CONTINUE="0" MESSAGE="Unable to parse the request." />`
	if got := readFrame(t, reader); got != want {
		t.Errorf("got %s, want %s", got, want)
	}

	// The connection is dropped but the server keeps accepting.
	next, err := net.Dial("tcp", address)
	if err != nil {
		t.Fatalf("dial after bad frame: %v", err)
	}
	defer next.Close()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop on cancel")
	}
}

func TestServerRepliesToUnparseablePayload(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	address, done := startTestServer(t, ctx)

	conn, err := net.Dial("tcp", address)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	reader := bufio.NewReader(conn)

	// Framed correctly, but the payload is not a complete element.
	sendFrame(t, conn, "<bad")
	want := `<ERROR CONTINUE="0" MESSAGE="Unable to parse the request." />`
	if got := readFrame(t, reader); got != want {
		t.Errorf("got %s, want %s", got, want)
	}

	// The connection is dropped but the server keeps accepting.
	next, err := net.Dial("tcp", address)
	if err != nil {
		t.Fatalf("dial after bad payload: %v", err)
	}
	defer next.Close()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop on cancel")
	}
}

func TestServerStopsWhenNoEngineConnects(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	handler := NewHandler(HandlerOptions{Config: testConfig(), Logger: discardLogger()})
	server := NewServer("127.0.0.1:0", handler, 200*time.Millisecond, discardLogger())

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- server.ServeListener(ctx, listener) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ServeListener returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after the accept timeout")
	}
}

func TestServerSurvivesDisconnect(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	address, done := startTestServer(t, ctx)

	first, err := net.Dial("tcp", address)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	first.Close()

	second, err := net.Dial("tcp", address)
	if err != nil {
		t.Fatalf("dial after disconnect: %v", err)
	}
	defer second.Close()
	reader := bufio.NewReader(second)

	sendFrame(t, second, "<PING/>")
	if got := readFrame(t, reader); got != `<STRINGS><STRING VALUE="PONG" /></STRINGS>` {
		t.Errorf("ping response = %s", got)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop on cancel")
	}
}
