// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/bureau-foundation/jiragw/lib/wire"
)

// Server accepts replication engine connections and feeds their
// requests to a Handler. The engine is a single client: connections
// are served one at a time, in order, and a SHUTDOWN request stops the
// server.
type Server struct {
	address string
	handler *Handler
	timeout time.Duration
	logger  *slog.Logger
}

// NewServer creates a server. The timeout is the per-request read
// deadline on an engine connection; zero means no deadline.
func NewServer(address string, handler *Handler, timeout time.Duration, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		address: address,
		handler: handler,
		timeout: timeout,
		logger:  logger,
	}
}

// Serve listens on the configured address and serves connections until
// the context is cancelled or the engine sends SHUTDOWN.
func (s *Server) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.ServeListener(ctx, listener)
}

// ServeListener serves on an already bound listener. Tests use it to
// listen on an ephemeral port.
func (s *Server) ServeListener(ctx context.Context, listener net.Listener) error {
	defer listener.Close()

	// Unblock Accept when the context is cancelled.
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	s.logger.Info("listening for replication engine", slog.String("address", listener.Addr().String()))

	deadlines, _ := listener.(interface{ SetDeadline(time.Time) error })

	for {
		// The engine polls on a tight cycle; an idle listener means it
		// is gone and the server should stop with it.
		if s.timeout > 0 && deadlines != nil {
			deadlines.SetDeadline(time.Now().Add(s.timeout))
		}
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				s.logger.Info("no engine connection before the timeout, stopping")
				return nil
			}
			s.logger.Error("accept failed", slog.String("error", err.Error()))
			continue
		}
		s.logger.Info("engine connected", slog.String("remote", conn.RemoteAddr().String()))

		shutdown := s.serveConnection(ctx, conn)
		if shutdown {
			s.logger.Info("shutdown requested")
			return nil
		}
	}
}

// serveConnection runs the request loop for one engine connection.
// Returns true when the engine asked for shutdown.
func (s *Server) serveConnection(ctx context.Context, netConn net.Conn) bool {
	defer netConn.Close()
	conn := wire.NewConn(netConn, s.logger)

	for {
		if s.timeout > 0 {
			netConn.SetReadDeadline(time.Now().Add(s.timeout))
		}

		request, err := conn.ReadRequest()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.logger.Info("engine disconnected")
				return false
			}
			if errors.Is(err, wire.ErrBadFrame) || errors.Is(err, wire.ErrBadRequest) {
				// Tell the engine before dropping the connection; a bad
				// frame leaves the stream unsynchronizable anyway.
				s.writeResponse(conn, &wire.Error{Message: "Unable to parse the request."})
				return false
			}
			s.logger.Warn("read failed", slog.String("error", err.Error()))
			return false
		}

		response, shutdown := s.handler.Dispatch(ctx, request)
		if !s.writeResponse(conn, response) {
			return shutdown
		}
		if shutdown {
			return true
		}
	}
}

// writeResponse writes one response, reporting success. Write failures
// end the connection; the engine will reconnect and retry.
func (s *Server) writeResponse(conn *wire.Conn, response wire.Response) bool {
	if err := conn.WriteResponse(response); err != nil {
		s.logger.Warn("write failed", slog.String("error", err.Error()))
		return false
	}
	return true
}
