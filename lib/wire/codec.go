// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
)

// ErrBadFrame reports a message that did not start with a decimal length
// prefix. The connection cannot be resynchronized after this.
var ErrBadFrame = errors.New("message does not start with a length prefix")

// ErrBadRequest reports a correctly framed payload that did not parse
// as a request element.
var ErrBadRequest = errors.New("request payload is not a well-formed element")

// Conn frames requests and responses over a byte stream. It is not safe
// for concurrent use.
type Conn struct {
	reader *bufio.Reader
	writer io.Writer
	logger *slog.Logger
}

// NewConn wraps a byte stream. A nil logger means slog.Default().
func NewConn(rw io.ReadWriter, logger *slog.Logger) *Conn {
	if logger == nil {
		logger = slog.Default()
	}
	return &Conn{
		reader: bufio.NewReader(rw),
		writer: rw,
		logger: logger,
	}
}

// ReadRequest reads one length-prefixed request from the stream and
// parses it. io.EOF before any prefix byte means the peer closed the
// connection cleanly. A missing length prefix yields ErrBadFrame. A
// payload shorter than its declared length is logged and parsed as-is.
func (c *Conn) ReadRequest() (*Request, error) {
	length := 0
	digits := 0
	for {
		b, err := c.reader.ReadByte()
		if err != nil {
			if err == io.EOF && digits == 0 {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("reading length prefix: %w", err)
		}
		if b == '<' {
			if digits == 0 {
				return nil, ErrBadFrame
			}
			break
		}
		if b < '0' || b > '9' {
			return nil, ErrBadFrame
		}
		length = length*10 + int(b-'0')
		digits++
	}

	// The '<' already consumed counts toward the declared length.
	if length < 1 {
		length = 1
	}
	payload := make([]byte, length)
	payload[0] = '<'
	read, err := io.ReadFull(c.reader, payload[1:])
	if err != nil {
		if err != io.ErrUnexpectedEOF && err != io.EOF {
			return nil, fmt.Errorf("reading payload: %w", err)
		}
		c.logger.Warn("short request payload",
			slog.String("detail", fmt.Sprintf("Expected message of size: %d but received: %d", length, read+1)))
		payload = payload[:read+1]
	}

	c.logger.Debug("request received", slog.String("payload", redactPassword(string(payload))))
	request, err := ParseRequest(string(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return request, nil
}

// WriteResponse renders a response and writes it with its length prefix.
func (c *Conn) WriteResponse(response Response) error {
	payload := Render(response)
	c.logger.Debug("response sent", slog.String("payload", payload))
	if _, err := io.WriteString(c.writer, strconv.Itoa(len(payload))); err != nil {
		return fmt.Errorf("writing length prefix: %w", err)
	}
	if _, err := io.WriteString(c.writer, payload); err != nil {
		return fmt.Errorf("writing payload: %w", err)
	}
	return nil
}

var passwordAttr = regexp.MustCompile(`JIRA_PASSWORD="[^"]*"`)

// redactPassword hides the password attribute of LOGIN requests in
// traffic logs.
func redactPassword(payload string) string {
	return passwordAttr.ReplaceAllString(payload, `JIRA_PASSWORD="****"`)
}
