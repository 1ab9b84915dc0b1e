// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package gateway implements the request handler and connection server
// that bridge the defect-tracking replication engine to JIRA.
//
// The replication engine connects over TCP and issues requests in the
// wire protocol (see lib/wire); the handler translates each request
// into JIRA REST calls and renders the result. A session begins with
// LOGIN, which loads the gateway configuration and builds the JIRA
// client, and ends when the engine disconnects or sends SHUTDOWN.
//
// Key exports:
//
//   - [Handler] and [Handler.Dispatch] -- request dispatch
//   - [Server] -- the single-connection TCP listener
//   - [Remote] -- the slice of the JIRA client the handler consumes
package gateway
