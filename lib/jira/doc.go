// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package jira is a typed client for the JIRA REST API v2.
//
// The client covers the slice of the API the gateway needs: server
// info, project and field metadata, issue CRUD, workflow transitions,
// comments, and JQL search. Authentication is HTTP basic (username and
// password) or a bearer token.
//
// Key exports:
//
//   - [Config] and [NewClient] -- client construction
//   - [Client.Issue], [Client.CreateIssue], [Client.UpdateIssue] -- issue access
//   - [Client.Search] -- paged JQL search
//   - [APIError], [IsNotFound], [ErrorStatus] -- error inspection
package jira
