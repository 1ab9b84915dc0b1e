// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package jql builds JQL queries from replication engine inputs.
//
// The replication engine sends segment filters written against field
// and value display names in its own quoting style. [Translator]
// rewrites them into valid JQL: standard field names become field ids,
// custom field names are quoted and escaped, and named values of the
// select fields become ids. [Query] composes the full search query
// from the project scope, the modification cutoff, and a translated
// segment filter.
package jql
