// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the gateway.
//
// Configuration is loaded from a single file passed via the --config
// flag (via [LoadFile]). There are no fallbacks, no ~/.config
// discovery, and no automatic file search. This ensures deterministic,
// auditable configuration with no hidden overrides.
//
// The file has three sections:
//
//   - custom_fields -- the JIRA custom fields to replicate, each with
//     the access level and type reported to the replication engine
//   - workflows -- the workflow graph used to drive status transitions,
//     since the REST API does not expose workflow definitions
//   - handling -- ignored projects, the query style, user name styles,
//     and timeouts
//
// Key exports:
//
//   - [Config] -- the full configuration
//   - [Default] -- returns a Config with default handling values
//   - [LoadFile] -- the single entry point for loading
package config
