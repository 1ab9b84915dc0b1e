// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/jiragw/lib/workflow"
)

// Field access levels accepted in custom field declarations.
const (
	AccessReadWrite = "RW"
	AccessReadOnly  = "RO"
)

// Field types accepted in custom field declarations.
var fieldTypes = []string{"WORD", "LINE", "TEXT", "DATE", "SELECT"}

// User name styles accepted in handling.user_styles.
var userStyles = []string{"name", "email", "emailshort", "displayname"}

// CustomField declares a JIRA custom field the gateway replicates, with
// the access level and type it reports to the replication engine.
// Options lists the allowed values of SELECT fields.
type CustomField struct {
	Name    string   `yaml:"name"`
	Access  string   `yaml:"access"`
	Type    string   `yaml:"type"`
	Options []string `yaml:"options,omitempty"`
}

// HandlingConfig holds request handling knobs.
type HandlingConfig struct {
	// IgnoreProjects lists project keys whose issues are dropped from
	// query results.
	IgnoreProjects []string `yaml:"ignore_projects,omitempty"`

	// QueryStyle selects the query strategy. The value "2014.1" keeps
	// the per-project query behavior of older replication engines.
	QueryStyle string `yaml:"query_style,omitempty"`

	// UserStyles orders the attributes tried when rendering a JIRA
	// user as a string. Values: name, email, emailshort, displayname.
	UserStyles []string `yaml:"user_styles,omitempty"`

	// SocketTimeoutSeconds is the per-request read deadline on the
	// replication engine connection.
	SocketTimeoutSeconds int `yaml:"socket_timeout_seconds"`

	// RequestTimeoutSeconds bounds a single JIRA REST call.
	RequestTimeoutSeconds int `yaml:"request_timeout_seconds"`

	// ConnectionTimeoutSeconds bounds establishing a connection to the
	// JIRA server.
	ConnectionTimeoutSeconds int `yaml:"connection_timeout_seconds"`
}

// Config is the full gateway configuration.
type Config struct {
	CustomFields []CustomField       `yaml:"custom_fields,omitempty"`
	Workflows    []workflow.Workflow `yaml:"workflows"`
	Handling     HandlingConfig      `yaml:"handling"`
}

// Default returns the default configuration. These defaults are the
// base the config file is merged onto; the file itself is required
// because the workflow graph cannot be guessed.
func Default() *Config {
	return &Config{
		Handling: HandlingConfig{
			UserStyles:               []string{"name", "email", "emailshort", "displayname"},
			SocketTimeoutSeconds:     30,
			RequestTimeoutSeconds:    60,
			ConnectionTimeoutSeconds: 30,
		},
	}
}

// LoadFile loads and validates configuration from a file path.
//
// The config file is the single source of truth. Environment variables
// do not override config values.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Workflows) == 0 {
		errs = append(errs, fmt.Errorf("at least one workflow is required"))
	}
	if err := c.WorkflowSet().Validate(); err != nil {
		errs = append(errs, err)
	}

	for _, field := range c.CustomFields {
		if field.Name == "" {
			errs = append(errs, fmt.Errorf("custom field with empty name"))
		}
		if field.Access != AccessReadWrite && field.Access != AccessReadOnly {
			errs = append(errs, fmt.Errorf("custom field %q: access must be RW or RO", field.Name))
		}
		if !contains(fieldTypes, field.Type) {
			errs = append(errs, fmt.Errorf("custom field %q: type must be one of: %v", field.Name, fieldTypes))
		}
	}

	for _, style := range c.Handling.UserStyles {
		if !contains(userStyles, style) {
			errs = append(errs, fmt.Errorf("handling.user_styles: unknown style %q, must be one of: %v", style, userStyles))
		}
	}

	if c.Handling.SocketTimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("handling.socket_timeout_seconds must be positive"))
	}
	if c.Handling.RequestTimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("handling.request_timeout_seconds must be positive"))
	}
	if c.Handling.ConnectionTimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("handling.connection_timeout_seconds must be positive"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// WorkflowSet returns the configured workflows as a workflow.Set.
func (c *Config) WorkflowSet() *workflow.Set {
	return &workflow.Set{Workflows: c.Workflows}
}

// FindCustomField returns the declaration for the named custom field,
// ignoring case and surrounding whitespace.
func (c *Config) FindCustomField(name string) (*CustomField, bool) {
	trimmed := strings.TrimSpace(name)
	for i := range c.CustomFields {
		if strings.EqualFold(strings.TrimSpace(c.CustomFields[i].Name), trimmed) {
			return &c.CustomFields[i], true
		}
	}
	return nil, false
}

// IsIgnoredProject reports whether a project key is excluded from query
// results.
func (c *Config) IsIgnoredProject(key string) bool {
	for _, ignored := range c.Handling.IgnoreProjects {
		if strings.EqualFold(strings.TrimSpace(ignored), strings.TrimSpace(key)) {
			return true
		}
	}
	return false
}

// LegacyQueryStyle reports whether the per-project query strategy of
// the 2014.1 replication engine is selected.
func (c *Config) LegacyQueryStyle() bool {
	return c.Handling.QueryStyle == "2014.1"
}

// SocketTimeout returns the replication connection read deadline.
func (c *Config) SocketTimeout() time.Duration {
	return time.Duration(c.Handling.SocketTimeoutSeconds) * time.Second
}

// RequestTimeout returns the JIRA REST call deadline.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Handling.RequestTimeoutSeconds) * time.Second
}

// ConnectionTimeout returns the JIRA connection deadline.
func (c *Config) ConnectionTimeout() time.Duration {
	return time.Duration(c.Handling.ConnectionTimeoutSeconds) * time.Second
}

// AccessLevel converts a custom field access declaration to the numeric
// level used in field descriptors: 0 for RW, 1 for RO.
func (f *CustomField) AccessLevel() int {
	if f.Access == AccessReadOnly {
		return 1
	}
	return 0
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
