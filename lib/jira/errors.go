// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package jira

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// APIError represents a non-2xx response from the JIRA REST API. JIRA
// returns structured JSON error bodies with a list of general messages
// and a map of field-level errors.
type APIError struct {
	// StatusCode is the HTTP response status code.
	StatusCode int

	// Messages collects the errorMessages list and the field-level
	// errors, flattened to "field: message" strings.
	Messages []string
}

func (err *APIError) Error() string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "jira: HTTP %d", err.StatusCode)
	for _, message := range err.Messages {
		builder.WriteString(": ")
		builder.WriteString(message)
	}
	return builder.String()
}

// IsNotFound reports whether err is a JIRA API 404 Not Found response.
func IsNotFound(err error) bool {
	return ErrorStatus(err) == 404
}

// IsPermissionDenied reports whether err is a JIRA API 401 or 403
// response.
func IsPermissionDenied(err error) bool {
	status := ErrorStatus(err)
	return status == 401 || status == 403
}

// ErrorStatus returns the HTTP status code carried by err, or 0 when
// err is not an *APIError.
func ErrorStatus(err error) int {
	var apiError *APIError
	if errors.As(err, &apiError) {
		return apiError.StatusCode
	}
	return 0
}

// parseAPIError parses a JIRA API error from a status code and response
// body. Unparseable bodies are carried verbatim.
func parseAPIError(statusCode int, body []byte) *APIError {
	apiError := &APIError{StatusCode: statusCode}

	var wireError struct {
		ErrorMessages []string          `json:"errorMessages"`
		Errors        map[string]string `json:"errors"`
	}
	if json.Unmarshal(body, &wireError) == nil && (len(wireError.ErrorMessages) > 0 || len(wireError.Errors) > 0) {
		apiError.Messages = append(apiError.Messages, wireError.ErrorMessages...)
		fields := make([]string, 0, len(wireError.Errors))
		for field := range wireError.Errors {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			apiError.Messages = append(apiError.Messages, field+": "+wireError.Errors[field])
		}
	} else if trimmed := strings.TrimSpace(string(body)); trimmed != "" {
		apiError.Messages = []string{trimmed}
	}

	return apiError
}
