// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"strings"

	"github.com/bureau-foundation/jiragw/lib/jira"
)

// userName renders a JIRA user as a single string for the replication
// engine, trying the configured styles in order and returning the
// first that yields a value.
//
// Styles: "name" is the account name, "email" the full address,
// "emailshort" the address truncated before the @ sign, and
// "displayname" the full display name.
func userName(styles []string, user *jira.User) string {
	if user == nil {
		return ""
	}
	for _, style := range styles {
		var value string
		switch style {
		case "name":
			value = user.Name
		case "email":
			value = user.EmailAddress
		case "emailshort":
			value = shortEmail(user.EmailAddress)
		case "displayname":
			value = user.DisplayName
		}
		if value != "" {
			return value
		}
	}
	return ""
}

// shortEmail truncates an address before the @ sign. Addresses where
// the @ sign leads are returned whole since there is nothing in front
// of it worth keeping.
func shortEmail(address string) string {
	atSign := strings.Index(address, "@")
	if atSign > 1 {
		return address[:atSign]
	}
	return address
}
