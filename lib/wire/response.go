// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"strconv"
	"strings"
)

// Access levels reported in field descriptors. The values are part of the
// wire protocol and are rendered as decimal digits in the ACCESS attribute.
const (
	AccessReadWrite = 0
	AccessReadOnly  = 1
	AccessModDate   = 2
	AccessModUser   = 3
	AccessDefectID  = 4
)

// Field types reported in field descriptors.
const (
	TypeWord   = "WORD"
	TypeText   = "TEXT"
	TypeDate   = "DATE"
	TypeLine   = "LINE"
	TypeFix    = "FIX"
	TypeSelect = "SELECT"
)

// Response is a protocol message that renders itself as XML. The rendered
// form carries no length prefix; Conn.WriteResponse adds it.
type Response interface {
	appendXML(b *strings.Builder)
}

// Render returns the XML text of a response.
func Render(response Response) string {
	var b strings.Builder
	response.appendXML(&b)
	return b.String()
}

// Strings is an ordered set of string values rendered as a STRINGS element.
// Adding a value already present has no effect; insertion order is kept.
type Strings struct {
	values []string
	seen   map[string]struct{}
}

// NewStrings creates a Strings response holding the given values.
func NewStrings(values ...string) *Strings {
	response := &Strings{seen: make(map[string]struct{})}
	for _, value := range values {
		response.Add(value)
	}
	return response
}

// Add appends a value, ignoring duplicates.
func (s *Strings) Add(value string) {
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	if _, ok := s.seen[value]; ok {
		return
	}
	s.seen[value] = struct{}{}
	s.values = append(s.values, value)
}

// Values returns the contained values in insertion order.
func (s *Strings) Values() []string {
	return s.values
}

// Empty reports whether the response holds no values.
func (s *Strings) Empty() bool {
	return len(s.values) == 0
}

func (s *Strings) appendXML(b *strings.Builder) {
	b.WriteString("<STRINGS>")
	for _, value := range s.values {
		b.WriteString(`<STRING VALUE="`)
		b.WriteString(EscapeXML(value))
		b.WriteString(`" />`)
	}
	b.WriteString("</STRINGS>")
}

// Field is a NAME/VALUE pair rendered as a FIELD element.
type Field struct {
	Name  string
	Value string
}

func (f Field) appendXML(b *strings.Builder) {
	b.WriteString(`<FIELD NAME="`)
	b.WriteString(EscapeXML(f.Name))
	b.WriteString(`" VALUE="`)
	b.WriteString(EscapeXML(f.Value))
	b.WriteString(`" />`)
}

// Fields is a list of FIELD elements wrapped in a FIELDS element.
type Fields []Field

func (fields Fields) appendXML(b *strings.Builder) {
	b.WriteString("<FIELDS>")
	for _, field := range fields {
		field.appendXML(b)
	}
	b.WriteString("</FIELDS>")
}

// Desc describes one defect field: its name, access level, type, and (for
// SELECT fields) the allowed values.
type Desc struct {
	Name   string
	Access int
	Type   string
	Values *Strings
}

func (d Desc) appendXML(b *strings.Builder) {
	b.WriteString(`<DESC NAME="`)
	b.WriteString(EscapeXML(d.Name))
	b.WriteString(`" ACCESS="`)
	b.WriteString(strconv.Itoa(d.Access))
	b.WriteString(`" TYPE="`)
	b.WriteString(d.Type)
	b.WriteString(`">`)
	if d.Values != nil && !d.Values.Empty() {
		d.Values.appendXML(b)
	}
	b.WriteString("</DESC>")
}

// Descs is a list of DESC elements wrapped in a DESCS element.
type Descs []Desc

func (descs Descs) appendXML(b *strings.Builder) {
	b.WriteString("<DESCS>")
	for _, desc := range descs {
		desc.appendXML(b)
	}
	b.WriteString("</DESCS>")
}

// Error is a failure report sent in place of a normal response. Continue
// tells the replication engine whether it may keep issuing requests on
// this connection.
type Error struct {
	Message  string
	Continue bool
}

func (e Error) appendXML(b *strings.Builder) {
	b.WriteString(`<ERROR CONTINUE="`)
	if e.Continue {
		b.WriteString("1")
	} else {
		b.WriteString("0")
	}
	b.WriteString(`" MESSAGE="`)
	b.WriteString(EscapeXML(e.Message))
	b.WriteString(`" />`)
}

// EscapeXML escapes the five XML metacharacters for use in attribute
// values. The single quote uses the numeric reference, matching what the
// replication engine expects.
func EscapeXML(text string) string {
	var b strings.Builder
	for _, r := range text {
		switch r {
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\'':
			b.WriteString("&#039;")
		case '&':
			b.WriteString("&amp;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
