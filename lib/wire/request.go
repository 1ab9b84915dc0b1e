// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// Request is one decoded protocol request: the operation name, its
// attribute arguments, and any nested FIELD elements carrying defect
// field values.
type Request struct {
	Name   string
	attrs  []xml.Attr
	Fields []Field
}

// ParseRequest decodes the XML payload of a request message. The payload
// must be a single element; nested FIELD elements are collected into
// Fields and everything else below the root is ignored.
func ParseRequest(payload string) (*Request, error) {
	decoder := xml.NewDecoder(strings.NewReader(payload))
	request := &Request{}
	depth := 0
	for {
		token, err := decoder.Token()
		if err != nil {
			if request.Name != "" && depth == 0 {
				return request, nil
			}
			return nil, fmt.Errorf("parsing request: %w", err)
		}
		switch element := token.(type) {
		case xml.StartElement:
			if depth == 0 {
				request.Name = element.Name.Local
				request.attrs = element.Attr
			} else if element.Name.Local == "FIELD" {
				var field Field
				for _, attr := range element.Attr {
					switch attr.Name.Local {
					case "NAME":
						field.Name = attr.Value
					case "VALUE":
						field.Value = attr.Value
					}
				}
				request.Fields = append(request.Fields, field)
			}
			depth++
		case xml.EndElement:
			depth--
			if depth == 0 {
				return request, nil
			}
		}
	}
}

// Attr returns the value of the named attribute on the request element,
// and whether it was present. Attribute names match exactly.
func (r *Request) Attr(name string) (string, bool) {
	for _, attr := range r.attrs {
		if attr.Name.Local == name {
			return attr.Value, true
		}
	}
	return "", false
}

// FieldValue returns the VALUE of the first nested FIELD whose NAME
// matches, ignoring case.
func (r *Request) FieldValue(name string) (string, bool) {
	for _, field := range r.Fields {
		if strings.EqualFold(field.Name, name) {
			return field.Value, true
		}
	}
	return "", false
}

// FieldMap returns the nested FIELD elements as a name-to-value map,
// plus the names in document order. Later duplicates overwrite earlier
// values but keep the original position.
func (r *Request) FieldMap() (map[string]string, []string) {
	values := make(map[string]string, len(r.Fields))
	var order []string
	for _, field := range r.Fields {
		if _, ok := values[field.Name]; !ok {
			order = append(order, field.Name)
		}
		values[field.Name] = field.Value
	}
	return values, order
}
