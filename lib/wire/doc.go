// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package wire implements the length-prefixed XML protocol spoken by the
// defect-tracking replication engine.
//
// Every message on the wire is an ASCII decimal byte length immediately
// followed by a UTF-8 XML payload whose first byte is '<'. Requests are a
// single element whose tag names the operation (LOGIN, LIST_DEFECTS, ...),
// with operation arguments as attributes and defect field values as nested
// FIELD elements. Responses are STRINGS, FIELDS, DESCS, or ERROR elements.
package wire
