// Package ident provides the identifier used for products and cart entries.
//
// Catalog identifiers come in two shapes: legacy numeric ids and document-store
// string ids. ID keeps the shape as an explicit variant so that a string "1" and
// a number 1 never compare equal.
package ident

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind is the variant tag of an ID.
type Kind uint8

const (
	KindNone Kind = iota
	KindNumeric
	KindString
)

// ID is a tagged identifier. The zero value is the empty ID.
// IDs are comparable and can be used as map keys; == is variant-aware.
type ID struct {
	kind Kind
	num  int64
	str  string
}

// Numeric returns a numeric ID.
func Numeric(n int64) ID {
	return ID{kind: KindNumeric, num: n}
}

// String returns a string ID. An empty string yields the empty ID.
func String(s string) ID {
	if s == "" {
		return ID{}
	}
	return ID{kind: KindString, str: s}
}

func (id ID) Kind() Kind { return id.kind }

func (id ID) IsZero() bool { return id.kind == KindNone }

// Equal reports whether both IDs have the same variant and value.
func (id ID) Equal(other ID) bool {
	return id == other
}

// Num returns the numeric value and whether id is numeric.
func (id ID) Num() (int64, bool) {
	return id.num, id.kind == KindNumeric
}

// Str returns the string value and whether id is a string id.
func (id ID) Str() (string, bool) {
	return id.str, id.kind == KindString
}

// String renders the value for URLs and logs.
func (id ID) String() string {
	switch id.kind {
	case KindNumeric:
		return strconv.FormatInt(id.num, 10)
	case KindString:
		return id.str
	default:
		return ""
	}
}

func (id ID) MarshalJSON() ([]byte, error) {
	switch id.kind {
	case KindNumeric:
		return []byte(strconv.FormatInt(id.num, 10)), nil
	case KindString:
		return json.Marshal(id.str)
	default:
		return []byte("null"), nil
	}
}

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")):
		*id = ID{}
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("ident: decode string id: %w", err)
		}
		*id = String(s)
		return nil
	default:
		n, err := strconv.ParseInt(string(data), 10, 64)
		if err != nil {
			return fmt.Errorf("ident: decode numeric id %s: %w", data, err)
		}
		*id = Numeric(n)
		return nil
	}
}
