// Package id defines TypeID-based identity types for till entities.
//
// Sale lines, layaway holds, audit entries and time punches each carry an
// ID with a prefix naming the entity. IDs are K-sortable (UUIDv7-based), so
// ordering by ID follows creation order, which is what makes a sale line ID
// usable as its position in the pending sale.
package id

import (
	"database/sql/driver"
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix identifies the entity type encoded in a TypeID.
type Prefix string

// Prefix constants for till entity types.
const (
	PrefixSaleLine Prefix = "sli" // Pending sale line
	PrefixLayaway  Prefix = "lay" // Layaway hold
	PrefixLogEntry Prefix = "log" // Audit log entry
	PrefixPunch    Prefix = "pch" // Time clock punch
)

// ID is the identifier type for all till entities.
// It wraps a TypeID in the format "prefix_suffix".
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receivers for UnmarshalText/Scan.
type ID struct {
	inner typeid.TypeID
	valid bool
}

// Nil is the zero-value ID.
var Nil ID

// New generates a new globally unique ID with the given prefix.
// It panics if prefix is not a valid TypeID prefix (programming error).
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}

	return ID{inner: tid, valid: true}
}

// Parse parses a TypeID string (e.g., "lay_01h2xcejqtf2nbrexx3vqjhp41")
// into an ID.
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}

	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}

	return ID{inner: tid, valid: true}, nil
}

// ParseWithPrefix parses a TypeID string and validates that its prefix
// matches the expected value.
func ParseWithPrefix(s string, expected Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}

	if parsed.Prefix() != expected {
		return Nil, fmt.Errorf("id: expected prefix %q, got %q", expected, parsed.Prefix())
	}

	return parsed, nil
}

// MustParse is like Parse but panics on error. Use for hardcoded ID values.
func MustParse(s string) ID {
	parsed, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("id: must parse %q: %v", s, err))
	}

	return parsed
}

// ──────────────────────────────────────────────────
// Typed aliases
// ──────────────────────────────────────────────────

// SaleLineID identifies a pending sale line (prefix: "sli").
type SaleLineID = ID

// LayawayID identifies a layaway hold (prefix: "lay").
type LayawayID = ID

// LogEntryID identifies an audit log entry (prefix: "log").
type LogEntryID = ID

// PunchID identifies a time clock punch (prefix: "pch").
type PunchID = ID

// NewSaleLineID generates a new sale line ID.
func NewSaleLineID() ID { return New(PrefixSaleLine) }

// NewLayawayID generates a new layaway hold ID.
func NewLayawayID() ID { return New(PrefixLayaway) }

// NewLogEntryID generates a new audit log entry ID.
func NewLogEntryID() ID { return New(PrefixLogEntry) }

// NewPunchID generates a new punch ID.
func NewPunchID() ID { return New(PrefixPunch) }

// ParseSaleLineID parses a string and validates the "sli" prefix.
func ParseSaleLineID(s string) (ID, error) { return ParseWithPrefix(s, PrefixSaleLine) }

// ParseLayawayID parses a string and validates the "lay" prefix.
func ParseLayawayID(s string) (ID, error) { return ParseWithPrefix(s, PrefixLayaway) }

// ParseLogEntryID parses a string and validates the "log" prefix.
func ParseLogEntryID(s string) (ID, error) { return ParseWithPrefix(s, PrefixLogEntry) }

// ParsePunchID parses a string and validates the "pch" prefix.
func ParsePunchID(s string) (ID, error) { return ParseWithPrefix(s, PrefixPunch) }

// ──────────────────────────────────────────────────
// ID methods
// ──────────────────────────────────────────────────

// String returns the full TypeID string representation (prefix_suffix).
// Returns an empty string for the Nil ID.
func (i ID) String() string {
	if !i.valid {
		return ""
	}

	return i.inner.String()
}

// Prefix returns the prefix component of this ID.
func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}

	return Prefix(i.inner.Prefix())
}

// IsNil reports whether this ID is the zero value.
func (i ID) IsNil() bool {
	return !i.valid
}

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	if !i.valid {
		return []byte{}, nil
	}

	return []byte(i.inner.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil

		return nil
	}

	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}

	*i = parsed

	return nil
}

// Value implements driver.Valuer for database storage.
// Returns nil for the Nil ID so that optional foreign key columns store NULL.
func (i ID) Value() (driver.Value, error) {
	if !i.valid {
		return nil, nil //nolint:nilnil // nil is the canonical NULL for driver.Valuer
	}

	return i.inner.String(), nil
}

// Scan implements sql.Scanner for database retrieval.
func (i *ID) Scan(src any) error {
	if src == nil {
		*i = Nil

		return nil
	}

	switch v := src.(type) {
	case string:
		if v == "" {
			*i = Nil

			return nil
		}

		return i.UnmarshalText([]byte(v))
	case []byte:
		if len(v) == 0 {
			*i = Nil

			return nil
		}

		return i.UnmarshalText(v)
	default:
		return fmt.Errorf("id: cannot scan %T into ID", src)
	}
}
