package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// EventKind classifies a participation event. The set is closed.
type EventKind int

// Storage codes match the roster database written by the desktop app.
const (
	EventKindNonSporting EventKind = 0
	EventKindSporting    EventKind = 1
)

const (
	eventKindNonSportingTag = "NonSporting"
	eventKindSportingTag    = "Sporting"
)

// ParseEventKind converts a wire tag into an EventKind.
func ParseEventKind(tag string) (EventKind, error) {
	switch tag {
	case eventKindNonSportingTag:
		return EventKindNonSporting, nil
	case eventKindSportingTag:
		return EventKindSporting, nil
	default:
		return 0, fmt.Errorf("unknown participation event kind %q", tag)
	}
}

// Valid reports whether k is a member of the closed set.
func (k EventKind) Valid() bool {
	return k == EventKindNonSporting || k == EventKindSporting
}

// String returns the wire tag.
func (k EventKind) String() string {
	switch k {
	case EventKindNonSporting:
		return eventKindNonSportingTag
	case EventKindSporting:
		return eventKindSportingTag
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// MarshalJSON encodes the kind as its literal tag.
func (k EventKind) MarshalJSON() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid participation event kind %d", int(k))
	}
	return json.Marshal(k.String())
}

// UnmarshalJSON accepts only the literal tags.
func (k *EventKind) UnmarshalJSON(data []byte) error {
	var tag string
	if err := json.Unmarshal(data, &tag); err != nil {
		return fmt.Errorf("participation event kind must be a string: %w", err)
	}
	parsed, err := ParseEventKind(tag)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Value stores the kind as its integer code.
func (k EventKind) Value() (driver.Value, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid participation event kind %d", int(k))
	}
	return int64(k), nil
}

// Scan reads the integer code written by Value.
func (k *EventKind) Scan(src interface{}) error {
	var code int64
	switch v := src.(type) {
	case int64:
		code = v
	case int32:
		code = int64(v)
	case int:
		code = int64(v)
	case []byte:
		if _, err := fmt.Sscan(string(v), &code); err != nil {
			return fmt.Errorf("scan participation event kind: %w", err)
		}
	default:
		return fmt.Errorf("scan participation event kind: unsupported type %T", src)
	}
	kind := EventKind(code)
	if !kind.Valid() {
		return fmt.Errorf("integer value %d is not a participation event kind", code)
	}
	*k = kind
	return nil
}
