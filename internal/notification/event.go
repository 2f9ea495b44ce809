package notification

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// EventType is the kind of row change reported by the database webhook.
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// ChangeEvent is the payload the database sends for every row change on the
// downtime table.
type ChangeEvent struct {
	Type      EventType      `json:"type"`
	Table     string         `json:"table,omitempty"`
	Schema    string         `json:"schema,omitempty"`
	Record    map[string]any `json:"record"`
	OldRecord map[string]any `json:"old_record,omitempty"`
}

// DecodeChangeEvent reads a single JSON document from r. Only malformed JSON,
// trailing data or a null document are errors. Fields of an unexpected shape
// are tolerated: a non-string type never matches an event type and a
// non-object record is treated as empty. Numbers are kept as json.Number so
// they render exactly as sent.
func DecodeChangeEvent(r io.Reader) (ChangeEvent, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return ChangeEvent{}, fmt.Errorf("decoding change event: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return ChangeEvent{}, errors.New("decoding change event: unexpected data after JSON document")
	}
	if doc == nil {
		return ChangeEvent{}, errors.New("decoding change event: document is null")
	}

	obj, ok := doc.(map[string]any)
	if !ok {
		return ChangeEvent{}, nil
	}
	return ChangeEvent{
		Type:      EventType(typeOf(obj["type"])),
		Table:     stringOf(obj["table"]),
		Schema:    stringOf(obj["schema"]),
		Record:    objectOf(obj["record"]),
		OldRecord: objectOf(obj["old_record"]),
	}, nil
}

// typeOf returns a string type as-is and any other value as its JSON text,
// which can never equal an event type name.
func typeOf(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		if err := enc.Encode(x); err != nil {
			return fmt.Sprint(x)
		}
		return string(bytes.TrimSpace(buf.Bytes()))
	}
}

func stringOf(v any) string {
	s, _ := v.(string)
	return s
}

func objectOf(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}
