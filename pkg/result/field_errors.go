package result

import (
	"bytes"
	"encoding/json"
	"strings"
)

// FieldError is a single (field, message) validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors maps field names to one or more messages, preserving the order
// in which fields were first added and the order of messages per field.
type FieldErrors struct {
	fields   []string
	messages map[string][]string
}

// NewFieldErrors builds FieldErrors from failures in the given order.
func NewFieldErrors(failures ...FieldError) *FieldErrors {
	fe := &FieldErrors{messages: make(map[string][]string)}
	for _, f := range failures {
		fe.Add(f.Field, f.Message)
	}
	return fe
}

// Add appends message to field.
func (fe *FieldErrors) Add(field, message string) {
	if fe.messages == nil {
		fe.messages = make(map[string][]string)
	}
	if _, ok := fe.messages[field]; !ok {
		fe.fields = append(fe.fields, field)
	}
	fe.messages[field] = append(fe.messages[field], message)
}

// Merge appends every entry of other, keeping other's order.
func (fe *FieldErrors) Merge(other *FieldErrors) {
	if other == nil {
		return
	}
	for _, field := range other.fields {
		for _, msg := range other.messages[field] {
			fe.Add(field, msg)
		}
	}
}

// Get returns the messages recorded for field.
func (fe *FieldErrors) Get(field string) []string {
	if fe == nil {
		return nil
	}
	msgs := fe.messages[field]
	out := make([]string, len(msgs))
	copy(out, msgs)
	return out
}

// Fields returns field names in insertion order.
func (fe *FieldErrors) Fields() []string {
	if fe == nil {
		return nil
	}
	out := make([]string, len(fe.fields))
	copy(out, fe.fields)
	return out
}

// Len returns the number of distinct fields.
func (fe *FieldErrors) Len() int {
	if fe == nil {
		return 0
	}
	return len(fe.fields)
}

// Failures flattens the map back into ordered (field, message) pairs.
func (fe *FieldErrors) Failures() []FieldError {
	if fe == nil {
		return nil
	}
	out := make([]FieldError, 0, len(fe.fields))
	for _, field := range fe.fields {
		for _, msg := range fe.messages[field] {
			out = append(out, FieldError{Field: field, Message: msg})
		}
	}
	return out
}

// Map returns a plain map copy. Key order is lost.
func (fe *FieldErrors) Map() map[string][]string {
	out := make(map[string][]string, fe.Len())
	for _, field := range fe.Fields() {
		out[field] = fe.Get(field)
	}
	return out
}

// Clone returns a deep copy.
func (fe *FieldErrors) Clone() *FieldErrors {
	if fe == nil {
		return nil
	}
	return NewFieldErrors(fe.Failures()...)
}

func (fe *FieldErrors) String() string {
	var sb strings.Builder
	for i, field := range fe.Fields() {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(field)
		sb.WriteString(": ")
		sb.WriteString(strings.Join(fe.messages[field], ", "))
	}
	return sb.String()
}

// MarshalJSON writes a JSON object whose keys keep insertion order.
func (fe *FieldErrors) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, field := range fe.Fields() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(field)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(fe.messages[field])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object, keeping the key order of the document.
func (fe *FieldErrors) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return err
	}
	*fe = FieldErrors{messages: make(map[string][]string)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		field, _ := tok.(string)
		var msgs []string
		if err := dec.Decode(&msgs); err != nil {
			return err
		}
		for _, m := range msgs {
			fe.Add(field, m)
		}
	}
	_, err := dec.Token()
	return err
}
