package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// Attributes is the free-form payload stored with a character: ability
// scores, hit points, race, background, alignment and anything else the
// client sends.
type Attributes map[string]any

// Character is a role-playing character record owned by exactly one user.
type Character struct {
	ID        int64
	UserID    int64
	Name      string
	Class     string
	Level     int
	Details   Attributes
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Flatten returns the client-facing form of the character: details are
// promoted to top-level keys and the core fields are written over them.
func (c Character) Flatten() map[string]any {
	out := make(map[string]any, len(c.Details)+7)
	for k, v := range c.Details {
		out[k] = v
	}
	out["id"] = c.ID
	out["userId"] = c.UserID
	out["name"] = c.Name
	out["class"] = c.Class
	out["level"] = c.Level
	out["createdAt"] = c.CreatedAt
	out["updatedAt"] = c.UpdatedAt
	return out
}

// DecodeAttributes parses stored details. Numbers at any depth are normalised
// with NormalizeValue so a read returns what a write stored.
func DecodeAttributes(raw []byte) (Attributes, error) {
	attrs := Attributes{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return attrs, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&attrs); err != nil {
		return nil, err
	}
	if attrs == nil {
		return Attributes{}, nil
	}
	for k, v := range attrs {
		attrs[k] = NormalizeValue(v)
	}
	return attrs, nil
}

// NormalizeValue turns a json.Number into int when it is integral and fits,
// float64 otherwise. Other values are returned unchanged.
func NormalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = NormalizeValue(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = NormalizeValue(e)
		}
		return t
	}
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return int(i)
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}
