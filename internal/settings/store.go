package settings

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Store gives typed access to fields across the secure and plain tiers.
type Store struct {
	secure Backend
	plain  Backend
}

// NewStore pairs the two tiers.
func NewStore(secure, plain Backend) *Store {
	return &Store{secure: secure, plain: plain}
}

func (s *Store) backend(f Field) Backend {
	if f.Secure() {
		return s.secure
	}
	return s.plain
}

// Raw returns the stored text of any field.
func (s *Store) Raw(ctx context.Context, f Field) (string, bool, error) {
	return s.backend(f).Get(ctx, f.Key())
}

// String reads a text field.
func (s *Store) String(ctx context.Context, f StringField) (string, bool, error) {
	return s.Raw(ctx, f)
}

// Int reads an integer field. A stored value that does not parse is an error.
func (s *Store) Int(ctx context.Context, f IntField) (int, bool, error) {
	raw, ok, err := s.Raw(ctx, f)
	if err != nil || !ok {
		return 0, false, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false, fmt.Errorf("settings %s: %q is not an integer", f.Key(), raw)
	}
	return n, true, nil
}

// SetString writes a text field. Empty values remove secure fields.
func (s *Store) SetString(ctx context.Context, f StringField, value string) error {
	return s.write(ctx, f, value)
}

// SetInt writes an integer field.
func (s *Store) SetInt(ctx context.Context, f IntField, value int) error {
	return s.write(ctx, f, strconv.Itoa(value))
}

// SetRaw validates raw against the field kind before writing it.
func (s *Store) SetRaw(ctx context.Context, f Field, raw string) error {
	if f.Kind() == KindInt && raw != "" {
		if _, err := strconv.Atoi(strings.TrimSpace(raw)); err != nil {
			return fmt.Errorf("settings %s expects an integer, got %q", f.Key(), raw)
		}
		raw = strings.TrimSpace(raw)
	}
	return s.write(ctx, f, raw)
}

// Clear removes a field from its tier.
func (s *Store) Clear(ctx context.Context, f Field) error {
	return s.backend(f).Remove(ctx, f.Key())
}

func (s *Store) write(ctx context.Context, f Field, value string) error {
	if f.Secure() && value == "" {
		return s.secure.Remove(ctx, f.Key())
	}
	return s.backend(f).Set(ctx, f.Key(), value)
}

// Values is a startup snapshot of every field.
type Values struct {
	strings map[string]string
	ints    map[string]int
	// Missing lists required keys that were absent or unparsable.
	Missing []string
}

// Complete reports whether all required fields were present.
func (v Values) Complete() bool { return len(v.Missing) == 0 }

// String returns a loaded text value or "".
func (v Values) String(f StringField) string { return v.strings[f.Key()] }

// Int returns a loaded integer value or 0.
func (v Values) Int(f IntField) int { return v.ints[f.Key()] }

// Has reports whether f was loaded with a usable value.
func (v Values) Has(f Field) bool {
	if f.Kind() == KindInt {
		_, ok := v.ints[f.Key()]
		return ok
	}
	_, ok := v.strings[f.Key()]
	return ok
}

// Load reads every field once. Backend errors abort; absent or malformed
// required fields are collected in Missing instead.
func (s *Store) Load(ctx context.Context, required []Field) (Values, error) {
	values := Values{strings: map[string]string{}, ints: map[string]int{}}
	for _, f := range allFields {
		switch typed := f.(type) {
		case IntField:
			raw, ok, err := s.Raw(ctx, typed)
			if err != nil {
				return Values{}, err
			}
			if !ok {
				continue
			}
			if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
				values.ints[typed.Key()] = n
			}
		case StringField:
			raw, ok, err := s.String(ctx, typed)
			if err != nil {
				return Values{}, err
			}
			if ok {
				values.strings[typed.Key()] = raw
			}
		}
	}

	for _, f := range required {
		if !values.Has(f) {
			values.Missing = append(values.Missing, f.Key())
		}
	}
	return values, nil
}
