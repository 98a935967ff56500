// Package template implements the parsing template: the declarative
// selector that controls which fields a Reader constructs columns for and
// materializes into records (spec §4.6).
package template

import "github.com/gbamio/gbam/field"

// Template is a bit-per-field active-field selector.
//
// The zero value is a valid, empty Template. Template is not safe for
// concurrent use; callers that share one across goroutines must synchronize
// externally.
type Template struct {
	active [1]uint32 // bitset over field.Field, 19 fields fit in one uint32
}

// New returns a Template with the given fields set active. The index-field
// invariant (see Set) applies to each.
func New(fields ...field.Field) *Template {
	t := &Template{}
	for _, f := range fields {
		t.Set(f, true)
	}

	return t
}

// All returns a Template with every field in the closed catalog active.
func All() *Template {
	t := &Template{}
	for _, f := range field.All() {
		t.set(f, true)
	}

	return t
}

// Set activates or deactivates f.
//
// Invariant (spec §4.6): activating a variable field V also activates V's
// index field, since a variable column cannot be read without it. Since
// each variable field in this catalog has its own private index field,
// deactivating V deactivates its index field symmetrically.
func (t *Template) Set(f field.Field, on bool) {
	t.set(f, on)

	props := f.Properties()
	if props.Variable {
		if on {
			t.set(props.IndexField, true)
		} else {
			t.set(props.IndexField, false)
		}
	}
}

func (t *Template) set(f field.Field, on bool) {
	bit := uint32(1) << uint(f)
	if on {
		t.active[0] |= bit
	} else {
		t.active[0] &^= bit
	}
}

// IsActive reports whether f is currently active.
func (t *Template) IsActive(f field.Field) bool {
	return t.active[0]&(uint32(1)<<uint(f)) != 0
}

// Clear deactivates every field.
func (t *Template) Clear() {
	t.active[0] = 0
}

// ActiveFields returns every active field, including implicitly-activated
// index fields, in catalog order. This is what the Reader constructs
// columns for.
func (t *Template) ActiveFields() []field.Field {
	var out []field.Field
	for _, f := range field.All() {
		if t.IsActive(f) {
			out = append(out, f)
		}
	}

	return out
}

// ActiveDataFields returns every active field that is not a synthetic index
// field. This is what the Reader materializes into a Record; it differs
// from ActiveFields only by the implicitly-activated index fields (spec
// §4.6).
func (t *Template) ActiveDataFields() []field.Field {
	var out []field.Field
	for _, f := range field.All() {
		if t.IsActive(f) && !f.Properties().IsIndex {
			out = append(out, f)
		}
	}

	return out
}

// Clone returns an independent copy of t.
func (t *Template) Clone() *Template {
	c := *t
	return &c
}
