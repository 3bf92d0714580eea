// File: symbols.go
// Title: Symbol Table
// Description: Maps variable addresses (class + index) to values for the duration
//              of one program run. Unset addresses read as scalar zero and are not
//              recorded.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial implementation

package symbols

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/msto63/kinematics/foundation/kinematic/value"
)

// Class is one of the four address classes
type Class byte

const (
	ClassP Class = 'P'
	ClassQ Class = 'Q'
	ClassI Class = 'I'
	ClassM Class = 'M'
)

// ParseClass converts a variable token text into a Class
func ParseClass(s string) (Class, bool) {
	if len(s) != 1 {
		return 0, false
	}
	switch c := Class(s[0]); c {
	case ClassP, ClassQ, ClassI, ClassM:
		return c, true
	}
	return 0, false
}

func (c Class) String() string { return string(rune(c)) }

// Address identifies a variable
type Address struct {
	Class Class
	Index int
}

// Key renders the address as used in binding maps, e.g. "P12"
func (a Address) Key() string {
	return a.Class.String() + strconv.Itoa(a.Index)
}

func (a Address) String() string { return a.Key() }

// ParseAddress parses keys like "q12" or "P4805"
func ParseAddress(key string) (Address, error) {
	key = strings.ToUpper(strings.TrimSpace(key))
	if len(key) < 2 {
		return Address{}, fmt.Errorf("invalid address %q", key)
	}
	class, ok := ParseClass(key[:1])
	if !ok {
		return Address{}, fmt.Errorf("invalid address class in %q", key)
	}
	for i := 1; i < len(key); i++ {
		if key[i] < '0' || key[i] > '9' {
			return Address{}, fmt.Errorf("invalid address index in %q", key)
		}
	}
	index, err := strconv.Atoi(key[1:])
	if err != nil {
		return Address{}, fmt.Errorf("invalid address index in %q: %w", key, err)
	}
	return Address{Class: class, Index: index}, nil
}

// Table holds the variables of one run. It is not safe for concurrent use.
type Table struct {
	values map[string]value.Value
}

// NewTable creates an empty table
func NewTable() *Table {
	return &Table{values: make(map[string]value.Value)}
}

// LoadFrom replaces the table content with a copy of vars
func (t *Table) LoadFrom(vars map[string]value.Value) {
	t.values = make(map[string]value.Value, len(vars))
	for k, v := range vars {
		t.values[k] = v
	}
}

// Get returns the value at class/index or scalar zero when unset
func (t *Table) Get(class Class, index int) value.Value {
	if v, ok := t.values[Address{Class: class, Index: index}.Key()]; ok {
		return v
	}
	return value.Zero
}

// Lookup returns the value at addr and whether it is set
func (t *Table) Lookup(addr Address) (value.Value, bool) {
	v, ok := t.values[addr.Key()]
	return v, ok
}

// Set stores v at class/index
func (t *Table) Set(class Class, index int, v value.Value) {
	t.values[Address{Class: class, Index: index}.Key()] = v
}

// Snapshot returns a copy of all bindings
func (t *Table) Snapshot() map[string]value.Value {
	out := make(map[string]value.Value, len(t.values))
	for k, v := range t.values {
		out[k] = v
	}
	return out
}

// Len returns the number of bindings
func (t *Table) Len() int { return len(t.values) }
