package stackitem

import (
	"fmt"
	"math/big"
)

// Array is an ordered, mutable sequence of items, compared by reference.
type Array struct {
	Items []Item
}

func NewArray(items []Item) *Array {
	return &Array{Items: append([]Item(nil), items...)}
}

func (a *Array) Type() Type { return TypeArray }

func (a *Array) Bytes() ([]byte, error) {
	return nil, fmt.Errorf("%w: Array has no byte representation", ErrInvalidConversion)
}

func (a *Array) BigInt() (*big.Int, error) {
	return nil, fmt.Errorf("%w: Array has no integer representation", ErrInvalidConversion)
}

func (a *Array) Bool() bool { return true }

// Equals is reference identity for Array — only Struct gets deep equality.
func (a *Array) Equals(other Item) bool {
	o, ok := other.(*Array)
	if !ok {
		return false
	}
	return a == o
}

func (a *Array) String() string { return fmt.Sprintf("Array(len=%d)", len(a.Items)) }

// Struct is an ordered, mutable sequence of items compared by deep,
// recursive field equality; the recursion depth is not bounded.
type Struct struct {
	Items []Item
}

func NewStruct(items []Item) *Struct {
	return &Struct{Items: append([]Item(nil), items...)}
}

func (s *Struct) Type() Type { return TypeStruct }

func (s *Struct) Bytes() ([]byte, error) {
	return nil, fmt.Errorf("%w: Struct has no byte representation", ErrInvalidConversion)
}

func (s *Struct) BigInt() (*big.Int, error) {
	return nil, fmt.Errorf("%w: Struct has no integer representation", ErrInvalidConversion)
}

func (s *Struct) Bool() bool { return true }

// Clone returns a shallow copy of the Struct with its own Items slice — used
// by opcodes that push a Struct by value rather than by reference.
func (s *Struct) Clone() *Struct {
	return &Struct{Items: append([]Item(nil), s.Items...)}
}

// Equals performs field-by-field deep comparison; two Structs with differing
// lengths, or any differing field, are unequal. Nested Structs recurse;
// nested Arrays/Maps still compare by reference as usual.
func (s *Struct) Equals(other Item) bool {
	o, ok := other.(*Struct)
	if !ok {
		return false
	}
	if s == o {
		return true
	}
	if len(s.Items) != len(o.Items) {
		return false
	}
	for i := range s.Items {
		if !s.Items[i].Equals(o.Items[i]) {
			return false
		}
	}
	return true
}

func (s *Struct) String() string { return fmt.Sprintf("Struct(len=%d)", len(s.Items)) }

// mapKey is the normalized form a Map uses to index entries — only
// primitive item types are valid map keys.
type mapKey string

func normalizeKey(k Item) (mapKey, error) {
	switch k.Type() {
	case TypeInteger, TypeBoolean, TypeByteString, TypeBuffer:
		b, err := k.Bytes()
		if err != nil {
			return "", err
		}
		return mapKey(fmt.Sprintf("%d:%x", k.Type(), b)), nil
	default:
		return "", fmt.Errorf("%w: type %s is not a valid map key", ErrInvalidConversion, k.Type())
	}
}

// Map is an insertion-ordered key/value store keyed by primitive items.
type Map struct {
	keys   []Item
	values map[mapKey]Item
	order  map[mapKey]int
}

func NewMap() *Map {
	return &Map{values: make(map[mapKey]Item), order: make(map[mapKey]int)}
}

func (m *Map) Type() Type { return TypeMap }

func (m *Map) Bytes() ([]byte, error) {
	return nil, fmt.Errorf("%w: Map has no byte representation", ErrInvalidConversion)
}

func (m *Map) BigInt() (*big.Int, error) {
	return nil, fmt.Errorf("%w: Map has no integer representation", ErrInvalidConversion)
}

func (m *Map) Bool() bool { return true }

func (m *Map) Equals(other Item) bool {
	o, ok := other.(*Map)
	if !ok {
		return false
	}
	return m == o
}

func (m *Map) String() string { return fmt.Sprintf("Map(len=%d)", len(m.keys)) }

// Set inserts or overwrites the value for key, preserving original insertion
// order on overwrite.
func (m *Map) Set(key, value Item) error {
	nk, err := normalizeKey(key)
	if err != nil {
		return err
	}
	if _, exists := m.values[nk]; !exists {
		m.order[nk] = len(m.keys)
		m.keys = append(m.keys, key)
	}
	m.values[nk] = value
	return nil
}

// Get returns the value stored under key, if present.
func (m *Map) Get(key Item) (Item, bool, error) {
	nk, err := normalizeKey(key)
	if err != nil {
		return nil, false, err
	}
	v, ok := m.values[nk]
	return v, ok, nil
}

// Delete removes key, compacting the insertion-order slice.
func (m *Map) Delete(key Item) error {
	nk, err := normalizeKey(key)
	if err != nil {
		return err
	}
	idx, ok := m.order[nk]
	if !ok {
		return nil
	}
	delete(m.values, nk)
	delete(m.order, nk)
	m.keys = append(m.keys[:idx], m.keys[idx+1:]...)
	for k, i := range m.order {
		if i > idx {
			m.order[k] = i - 1
		}
	}
	return nil
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []Item { return append([]Item(nil), m.keys...) }

// Len reports the number of entries.
func (m *Map) Len() int { return len(m.keys) }

// Pointer references an instruction offset within a script, produced by the
// PUSHA opcode.
type Pointer struct {
	ScriptHash [20]byte
	Position   int
}

func NewPointer(scriptHash [20]byte, position int) *Pointer {
	return &Pointer{ScriptHash: scriptHash, Position: position}
}

func (p *Pointer) Type() Type { return TypePointer }

func (p *Pointer) Bytes() ([]byte, error) {
	return nil, fmt.Errorf("%w: Pointer has no byte representation", ErrInvalidConversion)
}

func (p *Pointer) BigInt() (*big.Int, error) {
	return nil, fmt.Errorf("%w: Pointer has no integer representation", ErrInvalidConversion)
}

func (p *Pointer) Bool() bool { return true }

func (p *Pointer) Equals(other Item) bool {
	o, ok := other.(*Pointer)
	if !ok {
		return false
	}
	return p.ScriptHash == o.ScriptHash && p.Position == o.Position
}

func (p *Pointer) String() string {
	return fmt.Sprintf("Pointer(script=%x, pos=%d)", p.ScriptHash, p.Position)
}

// InteropInterface wraps an opaque host object (an iterator, a native
// contract handle) that only the interop layer that produced it knows how to
// use; the VM proper treats it as an unconvertible leaf value.
type InteropInterface struct {
	Payload any
}

func NewInteropInterface(payload any) *InteropInterface {
	return &InteropInterface{Payload: payload}
}

func (ii *InteropInterface) Type() Type { return TypeInteropInterface }

func (ii *InteropInterface) Bytes() ([]byte, error) {
	return nil, fmt.Errorf("%w: InteropInterface has no byte representation", ErrInvalidConversion)
}

func (ii *InteropInterface) BigInt() (*big.Int, error) {
	return nil, fmt.Errorf("%w: InteropInterface has no integer representation", ErrInvalidConversion)
}

func (ii *InteropInterface) Bool() bool { return true }

func (ii *InteropInterface) Equals(other Item) bool {
	o, ok := other.(*InteropInterface)
	if !ok {
		return false
	}
	return ii == o
}

func (ii *InteropInterface) String() string { return fmt.Sprintf("InteropInterface(%T)", ii.Payload) }
