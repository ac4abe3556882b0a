package interp

import "math/big"

// Value is the dynamic representation of an Algol 68 value on the
// expression stack or inside a frame slot: int64 (INT/BITS), float64
// (REAL), *big.Int/*big.Float (LONG/LONG LONG INT/REAL, §4.1 LONGETY;
// this core's one call-out to the mp library's stand-in, per §9), bool
// (BOOL), rune (CHAR), string (STRING/BYTES, a simplification of the
// ROW CHAR model noted in DESIGN.md), *Ref (a name), *StructValue,
// *UnionValue, *ArrayValue, or *ProcValue. There is no reflect-based
// bridge to a host language: this core's runtime boundary (§4.5) is
// entirely internal to the interpreter, so plain Go values suffice.
type Value interface{}

// Ref is the fat reference of §3 (A68_REF): a name, tagged IsNil when
// uninitialised, carrying the scope (frame pointer) at which it became
// valid, used for the dynamic scope check (§4.5 DNS). A Ref addresses
// either a frame slot (stack-resident) or a heap Handle.
type Ref struct {
	IsNil  bool
	Scope  int
	Frame  *Frame
	Offset int
	Handle *Handle

	// Field-of-a-name addressing (§4.1 "Name of STRUCT"): a name
	// denoting one field of a struct reached through another name,
	// rather than a fresh Handle per field.
	Struct *StructValue
	Field  string

	// Element-of-a-name addressing (§4.1 "Name of ROW"): a name
	// denoting one element of an array reached through another name.
	Array *ArrayValue
	Index int
}

func (r *Ref) load() Value {
	if r.IsNil {
		return nil
	}
	if r.Struct != nil {
		return r.Struct.Fields[r.Field]
	}
	if r.Array != nil {
		return r.Array.Data[r.Index]
	}
	if r.Handle != nil {
		return r.Handle.Data
	}
	return r.Frame.data[r.Offset]
}

func (r *Ref) store(v Value) {
	if r.Struct != nil {
		r.Struct.Fields[r.Field] = v
		return
	}
	if r.Array != nil {
		r.Array.Data[r.Index] = v
		return
	}
	if r.Handle != nil {
		r.Handle.Data = v
		return
	}
	r.Frame.data[r.Offset] = v
}

// ArrayValue is the Array Descriptor of §3: dim, element mode/size,
// offsets and one Tuple per dimension; element storage is kept as a
// flat Go slice addressed by the same span arithmetic the descriptor
// describes, rather than raw bytes, since Go has no pointer arithmetic
// over untyped memory.
type ArrayValue struct {
	Dim      int
	ElemMode *Moid
	Tuples   []Tuple
	Data     []Value
	Flex     bool
}

// Tuple is one dimension's (lower, upper, shift, span) per §3.
type Tuple struct {
	Lower, Upper int
	Shift, Span  int
}

func newTuples(bounds []int) []Tuple {
	tuples := make([]Tuple, len(bounds)/2)
	span := 1
	for i := range tuples {
		lo, hi := bounds[2*i], bounds[2*i+1]
		tuples[i] = Tuple{Lower: lo, Upper: hi, Shift: lo, Span: span}
		length := hi - lo + 1
		if length < 0 {
			length = 0
		}
		span *= length
	}
	return tuples
}

func (a *ArrayValue) length() int {
	n := 1
	for _, t := range a.Tuples {
		l := t.Upper - t.Lower + 1
		if l < 0 {
			l = 0
		}
		n *= l
	}
	return n
}

// index computes the flat element offset for indices, per §3 "Array
// Descriptor": base + Σ tuple[i].span * (index[i] - tuple[i].shift).
func (a *ArrayValue) index(indices []int) (int, bool) {
	off := 0
	for i, idx := range indices {
		t := a.Tuples[i]
		if idx < t.Lower || idx > t.Upper {
			return 0, false
		}
		off += t.Span * (idx - t.Shift)
	}
	return off, true
}

// StructValue is a STOWED struct value carried by value on the
// expression stack and deep-copied on assignment (§9 "Heap reference
// copying for STOWED values").
type StructValue struct {
	Mode   *Moid
	Fields map[string]Value
}

func (s *StructValue) clone() *StructValue {
	c := &StructValue{Mode: s.Mode, Fields: make(map[string]Value, len(s.Fields))}
	for k, v := range s.Fields {
		c.Fields[k] = deepCopyValue(v)
	}
	return c
}

// UnionValue tags a stacked value with its source mode discriminator,
// per §4.3 "Coercions: Uniting".
type UnionValue struct {
	Mode  *Moid // the member mode actually held
	Value Value
}

// ProcValue is a procedure value: either a standard-environment
// builtin or a closure over a routine-text node and its captured
// static link, with an optional locale for partial parametrisation
// (§9 "Partial parametrisation").
type ProcValue struct {
	Mode     *Moid
	Node     *Node // routine text, nil for builtins
	Builtin  func(i *Interpreter, args []Value) (Value, error)
	Static   *Frame
	Locale   []LocaleSlot
}

// LocaleSlot is one (filled?, value) pair of a partial-call locale
// (§9 "Partial parametrisation").
type LocaleSlot struct {
	Filled bool
	Value  Value
}

// deepCopyValue implements Algol 68's value (not reference) copy
// semantics for STOWED values: arrays and structs are cloned,
// scalars and references are copied by value/identity respectively
// (§4.3 "Assignments": "source.has_rows decides between flat copy and
// structured copy").
func deepCopyValue(v Value) Value {
	switch t := v.(type) {
	case *big.Int:
		return new(big.Int).Set(t)
	case *big.Float:
		return new(big.Float).Set(t)
	case *StructValue:
		return t.clone()
	case *ArrayValue:
		cp := &ArrayValue{Dim: t.Dim, ElemMode: t.ElemMode, Flex: t.Flex}
		cp.Tuples = append([]Tuple(nil), t.Tuples...)
		cp.Data = make([]Value, len(t.Data))
		for i, e := range t.Data {
			cp.Data[i] = deepCopyValue(e)
		}
		return cp
	case *UnionValue:
		return &UnionValue{Mode: t.Mode, Value: deepCopyValue(t.Value)}
	default:
		return v
	}
}
