package interp

import "fmt"

// runtime.go is the contract the interpreter core exposes to the code
// that would sit outside it (transput, a debugger, a listing
// generator): stack access, descriptor conversion, heap generation, the
// NIL constant, event dispatch and the scope assertion, generalising
// internal/transput boundary (interp/interp.go's
// Exports/binPkg bridge) from reflect.Value plumbing to this core's own
// Value representation. Transput itself (formatted and unformatted I/O
// beyond print/new_line) is an external collaborator per §1 and is not
// implemented here; these entry points are its attachment surface.

// Push and Pop give an external caller access to the same expression
// stack the generator uses for bound evaluation (§4.5 "Stack
// manipulation"); most of this core's own propagators pass Values
// directly instead; the stack is exercised internally only while
// generating rows.
func (i *Interpreter) Push(v Value) { i.exprPush(v) }
func (i *Interpreter) Pop() Value    { return i.exprPop() }
func (i *Interpreter) StackDepth() int { return len(i.exprStack) }

// Nil is the NIL constant of §4.5: a name that is valid (IsNil true) at
// no scope, matching propNihil's own construction.
func Nil() *Ref { return &Ref{IsNil: true} }

// Unpack flattens a row value into its element slice and tuples, the
// descriptor-unpack half of §4.5, for a collaborator that wants to walk
// an array without going through subscript units.
func Unpack(v Value) (elems []Value, tuples []Tuple, ok bool) {
	av, ok := v.(*ArrayValue)
	if !ok {
		return nil, nil, false
	}
	return av.Data, av.Tuples, true
}

// PackRow is the descriptor-pack half of §4.5: it builds a one-dimensional
// ArrayValue of elemMode from a flat slice, the shape STRING<->ROW CHAR
// conversion and other collaborators need to hand a result back in.
func PackRow(elemMode *Moid, elems []Value) *ArrayValue {
	return &ArrayValue{
		Dim:      1,
		ElemMode: elemMode,
		Tuples:   []Tuple{{Lower: 1, Upper: len(elems), Shift: 1, Span: 1}},
		Data:     append([]Value(nil), elems...),
	}
}

// StringToRow and RowToString convert between a Go string and the ROW
// CHAR representation a STRING-typed name addresses, the transput
// boundary's most common descriptor conversion.
func StringToRow(s string) *ArrayValue {
	runes := []rune(s)
	elems := make([]Value, len(runes))
	for i, r := range runes {
		elems[i] = r
	}
	return PackRow(nil, elems)
}

func RowToString(av *ArrayValue) string {
	if av == nil {
		return ""
	}
	var b []rune
	for _, v := range av.Data {
		if r, ok := v.(rune); ok {
			b = append(b, r)
		}
	}
	return string(b)
}

// Generate is the heap-generation entry point of §4.5 ("heap
// generation"): it allocates a HEAP-owned handle of mode m on the
// caller's behalf, the same primitive propGenerator uses for `HEAP`
// generator clauses.
func (i *Interpreter) Generate(m *Moid) *Ref {
	v := i.generate(m, nil)
	h := i.gc.newHandle(v, i.Modes.Size(m), -1)
	scope := 0
	if i.frame != nil {
		scope = i.frame.scope
	}
	return &Ref{Scope: scope, Handle: h}
}

// OnEventHandler invokes handler (a PROC (REF FILE) BOOL closure, in
// transput's terms) with ref pushed onto the expression stack first and
// popped after, per §4.5 "event handler invocation". It reports the
// BOOL the handler returns; a non-BOOL result is a runtime error, since
// event handlers are a fixed, transput-defined signature.
func (i *Interpreter) OnEventHandler(handler *ProcValue, ref *Ref) (bool, error) {
	i.Push(ref)
	defer i.Pop()
	v := i.callProc(handler.Node, handler, []Value{ref})
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("event handler did not yield BOOL")
	}
	return b, nil
}

// DNS is the dynamic scope check of §4.5: it signals a scope violation
// when ref's scope exceeds limit, the same comparison checkScope
// performs inline during evaluation, exposed here for a collaborator
// (e.g. transput binding a file's REF to a wider scope) that needs to
// assert it explicitly rather than through a tree node.
func (i *Interpreter) DNS(ref *Ref, limit int, info string) error {
	if ref == nil || ref.IsNil {
		return nil
	}
	if ref.Scope > limit {
		return fmt.Errorf("scope violation: %s (name's scope %d exceeds limit %d)", info, ref.Scope, limit)
	}
	return nil
}

// GCStatsSnapshot reports the collector's running totals (§4.4 "GC
// stats... exposed to user code").
func (i *Interpreter) GCStatsSnapshot() GCStats { return i.gc.Stats }
