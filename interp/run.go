package interp

import (
	"fmt"
	"math/big"
	"time"
)

// Propagator is the cached per-node evaluator of §4.3 "Propagator
// caching": the first evaluation of a node selects the specialised
// function for its attribute and stores it on the node itself, so every
// later visit (the common case inside a loop body) calls straight
// through without repeating the attribute dispatch.
type Propagator func(i *Interpreter, n *Node) Value

// RuntimeError is a runtime fault (§4.5): divide by zero, subscript
// range violation, uninitialised name access, dynamic scope violation,
// stack overflow. It is raised with panic and recovered at Eval's top
// level, the two-level escape §9 describes as an alternative to a
// longjmp buffer per thread.
type RuntimeError struct {
	Pos     Position
	Message string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s: runtime error: %s", e.Pos, e.Message)
}

func (i *Interpreter) fail(n *Node, format string, args ...interface{}) {
	panic(&RuntimeError{Pos: n.pos, Message: fmt.Sprintf(format, args...)})
}

// checkTimeLimit is the cooperative check §4.3 "Time limit" describes:
// consulted once per loop iteration and once per call, never
// preemptively. i.deadline is the zero Time when no limit was set.
func (i *Interpreter) checkTimeLimit(n *Node) {
	if i.deadline.IsZero() {
		return
	}
	if time.Now().After(i.deadline) {
		i.fail(n, "time limit exceeded")
	}
}

// jumpSignal unwinds the Go call stack to the frame that owns the
// target label, implementing a non-local GOTO without a reentrant
// interpreter loop (§4.3 "Jumps": "a chain of static links... is walked
// until the frame matching the label's declaring symbol table is
// found").
type jumpSignal struct {
	target *Tag
}

// evalUnit is the propagator cache lookup of §4.3: select a
// specialised evaluator for n's attribute once, then call it (directly,
// on every subsequent visit).
func (i *Interpreter) evalUnit(n *Node) Value {
	if n == nil {
		return nil
	}
	if n.propagator == nil {
		n.propagator = selectPropagator(n)
	}
	return n.propagator(i, n)
}

func selectPropagator(n *Node) Propagator {
	switch n.attribute {
	case denotation:
		return propDenotation
	case identifier:
		return propIdentifier
	case nihil:
		return propNihil
	case skipSymbol:
		return propSkip
	case generatorClause:
		return propGenerator
	case assignation:
		return propAssignation
	case formula:
		return propFormula
	case monadicFormula:
		return propMonadicFormula
	case call:
		return propCall
	case sliceProduction:
		return propSlice
	case selection:
		return propSelection
	case collateralClause:
		return propCollateral
	case closedClause:
		return propClosed
	case serialClause:
		return propSerial
	case conditionalClause:
		return propConditional
	case caseClause:
		return propCase
	case loopClause:
		return propLoop
	case routineText:
		return propRoutineText
	case gotoSymbol:
		return propGoto
	case deref:
		return propDeref
	case widening:
		return propWidening
	case voiding:
		return propVoiding
	case identityDecl:
		return propIdentityDecl
	case variableDecl:
		return propVariableDecl
	case modeDecl, opDecl, procDecl, priorityDecl, label:
		return propNop
	}
	return propNop
}

func propNop(i *Interpreter, n *Node) Value { return nil }

func propDenotation(i *Interpreter, n *Node) Value { return n.genie.constant }

func propNihil(i *Interpreter, n *Node) Value { return &Ref{IsNil: true} }

func propSkip(i *Interpreter, n *Node) Value { return nil }

func propGenerator(i *Interpreter, n *Node) Value {
	sub := n.mode.representative().Sub // REF's target mode
	v := i.generate(sub, n.sub)
	owner := 0
	if n.symbol == "LOC" {
		owner = i.frame.id
	} else {
		owner = -1 // HEAP: never preemptively reclaimed, only by mark-sweep
	}
	h := i.gc.newHandle(v, i.Modes.Size(sub), owner)
	return &Ref{Scope: i.frame.scope, Handle: h}
}

func propIdentifier(i *Interpreter, n *Node) Value {
	tag := n.tag
	if tag == nil {
		i.fail(n, "unresolved identifier %s", n.symbol)
	}
	if tag.standEnvProc {
		return i.builtinProc(tag)
	}
	fr := i.frameForTag(tag)
	if fr == nil {
		i.fail(n, "no frame for identifier %s", n.symbol)
	}
	return fr.data[tag.offset]
}

// builtinProc wraps a standard-environment identifier (print, new_line)
// as a callable ProcValue; standard operators are dispatched natively
// by propFormula/propMonadicFormula instead of through this path.
func (i *Interpreter) builtinProc(tag *Tag) *ProcValue {
	switch tag.name {
	case "print":
		return &ProcValue{Builtin: func(rt *Interpreter, args []Value) (Value, error) {
			fmt.Fprint(rt.Options.Stdout, fmt.Sprint(args[0]))
			return nil, nil
		}}
	case "new_line":
		return &ProcValue{Builtin: func(rt *Interpreter, args []Value) (Value, error) {
			fmt.Fprintln(rt.Options.Stdout)
			return nil, nil
		}}
	}
	return &ProcValue{Builtin: func(rt *Interpreter, args []Value) (Value, error) { return nil, nil }}
}

func propDeref(i *Interpreter, n *Node) Value {
	v := i.evalUnit(n.sub)
	ref, ok := v.(*Ref)
	if !ok {
		return v
	}
	i.checkScope(n, ref)
	if ref.IsNil {
		i.fail(n, "dereferencing an uninitialised name")
	}
	return ref.load()
}

// propWidening widens INT->REAL and, at the LONG/LONG LONG boundary
// (§4.1 LONGETY), promotes int64/float64 to math/big values or extends
// an existing big value's precision (§9's mp-library stand-in).
func propWidening(i *Interpreter, n *Node) Value {
	v := i.evalUnit(n.sub)
	target := n.mode.representative()
	if target.Attribute != standardM {
		return v
	}
	if target.Name == "REAL" {
		if target.Dim > 0 {
			return toBigFloat(v, precisionForDim(target.Dim))
		}
		switch t := v.(type) {
		case int64:
			return float64(t)
		case *big.Int:
			f, _ := new(big.Float).SetInt(t).Float64()
			return f
		case *big.Float:
			f, _ := t.Float64()
			return f
		}
		return v
	}
	if target.Name == "INT" && target.Dim > 0 {
		return toBigInt(v)
	}
	return v
}

func toBigInt(v Value) *big.Int {
	switch t := v.(type) {
	case *big.Int:
		return t
	case int64:
		return big.NewInt(t)
	}
	return big.NewInt(0)
}

func toBigFloat(v Value, prec uint) *big.Float {
	switch t := v.(type) {
	case *big.Float:
		return new(big.Float).SetPrec(prec).Set(t)
	case *big.Int:
		return new(big.Float).SetPrec(prec).SetInt(t)
	case float64:
		return new(big.Float).SetPrec(prec).SetFloat64(t)
	case int64:
		return new(big.Float).SetPrec(prec).SetInt64(t)
	}
	return new(big.Float).SetPrec(prec)
}

func propVoiding(i *Interpreter, n *Node) Value {
	i.evalUnit(n.sub)
	return nil
}

// checkScope is the dynamic-scope check of §4.5 DNS: a REF yielded from
// a frame that has already closed (its scope stamp exceeds the current
// live frame's scope, meaning it belongs to a deeper call that
// returned) is an escape past invariant 1.
func (i *Interpreter) checkScope(n *Node, ref *Ref) {
	if ref == nil || ref.IsNil {
		return
	}
	if n.mask&MaskAssert == 0 {
		return
	}
	if ref.Scope > i.frame.scope {
		i.fail(n, "reference out of scope (name's scope %d exceeds enclosing scope %d)", ref.Scope, i.frame.scope)
	}
}

func propAssignation(i *Interpreter, n *Node) Value {
	dest := i.evalUnit(n.nth(0))
	ref, ok := dest.(*Ref)
	if !ok {
		i.fail(n, "assignment destination did not yield a name")
	}
	destMode := n.nth(0).mode.representative().Sub
	src := i.evalUnit(n.nth(1))
	src = i.coerceToMode(src, destMode)
	i.escapeValue(src)
	ref.store(deepCopyValue(src))
	return ref
}

// coerceToMode adapts a raw evaluated value (notably a collateral
// display, represented as []Value, whose shape is only known from its
// destination) to mode's runtime representation.
func (i *Interpreter) coerceToMode(v Value, mode *Moid) Value {
	disp, ok := v.([]Value)
	if !ok {
		return v
	}
	mode = mode.representative()
	switch mode.Attribute {
	case structM:
		sv := &StructValue{Mode: mode, Fields: map[string]Value{}}
		for idx, f := range mode.Pack {
			if idx < len(disp) {
				sv.Fields[f.Name] = disp[idx]
			}
		}
		return sv
	case rowM, flexM:
		row := mode
		if row.Attribute == flexM {
			row = row.Sub.representative()
		}
		av := &ArrayValue{Dim: 1, ElemMode: row.Sub, Flex: mode.Attribute == flexM}
		av.Tuples = []Tuple{{Lower: 1, Upper: len(disp), Shift: 1, Span: 1}}
		av.Data = append([]Value(nil), disp...)
		return av
	}
	if len(disp) > 0 {
		return disp[0]
	}
	return nil
}

func propFormula(i *Interpreter, n *Node) Value {
	left := i.evalUnit(n.nth(0))
	right := i.evalUnit(n.nth(1))
	v, err := applyDyadic(n.symbol, left, right)
	if err != nil {
		i.fail(n, "%s", err.Error())
	}
	return v
}

func propMonadicFormula(i *Interpreter, n *Node) Value {
	operand := i.evalUnit(n.sub)
	v, err := applyMonadic(n.symbol, operand)
	if err != nil {
		i.fail(n, "%s", err.Error())
	}
	return v
}

func propCall(i *Interpreter, n *Node) Value {
	procVal := i.evalUnit(n.nth(0))
	proc, ok := procVal.(*ProcValue)
	if !ok || proc == nil {
		i.fail(n, "call target did not yield a procedure")
	}
	children := n.children()
	var args []Value
	for _, a := range children[1:] {
		v := i.evalUnit(a)
		i.escapeValue(v)
		args = append(args, v)
	}
	return i.callProc(n, proc, args)
}

func (i *Interpreter) callProc(n *Node, proc *ProcValue, args []Value) Value {
	i.checkTimeLimit(n)
	if proc.Builtin != nil {
		v, err := proc.Builtin(i, args)
		if err != nil {
			i.fail(n, "%s", err.Error())
		}
		return v
	}
	fr := i.openFrame(proc.Node, proc.Static, i.frame)
	defer i.closeFrame(fr)
	k := 0
	for c := proc.Node.sub; c != nil; c = c.next {
		if c.attribute != identifier || c.symbol == "$result$" {
			continue
		}
		if k < len(args) {
			fr.data[c.tag.offset] = args[k]
		}
		k++
	}
	body := routineBody(proc.Node)
	result := i.evalUnit(body)
	i.escapeValue(result)
	return result
}

func propSlice(i *Interpreter, n *Node) Value {
	base := i.evalUnit(n.nth(0))
	isRef := false
	var ref *Ref
	av, ok := base.(*ArrayValue)
	if !ok {
		if r, ok2 := base.(*Ref); ok2 {
			ref = r
			isRef = true
			if r.IsNil {
				i.fail(n, "subscripting an uninitialised name")
			}
			loaded, ok3 := r.load().(*ArrayValue)
			if !ok3 {
				i.fail(n, "subscript target is not an array")
			}
			av = loaded
		} else {
			i.fail(n, "subscript target is not an array")
		}
	}
	children := n.children()
	indices := make([]int, 0, len(children)-1)
	for _, idxNode := range children[1:] {
		indices = append(indices, toInt(i.evalUnit(idxNode)))
	}
	off, ok := av.index(indices)
	if !ok {
		i.fail(n, "subscript out of bounds")
	}
	if isRef {
		return &Ref{Scope: ref.Scope, Array: av, Index: off}
	}
	return av.Data[off]
}

func propSelection(i *Interpreter, n *Node) Value {
	base := i.evalUnit(n.sub)
	if ref, ok := base.(*Ref); ok {
		if ref.IsNil {
			i.fail(n, "selecting a field of an uninitialised name")
		}
		sv, ok := ref.load().(*StructValue)
		if !ok {
			i.fail(n, "selection target is not a struct")
		}
		return &Ref{Scope: ref.Scope, Struct: sv, Field: n.symbol}
	}
	sv, ok := base.(*StructValue)
	if !ok {
		i.fail(n, "selection target is not a struct")
	}
	return sv.Fields[n.symbol]
}

func propCollateral(i *Interpreter, n *Node) Value {
	var vals []Value
	for c := n.sub; c != nil; c = c.next {
		vals = append(vals, i.evalUnit(c))
	}
	return vals
}

func propClosed(i *Interpreter, n *Node) Value {
	fr := i.openFrame(n, i.frame, i.frame)
	defer i.closeFrame(fr)
	return i.evalUnit(n.sub)
}

func propSerial(i *Interpreter, n *Node) Value {
	i.initialiseDeclarations(n)
	children := n.children()
	var result Value
	idx := 0
	for idx < len(children) {
		stmt := children[idx]
		func() {
			defer func() {
				if r := recover(); r != nil {
					sig, ok := r.(jumpSignal)
					if !ok {
						panic(r)
					}
					target, at := n.symbolTable.findLabel(sig.target.name)
					if target == nil || at != n.symbolTable {
						panic(r)
					}
					for j, c := range children {
						if c.attribute == label && c.tag == sig.target {
							idx = j
							return
						}
					}
					panic(r)
				}
			}()
			result = i.evalStatement(stmt)
			idx++
		}()
	}
	return result
}

func (i *Interpreter) evalStatement(stmt *Node) Value {
	if stmt.attribute == label {
		return i.evalUnit(stmt.sub)
	}
	switch stmt.attribute {
	case identityDecl, variableDecl, modeDecl, opDecl, priorityDecl:
		return nil
	}
	return i.evalUnit(stmt)
}

// initialiseDeclarations runs every identity/variable declaration
// directly in this serial clause, in textual order, before the first
// executable statement (§4.3 "Frame discipline").
func (i *Interpreter) initialiseDeclarations(n *Node) {
	for c := n.sub; c != nil; c = c.next {
		stmt := c
		if stmt.attribute == label {
			stmt = stmt.sub
		}
		if stmt == nil {
			continue
		}
		switch stmt.attribute {
		case identityDecl:
			i.evalUnit(stmt)
		case variableDecl:
			i.evalUnit(stmt)
		}
	}
}

func propIdentityDecl(i *Interpreter, n *Node) Value {
	tag := n.tag
	fr := i.frame
	var v Value
	if rhs := n.nth(1); rhs != nil {
		v = i.evalUnit(rhs)
		v = i.coerceToMode(v, tag.mode)
	} else {
		v = i.generate(tag.mode, nil)
	}
	i.escapeValue(v)
	fr.data[tag.offset] = v
	return nil
}

func propVariableDecl(i *Interpreter, n *Node) Value {
	tag := n.tag
	fr := i.frame
	target := tag.mode.representative().Sub
	v := i.generate(target, n.sub)
	h := i.gc.newHandle(v, i.Modes.Size(target), fr.id)
	ref := &Ref{Scope: fr.scope, Handle: h}
	if rhs := n.nth(1); rhs != nil {
		init := i.evalUnit(rhs)
		init = i.coerceToMode(init, target)
		i.escapeValue(init)
		ref.store(deepCopyValue(init))
	}
	fr.data[tag.offset] = ref
	return nil
}

func propConditional(i *Interpreter, n *Node) Value {
	cond := i.evalUnit(n.nth(0))
	b, _ := cond.(bool)
	if b {
		return i.evalUnit(n.nth(1))
	}
	alt := n.nth(2)
	if alt == nil {
		return nil
	}
	return i.evalUnit(alt)
}

func propCase(i *Interpreter, n *Node) Value {
	sel := toInt(i.evalUnit(n.nth(0)))
	alts := n.nth(1)
	children := alts.children()
	if sel >= 1 && sel <= len(children) {
		return i.evalUnit(children[sel-1])
	}
	if out := n.nth(2); out != nil {
		return i.evalUnit(out.sub)
	}
	return nil
}

func propLoop(i *Interpreter, n *Node) Value {
	fr := i.openFrame(n, i.frame, i.frame)
	defer i.closeFrame(fr)

	forTag := loopPart(n, "FOR")
	from := loopPart(n, "FROM")
	by := loopPart(n, "BY")
	to := loopPart(n, "TO")
	downto := loopPart(n, "DOWNTO")
	while := loopPart(n, "WHILE")
	do := loopPart(n, "DO")
	until := loopPart(n, "UNTIL")

	step := int64(1)
	if by != nil {
		step = int64(toInt(i.evalUnit(by)))
	}
	cur := int64(1)
	if from != nil {
		cur = int64(toInt(i.evalUnit(from)))
	}
	hasBound := to != nil || downto != nil
	var limit int64
	descending := downto != nil
	if descending {
		limit = int64(toInt(i.evalUnit(downto)))
		if step > 0 {
			step = -step
		}
	} else if to != nil {
		limit = int64(toInt(i.evalUnit(to)))
	}

	for iter := 0; ; iter++ {
		i.checkTimeLimit(n)
		if hasBound {
			if descending && cur < limit {
				break
			}
			if !descending && cur > limit {
				break
			}
		} else if !hasBound && forTag == nil && while == nil && iter > 0 && until == nil {
			// a bare `DO ... OD` with no FOR/TO/WHILE/UNTIL loops forever,
			// matching Algol 68's unbounded loop form; it ends only by a
			// jump out of the loop or by the time limit.
		}
		if forTag != nil {
			fr.data[forTag.tag.offset] = cur
		}
		if while != nil {
			cond, _ := i.evalUnit(while).(bool)
			if !cond {
				break
			}
		}
		i.evalUnit(do)
		if until != nil {
			cond, _ := i.evalUnit(until).(bool)
			if cond {
				break
			}
		}
		cur += step
	}
	return nil
}

func propRoutineText(i *Interpreter, n *Node) Value {
	return &ProcValue{Mode: n.mode, Node: n, Static: i.frame}
}

// propGoto transfers to the label phase4Jumps already resolved and
// scope-checked at parse time (n.tag); there is nothing left to look
// up at runtime except the degenerate case of a tag phase4Jumps itself
// could not resolve, which would already have raised a diagnostic and
// aborted the run before evaluation ever starts.
func propGoto(i *Interpreter, n *Node) Value {
	if n.tag == nil {
		i.fail(n, "label %s is not declared", n.symbol)
	}
	panic(jumpSignal{target: n.tag})
}

// escapeValue marks every Handle reachable from v as escaped, so the
// frame-close preemptive sweep (§4.4) never reclaims storage a wider
// scope can still observe; it is the conservative half of invariant 1,
// traded for not having to prove non-escape precisely.
func (i *Interpreter) escapeValue(v Value) {
	switch t := v.(type) {
	case *Ref:
		if t != nil && t.Handle != nil {
			t.Handle.escaped = true
			i.escapeValue(t.Handle.Data)
		}
	case *ArrayValue:
		for _, e := range t.Data {
			i.escapeValue(e)
		}
	case *StructValue:
		for _, f := range t.Fields {
			i.escapeValue(f)
		}
	case *UnionValue:
		i.escapeValue(t.Value)
	case []Value:
		for _, e := range t {
			i.escapeValue(e)
		}
	}
}

