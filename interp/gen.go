package interp

import "math/big"

// Generator is §4.4's allocation half: building a zero value for a mode
// and, for rows, evaluating bound expressions through the expression
// stack before laying out the descriptor. Scalars are zero-valued
// directly; STOWED modes get their shape (struct fields, array bounds)
// built recursively.

// exprPush/exprPop model the expression stack of §3 ("grows/shrinks
// with every operation"); the generator is the one place this core
// keeps a literal stack, since bound expressions are evaluated
// right-to-left but a row's tuples are built outer-dimension-first from
// whatever was pushed, mirroring evaluation order for
// nested expressions even though most unit evaluation here returns Go
// values directly instead of threading them through an explicit stack.
func (i *Interpreter) exprPush(v Value) {
	i.exprStack = append(i.exprStack, v)
}

func (i *Interpreter) exprPop() Value {
	n := len(i.exprStack)
	v := i.exprStack[n-1]
	i.exprStack = i.exprStack[:n-1]
	return v
}

// evalBounds evaluates a BOUNDS node's own bound units (one or two
// children: upper-only implies lower=1) by pushing each right-to-left
// depth-first, per §4.4, then popping them back out in declaration
// order to build the Tuple.
func (i *Interpreter) evalBounds(dimNode *Node) Tuple {
	children := dimNode.children()
	for k := len(children) - 1; k >= 0; k-- {
		i.exprPush(i.evalUnit(children[k]))
	}
	vals := make([]int, len(children))
	for k := range children {
		vals[k] = toInt(i.exprPop())
	}
	if len(vals) == 1 {
		return Tuple{Lower: 1, Upper: vals[0]}
	}
	return Tuple{Lower: vals[0], Upper: vals[1]}
}

func toInt(v Value) int {
	switch t := v.(type) {
	case int64:
		return int(t)
	case int:
		return t
	}
	return 0
}

// generate builds a zero value of mode m, evaluating any row bounds
// found under declNode (the DECLARER subtree passed to the generator,
// §4.4 "Generator"). declNode is nil for modes with no syntactic
// declarer in scope (recursive struct/union fields), in which case rows
// default to an empty (1:0) bound, matching FLEX's "no value yet"
// state.
func (i *Interpreter) generate(m *Moid, declNode *Node) Value {
	m = m.representative()
	switch m.Attribute {
	case standardM:
		return zeroStandard(m)
	case refM:
		return &Ref{IsNil: true}
	case procM:
		return (*ProcValue)(nil)
	case structM:
		sv := &StructValue{Mode: m, Fields: map[string]Value{}}
		var fields []*Node
		if declNode != nil && declNode.attribute == structSymbol {
			fields = declNode.children()
		}
		for idx, f := range m.Pack {
			var sub *Node
			if idx < len(fields) {
				sub = fields[idx].sub
			}
			sv.Fields[f.Name] = i.generate(f.Mode, sub)
		}
		return sv
	case unionM:
		return &UnionValue{}
	case flexM, rowM:
		return i.generateRow(m, declNode)
	default:
		return nil
	}
}

// zeroStandard builds a zero value for a STANDARD mode. LONG/LONG LONG
// INT and REAL (m.Dim > 0, §4.1 LONGETY) generate math/big values
// instead of int64/float64, the one boundary where this core calls out
// to the mp library's stand-in (§1, DESIGN.md).
func zeroStandard(m *Moid) Value {
	switch m.Name {
	case "INT", "BITS":
		if m.Dim > 0 {
			return big.NewInt(0)
		}
		return int64(0)
	case "REAL":
		if m.Dim > 0 {
			return new(big.Float).SetPrec(precisionForDim(m.Dim))
		}
		return float64(0)
	case "BOOL":
		return false
	case "CHAR":
		return rune(0)
	case "STRING", "BYTES":
		return ""
	}
	return int64(0)
}

// precisionForDim maps LONGETY depth to a math/big.Float precision:
// LONG (dim 1) gets roughly double Go's float64 mantissa, LONG LONG
// (dim 2) doubles it again, matching LONG's "as many more digits as
// practical" mandate without pretending to a fixed hardware width.
func precisionForDim(dim int) uint {
	switch {
	case dim >= 2:
		return 212
	case dim == 1:
		return 106
	default:
		return 53
	}
}

// generateRow lays out an array descriptor for a FLEX/ROW mode,
// evaluating bound expressions from declNode's BOUNDS children (§4.4).
func (i *Interpreter) generateRow(m *Moid, declNode *Node) *ArrayValue {
	flex := m.Attribute == flexM
	row := m
	if flex {
		row = m.Sub.representative()
	}
	var dimNodes []*Node
	var elemDecl *Node
	if declNode != nil {
		bt := declNode
		if bt.attribute == flexSymbol {
			bt = bt.sub
		}
		if bt != nil && bt.attribute == boundsTag {
			children := bt.children()
			dim := bt.genieInfo().argsize
			if dim == 0 || dim > len(children) {
				dim = len(children) - 1
			}
			dimNodes = children[:dim]
			elemDecl = children[len(children)-1]
		}
	}
	tuples := make([]Tuple, row.Dim)
	for d := 0; d < row.Dim; d++ {
		if d < len(dimNodes) {
			tuples[d] = i.evalBounds(dimNodes[d])
		} else {
			tuples[d] = Tuple{Lower: 1, Upper: 0}
		}
	}
	span := 1
	for d := range tuples {
		tuples[d].Shift = tuples[d].Lower
		tuples[d].Span = span
		length := tuples[d].Upper - tuples[d].Lower + 1
		if length < 0 {
			length = 0
		}
		span *= length
	}
	av := &ArrayValue{Dim: row.Dim, ElemMode: row.Sub, Tuples: tuples, Flex: flex}
	n := av.length()
	av.Data = make([]Value, n)
	for k := range av.Data {
		av.Data[k] = i.generate(row.Sub, elemDecl)
	}
	return av
}
