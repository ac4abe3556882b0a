package interp

import (
	"fmt"
	"strings"
)

// MoidAttribute is the mode-graph node kind (§3 MOID).
type MoidAttribute int

const (
	standardM MoidAttribute = iota
	refM
	flexM
	rowM
	procM
	structM
	unionM
	indicantM
	seriesM
	stowedM
	voidM
)

// Pack is an ordered (mode, field-name, node) triple list: STRUCT
// fields (name = field), UNION members (name = ""), PROC parameters
// (name = formal identifier), per §3.
type PackItem struct {
	Mode *Moid
	Name string
	Node *Node
}

type Pack []PackItem

// Moid is a node in the mode DAG (§3). Modes are allocated from the
// ModeTable's arena and numbered globally; equivalence is resolved by
// chasing `equivalent` to its representative.
type Moid struct {
	id        int64
	Attribute MoidAttribute
	Dim       int // row dimension, or sizety (LONG=+1,SHORT=-1 summed) for standard modes
	Sub       *Moid
	Pack      Pack
	Node      *Node
	Name      string // for STANDARD/INDICANT modes

	equivalent *Moid
	slice      *Moid
	deflexed   *Moid
	nameMode   *Moid
	multiple   *Moid
	trim       *Moid
	rowed      *Moid

	hasRows    bool
	hasRef     bool
	hasFlex    bool
	wellFormed bool
	sizeKnown  bool
	size       int
}

// representative chases `equivalent` to the canonical mode, per
// invariant 2 in §3/§8.
func (m *Moid) representative() *Moid {
	for m.equivalent != nil {
		m = m.equivalent
	}
	return m
}

func (m *Moid) String() string {
	m = m.representative()
	switch m.Attribute {
	case voidM:
		return "VOID"
	case standardM:
		return sizetyPrefix(m.Dim) + m.Name
	case indicantM:
		return m.Name
	case refM:
		return "REF " + m.Sub.String()
	case flexM:
		return "FLEX " + m.Sub.String()
	case rowM:
		dims := strings.Repeat(", ", m.Dim-1)
		return fmt.Sprintf("[%s] %s", dims, m.Sub.String())
	case procM:
		var ps []string
		for _, p := range m.Pack {
			ps = append(ps, p.Mode.String())
		}
		res := "VOID"
		if m.Sub != nil {
			res = m.Sub.String()
		}
		return fmt.Sprintf("PROC (%s) %s", strings.Join(ps, ", "), res)
	case structM:
		var ps []string
		for _, p := range m.Pack {
			ps = append(ps, p.Mode.String()+" "+p.Name)
		}
		return fmt.Sprintf("STRUCT (%s)", strings.Join(ps, ", "))
	case unionM:
		var ps []string
		for _, p := range m.Pack {
			ps = append(ps, p.Mode.String())
		}
		return fmt.Sprintf("UNION (%s)", strings.Join(ps, ", "))
	}
	return "?MOID"
}

func sizetyPrefix(dim int) string {
	if dim > 0 {
		return strings.Repeat("LONG ", dim)
	}
	if dim < 0 {
		return strings.Repeat("SHORT ", -dim)
	}
	return ""
}

// Postulate is an assumption pair used by the coinductive equivalence
// prover; postulates stack across recursive calls and roll back on
// unwind (§3, §9 "Cyclic mode graphs").
type Postulate struct{ A, B *Moid }

// ModeTable is the canonical store of MOIDs: the one place every mode
// in a program lives, purely as data (no associated runtime values)
// until sizing.
type ModeTable struct {
	arena   []*Moid
	counter int64

	standard map[string]*Moid // name -> base (sizety 0) standard mode

	postulates []Postulate
}

func newModeTable() *ModeTable {
	mt := &ModeTable{standard: map[string]*Moid{}}
	for _, name := range []string{"INT", "REAL", "BOOL", "CHAR", "BITS", "BYTES", "STRING", "COMPLEX", "FORMAT", "FILE", "SOUND"} {
		m := mt.newMoid(standardM)
		m.Name = name
		mt.standard[name] = m
	}
	return mt
}

func (mt *ModeTable) newMoid(attr MoidAttribute) *Moid {
	mt.counter++
	m := &Moid{id: mt.counter, Attribute: attr}
	mt.arena = append(mt.arena, m)
	return m
}

func (mt *ModeTable) voidMode() *Moid {
	if v, ok := mt.standard["VOID"]; ok {
		return v
	}
	m := mt.newMoid(voidM)
	mt.standard["VOID"] = m
	return m
}

// standardModeAt returns the standard mode for `name` at sizety `dim`
// (LONG = +1 per token, SHORT = -1), downgrading to the nearest
// available precision and recording a warning if the exact one is
// unavailable, per §4.1 LONGETY/SHORTETY handling. §9's open question
// ("precision-downgrade path silently commented out its warning") is
// resolved here by always emitting the warning: silently downgrading
// precision is a correctness hazard worth surfacing.
func (mt *ModeTable) standardModeAt(diag *Diagnostics, name string, dim int) *Moid {
	base, ok := mt.standard[name]
	if !ok {
		m := mt.newMoid(standardM)
		m.Name = name
		m.Dim = dim
		mt.standard[fmt.Sprintf("%s@%d", name, dim)] = m
		return m
	}
	const maxPrecision = 2 // LONG LONG is the deepest precision this core supports
	clamped := dim
	if clamped > maxPrecision {
		clamped = maxPrecision
	}
	if clamped < -1 {
		clamped = -1
	}
	if clamped != dim && diag != nil {
		diag.Warning(Position{}, fmt.Sprintf("precision LONG*%d of %s unavailable, using LONG*%d", dim, name, clamped))
	}
	if clamped == 0 {
		return base
	}
	key := fmt.Sprintf("%s@%d", name, clamped)
	if m, ok := mt.standard[key]; ok {
		return m
	}
	m := mt.newMoid(standardM)
	m.Name = name
	m.Dim = clamped
	mt.standard[key] = m
	return m
}

// newIndicant creates a fresh INDICANT mode (a user mode name not yet
// bound to its definition) recorded in the defining symbol table.
func (mt *ModeTable) newIndicant(name string, node *Node) *Moid {
	m := mt.newMoid(indicantM)
	m.Name = name
	m.Node = node
	return m
}

func (mt *ModeTable) newRef(sub *Moid, node *Node) *Moid {
	m := mt.newMoid(refM)
	m.Sub = sub
	m.Node = node
	return m
}

func (mt *ModeTable) newFlex(sub *Moid, node *Node) *Moid {
	m := mt.newMoid(flexM)
	m.Sub = sub
	m.Node = node
	return m
}

// newRow builds a dim-deep row chain over elem, per BOUNDS handling in
// §4.1 ("row chain of depth = 1 + count of commas").
func (mt *ModeTable) newRow(dim int, elem *Moid, node *Node) *Moid {
	cur := elem
	for i := 0; i < dim; i++ {
		m := mt.newMoid(rowM)
		m.Dim = i + 1
		m.Sub = cur
		m.Node = node
		cur = m
	}
	return cur
}

func (mt *ModeTable) newStruct(pack Pack, node *Node) *Moid {
	m := mt.newMoid(structM)
	m.Pack = pack
	m.Node = node
	return m
}

func (mt *ModeTable) newUnion(pack Pack, node *Node) *Moid {
	m := mt.newMoid(unionM)
	m.Pack = pack
	m.Node = node
	return m
}

func (mt *ModeTable) newProc(params Pack, result *Moid, node *Node) *Moid {
	m := mt.newMoid(procM)
	m.Pack = params
	m.Sub = result
	m.Node = node
	return m
}

// ---- Derived modes (§4.1 "Derived modes") ----

// sliceOf returns the element-wise slice mode of a row mode: dim-one
// rows slice to the element mode, higher dims slice to a mode of
// dim-1, per invariant 6 (§3).
func (mt *ModeTable) sliceOf(m *Moid) *Moid {
	m = m.representative()
	if m.slice != nil {
		return m.slice
	}
	if m.Attribute != rowM {
		return m
	}
	if m.Dim <= 1 {
		m.slice = m.Sub
	} else {
		s := mt.newMoid(rowM)
		s.Dim = m.Dim - 1
		s.Sub = m.Sub
		s.rowed = m
		m.slice = s
	}
	return m.slice
}

func (mt *ModeTable) rowedOf(m *Moid) *Moid {
	mt.sliceOf(m) // sets `rowed` only on the slice mode of a row with Dim > 1, not on m
	if m.rowed != nil {
		return m.rowed
	}
	return nil
}

// deflexedOf strips FLEX from the outer layer of m, guarding against
// cycles by pre-installing the target mode before recursing (§4.1).
func (mt *ModeTable) deflexedOf(m *Moid) *Moid {
	m = m.representative()
	if m.deflexed != nil {
		return m.deflexed
	}
	switch m.Attribute {
	case flexM:
		m.deflexed = m.Sub
	case refM:
		placeholder := mt.newMoid(refM)
		m.deflexed = placeholder
		placeholder.Sub = mt.deflexedOf(m.Sub)
	case rowM:
		placeholder := mt.newMoid(rowM)
		placeholder.Dim = m.Dim
		m.deflexed = placeholder
		placeholder.Sub = mt.deflexedOf(m.Sub)
	default:
		m.deflexed = m
	}
	return m.deflexed
}

// trimOf is a lightweight deflex at the top REF/FLEX layer only, for
// trimmer-yielding slices (§4.1 "Trim").
func (mt *ModeTable) trimOf(m *Moid) *Moid {
	m = m.representative()
	if m.trim != nil {
		return m.trim
	}
	switch m.Attribute {
	case flexM:
		m.trim = m.Sub
	case refM:
		if m.Sub.representative().Attribute == flexM {
			r := mt.newMoid(refM)
			r.Sub = m.Sub.representative().Sub
			m.trim = r
		} else {
			m.trim = m
		}
	default:
		m.trim = m
	}
	return m.trim
}

// nameOf builds, for a REF STRUCT(...f_i...) mode, the companion pack
// of REF-to-field modes that allows field selection on names (§4.1
// "Name of STRUCT/ROW").
func (mt *ModeTable) nameOf(m *Moid) *Moid {
	m = m.representative()
	if m.nameMode != nil {
		return m.nameMode
	}
	if m.Attribute != refM {
		m.nameMode = m
		return m
	}
	sub := m.Sub.representative()
	if sub.Attribute != structM {
		m.nameMode = m
		return m
	}
	var pack Pack
	for _, f := range sub.Pack {
		pack = append(pack, PackItem{Mode: mt.newRef(f.Mode, f.Node), Name: f.Name, Node: f.Node})
	}
	result := mt.newMoid(refM)
	result.Sub = sub
	result.Pack = pack // field-selection companion pack, keyed by Name
	m.nameMode = result
	return result
}

// multipleOf computes the mode yielded by selecting a field from an
// array of structs: an array of the field's mode (§4.1 "Multiple").
func (mt *ModeTable) multipleOf(rowOfStruct *Moid, fieldName string) *Moid {
	m := rowOfStruct.representative()
	flex := false
	if m.Attribute == flexM {
		flex = true
		m = m.Sub.representative()
	}
	if m.Attribute != rowM {
		return nil
	}
	structMode := m.Sub.representative()
	if structMode.Attribute != structM {
		return nil
	}
	var fieldMode *Moid
	for _, f := range structMode.Pack {
		if f.Name == fieldName {
			fieldMode = f.Mode
			break
		}
	}
	if fieldMode == nil {
		return nil
	}
	result := mt.newRow(m.Dim, fieldMode, m.Node)
	if flex {
		result = mt.newFlex(result, m.Node)
	}
	return result
}

// ---- Equivalence (§4.1 "Equivalence", §9 "Cyclic mode graphs") ----

// Equivalent proves a ≡ b under coinductive assumption: a postulate
// (a,b) is pushed before recursing into subcomponents and popped on
// return, matching pattern of scope-stacking assumptions
// (scope.lookup chain is linear, not coinductive, but
// the push/search/pop discipline here is the same shape).
func (mt *ModeTable) Equivalent(a, b *Moid) bool {
	a, b = a.representative(), b.representative()
	if a == b {
		return true
	}
	for _, p := range mt.postulates {
		if (p.A == a && p.B == b) || (p.A == b && p.B == a) {
			return true
		}
	}
	if a.Attribute != b.Attribute {
		return false
	}
	mt.postulates = append(mt.postulates, Postulate{a, b})
	defer func() { mt.postulates = mt.postulates[:len(mt.postulates)-1] }()

	switch a.Attribute {
	case standardM:
		return a.Name == b.Name && a.Dim == b.Dim
	case voidM:
		return true
	case indicantM:
		return a.Name == b.Name
	case refM, flexM:
		return mt.Equivalent(a.Sub, b.Sub)
	case rowM:
		return a.Dim == b.Dim && mt.Equivalent(a.Sub, b.Sub)
	case procM:
		if len(a.Pack) != len(b.Pack) {
			return false
		}
		for i := range a.Pack {
			if !mt.Equivalent(a.Pack[i].Mode, b.Pack[i].Mode) {
				return false
			}
		}
		if (a.Sub == nil) != (b.Sub == nil) {
			return false
		}
		if a.Sub == nil {
			return true
		}
		return mt.Equivalent(a.Sub, b.Sub)
	case structM:
		if len(a.Pack) != len(b.Pack) {
			return false
		}
		for i := range a.Pack {
			if a.Pack[i].Name != b.Pack[i].Name {
				return false
			}
			if !mt.Equivalent(a.Pack[i].Mode, b.Pack[i].Mode) {
				return false
			}
		}
		return true
	case unionM:
		if len(a.Pack) != len(b.Pack) {
			return false
		}
		used := make([]bool, len(b.Pack))
		for _, pa := range a.Pack {
			found := false
			for j, pb := range b.Pack {
				if used[j] {
					continue
				}
				if mt.Equivalent(pa.Mode, pb.Mode) {
					used[j] = true
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	}
	return false
}

// canonicalise merges a and b once proven equivalent: if one is a
// standard-environment mode it becomes the representative, otherwise
// the first argument wins arbitrarily (§4.1 "When equivalence
// succeeds, canonicalise").
func (mt *ModeTable) canonicalise(a, b *Moid) *Moid {
	a, b = a.representative(), b.representative()
	if a == b {
		return a
	}
	if b.Attribute == standardM {
		a.equivalent = b
		return b
	}
	b.equivalent = a
	return a
}

// bindIndicantsToModes resolves every INDICANT mode's `equivalent` to
// the mode it was declared equal to in a MODE declaration, per §4.1
// "Binding indicants" (phase bind_indicants_to_modes_tree). Undefined
// indicants are reported as mode errors.
func (mt *ModeTable) bindIndicantsToModes(diag *Diagnostics, defs map[string]*Moid) {
	for _, m := range mt.arena {
		if m.Attribute != indicantM || m.equivalent != nil {
			continue
		}
		def, ok := defs[m.Name]
		if !ok {
			diag.Mode(m.Node, fmt.Sprintf("indicant %s is never defined", m.Name))
			continue
		}
		m.equivalent = def
	}
}

// checkCyclicDeclarations walks every indicant's definition chain,
// maintaining a visited set; a cycle is an error unless it passes
// through a REF/PROC/STRUCT/UNION boundary first (§4.1 "Cyclic
// declaration check", invariant 5 in §3).
func (mt *ModeTable) checkCyclicDeclarations(diag *Diagnostics, defs map[string]*Moid) {
	for name, def := range defs {
		visited := map[string]bool{name: true}
		cur := def
		for {
			cur = cur.representative()
			if cur.Attribute == refM || cur.Attribute == procM || cur.Attribute == structM || cur.Attribute == unionM {
				break // boundary reached: cycle (if any) is legal
			}
			if cur.Attribute != indicantM {
				break
			}
			if visited[cur.Name] {
				diag.Mode(cur.Node, fmt.Sprintf("mode %s is cyclically defined with no REF/PROC/STRUCT/UNION boundary", name))
				break
			}
			visited[cur.Name] = true
			next, ok := defs[cur.Name]
			if !ok {
				break
			}
			cur = next
		}
	}
}

// wellFormed implements yin-yang well-formedness: every cycle in the
// mode's expansion must pass both a "yin" breaker (REF or PROC result)
// and a "yang" breaker (STRUCT or UNION), tracked as two booleans
// threaded through recursion, per §4.1 "Yin-yang".
func (mt *ModeTable) wellFormed(m *Moid) bool {
	seen := map[int64]bool{}
	var walk func(m *Moid, yin, yang bool) bool
	walk = func(m *Moid, yin, yang bool) bool {
		m = m.representative()
		if yin && yang {
			return true
		}
		if seen[m.id] {
			return false
		}
		seen[m.id] = true
		defer delete(seen, m.id)
		switch m.Attribute {
		case refM:
			return walk(m.Sub, true, yang)
		case procM:
			for _, p := range m.Pack {
				if !walk(p.Mode, true, true) { // parameters are in a fresh context
					return false
				}
			}
			if m.Sub == nil {
				return true
			}
			return walk(m.Sub, true, yang)
		case flexM, rowM:
			return walk(m.Sub, yin, yang)
		case structM:
			for _, p := range m.Pack {
				if !walk(p.Mode, yin, true) {
					return false
				}
			}
			return true
		case unionM:
			for _, p := range m.Pack {
				if !walk(p.Mode, yin, true) {
					return false
				}
			}
			return true
		case indicantM:
			return true // cyclic check already ruled out bad self-reference
		default:
			return true
		}
	}
	return walk(m, false, false)
}

// expandContractMoids runs the derive/equivalence loop to a fixed
// point: at least twice, never more than maxCycles, per §4.1 "Fixed
// point" and §9's open question about preserving the original's
// `cycle <= 1` lower bound with an upper safety cap.
func (mt *ModeTable) expandContractMoids() {
	const maxCycles = 32
	for cycle := 0; cycle < maxCycles; cycle++ {
		changed := false
		n := len(mt.arena)
		for i := 0; i < n; i++ {
			m := mt.arena[i]
			if m.Attribute == refM || m.Attribute == rowM || m.Attribute == flexM {
				hadSlice := m.slice != nil
				if mt.sliceOf(m) != nil && !hadSlice {
					changed = true // first population grew the arena with a derived mode
				}
				if mt.nameOf(m) != m && m.nameMode != nil {
					changed = true
				}
			}
		}
		if cycle >= 1 && !changed {
			break
		}
	}
}

// ---- Sizing (§4.1 "Sizing") ----

const (
	sizeofPointer = 8
	sizeofInt     = 8
	sizeofReal    = 8
	sizeofBool    = 1
	sizeofChar    = 1
	sizeofBits    = 8
)

// Size follows `equivalent` to the representative and computes the
// mode's byte size, memoising the result (§4.1 "Sizing").
func (mt *ModeTable) Size(m *Moid) int {
	m = m.representative()
	if m.sizeKnown {
		return m.size
	}
	m.sizeKnown = true // break cycles through REF/PROC before recursing
	m.size = sizeofPointer
	switch m.Attribute {
	case voidM:
		m.size = 0
	case standardM:
		m.size = standardSize(m)
	case refM, procM:
		m.size = sizeofPointer
	case flexM:
		m.size = sizeofPointer // FLEX rows are always heap descriptors
	case rowM:
		m.size = sizeofPointer // array descriptor is a handle-indirected block
	case structM:
		total := 0
		for _, f := range m.Pack {
			total += mt.Size(f.Mode)
		}
		m.size = total
	case unionM:
		max := 0
		for _, f := range m.Pack {
			if s := mt.Size(f.Mode); s > max {
				max = s
			}
		}
		m.size = sizeofInt + max // discriminator + max member
	case indicantM:
		m.size = mt.Size(m.equivalent)
	}
	return m.size
}

func standardSize(m *Moid) int {
	base := map[string]int{
		"INT": sizeofInt, "REAL": sizeofReal, "BOOL": sizeofBool,
		"CHAR": sizeofChar, "BITS": sizeofBits, "BYTES": 32,
		"STRING": sizeofPointer, "COMPLEX": sizeofReal * 2,
		"FORMAT": sizeofPointer, "FILE": sizeofPointer, "SOUND": sizeofPointer,
	}[m.Name]
	if base == 0 {
		base = sizeofInt
	}
	if m.Dim > 0 {
		return base << uint(m.Dim) // LONG doubles precision per level
	}
	return base
}
