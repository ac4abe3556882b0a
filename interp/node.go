package interp

import "fmt"

// Attribute is the variant tag of a Node: either a grammar production
// (UNIT, CALL, CONDITIONAL_CLAUSE, ...) or a token kind surviving into
// the tree (IDENTIFIER, DENOTATION, an operator symbol, ...). The set
// is closed and dispatched on by every later phase.
type Attribute int

const (
	// Program structure.
	program Attribute = iota
	particularProgram
	serialClause
	closedClause
	collateralClause
	enclosedClause

	// Declarations.
	identityDecl
	variableDecl
	modeDecl
	procDecl
	opDecl
	priorityDecl
	label

	// Declarers.
	voidSymbol
	refSymbol
	flexSymbol
	structSymbol
	unionSymbol
	procSymbol
	indicant
	longety
	shortety
	boundsTag
	formalBoundsTag

	// Units and their productions.
	unit
	assignation
	identifier
	denotation
	call
	sliceProduction
	trimmer
	selection
	formula
	monadicFormula
	conditionalClause
	caseClause
	loopClause
	routineText
	gotoSymbol
	nihil
	jump
	skipSymbol
	generatorClause

	// Coercions inserted by the checker suite; never produced by the
	// parser, only by insertCoercions.
	deref
	widening
	rowing
	uniting
	voiding
	deproceduring
	proceduring

	// Token-level leaves that have no production of their own.
	tokIdentifier
	tokOperator
	tokInt
	tokReal
	tokString
	tokChar
	tokBool
	tokBits
	tokOpenSymbol
	tokCloseSymbol
	tokCommaSymbol
	tokColonSymbol
	tokSemiSymbol
	tokOfSymbol
	tokBeginSymbol
	tokEndSymbol
)

var attrNames = map[Attribute]string{
	program: "PROGRAM", particularProgram: "PARTICULAR-PROGRAM",
	serialClause: "SERIAL-CLAUSE", closedClause: "CLOSED-CLAUSE",
	collateralClause: "COLLATERAL-CLAUSE", enclosedClause: "ENCLOSED-CLAUSE",
	identityDecl: "IDENTITY-DECL", variableDecl: "VARIABLE-DECL",
	modeDecl: "MODE-DECL", procDecl: "PROC-DECL", opDecl: "OP-DECL",
	priorityDecl: "PRIORITY-DECL", label: "LABEL",
	voidSymbol: "VOID", refSymbol: "REF", flexSymbol: "FLEX",
	structSymbol: "STRUCT", unionSymbol: "UNION", procSymbol: "PROC",
	indicant: "INDICANT", longety: "LONGETY", shortety: "SHORTETY",
	boundsTag: "BOUNDS", formalBoundsTag: "FORMAL-BOUNDS",
	unit: "UNIT", assignation: "ASSIGNATION", identifier: "IDENTIFIER",
	denotation: "DENOTATION", call: "CALL", sliceProduction: "SLICE",
	trimmer: "TRIMMER", selection: "SELECTION", formula: "FORMULA",
	monadicFormula: "MONADIC-FORMULA", conditionalClause: "CONDITIONAL-CLAUSE",
	caseClause: "CASE-CLAUSE", loopClause: "LOOP-CLAUSE",
	routineText: "ROUTINE-TEXT", gotoSymbol: "GOTO", nihil: "NIHIL",
	jump: "JUMP", skipSymbol: "SKIP", generatorClause: "GENERATOR",
	deref: "DEREFERENCING", widening: "WIDENING", rowing: "ROWING",
	uniting: "UNITING", voiding: "VOIDING", deproceduring: "DEPROCEDURING",
	proceduring: "PROCEDURING",
}

func (a Attribute) String() string {
	if s, ok := attrNames[a]; ok {
		return s
	}
	return fmt.Sprintf("attr(%d)", int(a))
}

// Mask is the bitset of per-node debug/behaviour flags (§3).
type Mask uint16

const (
	MaskAssert Mask = 1 << iota
	MaskBreakpoint
	MaskTrace
	MaskSerial
	MaskOptimal
	MaskCrossReference
	MaskSource
	MaskTree
	MaskModular
)

// Position is a source location, filled in by the tokeniser and
// carried through every later phase for diagnostics.
type Position struct {
	File   string
	Line   int
	Column int
}

func (p Position) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// GenieInfo is interpreter scratch space populated lazily during
// tree-walking; it never survives a reparse of the same node.
type GenieInfo struct {
	argsize         int
	whetherCoercion bool
	constant        interface{}
}

// Node is a grammar production or a token surviving into the tree.
// Nodes are owned by the Driver's node arena; their lifetime equals the
// program's, mirroring AST node (interp/interp.go's
// `node`), which carries the same split between static tree shape
// (child/anc or here sub/next/parent) and slots filled in by later
// passes (mode/tag/scope there, mode/tag/symbolTable/propagator here).
type Node struct {
	attribute Attribute
	symbol    string // raw token text, if this node is a token leaf
	pos       Position

	parent *Node
	sub    *Node // first child
	next   *Node // next sibling

	mode        *Moid
	tag         *Tag
	symbolTable *SymbolTable
	propagator  Propagator
	mask        Mask
	sequence    *Node
	genie       *GenieInfo
}

func newNode(attr Attribute, pos Position) *Node {
	return &Node{attribute: attr, pos: pos}
}

// addChild appends c as the last child of n.
func (n *Node) addChild(c *Node) *Node {
	if c == nil {
		return n
	}
	c.parent = n
	if n.sub == nil {
		n.sub = c
		return n
	}
	last := n.sub
	for last.next != nil {
		last = last.next
	}
	last.next = c
	return n
}

// children returns the node's children as a slice, for callers that
// find linked-list traversal awkward (checker passes mostly do).
func (n *Node) children() []*Node {
	var out []*Node
	for c := n.sub; c != nil; c = c.next {
		out = append(out, c)
	}
	return out
}

func (n *Node) nth(i int) *Node {
	c := n.sub
	for ; i > 0 && c != nil; i-- {
		c = c.next
	}
	return c
}

// Walk traverses the tree in depth-first order, invoking in on entry
// and out on exit; if in returns false the subtree is skipped.
func (n *Node) Walk(in func(*Node) bool, out func(*Node)) {
	if n == nil {
		return
	}
	if in != nil && !in(n) {
		return
	}
	for c := n.sub; c != nil; c = c.next {
		c.Walk(in, out)
	}
	if out != nil {
		out(n)
	}
}

func (n *Node) genieInfo() *GenieInfo {
	if n.genie == nil {
		n.genie = &GenieInfo{}
	}
	return n.genie
}

func (n *Node) String() string {
	if n.symbol != "" {
		return fmt.Sprintf("%s(%q)@%s", n.attribute, n.symbol, n.pos)
	}
	return fmt.Sprintf("%s@%s", n.attribute, n.pos)
}
