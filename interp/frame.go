package interp

// Frame is one activation record of §3's frame stack: a static link (the
// frame of the lexically enclosing block, for non-local name access), a
// dynamic link (the caller, for unwinding), a dynamic scope (used by the
// scope checker at runtime, §4.5 DNS), the tree node that opened it, and
// local storage sized by its symbol table's slot count. There is no
// display: non-local access always walks the static-link chain, per §4.3
// "Frame discipline" and single-linked `frame.anc`
// chain (interp/interp.go), generalised here from "one slot per AST
// node" to "one slot per declared identifier/anonymous tag".
type Frame struct {
	static  *Frame
	dynamic *Frame
	scope   int
	node    *Node
	table   *SymbolTable
	data    []Value
	id      int // monotonic, doubles as the frame's dynamic scope stamp
}

// openFrame is OPEN_FRAME of §4.3: it reserves an activation record for
// node (a program, routine text, or closed/loop clause) linked to
// staticLink (the enclosing lexical frame) and dynamicLink (the caller),
// sized by node's symbol table.
func (i *Interpreter) openFrame(node *Node, staticLink, dynamicLink *Frame) *Frame {
	i.frameSeq++
	fr := &Frame{
		static:  staticLink,
		dynamic: dynamicLink,
		node:    node,
		table:   node.symbolTable,
		id:      i.frameSeq,
	}
	if node.symbolTable != nil {
		fr.data = make([]Value, node.symbolTable.slots)
	}
	if dynamicLink != nil {
		fr.scope = dynamicLink.scope
	}
	i.frame = fr
	i.frameDepth++
	if i.frameDepth > i.Options.StackSize {
		panic(&RuntimeError{Pos: node.pos, Message: "frame stack overflow"})
	}
	return fr
}

// closeFrame is CLOSE_FRAME: it pops back to the caller, and gives the
// collector (§4.4) a chance to sweep anonymous generators local to the
// closing frame before their storage is reused.
func (i *Interpreter) closeFrame(fr *Frame) {
	i.frameDepth--
	i.frame = fr.dynamic
	if i.gc != nil {
		i.gc.noteFrameClose(fr)
	}
}

// staticFrameAt walks up the static-link chain to the nearest frame
// whose symbol table is table, or nil if there is none (§4.3
// "Non-local access uses a chain of static links").
func (fr *Frame) staticFrameAt(table *SymbolTable) *Frame {
	for f := fr; f != nil; f = f.static {
		if f.table == table {
			return f
		}
	}
	return nil
}

// frameForTag resolves the frame holding tag's slot by walking the
// static-link chain until a frame whose table declared it is found.
func (i *Interpreter) frameForTag(tag *Tag) *Frame {
	for f := i.frame; f != nil; f = f.static {
		if f.table != nil {
			if _, ok := f.table.identifiers[tag.name]; ok && f.table.level == tag.level {
				return f
			}
			if _, ok := f.table.operators[tag.name]; ok && f.table.level == tag.level {
				return f
			}
		}
	}
	return nil
}
