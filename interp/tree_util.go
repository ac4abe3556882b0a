package interp

// replaceChild substitutes old with replacement in parent's child
// list, preserving sibling order. It is used by the coercion inserter
// (§4.2 step 11) to splice DEREFERENCING/WIDENING/VOIDING/... wrapper
// nodes in place of the node they coerce.
func replaceChild(parent, old, replacement *Node) {
	if parent == nil || old == nil {
		return
	}
	replacement.next = old.next
	replacement.parent = parent
	if parent.sub == old {
		parent.sub = replacement
		return
	}
	for c := parent.sub; c != nil; c = c.next {
		if c.next == old {
			c.next = replacement
			return
		}
	}
}

// wrap builds a single-child coercion node of kind attr around child
// and splices it into child's parent in child's place, returning the
// new wrapper (which callers may wrap again, e.g. DEREF then VOIDING).
func wrap(child *Node, attr Attribute) *Node {
	w := newNode(attr, child.pos)
	w.mode = child.mode
	w.symbolTable = child.symbolTable
	parent := child.parent
	replaceChild(parent, child, w)
	w.sub = child
	child.parent = w
	child.next = nil
	return w
}
