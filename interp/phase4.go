package interp

// phase4Jumps is §4.2 step 9: rearranges label/goto jumps for simpler
// evaluation. The original rewrites jump targets into a form the
// interpreter can transfer to directly; here that reduces to
// resolving each GOTO's label tag once, up front, so run.go's jump
// evaluator (§4.3 "Jumps") never has to search a symbol table chain at
// run time — only follow the frame chain to the resolved tag's level.
func (d *Driver) phase4Jumps(root *Node) {
	root.Walk(nil, func(n *Node) {
		if n.attribute != gotoSymbol {
			return
		}
		tag, declaringTable := n.symbolTable.findLabel(n.symbol)
		if tag == nil {
			d.Diag.Syntax(n, "label "+n.symbol+" is not declared")
			return
		}
		n.tag = tag
		// §8 invariant 5: the table that will be active when this jump is
		// taken must be an ancestor of the label's declaring table. At
		// parse time we can only check the static relationship; dynamic
		// non-local jumps across procedure returns are reverified at
		// runtime by the jump evaluator itself (run.go), since a label
		// can be passed as a PROC value and invoked from a deeper call.
		if !declaringTable.isAncestorOf(n.symbolTable) {
			d.Diag.Scope(n, "jump to label "+n.symbol+" leaves its declaring range")
		}
	})
}
