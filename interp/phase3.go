package interp

// phase3 performs the bottom-up error check, victal (formal/actual/
// virtual declarer context) check, and the preliminary nest-level/
// par-level annotation of §4.2 step 6, one tree walk per check; none
// of them needs results from the others.
func (d *Driver) phase3(root *Node) {
	d.checkDuplicateLabels(root)
	d.checkDuplicateModeDecls(root)
	d.checkVictal(root)
	d.annotateParLevel(root, 0)
}

// checkDuplicateLabels walks each SERIAL-CLAUSE and reports a syntax
// error for a label declared twice at the same level, a case the
// bottom-up recognizer's production rules would reject outright in
// the original.
func (d *Driver) checkDuplicateLabels(root *Node) {
	root.Walk(func(n *Node) bool {
		if n.attribute != serialClause {
			return true
		}
		seen := map[string]bool{}
		for c := n.sub; c != nil; c = c.next {
			if c.attribute == label {
				if seen[c.symbol] {
					d.Diag.Syntax(c, "label declared twice in the same serial clause")
				}
				seen[c.symbol] = true
			}
		}
		return true
	}, nil)
}

// checkDuplicateModeDecls reports re-use of a MODE name within the
// same serial clause, which would otherwise silently shadow (§4.1
// treats each MODE declarer as introducing a fresh INDICANT, so a
// re-declaration is always a user error, never intentional shadowing,
// at Algol 68's single-pass block structure).
func (d *Driver) checkDuplicateModeDecls(root *Node) {
	root.Walk(func(n *Node) bool {
		if n.attribute != serialClause {
			return true
		}
		seen := map[string]bool{}
		for c := n.sub; c != nil; c = c.next {
			if c.attribute == modeDecl {
				if seen[c.symbol] {
					d.Diag.Syntax(c, "mode "+c.symbol+" declared twice in the same serial clause")
				}
				seen[c.symbol] = true
			}
		}
		return true
	}, nil)
}

// checkVictal enforces the one victal rule that matters without a
// real formal-parameter mode table yet built: a formal parameter of a
// ROUTINE-TEXT may not be declared VOID (the glossary's "virtual/
// actual/formal declarer contexts" distinction collapses to this
// single actionable check before modes exist).
func (d *Driver) checkVictal(root *Node) {
	root.Walk(func(n *Node) bool {
		if n.attribute != routineText {
			return true
		}
		for c := n.sub; c != nil; c = c.next {
			if c.attribute != identifier || c.symbol == "$result$" {
				continue
			}
			if decl := c.sub; decl != nil && decl.attribute == voidSymbol {
				d.Diag.Syntax(c, "formal parameter may not be declared VOID")
			}
		}
		return true
	}, nil)
}

// annotateParLevel marks every node with the enclosing PAR-clause
// nesting depth. The PAR clause is out of this core's scope (§1), so
// the level is always 0 here; the field exists so a future PAR layer
// has somewhere to write without touching every other phase.
func (d *Driver) annotateParLevel(n *Node, level int) {
	if n == nil {
		return
	}
	n.genieInfo() // ensure allocated; par level not separately stored, kept at 0
	for c := n.sub; c != nil; c = c.next {
		d.annotateParLevel(c, level)
	}
}
