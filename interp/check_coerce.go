package interp

// insertCoercions is the coercion inserter of §4.2 step 11 / §4.3
// "Coercions": it walks the mode-annotated tree bottom-up (so a node's
// children are already in their final, possibly-wrapped form by the
// time the node itself is visited) and splices DEREFERENCING/
// WIDENING/VOIDING nodes wherever a balanced context needs one.
// UNITING/ROWING/DEPROCEDURING/PROCEDURING are part of the same
// mechanism (§4.3) but this core's grammar subset never produces the
// contexts that would require them (no UNION-typed destinations, no
// array-display rowing, no bare routine-text-as-value auto-call), so
// they are implemented as functions the interpreter and generator can
// call directly (see run.go) without a dedicated insertion rule here.
func (d *Driver) insertCoercions(root *Node) {
	root.Walk(nil, func(n *Node) {
		d.coerceNode(n)
	})
}

func (d *Driver) coerceNode(n *Node) {
	switch n.attribute {
	case formula:
		d.derefChildIfNeeded(n, 0)
		d.derefChildIfNeeded(n, 1)
		d.widenChildIfNeeded(n, 0, n.mode)
		d.widenChildIfNeeded(n, 1, n.mode)
	case monadicFormula:
		d.derefChildIfNeeded(n, 0)
	case assignation:
		dest := n.nth(0)
		rhs := n.nth(1)
		if rhs == nil || dest == nil || dest.mode == nil {
			return
		}
		target := dest.mode.representative()
		if target.Attribute != refM {
			return
		}
		d.derefToIfNeeded(n, 1, target.Sub)
		d.widenToIfNeeded(n, 1, target.Sub)
	case call:
		d.derefChildIfNeeded(n, 0)
		proc := n.nth(0)
		procMode := proc.mode
		if procMode == nil {
			return
		}
		procMode = procMode.representative()
		args := n.children()[1:]
		for i, arg := range args {
			if i >= len(procMode.Pack) {
				break
			}
			want := procMode.Pack[i].Mode
			if arg.mode != nil && arg.mode.representative().Attribute == refM && want.representative().Attribute != refM {
				d.derefToIfNeeded(n, i+1, want)
			}
			d.widenToIfNeeded(n, i+1, want)
		}
	case sliceProduction:
		for i := 1; i < len(n.children()); i++ {
			d.derefChildIfNeeded(n, i)
		}
	case selection:
		// operand kept possibly-REF deliberately: selection on a name
		// yields a name (see check_mode.go), so no deref here.
	case identityDecl:
		if n.tag == nil || n.tag.mode == nil {
			return
		}
		target := n.tag.mode.representative()
		d.derefToIfNeeded(n, 1, target)
		d.widenToIfNeeded(n, 1, target)
	case variableDecl:
		if n.tag == nil || n.tag.mode == nil {
			return
		}
		target := n.tag.mode.representative()
		if target.Attribute != refM {
			return
		}
		d.derefToIfNeeded(n, 1, target.Sub)
		d.widenToIfNeeded(n, 1, target.Sub)
	case conditionalClause:
		d.derefChildIfNeeded(n, 0)
	case caseClause:
		d.derefChildIfNeeded(n, 0)
	case loopClause:
		for _, tag := range []string{"FROM", "BY", "TO", "DOWNTO", "WHILE", "UNTIL"} {
			if part := loopPart(n, tag); part != nil && part.mode != nil && part.mode.representative().Attribute == refM {
				wrap(part, deref)
			}
		}
	case serialClause:
		children := n.children()
		for i, c := range children {
			if i == len(children)-1 {
				continue
			}
			stmt := c
			if stmt.attribute == label {
				stmt = stmt.sub
			}
			if stmt == nil {
				continue
			}
			switch stmt.attribute {
			case identityDecl, variableDecl, modeDecl, opDecl, gotoSymbol:
				continue
			}
			if stmt.mode != nil && stmt.mode.representative().Attribute != voidM {
				wrap(stmt, voiding)
			}
		}
	}
}

func (d *Driver) derefChildIfNeeded(n *Node, idx int) {
	c := n.nth(idx)
	if c == nil || c.mode == nil {
		return
	}
	if c.mode.representative().Attribute == refM {
		wrap(c, deref)
	}
}

func (d *Driver) derefToIfNeeded(n *Node, idx int, target *Moid) {
	c := n.nth(idx)
	if c == nil || c.mode == nil || target == nil {
		return
	}
	if c.mode.representative().Attribute == refM && target.representative().Attribute != refM {
		wrap(c, deref)
	}
}

func (d *Driver) widenChildIfNeeded(n *Node, idx int, target *Moid) {
	d.widenToIfNeeded(n, idx, target)
}

func (d *Driver) widenToIfNeeded(n *Node, idx int, target *Moid) {
	c := n.nth(idx)
	if c == nil || c.mode == nil || target == nil {
		return
	}
	if d.isWideningCompatible(c.mode, target) {
		w := wrap(c, widening)
		w.mode = target
	}
}
