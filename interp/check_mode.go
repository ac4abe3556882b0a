package interp

// checkModes is the mode checker of §4.2 step 10: it decorates every
// expression node with its a-priori mode. Full Algol 68 mode checking
// resolves balanced contexts (the common mode of every branch of a
// conditional, the overload set of an operator application, ...) by
// searching the whole mode lattice; this core implements the
// practical subset needed to run real programs — arithmetic/
// relational operator typing, identifier/call/slice/selection/
// assignment typing, and last-unit propagation through clauses — and
// reports a mode error wherever that subset cannot determine a mode,
// rather than silently guessing.
func (d *Driver) checkModes(root *Node) {
	root.Walk(nil, func(n *Node) {
		d.modeCheckNode(n)
	})
}

func (d *Driver) modeCheckNode(n *Node) {
	if n.mode != nil {
		return // declarer-derived modes are already set by buildModeTable
	}
	switch n.attribute {
	case denotation:
		n.mode = d.denotationMode(n)
	case nihil:
		n.mode = d.Modes.newRef(d.Modes.voidMode(), n)
	case generatorClause:
		n.mode = d.Modes.newRef(d.modeFromDeclarer(n.sub), n)
	case skipSymbol:
		n.mode = d.Modes.voidMode()
	case identifier:
		if len(n.symbol) > 0 && n.symbol[0] == '$' || n.parent != nil && n.parent.attribute == structSymbol {
			return // clause markers and STRUCT field names are not expressions
		}
		if n.tag != nil {
			n.mode = n.tag.mode
			return
		}
		tag := n.symbolTable.findIdentifier(n.symbol)
		if tag == nil {
			d.Diag.Mode(n, "identifier "+n.symbol+" is not declared")
			n.mode = d.Modes.voidMode()
			return
		}
		n.tag = tag
		n.mode = tag.mode
	case assignation:
		dest := n.nth(0)
		src := n.nth(1)
		destMode := dest.mode
		if destMode == nil || destMode.representative().Attribute != refM {
			d.Diag.Mode(n, "assignment destination is not a name (REF mode)")
			n.mode = destMode
			return
		}
		target := destMode.representative().Sub
		if src.mode != nil && !d.Modes.Equivalent(src.mode, target) && !d.isWideningCompatible(src.mode, target) {
			d.Diag.Mode(n, "cannot assign "+src.mode.String()+" to a name yielding "+target.String())
		}
		n.mode = destMode
	case formula:
		n.mode = d.formulaMode(n)
	case monadicFormula:
		operand := n.nth(0)
		if operand.mode != nil && operand.mode.representative() == d.Modes.standard["REAL"] {
			n.mode = d.Modes.standard["REAL"]
		} else {
			n.mode = d.Modes.standard["INT"]
		}
		if n.symbol == "NOT" {
			n.mode = d.Modes.standard["BOOL"]
		}
	case call:
		proc := n.nth(0)
		procMode := proc.mode
		if procMode != nil {
			procMode = procMode.representative()
			if procMode.Attribute == refM {
				procMode = procMode.Sub.representative()
			}
		}
		if procMode == nil || procMode.Attribute != procM {
			d.Diag.Mode(n, "call target is not a PROC mode")
			n.mode = d.Modes.voidMode()
			return
		}
		args := n.children()[1:]
		if len(args) < len(procMode.Pack) {
			n.mode = procMode // fewer arguments than parameters: typed as the PROC itself; callProc leaves the missing parameters unset
			return
		}
		if procMode.Sub != nil {
			n.mode = procMode.Sub
		} else {
			n.mode = d.Modes.voidMode()
		}
	case sliceProduction:
		arr := n.nth(0)
		base := arr.mode
		if base == nil {
			n.mode = d.Modes.voidMode()
			return
		}
		base = base.representative()
		isRef := base.Attribute == refM
		row := base
		if isRef {
			row = base.Sub.representative()
		}
		if row.Attribute == flexM {
			row = row.Sub.representative()
		}
		if row.Attribute != rowM {
			d.Diag.Mode(n, "cannot subscript a non-row mode "+base.String())
			n.mode = d.Modes.voidMode()
			return
		}
		elem := d.Modes.sliceOf(row)
		if elem == nil || elem.Attribute == rowM {
			elem = row.Sub
		}
		if isRef {
			n.mode = d.Modes.newRef(elem, n)
		} else {
			n.mode = elem
		}
	case selection:
		operand := n.nth(0)
		base := operand.mode
		if base == nil {
			n.mode = d.Modes.voidMode()
			return
		}
		isRef := base.representative().Attribute == refM
		structMode := base.representative()
		if isRef {
			structMode = structMode.Sub.representative()
		}
		if structMode.Attribute != structM {
			d.Diag.Mode(n, "selection from a non-STRUCT mode "+base.String())
			n.mode = d.Modes.voidMode()
			return
		}
		var field *Moid
		for _, f := range structMode.Pack {
			if f.Name == n.symbol {
				field = f.Mode
				break
			}
		}
		if field == nil {
			d.Diag.Mode(n, "no field "+n.symbol+" in "+structMode.String())
			n.mode = d.Modes.voidMode()
			return
		}
		if isRef {
			n.mode = d.Modes.newRef(field, n)
		} else {
			n.mode = field
		}
	case serialClause:
		n.mode = d.lastMode(n)
	case closedClause:
		if n.sub != nil {
			n.mode = n.sub.mode
		} else {
			n.mode = d.Modes.voidMode()
		}
	case conditionalClause:
		thenBranch := n.nth(1)
		if thenBranch != nil && thenBranch.mode != nil {
			n.mode = thenBranch.mode
		} else {
			n.mode = d.Modes.voidMode()
		}
	case caseClause:
		n.mode = d.Modes.voidMode()
		if alts := n.nth(1); alts != nil {
			for c := alts.sub; c != nil; c = c.next {
				if c.mode != nil {
					n.mode = c.mode
					break
				}
			}
		}
	case collateralClause:
		// Display mode (row/struct literal) is resolved from its
		// destination context by the coercion inserter, not here.
		n.mode = nil
	case loopClause:
		n.mode = d.Modes.voidMode()
	case routineText:
		// Mode was already assigned by the declaring identity/variable
		// decl or OP decl; a routine text used as a primary expression
		// (an unnamed lambda) still needs one.
		var params Pack
		var result *Moid
		for c := n.sub; c != nil; c = c.next {
			if c.symbol == "$result$" {
				result = d.modeFromDeclarer(c.sub)
				continue
			}
			if c.attribute == identifier {
				params = append(params, PackItem{Mode: d.modeFromDeclarer(c.sub), Node: c})
			}
		}
		n.mode = d.Modes.newProc(params, result, n)
	case identityDecl, variableDecl, modeDecl, opDecl, gotoSymbol, label:
		n.mode = d.Modes.voidMode()
	}
}

func (d *Driver) denotationMode(n *Node) *Moid {
	switch n.genie.constant.(type) {
	case int64:
		return d.Modes.standard["INT"]
	case float64:
		return d.Modes.standard["REAL"]
	case bool:
		return d.Modes.standard["BOOL"]
	case rune:
		return d.Modes.standard["CHAR"]
	case string:
		return d.Modes.standard["STRING"]
	}
	return d.Modes.standard["INT"]
}

// lastMode returns the mode of the last unit in a serial clause (a
// sequence of only declarations yields VOID), which is Algol 68's rule
// for the value a SERIAL CLAUSE yields.
func (d *Driver) lastMode(n *Node) *Moid {
	var last *Node
	for c := n.sub; c != nil; c = c.next {
		stmt := c
		if stmt.attribute == label {
			stmt = stmt.sub
		}
		if stmt == nil {
			continue
		}
		switch stmt.attribute {
		case identityDecl, variableDecl, modeDecl, opDecl:
			continue
		}
		last = stmt
	}
	if last == nil {
		return d.Modes.voidMode()
	}
	return last.mode
}

// isWideningCompatible reports whether src can reach target through a
// single WIDENING coercion (INT->REAL, REAL->LONG REAL, ...), per
// §4.3 "Coercions: Widening".
func (d *Driver) isWideningCompatible(src, target *Moid) bool {
	src, target = src.representative(), target.representative()
	if src.Attribute != standardM || target.Attribute != standardM {
		return false
	}
	if src.Name == "INT" && target.Name == "REAL" {
		return true
	}
	if src.Name == target.Name && target.Dim > src.Dim {
		return true
	}
	return false
}

func (d *Driver) formulaMode(n *Node) *Moid {
	left, right := n.nth(0), n.nth(1)
	switch n.symbol {
	case "=", "/=", "<", ">", "<=", ">=", "AND", "OR":
		return d.Modes.standard["BOOL"]
	}
	name := "INT"
	dim := 0
	note := func(m *Moid) {
		if m == nil {
			return
		}
		m = m.representative()
		if m.Attribute != standardM {
			return
		}
		if m.Name == "REAL" {
			name = "REAL"
		}
		if m.Dim > dim {
			dim = m.Dim
		}
	}
	if left != nil {
		note(left.mode)
	}
	if right != nil {
		note(right.mode)
	}
	if dim == 0 {
		return d.Modes.standard[name]
	}
	return d.Modes.standardModeAt(d.Diag, name, dim)
}
