package interp

// checkScope is §4.2 step 13: computes lexical scopes for names,
// closures and formats, and marks yields that require dynamic
// checking. Static scope checking proves some violations outright (a
// LOC generator returned directly as a routine's result, §8's
// scenario table `PROC bad = REF INT: LOC INT`); anything it cannot
// prove safe is marked so run.go's DNS (§4.5) re-checks it against the
// live frame pointer at evaluation time, per invariant 1 (§3: "every
// reachable REF has scope <= current frame pointer at the moment it
// is yielded").
func (d *Driver) checkScope(root *Node) {
	root.Walk(nil, func(n *Node) {
		if n.attribute == routineText {
			d.checkRoutineResultScope(n)
		}
		d.markDynamicCheck(n)
	})
}

// checkRoutineResultScope flags the one static violation this core
// proves without running the program: a routine whose result is a
// LOC generator evaluated directly in its own body necessarily yields
// a name scoped to a frame that is about to close.
func (d *Driver) checkRoutineResultScope(rt *Node) {
	body := routineBody(rt)
	result := lastUnitOf(body)
	if result == nil {
		return
	}
	// Coercions (deref/widening) wrap the generator; unwrap to see what
	// is actually being yielded.
	actual := result
	for actual.attribute == deref || actual.attribute == widening || actual.attribute == voiding {
		actual = actual.sub
	}
	if actual.attribute == generatorClause && actual.symbol == "LOC" {
		if actual.mode != nil && actual.mode.representative().Attribute == refM {
			d.Diag.Scope(actual, "name generated with LOC is yielded beyond the frame that owns it")
		}
	}
}

// routineBody returns a routine text's body (the non-parameter,
// non-result-marker child), the same node symtabbuild.go opens a new
// lexical level for.
func routineBody(rt *Node) *Node {
	var last *Node
	for c := rt.sub; c != nil; c = c.next {
		last = c
	}
	return last
}

// lastUnitOf returns the unit whose value a clause yields: itself, if
// it is already a unit, or its serial clause's last non-declaration
// statement.
func lastUnitOf(n *Node) *Node {
	if n == nil {
		return nil
	}
	if n.attribute == serialClause {
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
		return last
	}
	if n.attribute == closedClause {
		return lastUnitOf(n.sub)
	}
	return n
}

// markDynamicCheck flags nodes yielding a REF or PROC mode in a
// position where the value escapes its immediate expression (returned
// from a call, assigned, or yielded from a clause) for a runtime DNS
// check. Declarer-position nodes (the DECLARER subtree of a MODE
// declaration or formal parameter) never yield a runtime value, so
// they are excluded.
func (d *Driver) markDynamicCheck(n *Node) {
	if n.mode == nil {
		return
	}
	switch n.attribute {
	case identifier, call, selection, sliceProduction, generatorClause,
		closedClause, serialClause, conditionalClause, caseClause, deref:
		rep := n.mode.representative()
		if rep.Attribute == refM || rep.Attribute == procM {
			n.mask |= MaskAssert // MaskAssert doubles as "needs dynamic scope check" for run.go
		}
	}
}
