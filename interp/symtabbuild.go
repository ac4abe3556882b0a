package interp

// buildSymbolTables is §4.2 step 8: collects tags, assigns frame
// offsets, accumulates ap_increment. The program's declarations go
// into the Universe table; a new SymbolTable is opened at each nested
// lexical level (routine text, closed clause, loop clause), linked by `previous` to its enclosing level, the same
// per-block scope-chain discipline a nested-closure interpreter needs
// regardless of source language.
//
// Algol 68 identifiers are visible throughout the range that declares
// them regardless of textual declaration order, so each level is
// built in two passes: first every declaration at this level is
// registered (so forward and mutually-recursive references resolve),
// then children are walked to open nested levels.
func (d *Driver) buildSymbolTables(root *Node) {
	root.symbolTable = d.Universe
	d.nestLevel = 0
	d.buildLevel(root, d.Universe)
}

// buildLevel registers declarations found directly in n's serial
// clause (or, for a routine text, n's formal parameters) into st, then
// recurses, opening a fresh level wherever the grammar requires one.
func (d *Driver) buildLevel(n *Node, st *SymbolTable) {
	if n == nil {
		return
	}
	n.symbolTable = st

	switch n.attribute {
	case program:
		d.declareSerial(n.sub, st)
		d.buildLevel(n.sub, st)
		return
	case closedClause:
		inner := newSymbolTable(st.level+1, st)
		n.symbolTable = inner
		n.sub.symbolTable = inner
		d.declareSerial(n.sub, inner)
		d.buildLevel(n.sub, inner)
		return
	case routineText:
		inner := newSymbolTable(st.level+1, st)
		n.symbolTable = inner
		for c := n.sub; c != nil; c = c.next {
			if c.attribute != identifier || c.symbol == "$result$" {
				continue
			}
			mode := d.modeFromDeclarer(c.sub)
			t := &Tag{kind: identifierTag, name: c.symbol, mode: mode, node: c}
			inner.addIdentifier(t)
			c.tag = t
			c.symbolTable = inner
			inner.apIncrement += d.Modes.Size(mode)
		}
		body := routineBody(n)
		if body != nil {
			if body.attribute == serialClause {
				d.declareSerial(body, inner)
			}
			d.buildLevel(body, inner)
		}
		return
	case loopClause:
		inner := newSymbolTable(st.level+1, st)
		n.symbolTable = inner
		if forPart := loopPart(n, "FOR"); forPart != nil {
			mode := d.Modes.standard["INT"]
			t := &Tag{kind: identifierTag, name: forPart.symbol, mode: mode, node: forPart}
			inner.addIdentifier(t)
			forPart.tag = t
			forPart.symbolTable = inner
		}
		for c := n.sub; c != nil; c = c.next {
			if c.symbol == "$DO" {
				c.sub.symbolTable = inner
				d.declareSerial(c.sub, inner)
			}
			d.buildLevel(c, inner)
		}
		return
	case label:
		t := &Tag{kind: labelTag, name: n.symbol, node: n}
		st.addLabel(t)
		n.tag = t
		d.buildLevel(n.sub, st)
		return
	}

	for c := n.sub; c != nil; c = c.next {
		d.buildLevel(c, st)
	}
}

// declareSerial pre-registers every declaration directly inside a
// serial clause into st (not recursing into nested clauses), so
// forward references within the same range resolve before the second
// walk visits them.
func (d *Driver) declareSerial(serial *Node, st *SymbolTable) {
	if serial == nil {
		return
	}
	for c := serial.sub; c != nil; c = c.next {
		stmt := c
		if stmt.attribute == label {
			t := &Tag{kind: labelTag, name: stmt.symbol, node: stmt}
			st.addLabel(t)
			stmt.tag = t
			stmt = stmt.sub
			if stmt == nil {
				continue
			}
		}
		switch stmt.attribute {
		case identityDecl, variableDecl:
			mode := d.modeFromDeclarer(stmt.sub)
			if stmt.attribute == variableDecl {
				mode = d.Modes.newRef(mode, stmt)
			}
			t := &Tag{kind: identifierTag, name: stmt.symbol, mode: mode, node: stmt}
			st.addIdentifier(t)
			stmt.tag = t
			st.apIncrement += d.Modes.Size(mode)
		case opDecl:
			rt := stmt.sub
			var params Pack
			var result *Moid
			for c := rt.sub; c != nil; c = c.next {
				if c.symbol == "$result$" {
					result = d.modeFromDeclarer(c.sub)
					continue
				}
				if c.attribute == identifier {
					params = append(params, PackItem{Mode: d.modeFromDeclarer(c.sub), Node: c})
				}
			}
			mode := d.Modes.newProc(params, result, stmt)
			t := &Tag{kind: operatorTag, name: stmt.symbol, mode: mode, node: stmt, priority: 9}
			st.addOperator(t)
			stmt.tag = t
		}
	}
}
