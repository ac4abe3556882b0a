package interp

// buildModeTable is §4.2 step 7 / §4.1 "Construction": a single walk
// over the annotated tree calling mode_from_declarer on every
// DECLARER node, memoising into mode(node), followed by indicant
// binding, the cyclic-declaration check, yin-yang well-formedness, and
// the derive/equivalence fixed-point loop.
func (d *Driver) buildModeTable(root *Node) {
	// Pass 1: register every MODE declaration's name so indicants can
	// resolve forward references (`MODE A = STRUCT(REF B b); MODE B = ...`).
	root.Walk(func(n *Node) bool {
		if n.attribute == modeDecl {
			if _, dup := d.indicantDefs[n.symbol]; !dup {
				d.indicantDefs[n.symbol] = d.Modes.newIndicant(n.symbol, n)
			}
		}
		return true
	}, nil)

	// Pass 2: build every declarer's mode, including each MODE
	// declaration's right-hand side, which becomes the indicant's
	// definition.
	root.Walk(nil, func(n *Node) {
		switch n.attribute {
		case modeDecl:
			def := d.modeFromDeclarer(n.sub)
			d.indicantDefs[n.symbol].equivalent = def
			n.mode = d.indicantDefs[n.symbol]
		case voidSymbol, refSymbol, flexSymbol, boundsTag, structSymbol, unionSymbol, procSymbol, longety, shortety, indicant:
			if n.mode == nil && n.parent != nil && n.parent.attribute != modeDecl {
				n.mode = d.modeFromDeclarer(n)
			}
		}
	})

	d.Modes.bindIndicantsToModes(d.Diag, d.indicantDefs)
	d.Modes.checkCyclicDeclarations(d.Diag, d.indicantDefs)
	for name, def := range d.indicantDefs {
		if !d.Modes.wellFormed(def) {
			d.Diag.Mode(def.Node, "mode "+name+" is not well-formed: every cycle must pass a REF/PROC boundary and a STRUCT/UNION boundary")
		}
	}
	d.Modes.expandContractMoids()
}

// modeFromDeclarer computes (and memoises) the MOID for a single
// DECLARER node, dispatching on its token exactly as §4.1 describes.
func (d *Driver) modeFromDeclarer(n *Node) *Moid {
	if n == nil {
		return d.Modes.voidMode()
	}
	if n.mode != nil {
		return n.mode
	}
	var m *Moid
	switch n.attribute {
	case voidSymbol:
		m = d.Modes.voidMode()
	case refSymbol:
		m = d.Modes.newRef(d.modeFromDeclarer(n.sub), n)
	case flexSymbol:
		sub := d.modeFromDeclarer(n.sub)
		m = d.Modes.newFlex(sub, n)
		m.slice = sub // FLEX's slice is copied from its sub, per §4.1
	case boundsTag:
		dim := n.genieInfo().argsize
		if dim == 0 {
			dim = 1
		}
		children := n.children()
		elem := d.modeFromDeclarer(children[len(children)-1])
		m = d.Modes.newRow(dim, elem, n)
	case structSymbol:
		var pack Pack
		for c := n.sub; c != nil; c = c.next {
			fieldMode := d.modeFromDeclarer(c.sub)
			pack = append(pack, PackItem{Mode: fieldMode, Name: c.symbol, Node: c})
		}
		m = d.Modes.newStruct(pack, n)
	case unionSymbol:
		var pack Pack
		for c := n.sub; c != nil; c = c.next {
			pack = append(pack, PackItem{Mode: d.modeFromDeclarer(c), Node: c})
		}
		m = d.Modes.newUnion(pack, n)
	case procSymbol:
		children := n.children()
		if len(children) == 0 {
			m = d.Modes.newProc(nil, d.Modes.voidMode(), n)
			break
		}
		result := d.modeFromDeclarer(children[len(children)-1])
		var params Pack
		for _, c := range children[:len(children)-1] {
			params = append(params, PackItem{Mode: d.modeFromDeclarer(c), Node: c})
		}
		m = d.Modes.newProc(params, result, n)
	case longety, shortety:
		dim := n.genieInfo().argsize
		name := ""
		if n.sub != nil {
			name = n.sub.symbol
		}
		m = d.Modes.standardModeAt(d.Diag, name, dim)
	case indicant:
		if std, ok := d.Modes.standard[n.symbol]; ok {
			m = std
		} else if def, ok := d.indicantDefs[n.symbol]; ok {
			m = def
		} else if tag := d.Universe.findIndicant(n.symbol); tag != nil {
			m = tag.mode
		} else {
			m = d.Modes.newIndicant(n.symbol, n)
			d.Diag.Mode(n, "indicant "+n.symbol+" is never defined")
		}
	default:
		m = d.Modes.voidMode()
	}
	n.mode = m
	return m
}
