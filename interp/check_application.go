package interp

// checkApplication is §4.2 step 12: marks moid use and warns about
// unused tags. Full moid-use marking feeds the listing generator's
// MOIDS option (§6), which is an external collaborator here (§1);
// this core keeps the part with an observable effect on diagnostics:
// the unused-tag warning. Frame restoration on a jump that crosses a
// procedure boundary needs no separate static annotation: it falls
// out of Go's own `defer closeFrame` unwinding as the panic carrying
// the jump signal propagates up through every intervening callProc
// (run.go).
func (d *Driver) checkApplication(root *Node) {
	used := map[*Tag]bool{}
	root.Walk(nil, func(n *Node) {
		if n.attribute == identifier && n.tag != nil {
			used[n.tag] = true
		}
	})

	root.Walk(nil, func(n *Node) {
		stmt := n
		if stmt.attribute == label {
			stmt = stmt.sub
			if stmt == nil {
				return
			}
		}
		switch stmt.attribute {
		case identityDecl, variableDecl:
			if stmt.tag != nil && !used[stmt.tag] && stmt.symbol != "_" {
				d.Diag.Warning(stmt.pos, "identifier "+stmt.symbol+" is declared but never used")
			}
		case opDecl:
			// operator tags are looked up by symbol during formula mode
			// checking rather than resolved to a specific Tag node, so
			// "unused operator" cannot be determined from `used` alone;
			// unused operators are therefore not reported.
		}
	})
}
