package interp

// checkPortability is §4.2 step 14, run only when the PORTCHECK option
// (§6) is active: it issues warnings for constructs whose behaviour
// varies across Algol 68 implementations. This core flags the two
// portability hazards its mode system can detect cheaply: precision
// beyond LONG (implementation-defined how far LONG LONG actually
// reaches) and BYTES/BITS modes (whose width is implementation-
// defined).
func (d *Driver) checkPortability(root *Node) {
	root.Walk(nil, func(n *Node) {
		if n.mode == nil {
			return
		}
		m := n.mode.representative()
		if m.Attribute == standardM {
			if m.Dim >= 2 {
				d.Diag.Warning(n.pos, "LONG LONG "+m.Name+" precision is implementation-defined")
			}
			if m.Name == "BYTES" || m.Name == "BITS" {
				d.Diag.Warning(n.pos, m.Name+" width is implementation-defined")
			}
		}
	})
}
