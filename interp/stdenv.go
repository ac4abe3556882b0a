package interp

// buildStandardEnvironment injects predefined modes and tags at level
// 0 (§4.2 step 4 "Standard environment builder"), the Algol 68
// equivalent of initUniverse() (interp/interp.go), which
// seeds predefined Go types/constants/builtins into the universe scope
// the same way.
func (d *Driver) buildStandardEnvironment() {
	for name, prio := range map[string]int{
		"+": 6, "-": 6, "*": 7, "/": 7, "MOD": 7, "OVER": 7, "**": 8,
		"=": 4, "/=": 4, "<": 4, ">": 4, "<=": 4, ">=": 4,
		"AND": 2, "OR": 1,
	} {
		d.Universe.addOperator(&Tag{kind: operatorTag, name: name, priority: prio, standEnvProc: true})
	}

	stringM := d.Modes.standard["STRING"]

	for _, name := range []string{"INT", "REAL", "BOOL", "CHAR", "BITS", "BYTES", "STRING", "COMPLEX", "FORMAT", "FILE", "SOUND"} {
		d.Universe.addIndicant(&Tag{kind: indicantTag, name: name, mode: d.Modes.standard[name]})
	}

	// print/read are standard-environment PROCs consumed by transput,
	// kept here as the minimal bridge the interpreter core calls
	// through (§4.5 "the contract exposed to transput"); the formatted
	// transput state machine itself is out of scope (§1).
	printMode := d.Modes.newProc(Pack{{Mode: stringM}}, d.Modes.voidMode(), nil)
	d.Universe.addIdentifier(&Tag{kind: identifierTag, name: "print", mode: printMode, standEnvProc: true})
	newLineMode := d.Modes.newProc(nil, d.Modes.voidMode(), nil)
	d.Universe.addIdentifier(&Tag{kind: identifierTag, name: "new_line", mode: newLineMode, standEnvProc: true})
}
