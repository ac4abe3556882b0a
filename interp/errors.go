package interp

import "fmt"

// Severity is a diagnostic's kind, per §7 "Error kinds".
type Severity int

const (
	SeverityScan Severity = iota
	SeveritySyntax
	SeverityMode
	SeverityScope
	SeverityWarning
	SeverityRuntime
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityScan:
		return "scan error"
	case SeveritySyntax:
		return "syntax error"
	case SeverityMode:
		return "mode error"
	case SeverityScope:
		return "scope error"
	case SeverityWarning:
		return "warning"
	case SeverityRuntime:
		return "runtime error"
	case SeverityFatal:
		return "fatal error"
	}
	return "error"
}

// Diagnostic carries severity, source position, offending construct
// text and a message chosen from a fixed catalogue, per §7 "User-
// visible behaviour". It is the counterpart of `Panic`
// struct (interp/interp.go), generalised to cover the whole
// scan-to-runtime pipeline instead of only runtime panics.
type Diagnostic struct {
	Severity Severity
	Pos      Position
	Text     string // offending mode(s) or construct text, if any
	Message  string
}

func (d *Diagnostic) Error() string {
	if d.Text != "" {
		return fmt.Sprintf("%s: %s: %s (%s)", d.Pos, d.Severity, d.Message, d.Text)
	}
	return fmt.Sprintf("%s: %s: %s", d.Pos, d.Severity, d.Message)
}

// Diagnostics buffers errors and warnings across phase boundaries,
// mirroring `interp.panics []*Panic` accumulator
// (interp/interp.go GetOldestPanicForErr), generalised from "one kind
// of problem" to the closed severity set of §7.
type Diagnostics struct {
	items []*Diagnostic
}

func (d *Diagnostics) push(sev Severity, pos Position, text, msg string) *Diagnostic {
	diag := &Diagnostic{Severity: sev, Pos: pos, Text: text, Message: msg}
	d.items = append(d.items, diag)
	return diag
}

func (d *Diagnostics) Scan(pos Position, msg string)    { d.push(SeverityScan, pos, "", msg) }
func (d *Diagnostics) Syntax(n *Node, msg string)        { d.push(SeveritySyntax, posOf(n), textOf(n), msg) }
func (d *Diagnostics) Mode(n *Node, msg string)          { d.push(SeverityMode, posOf(n), textOf(n), msg) }
func (d *Diagnostics) Scope(n *Node, msg string)         { d.push(SeverityScope, posOf(n), textOf(n), msg) }
func (d *Diagnostics) Warning(pos Position, msg string)  { d.push(SeverityWarning, pos, "", msg) }
func (d *Diagnostics) Runtime(pos Position, msg string)  { d.push(SeverityRuntime, pos, "", msg) }
func (d *Diagnostics) Fatal(pos Position, msg string)    { d.push(SeverityFatal, pos, "", msg) }

func posOf(n *Node) Position {
	if n == nil {
		return Position{}
	}
	return n.pos
}

func textOf(n *Node) string {
	if n == nil {
		return ""
	}
	if n.symbol != "" {
		return n.symbol
	}
	return n.attribute.String()
}

// ErrorCount and WarningCount let the parser driver decide whether to
// short-circuit the next phase (§4.2: "each phase is skipped if the
// prior phase incremented the error count").
func (d *Diagnostics) ErrorCount() int {
	n := 0
	for _, it := range d.items {
		if it.Severity != SeverityWarning {
			n++
		}
	}
	return n
}

func (d *Diagnostics) WarningCount() int {
	n := 0
	for _, it := range d.items {
		if it.Severity == SeverityWarning {
			n++
		}
	}
	return n
}

// Severity filters for to_terminal, per §7.
const (
	FilterAll = "ALL"
	FilterRuntimeOnly = "RUNTIME"
)

// ToTerminal flushes buffered diagnostics as formatted lines, filtered
// by severity: FilterAll prints everything accumulated so far from
// topLine onward, FilterRuntimeOnly prints only runtime/fatal errors.
func (d *Diagnostics) ToTerminal(topLine int, filter string) []string {
	var out []string
	for i, it := range d.items {
		if i < topLine {
			continue
		}
		if filter == FilterRuntimeOnly && it.Severity != SeverityRuntime && it.Severity != SeverityFatal {
			continue
		}
		out = append(out, it.Error())
	}
	return out
}

func (d *Diagnostics) All() []*Diagnostic { return d.items }
