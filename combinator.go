package pegvm

// Value is anything a combinator's argument can evaluate to: a ground
// value (int, string, rune, bool, map[string]Combinator, ...), a
// Combinator left unevaluated, or the result of matching a Combinator.
type Value = interface{}

// Thunk is an argument that should NOT be eagerly evaluated by the Call
// Dispatcher. Invoking a Thunk is a plain Go call with no parser
// involvement; it exists purely to hand a Combinator to Apply's argument
// evaluator without that Combinator being matched first (a bare
// Combinator argument, by contrast, is resolved immediately). The library
// combinators in library.go do not go through Apply: they close over their
// children and call them through Parser.Call from their own Run.
type Thunk func() Value

// Type is a Combinator's declared return type, checked by the Call
// Dispatcher against what the combinator actually produces.
type Type int

const (
	// Boolean combinators report match success/failure.
	Boolean Type = iota
	// Any combinators produce an arbitrary value (Add, Sub, Set, ...).
	Any
)

func (t Type) String() string {
	if t == Boolean {
		return "boolean"
	}
	return "any"
}

// Combinator is the discriminated value the Call Dispatcher resolves. It
// is exactly the three-case sum spec.md's data model describes: a bare
// Literal, a named Func, or an Apply of a Func to arguments.
type Combinator interface {
	combinator()
}

// Literal is a numeric literal returned verbatim by the dispatcher: no
// frame is pushed, no trace line is emitted, and no receiver hook fires.
// This lets numeric arguments (e.g. Rep's bounds) piggyback on the call
// path without dragging tracing/receiver machinery along.
type Literal int

func (Literal) combinator() {}

// RuleFunc is the body of a Func: given the parser and the already-
// evaluated arguments, produce a result. The result may itself be a
// Combinator, in which case the dispatcher keeps resolving it within the
// same activation record (see dispatcher.go) instead of returning.
type RuleFunc func(p *Parser, args []Value) (Value, error)

// Func is a named parsing function: a combinator, a primitive terminal,
// or one of the fixed library entries. Name is used for tracing and
// receiver-hook derivation unless Label overrides it per-call (used by
// terminals like Chr and Rng whose trace name encodes their arguments,
// e.g. "chr(a)" or "rng(0,9)").
type Func struct {
	Name   string
	Label  func(args []Value) string
	Return Type
	Run    RuleFunc

	// NoFrame marks a Func as a plain value computation rather than a
	// matching step: the Call Dispatcher runs it without pushing an
	// activation record, without tracing it, and without resolving
	// receiver hooks for it. Frame.Local reads/writes it performs land on
	// whichever frame is already on top of the stack -- its caller's --
	// which is what lets Set bind a value visible to later siblings
	// under the same enclosing rule, rather than to a frame of its own
	// that vanishes the instant it returns.
	NoFrame bool
}

func (*Func) combinator() {}

func (f *Func) traceName(args []Value) string {
	if f.Label != nil {
		return f.Label(args)
	}
	return f.Name
}

// Apply pairs a Func with a fixed argument list to be resolved by the
// Call Dispatcher at call time. Args may themselves be Combinators
// (evaluated eagerly, expected_type='any'), Thunks (invoked to produce
// their value without being matched), or ground values (passed through
// unchanged).
type Apply struct {
	Head Combinator
	Args []Value
}

func (*Apply) combinator() {}

// child wraps a Combinator so it survives Apply's argument evaluation
// unexecuted: the thunk, when invoked, simply returns c.
func child(c Combinator) Thunk {
	return func() Value { return c }
}

// asCombinator recovers a Combinator from an already-evaluated argument,
// which is either the Combinator itself (ground-passthrough case, e.g.
// inside a map) or was produced by invoking a child() thunk.
func asCombinator(v Value) (Combinator, bool) {
	c, ok := v.(Combinator)
	return c, ok
}
