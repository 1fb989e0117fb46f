package pegvm

import "fmt"

// Parser holds the state of one in-flight parse: the input, the cursor,
// the activation-record stack, the grammar and receiver collaborators,
// the receiver-hook cache, and the trace recorder. A Parser is used for
// exactly one parse; it is not safe for concurrent use.
type Parser struct {
	cfg      Config
	grammar  Grammar
	receiver Receiver
	input    []rune

	pos   int
	stk   stack
	hooks map[Combinator]hookTriple
	trc   *tracer

	traceStarted bool
	quiet        map[string]int // set of rule names that start a trace-quiet subtree
	quietDepth   int
}

func newParser(cfg Config, grammar Grammar, receiver Receiver, input []rune) *Parser {
	p := &Parser{
		cfg:      cfg,
		grammar:  grammar,
		receiver: receiver,
		input:    input,
		hooks:    make(map[Combinator]hookTriple),
	}
	if cfg.Trace {
		p.trc = newTracer(cfg.TraceWriter)
	}
	if len(cfg.TraceQuiet) > 0 {
		p.quiet = make(map[string]int, len(cfg.TraceQuiet))
		for _, name := range cfg.TraceQuiet {
			p.quiet[name] = 0
		}
	}
	p.traceStarted = cfg.TraceStartAt == ""
	return p
}

// Pos returns the parser's current cursor position.
func (p *Parser) Pos() int { return p.pos }

// Len returns the input length.
func (p *Parser) Len() int { return len(p.input) }

// At returns the rune at the given absolute offset and true, or 0 and
// false when the offset is out of range; combinators use this rather than
// touching p.input directly.
func (p *Parser) At(offset int) (rune, bool) {
	if offset < 0 || offset >= len(p.input) {
		return 0, false
	}
	return p.input[offset], true
}

// Slice returns input[from:to] as a string.
func (p *Parser) Slice(from, to int) string {
	return string(p.input[from:to])
}

// State returns the current activation record (the Position & Stack
// Manager's state() operation): the top frame, or a synthetic {Lvl: 0}
// frame if nothing is on the stack.
func (p *Parser) State() *Frame { return p.stk.top() }

func (p *Parser) run() (bool, error) {
	return p.callTop()
}

func (p *Parser) runRule(name string) (bool, error) {
	return p.callNamedRule(name)
}

// callTop looks up the grammar's designated top rule and runs the full
// parse() surface: success only if the rule matches AND the cursor has
// reached the end of input.
func (p *Parser) callTop() (bool, error) {
	comb, ok := p.grammar.LookupTop()
	if !ok {
		err := fmt.Errorf("grammar has no top rule")
		p.cfg.Logger.Error(err)
		return false, &FatalError{Cause: err}
	}
	return p.finish("TOP", comb)
}

func (p *Parser) callNamedRule(name string) (bool, error) {
	comb, ok := p.grammar.LookupRule(name)
	if !ok {
		err := fmt.Errorf("undefined rule %q", name)
		p.cfg.Logger.Error(err)
		return false, &FatalError{Cause: err}
	}
	return p.finish(name, comb)
}

func (p *Parser) finish(name string, comb Combinator) (bool, error) {
	val, err := p.callNamed(comb, Boolean, name)
	if err != nil {
		if p.trc != nil {
			p.trc.flush()
		}
		var raw *rawFatal
		if asErr(err, &raw) {
			fe := &FatalError{Path: []string{name}, Cause: raw.error}
			p.cfg.Logger.WithField("path", fe.Path).Error(fe.Cause)
			return false, fe
		}
		if fe, ok := err.(*FatalError); ok {
			p.cfg.Logger.WithField("path", fe.Path).Error(fe.Cause)
		}
		return false, err
	}
	ok, _ := val.(bool)
	if p.trc != nil {
		p.trc.flush()
	}
	if !ok {
		return false, failDidNotMatch(name, p.pos, len(p.input))
	}
	if p.pos < len(p.input) {
		return false, failNotFullyConsumed(name, p.pos, len(p.input))
	}
	return true, nil
}

func asErr(err error, target **rawFatal) bool {
	if raw, ok := err.(*rawFatal); ok {
		*target = raw
		return true
	}
	return false
}

// Call is the Call Dispatcher's public entry point for combinators to
// invoke a child. expected is the declared return type the caller
// requires of target.
func (p *Parser) Call(target Combinator, expected Type) (Value, error) {
	return p.callNamed(target, expected, "")
}

// CallRule invokes a grammar rule by name as a NESTED call, pushing its
// own frame named after the rule (rather than inlining it anonymously
// into the caller's frame). This is how one named production references
// another.
func (p *Parser) CallRule(name string, expected Type) (Value, error) {
	comb, ok := p.grammar.LookupRule(name)
	if !ok {
		return nil, fatalf("undefined rule %q", name)
	}
	return p.callNamed(comb, expected, name)
}

// callNamed resolves target per the four resolution rules of spec.md
// §4.1, then (for Rule-shaped targets) runs the full call protocol.
// nameOverride, when non-empty, is used as the frame's trace name instead
// of the combinator's own Name/Label (used when entering a named grammar
// rule, so the frame is named after the rule, not after the combinator
// library entry that built it).
func (p *Parser) callNamed(target Combinator, expected Type, nameOverride string) (Value, error) {
	switch t := target.(type) {
	case Literal:
		return int(t), nil

	case *Apply:
		args, err := p.evalArgs(t.Args)
		if err != nil {
			return nil, err
		}
		fn, ok := t.Head.(*Func)
		if !ok {
			return nil, fatalf("apply: head is not a callable rule (got %T)", t.Head)
		}
		if fn.NoFrame && nameOverride == "" {
			return p.invokeBare(fn, args, expected)
		}
		name := nameOverride
		if name == "" {
			name = fn.traceName(args)
		}
		return p.invoke(fn, args, expected, name)

	case *Func:
		if t.NoFrame && nameOverride == "" {
			return p.invokeBare(t, nil, expected)
		}
		name := nameOverride
		if name == "" {
			name = t.traceName(nil)
		}
		return p.invoke(t, nil, expected, name)

	default:
		return nil, fatalf("call: unsupported combinator value of type %T", target)
	}
}

// evalArgs evaluates an Apply's argument list eagerly: Combinator
// arguments are recursively called with expected_type='any'; Thunk
// arguments are invoked to produce their value (without being matched);
// ground values pass through unchanged.
func (p *Parser) evalArgs(raw []Value) ([]Value, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]Value, len(raw))
	for i, a := range raw {
		switch v := a.(type) {
		case Thunk:
			out[i] = v()
		case Combinator:
			val, err := p.callNamed(v, Any, "")
			if err != nil {
				return nil, err
			}
			out[i] = val
		default:
			out[i] = a
		}
	}
	return out, nil
}

// invoke runs the full call protocol (spec.md §4.1) for a resolved Func:
// push a frame, trace "?", fire the try hook, run the rule (trampolining
// through any Combinator it returns without pushing another frame), type-
// check the result, then trace/fire got-or-not and pop.
func (p *Parser) invoke(fn *Func, args []Value, expected Type, name string) (Value, error) {
	if p.cfg.CallDepthLimit > 0 && p.stk.depth() >= p.cfg.CallDepthLimit {
		return nil, fatalf("call depth limit (%d) exceeded at rule %q", p.cfg.CallDepthLimit, name)
	}

	frame := newFrame(name, p.stk.top().Lvl+1, p.pos, fn)
	p.stk.push(frame)

	quietBefore := p.enterQuiet(name)
	p.maybeStartTrace(name)
	p.emitTrace(traceTry, frame, args)

	hk := p.hookFor(fn)
	if hk.try != nil {
		hk.try(p.event(frame, frame.Pos, frame.Pos))
	}

	val, err := p.trampoline(fn, args)
	if err != nil {
		p.stk.pop()
		p.leaveQuiet(name, quietBefore)
		return nil, wrapPath(err, name)
	}

	if expected == Any {
		if val == nil {
			p.stk.pop()
			p.leaveQuiet(name, quietBefore)
			return nil, fatalf("rule %q declared return type any but produced nil", name)
		}
		p.stk.pop()
		p.leaveQuiet(name, quietBefore)
		return val, nil
	}

	ok, isBool := val.(bool)
	if !isBool {
		p.stk.pop()
		p.leaveQuiet(name, quietBefore)
		return nil, fatalf("rule %q declared return type boolean but produced %T", name, val)
	}

	if ok {
		p.emitTrace(traceGot, frame, nil)
		if hk.got != nil {
			hk.got(p.event(frame, frame.Pos, p.pos))
		}
	} else {
		p.emitTrace(traceNot, frame, nil)
		if hk.not != nil {
			hk.not(p.event(frame, frame.Pos, p.pos))
		}
	}
	p.stk.pop()
	p.leaveQuiet(name, quietBefore)
	return ok, nil
}

// invokeBare runs a NoFrame Func without pushing an activation record,
// tracing it, or resolving receiver hooks: it is a plain value
// computation (Set, Flip, Case, Chk, Add, Sub, ...), not a matching step.
// Frame.Local calls it makes land on the frame already on top of the
// stack, i.e. its caller's.
func (p *Parser) invokeBare(fn *Func, args []Value, expected Type) (Value, error) {
	val, err := p.trampoline(fn, args)
	if err != nil {
		return nil, err
	}
	if expected == Any {
		return val, nil
	}
	ok, isBool := val.(bool)
	if !isBool {
		return nil, fatalf("rule %q declared return type boolean but produced %T", fn.Name, val)
	}
	return ok, nil
}

// trampoline keeps invoking fn.Run and, while it returns a further
// Combinator instead of a ground value, keeps resolving that Combinator
// WITHIN the same activation record (no extra frame, no extra trace/
// receiver events) — this is how a plain rule reference (one grammar
// production delegating to another by name) is implemented: its Run
// simply looks the other rule up and returns its Combinator, and the
// dispatcher finishes the work under the referencing rule's own frame.
func (p *Parser) trampoline(fn *Func, args []Value) (Value, error) {
	for {
		val, err := fn.Run(p, args)
		if err != nil {
			return nil, err
		}
		c, ok := asCombinator(val)
		if !ok {
			return val, nil
		}
		switch t := c.(type) {
		case Literal:
			return int(t), nil
		case *Func:
			fn, args = t, nil
		case *Apply:
			nextArgs, err := p.evalArgs(t.Args)
			if err != nil {
				return nil, err
			}
			nextFn, ok := t.Head.(*Func)
			if !ok {
				return nil, fatalf("apply: head is not a callable rule (got %T)", t.Head)
			}
			fn, args = nextFn, nextArgs
		default:
			return nil, fatalf("call: unsupported combinator value of type %T", c)
		}
	}
}

func wrapPath(err error, name string) error {
	if raw, ok := err.(*rawFatal); ok {
		return &FatalError{Path: []string{name}, Cause: raw.error}
	}
	if fe, ok := err.(*FatalError); ok {
		fe.Path = append([]string{name}, fe.Path...)
		return fe
	}
	return err
}
