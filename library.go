package pegvm

import (
	"strings"
	"unicode"
)


// All matches each child in sequence, left to right, failing and
// restoring the cursor to its entry position if any child fails partway
// through. Children after the first failing one are not matched.
func All(children ...Combinator) Combinator {
	return &Func{
		Name:    "all",
		NoFrame: true,
		Run: func(p *Parser, args []Value) (Value, error) {
			start := p.pos
			for _, c := range children {
				ok, err := p.Call(c, Boolean)
				if err != nil {
					p.pos = start
					return nil, err
				}
				matched, _ := ok.(bool)
				if !matched {
					p.pos = start
					return false, nil
				}
			}
			return true, nil
		},
	}
}

// Any tries each child in order and returns the first that matches. It
// does not itself snapshot or restore the cursor between alternatives:
// every combinator in this library already restores p.pos on its own
// failure, so a failed alternative is guaranteed to have left the cursor
// where Any found it, and Any simply proceeds to the next child.
func Any(children ...Combinator) Combinator {
	return &Func{
		Name:    "any",
		NoFrame: true,
		Run: func(p *Parser, args []Value) (Value, error) {
			for _, c := range children {
				ok, err := p.Call(c, Boolean)
				if err != nil {
					return nil, err
				}
				if matched, _ := ok.(bool); matched {
					return true, nil
				}
			}
			return false, nil
		},
	}
}

// Rep matches body repeatedly while the cursor has not reached the end of
// input (max == 0 means unbounded; otherwise the count caps at max),
// stopping as soon as body fails or as soon as a successful iteration
// makes no forward progress (the zero-progress guard: a body that can
// match empty input would otherwise loop forever). It then succeeds iff
// the count reached min. A
// Config.LoopLimit, if set, additionally caps the iteration count with a
// FatalError rather than allowing the parser to spin indefinitely on a
// malformed grammar.
func Rep(min, max int, body Combinator) Combinator {
	return &Func{
		Name:    "rep",
		NoFrame: true,
		Label:   func(args []Value) string { return repLabel(min, max) },
		Run: func(p *Parser, args []Value) (Value, error) {
			start := p.pos
			count := 0
			for p.pos < p.Len() {
				if max != 0 && count >= max {
					break
				}
				if p.cfg.LoopLimit > 0 && count >= p.cfg.LoopLimit {
					return nil, fatalf("rep: loop limit (%d) exceeded", p.cfg.LoopLimit)
				}
				before := p.pos
				ok, err := p.Call(body, Boolean)
				if err != nil {
					p.pos = start
					return nil, err
				}
				matched, _ := ok.(bool)
				if !matched {
					break
				}
				count++
				if p.pos == before {
					// Zero-progress: body matched without consuming
					// input. Counting it again would never terminate,
					// so stop here and check the count against min.
					break
				}
			}
			if count < min {
				p.pos = start
				return false, nil
			}
			return true, nil
		},
	}
}

func repLabel(min, max int) string {
	return "rep(" + itoa(min) + "," + itoa(max) + ")"
}

// Chr matches a single literal rune, advancing the cursor by one on
// success.
func Chr(r rune) Combinator {
	return &Func{
		Name:  "chr",
		Label: func(args []Value) string { return "chr(" + string(r) + ")" },
		Run: func(p *Parser, args []Value) (Value, error) {
			got, ok := p.At(p.pos)
			if !ok || got != r {
				return false, nil
			}
			p.pos++
			return true, nil
		},
	}
}

// Rng matches a single rune in the inclusive range [lo, hi], advancing
// the cursor by one on success.
func Rng(lo, hi rune) Combinator {
	return &Func{
		Name:  "rng",
		Label: func(args []Value) string { return "rng(" + string(lo) + "," + string(hi) + ")" },
		Run: func(p *Parser, args []Value) (Value, error) {
			got, ok := p.At(p.pos)
			if !ok || got < lo || got > hi {
				return false, nil
			}
			p.pos++
			return true, nil
		},
	}
}

// But is negative lookahead: it succeeds, consuming nothing, exactly when
// body fails; it fails, also consuming nothing, when body succeeds. The
// cursor is unconditionally restored to its entry position regardless of
// which way body went.
func But(body Combinator) Combinator {
	return &Func{
		Name:    "but",
		NoFrame: true,
		Run: func(p *Parser, args []Value) (Value, error) {
			start := p.pos
			ok, err := p.Call(body, Boolean)
			p.pos = start
			if err != nil {
				return nil, err
			}
			matched, _ := ok.(bool)
			return !matched, nil
		},
	}
}

// Chk is a zero-width assertion over expr: kind is one of "=" (lookahead:
// succeed iff expr matches here), "!" (negative lookahead: succeed iff
// expr does NOT match here), or "<=" (lookbehind: decrement the cursor by
// one position before calling expr, then succeed iff expr matches there).
// The cursor is unconditionally restored to its entry position afterward,
// regardless of which way expr went. A lookbehind at pos == 0 is
// well-defined: the cursor simply goes negative and the defensive
// position helper (Parser.At) reports absence rather than panicking, so
// expr sees nothing to match against instead of Chk crashing.
func Chk(kind string, expr Combinator) Combinator {
	return &Func{
		Name:    "chk",
		NoFrame: true,
		Label:   func(args []Value) string { return "chk(" + kind + ")" },
		Run: func(p *Parser, args []Value) (Value, error) {
			switch kind {
			case "=", "!", "<=":
			default:
				return nil, fatalf("chk: unsupported kind %q", kind)
			}
			entry := p.pos
			if kind == "<=" {
				p.pos--
			}
			ok, err := p.Call(expr, Boolean)
			p.pos = entry
			if err != nil {
				return nil, err
			}
			matched, _ := ok.(bool)
			if kind == "!" {
				return !matched, nil
			}
			return matched, nil
		},
	}
}

func resolveInt(p *Parser, v Value) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case Literal:
		return int(t), nil
	case Combinator:
		val, err := p.Call(t, Any)
		if err != nil {
			return 0, err
		}
		n, ok := val.(int)
		if !ok {
			return 0, fatalf("add/sub: operand did not evaluate to an int (got %T)", val)
		}
		return n, nil
	default:
		return 0, fatalf("add/sub: unsupported operand type %T", v)
	}
}

// Case looks up the rule-local string value bound to name (via a prior
// Set in the current frame or an enclosing one) and runs whichever
// Combinator in table is keyed by it. An absent binding, or one with no
// matching entry in table, is a FatalError: spec.md treats an
// un-dispatchable case as a grammar defect, not a parse failure.
func Case(name string, table map[string]Combinator) Combinator {
	return &Func{
		Name:    "case",
		NoFrame: true,
		Run: func(p *Parser, args []Value) (Value, error) {
			val, ok := p.lookupLocal(name)
			if !ok {
				return nil, fatalf("case: no binding for %q", name)
			}
			key, _ := val.(string)
			if c, ok := table[key]; ok {
				return c, nil
			}
			return nil, fatalf("case: no branch for %q", key)
		},
	}
}

// Flip looks up the rule-local value bound to name in the current frame
// (walking outward through enclosing frames, since Set in a parent frame
// is visible to a child's Flip) and dispatches on whichever entry in
// table is keyed by it: a Combinator entry is run as a rule (the
// trampoline resolves it in the caller's own frame), while any other
// (ground) value is returned directly as the 'any'-typed result. An
// absent binding is a FatalError (there is nothing to dispatch on); a
// binding present but falsy (e.g. the empty string) is a legitimate
// dispatch key distinct from "absent", and is looked up in table like any
// other value.
func Flip(name string, table map[Value]Value) Combinator {
	return &Func{
		Name:    "flip",
		Return:  Any,
		NoFrame: true,
		Run: func(p *Parser, args []Value) (Value, error) {
			val, ok := p.lookupLocal(name)
			if !ok {
				return nil, fatalf("flip: no binding for %q", name)
			}
			entry, ok := table[val]
			if !ok {
				return nil, fatalf("flip: no branch for %v", val)
			}
			return entry, nil
		},
	}
}

// Set binds name to the value produced by evaluating expr in the current
// frame, then always succeeds without consuming input. Children called
// from within the same frame (and frames nested beneath it) can read the
// binding back via Flip or a receiver hook's Frame.Local.
func Set(name string, expr Combinator) Combinator {
	return &Func{
		Name:    "set",
		Return:  Any,
		NoFrame: true,
		Run: func(p *Parser, args []Value) (Value, error) {
			val, err := p.Call(expr, Any)
			if err != nil {
				return nil, err
			}
			p.State().setLocal(name, val)
			return true, nil
		},
	}
}

// Add evaluates a and b as ints and returns their sum.
func Add(a, b Value) Combinator {
	return &Func{
		Name:    "add",
		Return:  Any,
		NoFrame: true,
		Run: func(p *Parser, args []Value) (Value, error) {
			x, err := resolveInt(p, a)
			if err != nil {
				return nil, err
			}
			y, err := resolveInt(p, b)
			if err != nil {
				return nil, err
			}
			return x + y, nil
		},
	}
}

// Sub evaluates a and b as ints and returns their difference.
func Sub(a, b Value) Combinator {
	return &Func{
		Name:    "sub",
		Return:  Any,
		NoFrame: true,
		Run: func(p *Parser, args []Value) (Value, error) {
			x, err := resolveInt(p, a)
			if err != nil {
				return nil, err
			}
			y, err := resolveInt(p, b)
			if err != nil {
				return nil, err
			}
			return x - y, nil
		},
	}
}

// Max and Exclude are named in the combinator vocabulary but enforce
// nothing: both are no-op library entries that ignore their arguments,
// consume no input and always succeed, so a grammar that references them
// by name still resolves instead of failing to build.
func Max(values ...Value) Combinator {
	return &Func{
		Name:    "max",
		NoFrame: true,
		Run: func(p *Parser, args []Value) (Value, error) {
			return true, nil
		},
	}
}

func Exclude(set Value) Combinator {
	return &Func{
		Name:    "exclude",
		NoFrame: true,
		Run: func(p *Parser, args []Value) (Value, error) {
			return true, nil
		},
	}
}

// OneOf matches a single rune present in runes, advancing the cursor by
// one on success.
func OneOf(runes string) Combinator {
	set := []rune(runes)
	return &Func{
		Name:  "set",
		Label: func(args []Value) string { return "set(" + runes + ")" },
		Run: func(p *Parser, args []Value) (Value, error) {
			got, ok := p.At(p.pos)
			if !ok {
				return false, nil
			}
			for _, r := range set {
				if r == got {
					p.pos++
					return true, nil
				}
			}
			return false, nil
		},
	}
}

// NoneOf matches a single rune absent from runes (and within the input),
// advancing the cursor by one on success.
func NoneOf(runes string) Combinator {
	set := []rune(runes)
	return &Func{
		Name:  "set",
		Label: func(args []Value) string { return "not_set(" + runes + ")" },
		Run: func(p *Parser, args []Value) (Value, error) {
			got, ok := p.At(p.pos)
			if !ok {
				return false, nil
			}
			for _, r := range set {
				if r == got {
					return false, nil
				}
			}
			p.pos++
			return true, nil
		},
	}
}

// Unicode matches a single rune belonging to the named unicode range
// table (e.g. "Letter", "Digit", "White_Space", as found in
// unicode.Categories/unicode.Scripts/unicode.Properties), advancing the
// cursor by one on success. A name prefixed with "-" matches runes NOT in
// that table instead.
func Unicode(name string) Combinator {
	negate := strings.HasPrefix(name, "-")
	lookup := name
	if negate {
		lookup = name[1:]
	}
	table := unicodeTable(lookup)
	return &Func{
		Name:  "rng",
		Label: func(args []Value) string { return "unicode(" + name + ")" },
		Run: func(p *Parser, args []Value) (Value, error) {
			got, ok := p.At(p.pos)
			if !ok {
				return false, nil
			}
			in := table != nil && unicode.Is(table, got)
			if negate {
				in = !in
			}
			if !in {
				return false, nil
			}
			p.pos++
			return true, nil
		},
	}
}

func unicodeTable(name string) *unicode.RangeTable {
	if t, ok := unicode.Categories[name]; ok {
		return t
	}
	if t, ok := unicode.Properties[name]; ok {
		return t
	}
	if t, ok := unicode.Scripts[name]; ok {
		return t
	}
	return nil
}

// StartOfLine matches, consuming nothing, when the cursor is at offset 0
// or immediately follows a newline.
var StartOfLine Combinator = &Func{
	Name: "start_of_line",
	Run: func(p *Parser, args []Value) (Value, error) {
		if p.pos == 0 {
			return true, nil
		}
		prev, ok := p.At(p.pos - 1)
		return ok && prev == '\n', nil
	},
}

// EndOfStream matches, consuming nothing, when the cursor has reached the
// end of input.
var EndOfStream Combinator = &Func{
	Name: "end_of_stream",
	Run: func(p *Parser, args []Value) (Value, error) {
		return p.pos >= p.Len(), nil
	},
}

// Empty always matches and consumes nothing.
var Empty Combinator = &Func{
	Name: "empty",
	Run: func(p *Parser, args []Value) (Value, error) {
		return true, nil
	},
}

// AutoDetectIndent consumes the run of spaces and tabs starting at the
// cursor and records its width (in columns, tabs counted as one column)
// as the rule-local "indent" binding. It returns that width as its
// 'any'-typed result and never fails, including on a zero-width indent.
var AutoDetectIndent Combinator = &Func{
	Name:    "auto_detect_indent",
	Return:  Any,
	NoFrame: true,
	Run: func(p *Parser, args []Value) (Value, error) {
		width := 0
		for {
			r, ok := p.At(p.pos + width)
			if !ok || (r != ' ' && r != '\t') {
				break
			}
			width++
		}
		p.pos += width
		p.State().setLocal("indent", width)
		return width, nil
	},
}

// lookupLocal walks the activation-record stack from the innermost frame
// outward, returning the first binding found for name.
func (p *Parser) lookupLocal(name string) (Value, bool) {
	for i := p.stk.depth() - 1; i >= 0; i-- {
		if v, ok := p.stk.frames[i].Local(name); ok {
			return v, true
		}
	}
	return nil, false
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte('0' + n%10)}, b...)
		n /= 10
	}
	if neg {
		b = append([]byte{'-'}, b...)
	}
	return string(b)
}
