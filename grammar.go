package pegvm

// Grammar supplies the named rules a Parser resolves Ref combinators and
// ParseRule/CallRule calls against, plus a designated top rule for Parse.
// It is the engine's only dependency on "what a grammar looks like":
// callers are free to build one dynamically, load it from a file format,
// or (as StaticGrammar does) hold a fixed map built at construction time.
type Grammar interface {
	// LookupRule returns the Combinator registered under name, or false
	// if no such rule exists.
	LookupRule(name string) (Combinator, bool)

	// LookupTop returns the grammar's entry-point rule, or false if none
	// was designated.
	LookupTop() (Combinator, bool)
}

// StaticGrammar is a map-backed Grammar: a fixed set of named rules with
// one of them designated the entry point.
type StaticGrammar struct {
	Top   string
	Rules map[string]Combinator
}

// NewStaticGrammar builds a StaticGrammar from the given rule set and top
// rule name.
func NewStaticGrammar(top string, rules map[string]Combinator) *StaticGrammar {
	return &StaticGrammar{Top: top, Rules: rules}
}

func (g *StaticGrammar) LookupRule(name string) (Combinator, bool) {
	c, ok := g.Rules[name]
	return c, ok
}

func (g *StaticGrammar) LookupTop() (Combinator, bool) {
	if g.Top == "" {
		return nil, false
	}
	c, ok := g.Rules[g.Top]
	return c, ok
}

// Let builds a Func that, when called, evaluates body but first seeds the
// frame it runs in (its own "let(name)" frame, or the rule's frame when
// it is a rule's top-level combinator) with a rule-local binding
// (name -> value), letting a grammar attach a constant or pre-computed value to
// a production without a dedicated combinator. It is the grammar-authoring
// convenience the teacher's scoped-variable design inspired: a binding
// visible to body and, through Frame.Local, to body's descendants.
func Let(name string, value Value, body Combinator) Combinator {
	return &Func{
		Name: "let(" + name + ")",
		Run: func(p *Parser, args []Value) (Value, error) {
			p.State().setLocal(name, value)
			return body, nil
		},
	}
}

// Ref builds a Combinator that defers to the grammar rule named by name.
// Because Ref's own Func.Name is name, the dispatcher already pushes a
// frame named after the referenced rule before Run executes; Run simply
// looks that rule's Combinator up and returns it unresolved, so the Call
// Dispatcher's trampoline keeps resolving it within this SAME frame
// instead of pushing a second, redundant one. This is how one named
// production composes another by reference rather than by embedding its
// Combinator value directly.
func Ref(name string) Combinator {
	return &Func{
		Name: name,
		Run: func(p *Parser, args []Value) (Value, error) {
			c, ok := p.grammar.LookupRule(name)
			if !ok {
				return nil, fatalf("undefined rule %q", name)
			}
			return c, nil
		},
	}
}
