// Command sexp is a minimal REPL demonstrating pegvm end to end: a
// grammar built from the combinator library, a receiver built from
// try__/got__/not__ hooks, and Eval tying parse results to a tiny
// Scheme-like evaluator.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/zkry/pegvm"
	"github.com/zkry/pegvm/pegutil"
)

const symbolChars = "!$%&'*+,-./:;<=>?@[\\]^_`{|}~"

var grammar = pegvm.NewStaticGrammar("sexp", map[string]pegvm.Combinator{
	"sexp": pegvm.Any(
		pegvm.Ref("number"),
		pegvm.Ref("symbol"),
		pegvm.Ref("special"),
		pegvm.Ref("list"),
	),
	"number": pegvm.All(
		pegvm.Rep(0, 1, pegvm.OneOf("+-")),
		pegvm.Any(
			pegvm.All(pegvm.Rep(0, 0, pegvm.Rng('0', '9')), pegvm.Chr('.'), pegvm.Rep(0, 0, pegvm.Rng('0', '9'))),
			pegvm.Rep(1, 0, pegvm.Rng('0', '9')),
		),
		pegvm.Rep(0, 1, pegvm.All(
			pegvm.Any(pegvm.Chr('e'), pegvm.Chr('E')),
			pegvm.Rep(0, 1, pegvm.OneOf("+-")),
			pegvm.Rep(1, 0, pegvm.Rng('0', '9')),
		)),
	),
	"symbol": pegvm.All(
		pegvm.Any(pegvm.Rng('a', 'z'), pegvm.Rng('A', 'Z'), pegvm.OneOf(symbolChars)),
		pegvm.Rep(0, 0, pegvm.Any(pegvm.Rng('a', 'z'), pegvm.Rng('A', 'Z'), pegvm.Rng('0', '9'), pegvm.OneOf(symbolChars))),
	),
	"special": pegvm.All(
		pegvm.Chr('#'),
		pegvm.Any(wordCI("true"), wordCI("false")),
	),
	"list": pegvm.All(
		pegvm.Chr('('),
		pegutil.AnySpaces,
		pegvm.Rep(0, 1, pegvm.All(
			pegvm.Ref("sexp"),
			pegvm.Rep(0, 0, pegvm.All(pegutil.Spaces, pegvm.Ref("sexp"))),
		)),
		pegutil.AnySpaces,
		pegvm.Chr(')'),
	),
})

// wordCI matches w case-insensitively.
func wordCI(w string) pegvm.Combinator {
	children := make([]pegvm.Combinator, len(w))
	for i, r := range w {
		lo, up := strings.ToLower(string(r)), strings.ToUpper(string(r))
		children[i] = pegvm.OneOf(lo + up)
	}
	return pegvm.All(children...)
}

// Types.
type (
	SExp interface {
		Eval(*Context) (SExp, error)
	}

	Callable interface {
		SExp
		Call(*Context, []SExp) (SExp, error)
	}

	Context struct {
		Scope []map[string]SExp
	}

	List []SExp

	Symbol string

	Number float64

	Boolean bool

	Primitive func(*Context, []SExp) (SExp, error)

	Closure struct {
		bind []map[string]SExp
		args []string
		body SExp
	}
)

func (n Number) Eval(ctx *Context) (SExp, error)  { return n, nil }
func (s Symbol) Eval(ctx *Context) (SExp, error) {
	if v := ctx.Lookup(string(s)); v != nil {
		return v, nil
	}
	return nil, fmt.Errorf("undefined: %s", string(s))
}
func (b Boolean) Eval(ctx *Context) (SExp, error) { return b, nil }

func (prim Primitive) Eval(ctx *Context) (SExp, error) { return prim, nil }
func (prim Primitive) Call(ctx *Context, args []SExp) (SExp, error) {
	return prim(ctx, args)
}

func (clr *Closure) Eval(ctx *Context) (SExp, error) { return clr, nil }
func (clr *Closure) Call(ctx *Context, args []SExp) (SExp, error) {
	if len(clr.args) != len(args) {
		return nil, fmt.Errorf("closure requires %d arguments, got %d", len(clr.args), len(args))
	}
	backup := ctx.Scope
	ctx.Scope = make([]map[string]SExp, len(clr.bind)+1)
	copy(ctx.Scope, clr.bind)
	top := make(map[string]SExp, len(args))
	for i := range args {
		top[clr.args[i]] = args[i]
	}
	ctx.Scope[len(ctx.Scope)-1] = top
	ret, err := clr.body.Eval(ctx)
	ctx.Scope = backup
	return ret, err
}

func (list List) Eval(ctx *Context) (SExp, error) {
	sexps := []SExp(list)
	if len(sexps) == 0 {
		return list, nil
	}
	if sym, ok := sexps[0].(Symbol); ok {
		switch strings.ToLower(string(sym)) {
		case "if":
			if len(sexps) != 4 {
				return nil, fmt.Errorf("if requires 3 arguments")
			}
			return syntaxIf(ctx, sexps[1], sexps[2], sexps[3])
		case "lambda":
			if len(sexps) != 3 {
				return nil, fmt.Errorf("lambda requires 2 arguments")
			}
			return syntaxLambda(ctx, sexps[1], sexps[2])
		}
	}
	evals := make([]SExp, len(sexps))
	for i := range sexps {
		var err error
		evals[i], err = sexps[i].Eval(ctx)
		if err != nil {
			return nil, err
		}
	}
	fn, ok := evals[0].(Callable)
	if !ok {
		return nil, fmt.Errorf("non-callable: %v", evals[0])
	}
	return fn.Call(ctx, evals[1:])
}

func syntaxIf(ctx *Context, cond, yes, no SExp) (SExp, error) {
	val, err := cond.Eval(ctx)
	if err != nil {
		return nil, err
	}
	b, ok := val.(Boolean)
	if !ok {
		return nil, fmt.Errorf("if requires a boolean condition, got %v", val)
	}
	if bool(b) {
		return yes.Eval(ctx)
	}
	return no.Eval(ctx)
}

func syntaxLambda(ctx *Context, args, expr SExp) (SExp, error) {
	list, ok := args.(List)
	if !ok {
		return nil, fmt.Errorf("lambda requires an argument list, got %v", args)
	}
	clr := &Closure{args: make([]string, len(list)), body: expr}
	for i, a := range list {
		sym, ok := a.(Symbol)
		if !ok {
			return nil, fmt.Errorf("bad lambda argument %v", a)
		}
		clr.args[i] = string(sym)
	}
	clr.bind = make([]map[string]SExp, len(ctx.Scope))
	copy(clr.bind, ctx.Scope)
	return clr, nil
}

func NewContext(builtins map[string]SExp) *Context {
	top := make(map[string]SExp, len(builtins))
	for k, v := range builtins {
		top[k] = v
	}
	return &Context{Scope: []map[string]SExp{top}}
}

func (ctx *Context) Lookup(name string) SExp {
	for i := len(ctx.Scope) - 1; i >= 0; i-- {
		if v, ok := ctx.Scope[i][name]; ok {
			return v
		}
	}
	return nil
}

var builtins = map[string]SExp{
	"+": Primitive(primitiveAdd),
	"-": Primitive(primitiveSub),
	"*": Primitive(primitiveMul),
	"/": Primitive(primitiveDiv),
}

func primitiveAdd(ctx *Context, args []SExp) (SExp, error) { return fold(args, 0, func(a, b float64) float64 { return a + b }) }
func primitiveSub(ctx *Context, args []SExp) (SExp, error) { return fold(args, 0, func(a, b float64) float64 { return a - b }) }
func primitiveMul(ctx *Context, args []SExp) (SExp, error) { return fold(args, 1, func(a, b float64) float64 { return a * b }) }
func primitiveDiv(ctx *Context, args []SExp) (SExp, error) {
	for _, arg := range args[1:] {
		if n, ok := arg.(Number); ok && float64(n) == 0.0 {
			return nil, fmt.Errorf("division by zero")
		}
	}
	return fold(args, 1, func(a, b float64) float64 { return a / b })
}

func fold(args []SExp, identity float64, op func(a, b float64) float64) (SExp, error) {
	if len(args) == 0 {
		return Number(identity), nil
	}
	first, ok := args[0].(Number)
	if !ok {
		return nil, fmt.Errorf("expected a number, got %v", args[0])
	}
	acc := float64(first)
	for _, arg := range args[1:] {
		n, ok := arg.(Number)
		if !ok {
			return nil, fmt.Errorf("expected a number, got %v", arg)
		}
		acc = op(acc, float64(n))
	}
	return Number(acc), nil
}

// sexpReceiver accumulates parsed sexps on a stack; "list" brackets its
// children with a sentinel pushed on try and popped (and wrapped into a
// List) on got, or dropped together with everything above it on not,
// mirroring a shunting-yard accumulator rather than this
// engine's own frame-local state, since the receiver -- not the grammar
// -- owns what a parse result looks like.
type sexpReceiver struct {
	pegvm.ReceiverHooks
	stack []SExp
	err   error
}

type listMark struct{}

func newSexpReceiver() *sexpReceiver {
	r := &sexpReceiver{}
	// The parse enters the grammar through the frame named "TOP", and no
	// rule name here has an underscore, so every hook name is anchored on
	// TOP (see deriveHookNames).
	r.On("got__TOP__number", r.gotNumber)
	r.On("got__TOP__symbol", r.gotSymbol)
	r.On("got__TOP__special", r.gotSpecial)
	r.On("try__TOP__list", r.tryList)
	r.On("got__TOP__list", r.gotList)
	r.On("not__TOP__list", r.notList)
	return r
}

func (r *sexpReceiver) push(v SExp) { r.stack = append(r.stack, v) }

func (r *sexpReceiver) gotNumber(e pegvm.Event) {
	n, err := strconv.ParseFloat(e.Text, 64)
	if err != nil {
		r.err = err
		return
	}
	r.push(Number(n))
}

func (r *sexpReceiver) gotSymbol(e pegvm.Event) {
	r.push(Symbol(e.Text))
}

func (r *sexpReceiver) gotSpecial(e pegvm.Event) {
	switch strings.ToLower(e.Text) {
	case "#true":
		r.push(Boolean(true))
	case "#false":
		r.push(Boolean(false))
	default:
		r.err = fmt.Errorf("unknown special literal %q", e.Text)
	}
}

func (r *sexpReceiver) tryList(e pegvm.Event) {
	r.push(listMark{})
}

func (r *sexpReceiver) gotList(e pegvm.Event) {
	mark := len(r.stack) - 1
	for mark >= 0 {
		if _, ok := r.stack[mark].(listMark); ok {
			break
		}
		mark--
	}
	items := append([]SExp(nil), r.stack[mark+1:]...)
	r.stack = r.stack[:mark]
	r.push(List(items))
}

func (r *sexpReceiver) notList(e pegvm.Event) {
	mark := len(r.stack) - 1
	for mark >= 0 {
		if _, ok := r.stack[mark].(listMark); ok {
			break
		}
		mark--
	}
	r.stack = r.stack[:mark]
}

func (r *sexpReceiver) result() (SExp, error) {
	if r.err != nil {
		return nil, r.err
	}
	if len(r.stack) != 1 {
		return nil, fmt.Errorf("malformed parse: %d results on stack", len(r.stack))
	}
	return r.stack[0], nil
}

// Eval parses and evaluates a single sexp expression.
func Eval(expr string) (SExp, error) {
	recv := newSexpReceiver()
	ok, err := pegvm.Parse(grammar, recv, []rune(expr))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no match")
	}
	sexp, err := recv.result()
	if err != nil {
		return nil, err
	}
	return sexp.Eval(NewContext(builtins))
}

func main() {
	buf := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("sexp> ")
		line, _, err := buf.ReadLine()
		if err != nil {
			break
		}
		result, err := Eval(string(line))
		if err != nil {
			fmt.Println("error:", err)
			continue
		}
		fmt.Println(result)
	}
}
