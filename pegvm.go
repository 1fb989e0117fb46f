// Package pegvm implements the combinator interpreter at the heart of a
// grammar-driven, backtracking recursive-descent parser.
//
// The engine interprets a grammar expressed as a tree of parsing
// combinators (All, Any, Rep, Chr, Rng, But, Chk, Case, Flip, Set) together
// with named rules supplied by a Grammar. When a rule matches, the engine
// emits try/got/not lifecycle events to a user-supplied Receiver, which
// accumulates an application-specific result.
//
// This package is deliberately narrow: it has no opinion on what a grammar
// looks like beyond the Grammar interface, and no opinion on what a parse
// result looks like beyond the Receiver interface. Both are external
// collaborators, supplied by the caller.
//
// Overlook of the moving parts
//
// A Combinator is one of three things: a Literal (a bare integer, returned
// verbatim), a Func (a named parsing function), or an Apply (a Func paired
// with arguments resolved at call time). The fixed combinator library in
// library.go builds Func values out of this vocabulary: All, Any, Rep,
// Chr, Rng, But, Chk, Case, Flip, Set, Add, Sub, Max, Exclude, and the
// terminals StartOfLine, EndOfStream, Empty, AutoDetectIndent.
//
// Parse drives a Parser over an input and a starting rule, invoking the
// Call Dispatcher (dispatcher.go), which maintains the activation-record
// stack (frame.go), derives and caches receiver hook names (receiver.go),
// and optionally records a coalesced trace (trace.go).
package pegvm

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	easy "github.com/t-tomalak/logrus-easy-formatter"
)

// Config controls the ambient behavior of a Parser: safety limits,
// tracing, and logging. The zero Config is usable and matches spec.md's
// literal defaults (unbounded recursion/looping, tracing off).
type Config struct {
	// CallDepthLimit caps activation-record stack depth; 0 means
	// unlimited. Exceeding it is a FatalError, not a parse failure.
	CallDepthLimit int

	// LoopLimit caps the number of iterations Rep (and other looping
	// combinators) will run; 0 means unlimited.
	LoopLimit int

	// Trace turns on the Trace Recorder.
	Trace bool

	// TraceWriter receives the formatted trace stream. Defaults to
	// os.Stderr when nil.
	TraceWriter io.Writer

	// TraceQuiet lists rule names whose subtree is trace-quiet: tracing
	// is suppressed between a quiet rule's "?" and its matching "+"/"x".
	TraceQuiet []string

	// TraceStartAt, when non-empty, delays the start of tracing until
	// the named rule is first encountered.
	TraceStartAt string

	// Logger receives ambient engine diagnostics (fatal errors, depth
	// warnings). Defaults to a terse single-line logrus logger.
	Logger *logrus.Logger
}

func (c Config) withDefaults() Config {
	if c.TraceWriter == nil {
		c.TraceWriter = os.Stderr
	}
	if c.Logger == nil {
		c.Logger = defaultLogger()
	}
	return c
}

func defaultLogger() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&easy.Formatter{
		TimestampFormat: "15:04:05",
		LogFormat:       "[%lvl%] %msg%\n",
	})
	log.SetLevel(logrus.WarnLevel)
	return log
}

// Parse runs rule TOP (the Grammar's top rule) against input using the
// default Config. It is the spec's parse(input, rule=TOP, trace=false)
// surface.
func Parse(grammar Grammar, receiver Receiver, input []rune) (bool, error) {
	return ParseConfig(Config{}, grammar, receiver, input)
}

// ParseConfig runs the Grammar's top rule against input with an explicit
// Config. It returns true on a successful, full-input match, or an error
// (either a *ParseFailure for an expected mismatch, or a *FatalError for
// an engine misconfiguration).
func ParseConfig(cfg Config, grammar Grammar, receiver Receiver, input []rune) (bool, error) {
	p := newParser(cfg.withDefaults(), grammar, receiver, input)
	return p.run()
}

// ParseRule is like ParseConfig but starts from an explicitly named rule
// instead of the grammar's designated top rule.
func ParseRule(cfg Config, grammar Grammar, receiver Receiver, input []rune, rule string) (bool, error) {
	p := newParser(cfg.withDefaults(), grammar, receiver, input)
	return p.runRule(rule)
}
