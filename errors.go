package pegvm

import "fmt"

// ParseFailure is the expected-failure category (spec.md §7.1): the top
// rule returned false, or returned true but left input unconsumed. It is
// the normal unsuccessful result of Parse, not an engine malfunction.
type ParseFailure struct {
	Rule string
	Pos  int
	Len  int
	msg  string
}

func (e *ParseFailure) Error() string {
	return fmt.Sprintf("pegvm: %s (rule %q, pos %d/%d)", e.msg, e.Rule, e.Pos, e.Len)
}

func failDidNotMatch(rule string, pos, length int) *ParseFailure {
	return &ParseFailure{Rule: rule, Pos: pos, Len: length, msg: "parser failed"}
}

func failNotFullyConsumed(rule string, pos, length int) *ParseFailure {
	return &ParseFailure{Rule: rule, Pos: pos, Len: length, msg: "parser finished before end of input"}
}

// FatalError is the unexpected-error category (spec.md §7.2): a bad call
// target, a return-type mismatch, a missing case/flip key, a missing all
// child, or a depth/loop limit overrun. It is non-recoverable: a fatal
// error flushes the pending trace line before surfacing, then propagates
// to the caller of Parse.
type FatalError struct {
	Path  []string // rule-call path at the point of failure, outermost first
	Cause error
}

func (e *FatalError) Error() string {
	if len(e.Path) == 0 {
		return "pegvm: fatal: " + e.Cause.Error()
	}
	prefix := e.Path[0]
	for _, p := range e.Path[1:] {
		prefix += "/" + p
	}
	return fmt.Sprintf("pegvm: fatal in %s: %s", prefix, e.Cause.Error())
}

func (e *FatalError) Unwrap() error { return e.Cause }

// rawFatal is a FatalError cause not yet annotated with a call path; the
// dispatcher wraps it into a *FatalError with Path filled in as it
// propagates up the activation-record stack.
type rawFatal struct{ error }

func (e *rawFatal) Unwrap() error { return e.error }

func fatalf(format string, args ...interface{}) error {
	return &rawFatal{fmt.Errorf(format, args...)}
}
