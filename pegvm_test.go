package pegvm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingReceiver struct {
	ReceiverHooks
	events []string
}

func newRecordingReceiver(names ...string) *recordingReceiver {
	r := &recordingReceiver{}
	for _, n := range names {
		n := n
		r.On(n, func(e Event) { r.events = append(r.events, n) })
	}
	return r
}

func grammarOf(top string, rules map[string]Combinator) *StaticGrammar {
	return NewStaticGrammar(top, rules)
}

func TestLiteralMatch(t *testing.T) {
	g := grammarOf("TOP", map[string]Combinator{"TOP": Chr('a')})
	ok, err := Parse(g, &recordingReceiver{}, []rune("a"))
	require.NoError(t, err)
	require.True(t, ok)
}

func TestLiteralMismatch(t *testing.T) {
	g := grammarOf("TOP", map[string]Combinator{"TOP": Chr('a')})
	ok, err := Parse(g, &recordingReceiver{}, []rune("b"))
	require.False(t, ok)
	require.Error(t, err)
	var pf *ParseFailure
	require.ErrorAs(t, err, &pf)
}

func TestAllSequence(t *testing.T) {
	g := grammarOf("TOP", map[string]Combinator{
		"TOP": All(Chr('a'), Chr('b')),
	})
	ok, err := Parse(g, &recordingReceiver{}, []rune("ab"))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = Parse(g, &recordingReceiver{}, []rune("ac"))
	require.False(t, ok)
	require.Error(t, err)
}

func TestAnyAlternation(t *testing.T) {
	g := grammarOf("TOP", map[string]Combinator{
		"TOP": Any(Chr('a'), Chr('b')),
	})
	for _, in := range []string{"a", "b"} {
		ok, err := Parse(g, &recordingReceiver{}, []rune(in))
		require.NoError(t, err)
		require.True(t, ok)
	}
	ok, _ := Parse(g, &recordingReceiver{}, []rune("c"))
	require.False(t, ok)
}

func TestRepBounds(t *testing.T) {
	g := grammarOf("TOP", map[string]Combinator{
		"TOP": All(Rep(2, 3, Chr('a')), EndOfStream),
	})
	cases := map[string]bool{
		"":     false,
		"a":    false,
		"aa":   true,
		"aaa":  true,
		"aaaa": false,
	}
	for in, want := range cases {
		ok, _ := Parse(g, &recordingReceiver{}, []rune(in))
		require.Equal(t, want, ok, "input %q", in)
	}
}

func TestRepZeroProgressGuard(t *testing.T) {
	// empty always matches without consuming; Rep must not loop forever.
	g := grammarOf("TOP", map[string]Combinator{
		"TOP": All(Rep(0, 0, Empty), EndOfStream),
	})
	ok, err := Parse(g, &recordingReceiver{}, []rune(""))
	require.NoError(t, err)
	require.True(t, ok)

	// On non-empty input the loop is entered, so the guard itself must
	// stop the repetition after the first zero-width match.
	g2 := grammarOf("TOP", map[string]Combinator{
		"TOP": All(Rep(0, 0, Empty), Chr('a')),
	})
	ok, err = Parse(g2, &recordingReceiver{}, []rune("a"))
	require.NoError(t, err)
	require.True(t, ok)
}

func TestButNegativeLookahead(t *testing.T) {
	g := grammarOf("TOP", map[string]Combinator{
		"TOP": All(But(Chr('a')), Chr('b')),
	})
	ok, err := Parse(g, &recordingReceiver{}, []rune("b"))
	require.NoError(t, err)
	require.True(t, ok)

	ok, _ = Parse(g, &recordingReceiver{}, []rune("a"))
	require.False(t, ok)
}

func TestCaseDispatch(t *testing.T) {
	selectorKind := &Func{Name: "selector_kind", Return: Any, Run: func(p *Parser, args []Value) (Value, error) {
		r, _ := p.At(p.pos)
		p.pos++
		return string(r), nil
	}}
	g := grammarOf("TOP", map[string]Combinator{
		"TOP": All(
			Set("kind", selectorKind),
			Case("kind", map[string]Combinator{
				"x": Chr('1'),
				"y": Chr('2'),
			}),
		),
	})
	ok, err := Parse(g, &recordingReceiver{}, []rune("x1"))
	require.NoError(t, err)
	require.True(t, ok)

	_, err = Parse(g, &recordingReceiver{}, []rune("z9"))
	var fe *FatalError
	require.ErrorAs(t, err, &fe)
}

func TestSetFlipRoundTrip(t *testing.T) {
	g := grammarOf("TOP", map[string]Combinator{
		"TOP": All(
			Any(Set("kind", Literal(0)), Empty),
			Flip("kind", map[Value]Value{
				0: Chr('a'),
			}),
		),
	})
	ok, err := Parse(g, &recordingReceiver{}, []rune("a"))
	require.NoError(t, err)
	require.True(t, ok)
}

func TestFlipGroundValue(t *testing.T) {
	// A table entry that is not a Combinator (a ground string here) is
	// returned directly as the 'any'-typed result, bypassing the
	// trampoline entirely.
	g := grammarOf("TOP", map[string]Combinator{
		"TOP": All(
			Set("kind", Literal(1)),
			Set("label", Flip("kind", map[Value]Value{
				1: "one",
			})),
		),
	})
	ok, err := Parse(g, &recordingReceiver{}, []rune(""))
	require.NoError(t, err)
	require.True(t, ok)
}

func TestChkAssertions(t *testing.T) {
	g := grammarOf("TOP", map[string]Combinator{
		"TOP": All(Chk("=", Chr('a')), Chr('a')),
	})
	ok, err := Parse(g, &recordingReceiver{}, []rune("a"))
	require.NoError(t, err)
	require.True(t, ok)

	_, err = Parse(g, &recordingReceiver{}, []rune("b"))
	require.Error(t, err)

	g2 := grammarOf("TOP", map[string]Combinator{
		"TOP": All(Chk("!", Chr('a')), Chr('b')),
	})
	ok, err = Parse(g2, &recordingReceiver{}, []rune("b"))
	require.NoError(t, err)
	require.True(t, ok)

	_, err = Parse(g2, &recordingReceiver{}, []rune("a"))
	require.Error(t, err)

	// Lookbehind: after consuming 'a', chk("<=", chr('a')) checks the
	// character one position behind the cursor.
	g3 := grammarOf("TOP", map[string]Combinator{
		"TOP": All(Chr('a'), Chk("<=", Chr('a')), Chr('b')),
	})
	ok, err = Parse(g3, &recordingReceiver{}, []rune("ab"))
	require.NoError(t, err)
	require.True(t, ok)

	// Lookbehind at pos == 0: there is nothing behind the cursor, so the
	// assertion simply fails rather than panicking.
	g4 := grammarOf("TOP", map[string]Combinator{
		"TOP": Any(All(Chk("<=", Chr('a')), Chr('a')), Chr('a')),
	})
	ok, err = Parse(g4, &recordingReceiver{}, []rune("a"))
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRefComposesNamedRules(t *testing.T) {
	g := grammarOf("top", map[string]Combinator{
		"top":   All(Ref("item"), Ref("item")),
		"item":  Chr('x'),
	})
	ok, err := Parse(g, &recordingReceiver{}, []rune("xx"))
	require.NoError(t, err)
	require.True(t, ok)
}

func TestReceiverHooksFireInOrder(t *testing.T) {
	g := grammarOf("top", map[string]Combinator{
		"top": All(Ref("a_b"), Ref("a_b")),
		"a_b": Chr('z'),
	})
	// The top-level call is always traced as the literal rule name
	// "TOP" (spec.md's convention), regardless of the grammar's own Top
	// field; "a_b" contains an underscore so it is a self-contained hook
	// name with no "TOP__" ancestor prefix.
	recv := newRecordingReceiver("try__TOP", "got__TOP", "try__a_b", "got__a_b")
	ok, err := Parse(g, recv, []rune("zz"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Contains(t, recv.events, "try__TOP")
	require.Contains(t, recv.events, "got__TOP")
	require.Contains(t, recv.events, "try__a_b")
	require.Contains(t, recv.events, "got__a_b")
	require.Equal(t, []string{
		"try__TOP",
		"try__a_b", "got__a_b",
		"try__a_b", "got__a_b",
		"got__TOP",
	}, recv.events)
}

func TestDeriveHookNamesStopsAtUnderscore(t *testing.T) {
	p := &Parser{receiver: &recordingReceiver{}}
	p.stk.push(newFrame("TOP", 1, 0, nil))
	p.stk.push(newFrame("list_items", 2, 0, nil))
	p.stk.push(newFrame("chr(a)", 3, 0, nil))
	got := p.deriveHookNames()
	require.Equal(t, "list_items__chr_61", got)
}

func TestNotFullyConsumedIsParseFailure(t *testing.T) {
	g := grammarOf("TOP", map[string]Combinator{"TOP": Chr('a')})
	_, err := Parse(g, &recordingReceiver{}, []rune("ab"))
	var pf *ParseFailure
	require.ErrorAs(t, err, &pf)
}

func TestTraceCoalescesMatchingResult(t *testing.T) {
	var buf bytes.Buffer
	g := grammarOf("TOP", map[string]Combinator{"TOP": Chr('a')})
	_, err := ParseConfig(Config{Trace: true, TraceWriter: &buf}, g, &recordingReceiver{}, []rune("a"))
	require.NoError(t, err)
	out := buf.String()
	require.True(t, strings.Contains(out, "="), "expected a coalesced '=' line, got: %s", out)
}

func TestCallDepthLimit(t *testing.T) {
	rules := map[string]Combinator{"loop": All(Ref("loop"))}
	g := grammarOf("loop", rules)
	_, err := ParseConfig(Config{CallDepthLimit: 8}, g, &recordingReceiver{}, []rune(""))
	var fe *FatalError
	require.ErrorAs(t, err, &fe)
}
