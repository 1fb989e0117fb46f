package pegutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zkry/pegvm"
)

type nopReceiver struct{}

func (nopReceiver) Hook(name string) func(pegvm.Event) { return nil }

type fullMatchTestData struct {
	text string
	full bool
	comb pegvm.Combinator
}

func runFullMatchTestData(t *testing.T, data fullMatchTestData) {
	t.Helper()
	grammar := pegvm.NewStaticGrammar("TOP", map[string]pegvm.Combinator{"TOP": data.comb})
	ok, err := pegvm.Parse(grammar, nopReceiver{}, []rune(data.text))
	if data.full {
		require.NoError(t, err, "expected %q to fully match", data.text)
		require.True(t, ok)
	} else {
		require.Error(t, err, "expected %q not to fully match", data.text)
	}
}

func TestLiteralFullMatch(t *testing.T) {
	data := []fullMatchTestData{
		{"0", true, Integer},
		{"123", true, Integer},
		{"0x0123", true, Integer},
		{"0X0123", true, Integer},
		{"0123", true, Integer},
		{"", false, Integer},

		{"3.14", true, Float},
		{"3.", true, Float},
		{".5", true, Float},
		{".", false, Float},
		{"1e10", true, Float},
		{"1.5e-10", true, Float},

		{"ok", true, Identifier},
		{"_ok2", true, Identifier},
		{"2ok", false, Identifier},

		{`"hello"`, true, String},
		{`"esc\napes"`, true, String},
		{`"unterminated`, false, String},
	}
	for _, d := range data {
		runFullMatchTestData(t, d)
	}
}

func TestRuneClasses(t *testing.T) {
	data := []fullMatchTestData{
		{"7", true, OctDigit},
		{"8", false, OctDigit},
		{"f", true, HexDigit},
		{"g", false, HexDigit},
		{"A", true, ASCIIUpper},
		{"a", false, ASCIIUpper},
	}
	for _, d := range data {
		runFullMatchTestData(t, d)
	}
}
