// Package pegutil provides a small library of ready-made Combinators
// for grammars built on top of github.com/zkry/pegvm: rune classes
// (ASCII and unicode category based), bare integer/float/identifier/
// string literals, and whitespace helpers.
//
// Every value in Scope is a pegvm.Combinator, suitable for direct
// composition with pegvm.All/Any/Rep or for registration into a
// pegvm.StaticGrammar so grammars can reach it through pegvm.Ref.
package pegutil

import "github.com/zkry/pegvm"

// Scope contains every combinator this package exports, keyed by name,
// for convenient bulk-registration into a StaticGrammar alongside a
// grammar's own rules.
var Scope = map[string]pegvm.Combinator{
	"OctDigit": OctDigit,
	"DecDigit": DecDigit,
	"HexDigit": HexDigit,

	"ASCIIWhitespace":    ASCIIWhitespace,
	"ASCIINotWhitespace": ASCIINotWhitespace,
	"ASCIIDigit":         ASCIIDigit,
	"ASCIILetter":        ASCIILetter,
	"ASCIILower":         ASCIILower,
	"ASCIIUpper":         ASCIIUpper,
	"ASCIILetterDigit":   ASCIILetterDigit,
	"ASCIIControl":       ASCIIControl,
	"ASCIINotControl":    ASCIINotControl,

	"Whitespace":  Whitespace,
	"Digit":       Digit,
	"Letter":      Letter,
	"LetterDigit": LetterDigit,

	"NewlineRune": NewlineRune,
	"Newline":     Newline,
	"AnySpaces":   AnySpaces,
	"Spaces":      Spaces,

	"Integer":    Integer,
	"Decimal":    Decimal,
	"Float":      Float,
	"Number":     Number,
	"Identifier": Identifier,
	"String":     String,
}
