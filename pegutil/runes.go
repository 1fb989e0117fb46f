package pegutil

import "github.com/zkry/pegvm"

// Digits, by base.
var (
	OctDigit = pegvm.Rng('0', '7')
	DecDigit = pegvm.Rng('0', '9')
	HexDigit = pegvm.Any(pegvm.Rng('0', '9'), pegvm.Rng('a', 'f'), pegvm.Rng('A', 'F'))
)

// ASCII rune classes.
var (
	ASCIIWhitespace    = pegvm.OneOf(" \t\n\r\v\f")
	ASCIINotWhitespace = pegvm.NoneOf(" \t\n\r\v\f")
	ASCIIDigit         = pegvm.Rng('0', '9')
	ASCIILetter        = pegvm.Any(pegvm.Rng('a', 'z'), pegvm.Rng('A', 'Z'))
	ASCIILower         = pegvm.Rng('a', 'z')
	ASCIIUpper         = pegvm.Rng('A', 'Z')
	ASCIILetterDigit   = pegvm.Any(pegvm.Rng('a', 'z'), pegvm.Rng('A', 'Z'), pegvm.Rng('0', '9'))
	ASCIIControl       = pegvm.Any(pegvm.Rng('\x00', '\x1f'), pegvm.Chr('\x7f'))
	ASCIINotControl    = pegvm.Rng('\x20', '\x7e')
)

// Unicode category rune classes.
var (
	Whitespace  = pegvm.Unicode("White_Space")
	Digit       = pegvm.Unicode("Nd")
	Letter      = pegvm.Unicode("L")
	LetterDigit = pegvm.Any(pegvm.Unicode("L"), pegvm.Unicode("Nd"))
)

// Newline forms.
var (
	NewlineRune = pegvm.OneOf("\n\r")
	Newline     = pegvm.Any(pegvm.All(pegvm.Chr('\r'), pegvm.Chr('\n')), NewlineRune)
)

// Spacing helpers.
var (
	AnySpaces = pegvm.Rep(0, 0, Whitespace)
	Spaces    = pegvm.Rep(1, 0, Whitespace)
)
