package pegutil

import "github.com/zkry/pegvm"

// Integer matches a bare decimal, 0x-prefixed hexadecimal, or 0-prefixed
// octal integer literal.
var Integer = pegvm.Any(
	pegvm.All(hexPrefix(), pegvm.Rep(1, 0, HexDigit)),
	pegvm.Rep(1, 0, DecDigit),
	pegvm.All(pegvm.Chr('0'), pegvm.Rep(1, 0, OctDigit)),
)

// Decimal matches a decimal fraction: digits, a dot, digits, with at
// least one digit present on either side of the dot (a bare "." does not
// match), or a bare run of digits with no dot.
var Decimal = pegvm.Any(
	pegvm.All(pegvm.Rep(1, 0, DecDigit), pegvm.Chr('.'), pegvm.Rep(0, 0, DecDigit)),
	pegvm.All(pegvm.Rep(0, 0, DecDigit), pegvm.Chr('.'), pegvm.Rep(1, 0, DecDigit)),
	pegvm.Rep(1, 0, DecDigit),
)

// Float matches Decimal with an optional e/E exponent.
var Float = pegvm.All(
	Decimal,
	pegvm.Rep(0, 1, pegvm.All(
		pegvm.Any(pegvm.Chr('e'), pegvm.Chr('E')),
		pegvm.Rep(0, 1, pegvm.OneOf("+-")),
		pegvm.Rep(1, 0, DecDigit),
	)),
)

// Number matches Integer or Float, hex/octal forms included.
var Number = pegvm.Any(
	pegvm.All(hexPrefix(), pegvm.Rep(1, 0, HexDigit)),
	Float,
	pegvm.All(pegvm.Chr('0'), pegvm.Rep(1, 0, OctDigit)),
)

// Identifier matches a letter-or-underscore followed by any number of
// letters, digits, or underscores.
var Identifier = pegvm.All(
	pegvm.Any(Letter, pegvm.Chr('_')),
	pegvm.Rep(0, 0, pegvm.Any(LetterDigit, pegvm.Chr('_'))),
)

// String matches a double-quoted string literal with C-style escapes
// (\n, \t, \xHH, \uHHHH, \UHHHHHHHH, octal, and self-escapes).
var String = pegvm.All(
	pegvm.Chr('"'),
	pegvm.Rep(0, 0, pegvm.Any(
		pegvm.All(pegvm.Chr('\\'), pegvm.Chr('U'), pegvm.Rep(8, 8, HexDigit)),
		pegvm.All(pegvm.Chr('\\'), pegvm.Chr('u'), pegvm.Rep(4, 4, HexDigit)),
		pegvm.All(pegvm.Chr('\\'), pegvm.Chr('x'), pegvm.Rep(2, 2, HexDigit)),
		pegvm.All(pegvm.Chr('\\'), pegvm.Rep(3, 3, OctDigit)),
		pegvm.All(pegvm.Chr('\\'), pegvm.OneOf(`abfnrtv\'"`)),
		pegvm.NoneOf("\"\n\r"),
	)),
	pegvm.Chr('"'),
)

func hexPrefix() pegvm.Combinator {
	return pegvm.Any(
		pegvm.All(pegvm.Chr('0'), pegvm.Chr('x')),
		pegvm.All(pegvm.Chr('0'), pegvm.Chr('X')),
	)
}
