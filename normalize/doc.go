/*
Package normalize prepares raw source for tracing without ever changing its
line count, so that every recorded line number maps back onto the line the
user actually sees.

Three rewrites happen, all in place:

	■ comments are stripped (their text, not their lines),
	■ docstring lines, i.e. lines holding nothing but a string literal,
	  are blanked,
	■ blank lines become no-op assignments to a reserved marker variable,
	  indented to fit the surrounding block, so the tracer stops on them
	  and the stepper can park a display there.

The no-op indentation is inferred twice: a forward pass indents blanks
directly under a ':' header one level into the new block, and a backward
pass aligns the rest with the nearest statement below.

'##' comments are test assertions; TestComments extracts them (with their
1-based line numbers) before the comment stripping discards them.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2023–2026 the steplens authors

*/
package normalize
