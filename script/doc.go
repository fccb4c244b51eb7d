/*
Package script implements the front end for the teaching language: a
lexmachine-based line scanner and an indentation-aware statement parser.

The teaching language is a small, dynamically typed scripting language with
significant indentation, one statement per line, and ':'-introduced suites.
It covers the constructs short teaching-scale programs need: assignments
(including subscript and attribute targets), if/elif/else, while, for-in,
function and class definitions, return/break/continue/pass, list and dict
displays, list comprehensions and the usual arithmetic, comparison and
boolean operators.

Parsing is deliberately line-oriented: block structure is derived from
leading whitespace, and parse errors report the 0-indexed offending line.
The write-set analyzer relies on that line to blank injected no-op
statements and retry.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2023–2026 the steplens authors

*/
package script
