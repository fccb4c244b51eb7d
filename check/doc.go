/*
Package check implements the inline test-assertion harness.

Assertions are written as '##' comments in the source. Each assertion is
either a bare function call, evaluated for its value alone, or a single
'call == expression' comparison, where the left-hand side must be the call
under test. Anything else is a malformed assertion; it is reported and
skipped, never fatal.

Assertions are evaluated against the terminal scope of a completed trace
session, so they see the final bindings of the program under test.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2023–2026 the steplens authors

*/
package check
