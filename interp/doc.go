/*
Package interp implements a tree-walking interpreter for the teaching
language, instrumented for statement-level tracing.

The interpreter executes script syntax trees and reports three kinds of
notifications through a Hooks interface: before-statement, on-return and
on-exception. A tracer attached through the hooks sees every statement of
every call frame, including synthetic comprehension frames, and may stop
the run cleanly (the step budget).

Call frames live on a memory-frame stack; each frame carries an
insertion-ordered binding table so that variable snapshots list names in
the order the program introduced them. Frames expose a read/write/eval
capability which override replay and the assertion harness build on.

For a thorough discussion of an interpreter's runtime environment, refer to
"Language Implementation Patterns" by Terence Parr.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2023–2026 the steplens authors

*/
package interp
