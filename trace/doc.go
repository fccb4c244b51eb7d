/*
Package trace implements the statement-level execution tracer.

A Session attaches to the interpreter's hook interface and records, for
every executed line, an environment snapshot: the live local variables in
textual form, the loop-iteration context, and prev/next step links. A
loop-tracking state machine detects loop entry and exit across arbitrarily
nested loops and synthesizes begin/end markers for every line inside a
loop body. Function returns are recorded under a distinguished return
variant of their line, carrying the textual return value or, when an
exception is unwinding, a formatted error banner.

Time steps form a strict total order matching real execution order. A step
budget (100 by default) ends runaway executions cleanly; it is a policy
choice, not a termination guarantee.

Materialize rewrites the raw chronological timeline into the per-line
"next step" sequence the external stepper UI consumes.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2023–2026 the steplens authors

*/
package trace
