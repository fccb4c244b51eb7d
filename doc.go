/*
Package steplens records per-line execution timelines for programs written
in a small, indentation-structured teaching language.

steplens runs a program one statement at a time and captures, for every
executed line, the live local variables, loop-iteration context and
return/exception outcomes. The resulting timeline drives an external
visualization/stepper UI and an embedded assertion harness. Package
structure is as follows:

■ script: Package script implements the teaching-language front end, i.e.
a lexmachine-based scanner and an indentation-aware statement parser.

■ interp: Package interp implements a tree-walking interpreter over script
syntax trees, with per-statement hook notifications and call frames backed
by a memory-frame stack.

■ normalize: Package normalize prepares raw source for tracing: comments
and docstrings are stripped and blank lines are replaced by executable
no-ops, keeping line numbers stable.

■ trace: Package trace implements the statement-level execution tracer,
the loop-tracking state machine and the timeline materializer.

■ writes: Package writes computes the static per-line write-set.

■ check: Package check evaluates ##-comment assertions against a completed
trace session.

■ run: Package run composes the above into the (status, writes, timeline)
run record and handles its persistence.

The base package contains data types which are used throughout all the
other packages.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2023–2026 the steplens authors

*/
package steplens
