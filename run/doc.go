/*
Package run drives a complete tracing pass over one source file and owns
the persisted run-record format.

A pass normalizes the source, computes the static write set, executes the
program under a trace session, evaluates the inline assertions and finally
materializes the timeline. The resulting record serializes as a JSON
triple

	[status, writes, timeline]

where status 0 means success, 1 a parse failure during write-set analysis
(no run happened) and 2 a runtime error (the partial timeline up to the
error is kept, with an error banner on the failing return).

Override values for what-if replay arrive as a JSON object keyed by
"(line,time)" recording events; ParseOverrides turns it into the tracer's
form.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2023–2026 the steplens authors

*/
package run
