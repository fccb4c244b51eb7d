package run

import (
	"encoding/json"
	"io"
	"os"

	"github.com/npillmayer/schuko/tracing"
	"github.com/steplens/steplens/check"
	"github.com/steplens/steplens/interp"
	"github.com/steplens/steplens/normalize"
	"github.com/steplens/steplens/script"
	"github.com/steplens/steplens/trace"
	"github.com/steplens/steplens/writes"
)

// tracer traces with key 'steplens.run'.
func tracer() tracing.Trace {
	return tracing.Select("steplens.run")
}

// Result bundles everything a pass produced: the persistable record, the
// assertion outcomes and the terminal error, if any. Record is always
// non-nil; its status tells whether Err was a parse or runtime failure.
type Result struct {
	Record  *Record
	Checks  []check.Result
	Session *trace.Session // nil when the source never parsed
	Err     error
}

// Option configures a pass.
type Option func(*options)

type options struct {
	overrides trace.Overrides
	budget    int
	stdout    io.Writer
}

// WithOverrides replays the given what-if values during the pass.
func WithOverrides(ov trace.Overrides) Option {
	return func(o *options) { o.overrides = ov }
}

// WithStepBudget bounds the number of recorded time steps.
func WithStepBudget(n int) Option {
	return func(o *options) { o.budget = n }
}

// WithStdout redirects the traced program's print output.
func WithStdout(w io.Writer) Option {
	return func(o *options) { o.stdout = w }
}

// Source traces one program given as raw source text.
func Source(source string, opts ...Option) *Result {
	o := options{budget: trace.DefaultStepBudget}
	for _, opt := range opts {
		opt(&o)
	}
	lines := normalize.Lines(source)
	comments := normalize.TestComments(source)
	res := &Result{
		Record: &Record{Writes: writes.Set{}, Timeline: trace.NewTimeline()},
	}

	ws, err := writes.Compute(lines)
	if err != nil {
		tracer().Infof("write-set analysis failed: %v", err)
		res.Record.Status = StatusParseError
		res.Err = err
		return res
	}
	res.Record.Writes = ws

	// The write-set analyzer may have succeeded only after blanking
	// injected no-op lines; the program as the user will run it can still
	// fail to parse, which counts as a runtime failure.
	prog, err := script.Parse(lines)
	if err != nil {
		res.Record.Status = StatusRuntimeError
		res.Err = err
		return res
	}

	sessOpts := []trace.SessionOption{trace.WithStepBudget(o.budget)}
	if o.overrides != nil {
		sessOpts = append(sessOpts, trace.WithOverrides(o.overrides))
	}
	sess := trace.NewSession(lines, sessOpts...)
	res.Session = sess
	ipOpts := []interp.Option{interp.WithHooks(sess)}
	if o.stdout != nil {
		ipOpts = append(ipOpts, interp.WithStdout(o.stdout))
	}
	ip := interp.New(prog, ipOpts...)
	sess.Bind(ip)

	if err := ip.Run(); err != nil {
		tracer().Infof("run failed: %v", err)
		res.Record.Status = StatusRuntimeError
		res.Err = err
	}
	res.Checks = check.RunAll(sess, comments)
	res.Record.Timeline = trace.Materialize(sess.Timeline(), lines)
	return res
}

// File traces the program in path and persists its record next to it, as
// path+".out". A record identical to the one already on disk is not
// rewritten, so downstream file watchers stay quiet.
func File(path string, opts ...Option) (*Result, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	res := Source(string(src), opts...)
	body, err := json.Marshal(res.Record)
	if err != nil {
		return nil, err
	}
	outPath := path + ".out"
	if prev, err := os.ReadFile(outPath); err == nil && stamp(prev) == stamp(body) {
		tracer().Infof("record unchanged, keeping %q", outPath)
		return res, nil
	}
	if err := os.WriteFile(outPath, body, 0644); err != nil {
		return nil, err
	}
	return res, nil
}
