package trace

import (
	"github.com/steplens/steplens"
)

// Materialize converts the raw chronological timeline into the per-line
// "next step" sequence the stepper UI consumes: every time-stamped
// environment is replaced by its nearest strictly-later environment that
// belongs to the same call frame and represents a genuine forward step.
// Loop markers pass through unchanged.
//
// A forward step is one that carries an error banner, or leaves a non-loop
// statement, or enters a loop body (successor indented deeper than the loop
// header). The rule suppresses spurious links where a loop header would
// otherwise point at its own next iteration as if it were a linear
// continuation.
//
// Environments whose frame identity was already stripped are treated as
// materialized and pass through, so running Materialize on its own output
// changes nothing. The returned timeline aliases the input environments,
// with frame identities stripped.
func Materialize(data *Timeline, lines []string) *Timeline {
	envsByTime := make(map[int]*Env)
	data.Each(func(k steplens.LineKey, envs []*Env) {
		for _, env := range envs {
			if !env.IsMarker() {
				envsByTime[env.Time] = env
			}
		}
	})
	out := NewTimeline()
	data.Each(func(k steplens.LineKey, envs []*Env) {
		next := []*Env{}
		for _, env := range envs {
			if env.IsMarker() || env.Frame == nil {
				next = append(next, env)
				continue
			}
			if succ := successor(env, envsByTime, lines); succ != nil {
				next = append(next, succ)
			}
		}
		out.Put(k, next)
	})
	out.Each(func(k steplens.LineKey, envs []*Env) {
		for _, env := range envs {
			env.Frame = nil
		}
	})
	return out
}

// successor scans increasing time values for the first qualifying
// forward-step environment in the same call frame, or nil.
func successor(env *Env, envsByTime map[int]*Env, lines []string) *Env {
	for t := env.Time + 1; ; t++ {
		nextEnv, ok := envsByTime[t]
		if !ok {
			return nil
		}
		if nextEnv.Frame == nil || env.Frame != nextEnv.Frame {
			continue
		}
		currStmt := lines[env.Line.Line]
		nextStmt := lines[nextEnv.Line.Line]
		if nextEnv.Banner != nil || !isLoopHeader(currStmt) ||
			steplens.Indent(nextStmt) > steplens.Indent(currStmt) {
			return nextEnv
		}
		return nil
	}
}
