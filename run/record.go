package run

import (
	"encoding/json"

	"github.com/cnf/structhash"
	"github.com/steplens/steplens/trace"
	"github.com/steplens/steplens/writes"
)

// Status classifies the outcome of a tracing pass.
type Status int

const (
	StatusOK           Status = iota // traced to completion (or step budget)
	StatusParseError                 // source does not parse, no run happened
	StatusRuntimeError               // run raised, partial timeline kept
)

// Record is the persisted result of a pass. It serializes as the JSON
// triple [status, writes, timeline] the client UI consumes.
type Record struct {
	Status   Status
	Writes   writes.Set
	Timeline *trace.Timeline
}

func (r *Record) MarshalJSON() ([]byte, error) {
	ws := r.Writes
	if ws == nil {
		ws = writes.Set{}
	}
	tl := r.Timeline
	if tl == nil {
		tl = trace.NewTimeline()
	}
	return json.Marshal([]interface{}{r.Status, ws, tl})
}

// stamp fingerprints a serialized record. File uses it to detect that a
// fresh pass produced the same record as the one already on disk.
func stamp(body []byte) string {
	v := struct {
		Record string
	}{Record: string(body)}
	sum, err := structhash.Hash(v, 1)
	if err != nil {
		return ""
	}
	return sum
}
