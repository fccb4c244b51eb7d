package run

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/steplens/steplens"
	"github.com/steplens/steplens/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unmarshalRecord splits the persisted [status, writes, timeline] triple.
func unmarshalRecord(t *testing.T, body []byte) (int, map[string][]string, map[string][]map[string]interface{}) {
	t.Helper()
	var parts []json.RawMessage
	require.NoError(t, json.Unmarshal(body, &parts))
	require.Len(t, parts, 3)
	var status int
	require.NoError(t, json.Unmarshal(parts[0], &status))
	var writes map[string][]string
	require.NoError(t, json.Unmarshal(parts[1], &writes))
	var timeline map[string][]map[string]interface{}
	require.NoError(t, json.Unmarshal(parts[2], &timeline))
	return status, writes, timeline
}

func TestSourceRecordShape(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "steplens.run")
	defer teardown()
	//
	res := Source("x = 1\ny = x + 1")
	require.NoError(t, res.Err)
	body, err := json.Marshal(res.Record)
	require.NoError(t, err)

	status, writes, timeline := unmarshalRecord(t, body)
	assert.Equal(t, 0, status)
	assert.Equal(t, map[string][]string{"0": {"x"}, "1": {"y"}}, writes)
	require.Contains(t, timeline, "0")
	env := timeline["0"][0]
	assert.Equal(t, "1", env["x"], "materialized line 0 shows the state after x = 1")
	assert.NotContains(t, env, "frame")
	// the top level return slot carries no rv
	require.Contains(t, timeline, "R1")
}

func TestParseFailure(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "steplens.run")
	defer teardown()
	//
	res := Source("def f(:")
	require.Error(t, res.Err)
	assert.Equal(t, StatusParseError, res.Record.Status)
	body, err := json.Marshal(res.Record)
	require.NoError(t, err)
	status, writes, timeline := unmarshalRecord(t, body)
	assert.Equal(t, 1, status)
	assert.Empty(t, writes)
	assert.Empty(t, timeline)
}

func TestRuntimeFailureKeepsPartialTimeline(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "steplens.run")
	defer teardown()
	//
	res := Source("x = 1\ny = x / 0")
	require.Error(t, res.Err)
	assert.Equal(t, StatusRuntimeError, res.Record.Status)
	body, err := json.Marshal(res.Record)
	require.NoError(t, err)
	status, _, timeline := unmarshalRecord(t, body)
	assert.Equal(t, 2, status)
	// the failing statement's slot points at the unwind recording, which
	// carries the banner
	require.Contains(t, timeline, "1")
	require.NotEmpty(t, timeline["1"])
	env := timeline["1"][0]
	banner, ok := env["Exception Thrown"].(string)
	require.True(t, ok, "expected an error banner, got %v", env)
	assert.Contains(t, banner, "ZeroDivisionError")
	assert.Equal(t, "R1", env["lineno"])
}

func TestAssertions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "steplens.run")
	defer teardown()
	//
	src := `def add(a, b):
    return a + b
## add(1, 2) == 3
## add(1, 1)`
	res := Source(src)
	require.NoError(t, res.Err)
	require.Len(t, res.Checks, 2)
	require.NotNil(t, res.Checks[0].Passed)
	assert.True(t, *res.Checks[0].Passed)
	assert.Nil(t, res.Checks[1].Passed)
}

func TestBlankAndCommentLinesTraced(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "steplens.run")
	defer teardown()
	//
	// the no-op injected for the blank line is traced like any statement,
	// so the display can park a box there, but its marker variable never
	// shows up
	src := "x = 1\n\ny = 2"
	res := Source(src)
	require.NoError(t, res.Err)
	body, err := json.Marshal(res.Record)
	require.NoError(t, err)
	_, writes, timeline := unmarshalRecord(t, body)
	assert.NotContains(t, writes, "1")
	require.Contains(t, timeline, "1")
	assert.NotContains(t, timeline["1"][0], steplens.NoopMarker)
}

func TestOverrideReplay(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "steplens.run")
	defer teardown()
	//
	ov, err := ParseOverrides([]byte(`{"(1,1)": {"x": "10"}}`))
	require.NoError(t, err)
	res := Source("x = 1\ny = x + 1", WithOverrides(ov))
	require.NoError(t, res.Err)
	v, err := res.Session.EvalInTerminal("y")
	require.NoError(t, err)
	assert.Equal(t, "11", interpRepr(t, v))
}

func TestParseOverrides(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "steplens.run")
	defer teardown()
	//
	ov, err := ParseOverrides([]byte(`{"(5,8)": {"x": "42"}, "(R3,1)": {"y": "0"}}`))
	require.NoError(t, err)
	require.Len(t, ov, 2)
	assert.Contains(t, ov, trace.OverrideKey{Line: steplens.LineAt(5), Time: 8})
	assert.Contains(t, ov, trace.OverrideKey{Line: steplens.ReturnAt(3), Time: 1})

	_, err = ParseOverrides([]byte(`{"5,8": {"x": "1"}}`))
	assert.Error(t, err)
	_, err = ParseOverrides([]byte(`{"(x,8)": {"x": "1"}}`))
	assert.Error(t, err)
}

func TestFilePersistsRecord(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "steplens.run")
	defer teardown()
	//
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.py")
	require.NoError(t, os.WriteFile(path, []byte("x = 1\n"), 0644))

	res, err := File(path)
	require.NoError(t, err)
	require.NoError(t, res.Err)

	body, err := os.ReadFile(path + ".out")
	require.NoError(t, err)
	status, writes, _ := unmarshalRecord(t, body)
	assert.Equal(t, 0, status)
	assert.Equal(t, map[string][]string{"0": {"x"}}, writes)

	// a second, identical pass leaves the file untouched
	before, err := os.Stat(path + ".out")
	require.NoError(t, err)
	_, err = File(path)
	require.NoError(t, err)
	after, err := os.Stat(path + ".out")
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())
}

func TestStepBudgetOption(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "steplens.run")
	defer teardown()
	//
	res := Source("n = 0\nwhile True:\n    n += 1", WithStepBudget(7))
	require.NoError(t, res.Err)
	assert.Equal(t, StatusOK, res.Record.Status)
	assert.Equal(t, 7, res.Session.Time())
}

func TestConfigDefaults(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "steplens.run")
	defer teardown()
	//
	dir := t.TempDir()
	path := filepath.Join(dir, "steplens.yaml")
	require.NoError(t, os.WriteFile(path, []byte("step-budget: 250\n"), 0644))
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.StepBudget)
	assert.Equal(t, "error", cfg.TraceLevel, "unset keys keep their defaults")
}

func interpRepr(t *testing.T, v interface{ Repr() (string, bool) }) string {
	t.Helper()
	r, ok := v.Repr()
	require.True(t, ok)
	return r
}
