package trace

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/steplens/steplens"
)

func TestMaterializeLinear(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "steplens.trace")
	defer teardown()
	//
	src := "x = 1\ny = x + 1\nz = y"
	sess, err := traceSrc(t, src)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(src, "\n")
	out := Materialize(sess.Timeline(), lines)
	// every line now shows the state after its statement ran
	e0 := out.At(steplens.LineAt(0))
	if len(e0) != 1 || vars(e0[0])["x"] != "1" {
		t.Errorf("expected line 0 to show x=1 after materialization, got %v", e0)
	}
	e1 := out.At(steplens.LineAt(1))
	if len(e1) != 1 || vars(e1[0])["y"] != "2" {
		t.Errorf("expected line 1 to show y=2, got %v", e1)
	}
	// frame identities are stripped
	out.Each(func(k steplens.LineKey, envs []*Env) {
		for _, e := range envs {
			if e.Frame != nil {
				t.Errorf("frame identity kept at %s", k)
			}
		}
	})
}

func TestMaterializeLoopHeader(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "steplens.trace")
	defer teardown()
	//
	src := `for i in range(2):
    x = i
y = 0`
	sess, err := traceSrc(t, src)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(src, "\n")
	out := Materialize(sess.Timeline(), lines)
	// header recordings keep only successors that enter the loop body;
	// the final exhausted check has no such successor and is dropped
	header := timed(out.At(steplens.LineAt(0)))
	if len(header) != 2 {
		t.Fatalf("expected 2 materialized header recordings, got %d", len(header))
	}
	for i, e := range header {
		if e.Line.Line != 1 {
			t.Errorf("header successor %d should be the body line, got line %d",
				i, e.Line.Line)
		}
	}
}

func TestMaterializeStopsAtFrameBoundary(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "steplens.trace")
	defer teardown()
	//
	src := `def f(a):
    return a
x = f(1)
y = 2`
	sess, err := traceSrc(t, src)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(src, "\n")
	out := Materialize(sess.Timeline(), lines)
	// the call line's successor skips over the callee frame's recordings
	e2 := timed(out.At(steplens.LineAt(2)))
	if len(e2) != 1 {
		t.Fatalf("expected one successor for the call line, got %d", len(e2))
	}
	if e2[0].Line.Line != 3 {
		t.Errorf("expected successor on line 3, got line %d", e2[0].Line.Line)
	}
}

func TestMaterializeKeepsMarkers(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "steplens.trace")
	defer teardown()
	//
	src := `for i in range(2):
    x = i
y = 0`
	sess, err := traceSrc(t, src)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(src, "\n")
	raw := sess.Timeline().At(steplens.LineAt(1))
	out := Materialize(sess.Timeline(), lines)
	cooked := out.At(steplens.LineAt(1))
	if cooked[0] != raw[0] || cooked[len(cooked)-1] != raw[len(raw)-1] {
		t.Error("begin and end markers must survive materialization in place")
	}
}

func TestMaterializeIdempotent(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "steplens.trace")
	defer teardown()
	//
	src := `def f(a):
    for i in range(3):
        a += i
    return a
x = f(0)`
	sess, err := traceSrc(t, src)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(src, "\n")
	once := Materialize(sess.Timeline(), lines)
	onceJSON, err := json.Marshal(once)
	if err != nil {
		t.Fatal(err)
	}
	twice := Materialize(once, lines)
	twiceJSON, err := json.Marshal(twice)
	if err != nil {
		t.Fatal(err)
	}
	if string(onceJSON) != string(twiceJSON) {
		t.Errorf("materialization must be idempotent:\nonce:  %s\ntwice: %s",
			onceJSON, twiceJSON)
	}
}
