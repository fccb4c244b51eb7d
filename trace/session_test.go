package trace

import (
	"io"
	"strings"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/steplens/steplens"
	"github.com/steplens/steplens/interp"
	"github.com/steplens/steplens/script"
)

func traceSrc(t *testing.T, src string, opts ...SessionOption) (*Session, error) {
	t.Helper()
	lines := strings.Split(src, "\n")
	prog, err := script.Parse(lines)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	sess := NewSession(lines, opts...)
	ip := interp.New(prog, interp.WithHooks(sess), interp.WithStdout(io.Discard))
	sess.Bind(ip)
	return sess, ip.Run()
}

func vars(env *Env) map[string]string {
	m := make(map[string]string)
	for _, v := range env.Vars {
		m[v.Name] = v.Value
	}
	return m
}

// timed drops the loop markers of a slot.
func timed(envs []*Env) []*Env {
	var out []*Env
	for _, e := range envs {
		if !e.IsMarker() {
			out = append(out, e)
		}
	}
	return out
}

func TestLinearTrace(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "steplens.trace")
	defer teardown()
	//
	sess, err := traceSrc(t, "x = 1\ny = x + 1")
	if err != nil {
		t.Fatal(err)
	}
	tl := sess.Timeline()
	e0 := tl.At(steplens.LineAt(0))
	if len(e0) != 1 || e0[0].Time != 0 {
		t.Fatalf("expected one recording at time 0 on line 0, got %v", e0)
	}
	if len(vars(e0[0])) != 0 {
		t.Errorf("snapshot precedes the statement, expected no variables, got %v", vars(e0[0]))
	}
	e1 := tl.At(steplens.LineAt(1))
	if len(e1) != 1 || vars(e1[0])["x"] != "1" {
		t.Errorf("expected x=1 before line 1, got %v", e1)
	}
	er := tl.At(steplens.ReturnAt(1))
	if len(er) != 1 {
		t.Fatalf("expected a top level return recording at R1, got %v", er)
	}
	m := vars(er[0])
	if m["x"] != "1" || m["y"] != "2" {
		t.Errorf("expected final bindings in return recording, got %v", m)
	}
	if er[0].RV != nil {
		t.Error("top level return must not carry a return value")
	}
	// prev/next links form a chain
	if e0[0].Next == nil || *e0[0].Next != steplens.LineAt(1) {
		t.Errorf("expected line 0 to link to line 1, got %v", e0[0].Next)
	}
	if e1[0].Prev == nil || *e1[0].Prev != steplens.LineAt(0) {
		t.Errorf("expected line 1 to link back to line 0, got %v", e1[0].Prev)
	}
}

func TestStrictTimeOrder(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "steplens.trace")
	defer teardown()
	//
	src := `x = 0
for i in range(3):
    x += i
print(x)`
	sess, err := traceSrc(t, src)
	if err != nil {
		t.Fatal(err)
	}
	seen := make(map[int]bool)
	max := -1
	sess.Timeline().Each(func(k steplens.LineKey, envs []*Env) {
		for _, e := range envs {
			if e.IsMarker() {
				continue
			}
			if seen[e.Time] {
				t.Errorf("time %d assigned twice", e.Time)
			}
			seen[e.Time] = true
			if e.Time > max {
				max = e.Time
			}
		}
	})
	for i := 0; i <= max; i++ {
		if !seen[i] {
			t.Errorf("time %d missing, steps must be consecutive", i)
		}
	}
	if sess.Time() != max+1 {
		t.Errorf("expected next time %d, got %d", max+1, sess.Time())
	}
}

func TestLoopIterationCounters(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "steplens.trace")
	defer teardown()
	//
	src := `x = 0
for i in range(3):
    x += i
print(x)`
	sess, err := traceSrc(t, src)
	if err != nil {
		t.Fatal(err)
	}
	tl := sess.Timeline()
	// the header records before the loop is entered or advanced, so its
	// counters trail the body's by one
	header := timed(tl.At(steplens.LineAt(1)))
	wantHeader := []string{"", "0", "1", "2"}
	if len(header) != len(wantHeader) {
		t.Fatalf("expected %d header recordings, got %d", len(wantHeader), len(header))
	}
	for i, e := range header {
		if e.LoopIters != wantHeader[i] {
			t.Errorf("header recording %d: expected iteration %q, got %q",
				i, wantHeader[i], e.LoopIters)
		}
	}
	body := timed(tl.At(steplens.LineAt(2)))
	wantBody := []string{"0", "1", "2"}
	if len(body) != len(wantBody) {
		t.Fatalf("expected %d body recordings, got %d", len(wantBody), len(body))
	}
	for i, e := range body {
		if e.LoopIters != wantBody[i] || e.LoopIDs != "1" {
			t.Errorf("body recording %d: expected iter %q of loop 1, got %q of %q",
				i, wantBody[i], e.LoopIters, e.LoopIDs)
		}
	}
	// iteration counters never decrease
	prev := -1
	for _, e := range body {
		n := int(e.Time)
		if n < prev {
			t.Error("body times must increase")
		}
		prev = n
	}
}

func TestLoopMarkers(t *testing.T) {
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
	envs := sess.Timeline().At(steplens.LineAt(1))
	if len(envs) < 2 {
		t.Fatalf("expected markers around body recordings, got %v", envs)
	}
	first, last := envs[0], envs[len(envs)-1]
	if first.BeginLoop == nil || *first.BeginLoop != "0" {
		t.Errorf("expected a begin marker with iteration 0, got %v", first)
	}
	if last.EndLoop == nil || *last.EndLoop != "2" {
		t.Errorf("expected an end marker with final count 2, got %v", last)
	}
	for _, e := range envs[1 : len(envs)-1] {
		if e.IsMarker() {
			t.Errorf("marker in the middle of the body slot: %v", e)
		}
	}
}

func TestBreakCountsFinalIteration(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "steplens.trace")
	defer teardown()
	//
	src := `for i in range(5):
    if i == 1:
        break
x = 0`
	sess, err := traceSrc(t, src)
	if err != nil {
		t.Fatal(err)
	}
	envs := sess.Timeline().At(steplens.LineAt(1))
	last := envs[len(envs)-1]
	if last.EndLoop == nil || *last.EndLoop != "2" {
		t.Errorf("break must still count its iteration, expected end marker 2, got %v", last)
	}
	// the header is never revisited after break
	header := timed(sess.Timeline().At(steplens.LineAt(0)))
	if len(header) != 2 {
		t.Errorf("expected 2 header recordings, got %d", len(header))
	}
}

func TestReturnPopsAllLoops(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "steplens.trace")
	defer teardown()
	//
	src := `def f():
    for i in range(10):
        for j in range(10):
            return i + j
x = f()`
	sess, err := traceSrc(t, src)
	if err != nil {
		t.Fatal(err)
	}
	tl := sess.Timeline()
	rv := tl.At(steplens.ReturnAt(3))
	if len(rv) != 1 || rv[0].RV == nil || *rv[0].RV != "0" {
		t.Fatalf("expected return recording with rv 0, got %v", rv)
	}
	// both loop bodies got end markers in one step
	ends := 0
	for _, e := range tl.At(steplens.LineAt(3)) {
		if e.EndLoop != nil {
			ends++
		}
	}
	if ends != 2 {
		t.Errorf("expected end markers from both loops on line 3, got %d", ends)
	}
	// begin/end markers pair up on every loop body line
	tl.Each(func(k steplens.LineKey, envs []*Env) {
		begins, endsHere := 0, 0
		for _, e := range envs {
			if e.BeginLoop != nil {
				begins++
			}
			if e.EndLoop != nil {
				endsHere++
			}
		}
		if begins != endsHere {
			t.Errorf("line %s: %d begin markers but %d end markers", k, begins, endsHere)
		}
	})
}

func TestFunctionReturnValue(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "steplens.trace")
	defer teardown()
	//
	src := `def add(a, b):
    return a + b
x = add(20, 22)`
	sess, err := traceSrc(t, src)
	if err != nil {
		t.Fatal(err)
	}
	rv := sess.Timeline().At(steplens.ReturnAt(1))
	if len(rv) != 1 {
		t.Fatalf("expected one return recording, got %d", len(rv))
	}
	if rv[0].RV == nil || *rv[0].RV != "42" {
		t.Errorf("expected rv 42, got %v", rv[0].RV)
	}
	m := vars(rv[0])
	if m["a"] != "20" || m["b"] != "22" {
		t.Errorf("expected parameters in return recording, got %v", m)
	}
}

func TestExceptionBanner(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "steplens.trace")
	defer teardown()
	//
	src := `def f():
    return 1 / 0
x = f()`
	sess, err := traceSrc(t, src)
	if err == nil {
		t.Fatal("expected a runtime error")
	}
	rv := sess.Timeline().At(steplens.ReturnAt(1))
	if len(rv) != 1 || rv[0].Banner == nil {
		t.Fatalf("expected an error banner at R1, got %v", rv)
	}
	banner := *rv[0].Banner
	if !strings.Contains(banner, "ZeroDivisionError") ||
		!strings.Contains(banner, "color:red") {
		t.Errorf("unexpected banner: %q", banner)
	}
	if rv[0].RV != nil {
		t.Error("an unwinding return must not carry a return value")
	}
	// the module frame unwinds with a banner as well
	modRet := sess.Timeline().At(steplens.ReturnAt(2))
	if len(modRet) != 1 || modRet[0].Banner == nil {
		t.Errorf("expected a banner on the top level return, got %v", modRet)
	}
}

func TestStepBudget(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "steplens.trace")
	defer teardown()
	//
	src := `n = 0
while True:
    n += 1`
	sess, err := traceSrc(t, src, WithStepBudget(5))
	if err != nil {
		t.Fatalf("reaching the step budget must not be an error, got %v", err)
	}
	if sess.Time() != 5 {
		t.Errorf("expected exactly 5 time steps, got %d", sess.Time())
	}
	count := 0
	sess.Timeline().Each(func(k steplens.LineKey, envs []*Env) {
		count += len(timed(envs))
	})
	if count != 5 {
		t.Errorf("expected 5 recordings in the timeline, got %d", count)
	}
}

func TestPreexistingNamesExcluded(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "steplens.trace")
	defer teardown()
	//
	sess, err := traceSrc(t, "x = 1\ny = 2")
	if err != nil {
		t.Fatal(err)
	}
	sess.Timeline().Each(func(k steplens.LineKey, envs []*Env) {
		for _, e := range envs {
			if _, ok := vars(e)["__name__"]; ok {
				t.Errorf("preexisting __name__ leaked into recording at %s", k)
			}
		}
	})
}

func TestNoopMarkerExcluded(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "steplens.trace")
	defer teardown()
	//
	src := "x = 1\n" + steplens.NoopMarker + " = 0\ny = 2"
	sess, err := traceSrc(t, src)
	if err != nil {
		t.Fatal(err)
	}
	if len(timed(sess.Timeline().At(steplens.LineAt(1)))) != 1 {
		t.Error("no-op lines must still be recorded")
	}
	sess.Timeline().Each(func(k steplens.LineKey, envs []*Env) {
		for _, e := range envs {
			if _, ok := vars(e)[steplens.NoopMarker]; ok {
				t.Errorf("marker variable leaked into recording at %s", k)
			}
		}
	})
}

func TestOverrides(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "steplens.trace")
	defer teardown()
	//
	ov := Overrides{
		{Line: steplens.LineAt(1), Time: 1}: {"x": "10"},
	}
	sess, err := traceSrc(t, "x = 1\ny = x + 1", WithOverrides(ov))
	if err != nil {
		t.Fatal(err)
	}
	e1 := sess.Timeline().At(steplens.LineAt(1))
	if vars(e1[0])["x"] != "10" {
		t.Errorf("expected overridden x=10 in snapshot, got %v", vars(e1[0]))
	}
	er := sess.Timeline().At(steplens.ReturnAt(1))
	if vars(er[0])["y"] != "11" {
		t.Errorf("expected the override to flow into y, got %v", vars(er[0]))
	}
}

func TestEvalInTerminal(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "steplens.trace")
	defer teardown()
	//
	sess, err := traceSrc(t, "x = 40\ny = 2")
	if err != nil {
		t.Fatal(err)
	}
	v, err := sess.EvalInTerminal("x + y")
	if err != nil {
		t.Fatal(err)
	}
	if n, ok := v.(interp.Int); !ok || n != 42 {
		t.Errorf("expected 42, got %v", v)
	}
}
