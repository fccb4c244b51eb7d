package writes

import (
	"reflect"
	"strings"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/steplens/steplens"
)

func compute(t *testing.T, src string) Set {
	t.Helper()
	set, err := Compute(strings.Split(src, "\n"))
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	return set
}

func TestSimpleAssignments(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "steplens.writes")
	defer teardown()
	//
	set := compute(t, "x = 1\ny = x\na = b = 2")
	want := Set{0: {"x"}, 1: {"y"}, 2: {"a", "b"}}
	if !reflect.DeepEqual(set, want) {
		t.Errorf("expected %v, got %v", want, set)
	}
}

func TestSubscriptAndAttributeTargets(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "steplens.writes")
	defer teardown()
	//
	// subscripts write their root variable; attribute assignments mutate
	// an object in place and write no name
	set := compute(t, "m[0][1] = 5\np.x = 1\nq.r[2] = 3")
	want := Set{0: {"m"}, 2: {"q"}}
	if !reflect.DeepEqual(set, want) {
		t.Errorf("expected %v, got %v", want, set)
	}
}

func TestLoopAndComprehensionTargets(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "steplens.writes")
	defer teardown()
	//
	src := `for i in range(3):
    s = [y for y in range(i)]
    s[0] += 1`
	set := compute(t, src)
	want := Set{0: {"i"}, 1: {"s", "y"}, 2: {"s"}}
	if !reflect.DeepEqual(set, want) {
		t.Errorf("expected %v, got %v", want, set)
	}
}

func TestNestedBlocks(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "steplens.writes")
	defer teardown()
	//
	src := `def f(n):
    if n > 0:
        r = n
    else:
        r = 0
    return r
x = f(2)`
	set := compute(t, src)
	want := Set{2: {"r"}, 4: {"r"}, 6: {"x"}}
	if !reflect.DeepEqual(set, want) {
		t.Errorf("expected %v, got %v", want, set)
	}
}

func TestMarkerNeverRecorded(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "steplens.writes")
	defer teardown()
	//
	set := compute(t, "x = 1\n"+steplens.NoopMarker+" = 0")
	want := Set{0: {"x"}}
	if !reflect.DeepEqual(set, want) {
		t.Errorf("expected %v, got %v", want, set)
	}
}

func TestNoopRetryInClassBody(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "steplens.writes")
	defer teardown()
	//
	// an injected no-op inside a class body is invalid there; the
	// analyzer blanks it and retries
	src := `class P:
    def m(self):
        return 1
    ` + steplens.NoopMarker + ` = 0
p = P()`
	set := compute(t, src)
	want := Set{4: {"p"}}
	if !reflect.DeepEqual(set, want) {
		t.Errorf("expected %v, got %v", want, set)
	}
}

func TestTerminalParseFailure(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "steplens.writes")
	defer teardown()
	//
	set, err := Compute([]string{"def f(:"})
	if err == nil {
		t.Fatal("expected a terminal parse error")
	}
	if set != nil {
		t.Errorf("expected nil set on failure, got %v", set)
	}
}
