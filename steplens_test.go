package steplens

import "testing"

func TestLineKeyString(t *testing.T) {
	if s := LineAt(12).String(); s != "12" {
		t.Errorf("expected \"12\", got %q", s)
	}
	if s := ReturnAt(12).String(); s != "R12" {
		t.Errorf("expected \"R12\", got %q", s)
	}
}

func TestParseLineKey(t *testing.T) {
	k, err := ParseLineKey("R5")
	if err != nil {
		t.Fatal(err)
	}
	if k.Line != 5 || !k.Return {
		t.Errorf("expected return variant of line 5, got %v", k)
	}
	k, err = ParseLineKey("7")
	if err != nil {
		t.Fatal(err)
	}
	if k.Line != 7 || k.Return {
		t.Errorf("expected statement variant of line 7, got %v", k)
	}
	if _, err = ParseLineKey("Rx"); err == nil {
		t.Error("expected an error for \"Rx\"")
	}
}

func TestCompareLineKeys(t *testing.T) {
	if c := CompareLineKeys(LineAt(3), LineAt(4)); c >= 0 {
		t.Errorf("line 3 should order before line 4, got %d", c)
	}
	if c := CompareLineKeys(LineAt(3), ReturnAt(3)); c >= 0 {
		t.Errorf("statement should order before return at same line, got %d", c)
	}
	if c := CompareLineKeys(ReturnAt(3), ReturnAt(3)); c != 0 {
		t.Errorf("equal keys should compare 0, got %d", c)
	}
}

func TestIndent(t *testing.T) {
	if n := Indent("    x = 1"); n != 4 {
		t.Errorf("expected indent 4, got %d", n)
	}
	if n := Indent("x = 1"); n != 0 {
		t.Errorf("expected indent 0, got %d", n)
	}
}
