package run

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/steplens/steplens"
	"github.com/steplens/steplens/trace"
)

// ParseOverrides reads what-if replacement values from their wire form: a
// JSON object mapping "(line,time)" keys to {variable: expression} objects,
// e.g. {"(5,8)": {"x": "42"}}. Return recordings are addressed with the
// return variant of the line, "(R5,8)".
func ParseOverrides(data []byte) (trace.Overrides, error) {
	var raw map[string]map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("override values: %v", err)
	}
	ov := make(trace.Overrides, len(raw))
	for k, vars := range raw {
		key, err := parseOverrideKey(k)
		if err != nil {
			return nil, err
		}
		ov[key] = vars
	}
	return ov, nil
}

func parseOverrideKey(s string) (trace.OverrideKey, error) {
	inner, ok := strings.CutPrefix(s, "(")
	if ok {
		inner, ok = strings.CutSuffix(inner, ")")
	}
	line, timeStr, found := strings.Cut(inner, ",")
	if !ok || !found {
		return trace.OverrideKey{}, fmt.Errorf("not an override key: %q", s)
	}
	lk, err := steplens.ParseLineKey(strings.TrimSpace(line))
	if err != nil {
		return trace.OverrideKey{}, fmt.Errorf("override key %q: %v", s, err)
	}
	t, err := strconv.Atoi(strings.TrimSpace(timeStr))
	if err != nil {
		return trace.OverrideKey{}, fmt.Errorf("override key %q: %v", s, err)
	}
	return trace.OverrideKey{Line: lk, Time: t}, nil
}
