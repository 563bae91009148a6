// Package streamjson reconstructs a best-effort {explanation, concepts} value
// from the raw text accumulated so far out of a model token stream. The
// buffer is only well-formed JSON once the stream completes; every earlier
// prefix is malformed, may be wrapped in prose or a fenced code block, and
// must still render as something.
package streamjson

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Result is the current best guess over an accumulated stream buffer.
type Result struct {
	Explanation string   `json:"explanation"`
	Concepts    []string `json:"concepts"`
}

var (
	fenceRe         = regexp.MustCompile("```(?:json|JSON)?\\s*")
	trailingCommaRe = regexp.MustCompile(`,(\s*[}\]])`)
)

// Reconstruct parses the accumulated buffer into a Result. It is pure and
// deterministic, never fails, and is safe to call on every chunk: the
// worst case degrades to the raw buffer as explanation text.
func Reconstruct(buffer string) Result {
	candidate := strings.TrimSpace(buffer)

	// Prefer the outermost {...} span; the model often wraps the object in prose.
	if start := strings.Index(candidate, "{"); start >= 0 {
		if end := strings.LastIndex(candidate, "}"); end > start {
			candidate = candidate[start : end+1]
		}
	}

	candidate = strings.TrimSpace(fenceRe.ReplaceAllString(candidate, ""))

	fields, ok := parseObject(candidate)
	if !ok {
		fields, ok = parseObject(trailingCommaRe.ReplaceAllString(candidate, "$1"))
	}
	if !ok {
		return Result{Explanation: buffer, Concepts: []string{}}
	}

	out := Result{Concepts: []string{}}

	var explanation string
	if raw, present := fields["explanation"]; !present || string(raw) == "null" || json.Unmarshal(raw, &explanation) != nil {
		out.Explanation = buffer
	} else {
		out.Explanation = explanation
	}

	var concepts []json.RawMessage
	if raw, present := fields["concepts"]; present && json.Unmarshal(raw, &concepts) == nil {
		seen := make(map[string]struct{}, len(concepts))
		for _, item := range concepts {
			var name string
			if json.Unmarshal(item, &name) != nil {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			out.Concepts = append(out.Concepts, name)
		}
	}

	return out
}

func parseObject(candidate string) (map[string]json.RawMessage, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &fields); err != nil {
		return nil, false
	}
	return fields, true
}
