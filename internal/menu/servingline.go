package menu

import (
	"fmt"
	"regexp"
)

// servingLineFields are probed in order on object-shaped candidates.
var servingLineFields = []string{"ServingLine", "Text", "Name", "Value"}

// NoCandidatesError is returned when a serving-line response has no usable
// labels. Raw holds the response for diagnosis.
type NoCandidatesError struct {
	Raw any
}

func (e *NoCandidatesError) Error() string {
	return fmt.Sprintf("could not parse serving lines, raw response: %v", e.Raw)
}

// ExtractServingLines collects candidate labels from a GetServiceLine
// response: plain strings, or objects carrying one of the known fields.
func ExtractServingLines(raw any) []string {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}

	var out []string
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
			continue
		}
		obj, ok := asObject(item)
		if !ok {
			continue
		}
		for _, k := range servingLineFields {
			v, _ := obj.Get(k)
			if s, ok := v.(string); ok {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

// SelectServingLine returns the first candidate matching pattern, falling
// back to the first candidate. A nil pattern always takes the fallback.
func SelectServingLine(candidates []string, pattern *regexp.Regexp) (string, error) {
	if len(candidates) == 0 {
		return "", &NoCandidatesError{}
	}
	if pattern != nil {
		for _, c := range candidates {
			if pattern.MatchString(c) {
				return c, nil
			}
		}
	}
	return candidates[0], nil
}

// ResolveServingLine extracts candidates from raw and selects one.
func ResolveServingLine(raw any, pattern *regexp.Regexp) (string, error) {
	line, err := SelectServingLine(ExtractServingLines(raw), pattern)
	if err != nil {
		return "", &NoCandidatesError{Raw: raw}
	}
	return line, nil
}

// CompilePattern compiles a case-insensitive serving-line pattern.
func CompilePattern(expr string) (*regexp.Regexp, error) {
	if expr == "" {
		return nil, nil
	}
	return regexp.Compile("(?i)" + expr)
}
