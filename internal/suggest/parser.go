package suggest

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Placeholder values used when the generation payload yields nothing usable
const (
	PlaceholderSource        = "Unavailable"
	PlaceholderJustification = "The model response could not be parsed into the expected format."
	PlaceholderAnswer        = "The model did not return a usable reply. Please try again."
)

// Field extraction patterns for the tolerant stage. The payload is
// JSON-shaped text, so values are matched as JSON string literals.
var (
	answerPattern        = regexp.MustCompile(`"answer"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	sourcePattern        = regexp.MustCompile(`"source"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	justificationPattern = regexp.MustCompile(`"justification"\s*:\s*"((?:[^"\\]|\\.)*)"`)
)

// ParseReply recovers a SuggestedReply from the generation payload through
// an ordered chain of strategies: strict JSON decode, pattern-based field
// extraction, then a guaranteed placeholder. It never fails.
func ParseReply(raw string) *SuggestedReply {
	trimmed := stripCodeFence(strings.TrimSpace(raw))

	if reply, ok := parseStrict(trimmed); ok {
		return reply
	}

	if reply, ok := parseTolerant(trimmed); ok {
		return reply
	}

	return placeholderReply(trimmed)
}

// parseStrict attempts a strict JSON decode of the expected object shape
func parseStrict(raw string) (*SuggestedReply, bool) {
	var reply SuggestedReply
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		return nil, false
	}
	if reply.Answer == "" {
		return nil, false
	}
	return &reply, true
}

// parseTolerant extracts the three known fields by pattern matching,
// unescaping embedded quote and newline escapes. Succeeds when at least the
// answer field is recognizable.
func parseTolerant(raw string) (*SuggestedReply, bool) {
	answer, ok := extractField(answerPattern, raw)
	if !ok {
		return nil, false
	}

	reply := &SuggestedReply{Answer: answer}
	if source, ok := extractField(sourcePattern, raw); ok {
		reply.Source = source
	}
	if justification, ok := extractField(justificationPattern, raw); ok {
		reply.Justification = justification
	}

	return reply, true
}

func extractField(pattern *regexp.Regexp, raw string) (string, bool) {
	matches := pattern.FindStringSubmatch(raw)
	if len(matches) < 2 || matches[1] == "" {
		return "", false
	}
	return unescape(matches[1]), true
}

// unescape reverses JSON string escapes in an extracted field value
func unescape(s string) string {
	// The captured text is the inside of a JSON string literal; decoding it
	// as one recovers the original value.
	var decoded string
	if err := json.Unmarshal([]byte(`"`+s+`"`), &decoded); err != nil {
		return s
	}
	return decoded
}

// placeholderReply is the final, always-successful stage. Non-empty raw text
// is still the model's reply, so it is kept as the answer; the provenance
// fields state that parsing failed.
func placeholderReply(raw string) *SuggestedReply {
	answer := raw
	if answer == "" {
		answer = PlaceholderAnswer
	}
	return &SuggestedReply{
		Answer:        answer,
		Source:        PlaceholderSource,
		Justification: PlaceholderJustification,
	}
}

// stripCodeFence removes a surrounding markdown code fence, a frequent
// artifact in completion output
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	body := strings.TrimPrefix(s, "```json")
	body = strings.TrimPrefix(body, "```")
	body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	return strings.TrimSpace(body)
}
