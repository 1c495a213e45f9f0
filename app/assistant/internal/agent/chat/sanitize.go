package chat

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"
)

var (
	fenceMarkers = regexp.MustCompile("```json\n?|\n?```")
	missingComma = regexp.MustCompile(`"\s*\n\s*"`)
)

// fallbackAnswer is the guaranteed-parseable reply used when the model's
// final output cannot be rescued.
const fallbackAnswer = `{"conversation": "I'm sorry, I seem to have gotten my thoughts tangled up and couldn't format my response correctly. Could you please try rephrasing your request?"}`

// SanitizeFinalAnswer repairs the model's final output into valid JSON.
// The steps are literal, ordered rewrites for the model's common mistakes:
// markdown fences around the object, single quotes for double quotes, and a
// dropped comma between quoted fields on consecutive lines. Anything still
// unparseable afterwards is logged and replaced with the fixed fallback, so
// the caller always gets valid JSON.
func SanitizeFinalAnswer(log logx.Logger, raw string) string {
	cleaned := fenceMarkers.ReplaceAllString(raw, "")
	cleaned = strings.ReplaceAll(cleaned, "'", `"`)
	cleaned = missingComma.ReplaceAllString(cleaned, "\",\n\"")

	if strings.TrimSpace(cleaned) != "" && json.Valid([]byte(cleaned)) {
		return cleaned
	}

	log.Errorf("could not parse model output as JSON: %s", raw)
	return fallbackAnswer
}
