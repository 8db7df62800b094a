package dialogue

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/agenthands/personapanel/internal/core/common"
)

// turnMarker matches a turn heading at the start of a line, allowing
// markdown decoration: "Turn 3", "**Turn 3**", "[Turn 3]", "- Turn #3".
var turnMarker = regexp.MustCompile(`(?im)^[^\p{L}\p{N}\n]*turn\s*#?\s*(\d+)`)

// HighestTurn returns the largest turn marker in text, or 0 with ok=false.
func HighestTurn(text string) (turn int, ok bool) {
	for _, m := range turnMarker.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if !ok || n > turn {
			turn, ok = n, true
		}
	}
	return turn, ok
}

// parseRound pulls the dialogue text and the reported final turn number out
// of an LLM response. reported is false when the response did not carry a
// usable final_turn_number.
func parseRound(response string) (content string, final int, reported bool) {
	if js, err := common.ExtractJSON(response); err == nil && gjson.Valid(js) {
		c := gjson.Get(js, "content")
		if c.Exists() && strings.TrimSpace(c.String()) != "" {
			content = strings.TrimSpace(c.String())
			// gjson parses numeric strings too: "final_turn_number": "7"
			if f := gjson.Get(js, "final_turn_number"); f.Exists() && f.Int() > 0 {
				return content, int(f.Int()), true
			}
			return content, 0, false
		}
	}
	return common.StripFences(response), 0, false
}

// resolveFinalTurn applies the continuation bookkeeping rules: trust the
// reported number, else the highest marker in the new text, else assume the
// requested count was honored. The result never drops below lastTurn.
func resolveFinalTurn(newContent string, reported int, hasReported bool, lastTurn, requested int) int {
	final := lastTurn + requested
	switch {
	case hasReported:
		final = reported
	default:
		if marker, ok := HighestTurn(newContent); ok {
			final = marker
		}
	}
	if final < lastTurn {
		final = lastTurn
	}
	return final
}
