package actions

import (
	"encoding/json"
	"log"
	"regexp"
	"strings"
)

var codeBlockRe = regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```")

// Parse splits an LLM reply into the user-visible text and an optional
// action set taken from the first fenced ```json block. A malformed block
// is logged and dropped, leaving the reply text untouched: a bad decode
// must never eat the answer the user was supposed to see.
func Parse(reply string) (string, *Set) {
	loc := codeBlockRe.FindStringSubmatchIndex(reply)
	if loc == nil {
		return strings.TrimSpace(reply), nil
	}

	blob := reply[loc[2]:loc[3]]
	var set Set
	if err := json.Unmarshal([]byte(blob), &set); err != nil {
		log.Printf("⚠️ malformed action block, ignoring: %v", err)
		return strings.TrimSpace(reply), nil
	}

	clean := strings.TrimSpace(reply[:loc[0]] + reply[loc[1]:])
	return clean, &set
}
