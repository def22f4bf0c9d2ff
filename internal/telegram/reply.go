package telegram

import (
	"strings"
	"unicode/utf8"
)

// TruncateReply limits outbound responses to the max message size the
// API accepts. The cut never lands inside a multibyte rune: the API
// rejects invalid UTF-8 outright, and a rejected reply would wedge the
// outbound queue since the same text is re-truncated on every retry.
func TruncateReply(text string) string {
	text = strings.TrimSpace(text)
	if len(text) <= maxReplyChars {
		return text
	}

	cut := maxReplyChars
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return strings.TrimSpace(text[:cut]) + truncateSuffix
}
