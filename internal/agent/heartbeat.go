package agent

import (
	"context"
	"log"
	"strings"

	"github.com/motyar/gitbutler/internal/memory"
)

const heartbeatSystemPrompt = `You are GitButler's background memory janitor.
You receive the current long-term memory log. Consolidate it: extract core
facts, user preferences, projects, and entity relationships into a short
summary. Reply with the summary only, no preamble. Reply with exactly
NOTHING if there is nothing worth keeping.`

// heartbeat runs the periodic memory consolidation pass. Failures are
// logged and dropped; the next tick tries again.
func (r *Runner) heartbeat(ctx context.Context) {
	log.Println("💓 heartbeat: consolidating memory")

	memoryLog := r.store.Read(memory.MemoryFile)
	if strings.TrimSpace(memoryLog) == "" {
		return
	}

	summary, err := r.provider.Complete(ctx, heartbeatSystemPrompt, memoryLog)
	if err != nil {
		log.Printf("⚠️ heartbeat consolidation failed: %v", err)
		return
	}

	summary = strings.TrimSpace(summary)
	if summary == "" || summary == "NOTHING" {
		return
	}
	if err := r.store.AppendReflection(summary); err != nil {
		log.Printf("⚠️ failed to record consolidation: %v", err)
	}
}
