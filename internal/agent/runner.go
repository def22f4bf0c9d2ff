package agent

import (
	"context"
	"fmt"
	"log"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/motyar/gitbutler/internal/actions"
	"github.com/motyar/gitbutler/internal/intake"
	"github.com/motyar/gitbutler/internal/llm"
	"github.com/motyar/gitbutler/internal/memory"
	"github.com/motyar/gitbutler/internal/queue"
	"github.com/motyar/gitbutler/internal/state"
)

// Publisher pushes the state directory to the version-control remote.
// Best effort by contract: a failure is logged, never propagated.
type Publisher interface {
	CommitAndPush(ctx context.Context, message string) error
}

// Deps are the collaborators a Runner orchestrates. Everything that
// touches the network or the disk arrives as an interface or injectable
// so tests can substitute fakes.
type Deps struct {
	Tracker   *state.Tracker
	Intake    *intake.Loop
	Outbox    *queue.File[queue.Outbound]
	Sender    queue.Sender
	Provider  llm.Provider
	Store     *memory.Store
	Actions   *actions.Handler
	Publisher Publisher
}

// Runner drives one assistant cycle: intake, completion, action handling,
// reply drain, publish. It is strictly sequential; there is no
// concurrency inside a run.
type Runner struct {
	tracker   *state.Tracker
	intake    *intake.Loop
	outbox    *queue.File[queue.Outbound]
	sender    queue.Sender
	provider  llm.Provider
	store     *memory.Store
	actions   *actions.Handler
	publisher Publisher

	runID   string
	now     func() time.Time
	sleeper func(time.Duration) // overridable in tests
}

// NewRunner assembles a runner from its collaborators.
func NewRunner(d Deps) *Runner {
	return &Runner{
		tracker:   d.Tracker,
		intake:    d.Intake,
		outbox:    d.Outbox,
		sender:    d.Sender,
		provider:  d.Provider,
		store:     d.Store,
		actions:   d.Actions,
		publisher: d.Publisher,
		runID:     uuid.NewString()[:8],
		now:       time.Now,
	}
}

// RunOnce performs a single fetch-and-process pass: the one-message-per-
// invocation mode used when a CI schedule drives the assistant.
func (r *Runner) RunOnce(ctx context.Context) error {
	log.Printf("🤖 GitButler run %s starting", r.runID)

	msg, err := r.intake.FetchNext(ctx)
	if err != nil {
		return err
	}
	if msg == nil {
		// A previous run may have crashed between queueing a reply
		// and draining it.
		if res := queue.Drain(ctx, r.outbox, r.sender); res.Sent > 0 {
			log.Printf("📤 drained %d leftover replies", res.Sent)
		}
		log.Println("✅ no new messages to process")
		return nil
	}

	r.Process(ctx, msg)
	return nil
}

// Process runs the full downstream pipeline for one accepted message.
// The intake cursor was already advanced and persisted before msg was
// surfaced, so nothing in here can cause a re-delivery.
func (r *Runner) Process(ctx context.Context, msg *intake.Message) {
	log.Printf("💬 processing message %d", msg.MessageID)

	raw, err := r.provider.Complete(ctx, r.systemPrompt(msg.Text), msg.Text)
	if err != nil {
		r.failRun(ctx, msg, err)
		return
	}

	reply, set := actions.Parse(raw)
	if reply != "" {
		r.enqueueReply(msg, reply)
	}
	queue.Drain(ctx, r.outbox, r.sender)

	if set != nil {
		r.actions.Apply(ctx, set)
	}

	r.finishRun(ctx, fmt.Sprintf("Processed message %d", msg.MessageID))
}

// failRun notifies the user about a downstream failure. The cursor stays
// where the fetch put it: the message is not reprocessed.
func (r *Runner) failRun(ctx context.Context, msg *intake.Message, cause error) {
	log.Printf("❌ error processing message %d: %v", msg.MessageID, cause)
	r.store.LogError(fmt.Sprintf("Error processing message %d: %v", msg.MessageID, cause))

	r.enqueueReply(msg, "I encountered an error processing your message: "+clip(cause.Error(), 200))
	queue.Drain(ctx, r.outbox, r.sender)

	r.finishRun(ctx, fmt.Sprintf("Error processing message %d", msg.MessageID))
}

// finishRun stamps the run time and publishes the state directory.
// Publishing is best effort; a failed push never fails the run.
func (r *Runner) finishRun(ctx context.Context, commitMessage string) {
	r.tracker.TouchRunTime()
	if err := r.tracker.Persist(); err != nil {
		log.Printf("⚠️ failed to persist state: %v", err)
	}

	if r.publisher == nil {
		return
	}
	if err := r.publisher.CommitAndPush(ctx, commitMessage); err != nil {
		log.Printf("⚠️ publish failed: %v", err)
	}
}

func (r *Runner) enqueueReply(msg *intake.Message, text string) {
	out := queue.Outbound{
		ChatID:           msg.ChatID,
		Text:             text,
		ReplyToMessageID: msg.MessageID,
	}
	if err := r.outbox.Append(out); err != nil {
		log.Printf("⚠️ failed to queue reply: %v", err)
	}
}

// clip shortens s to at most max bytes without splitting a rune, so the
// result stays valid UTF-8 wherever it ends up.
func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
