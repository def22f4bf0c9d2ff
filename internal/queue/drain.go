package queue

import (
	"context"
	"log"
)

// maxDrainAttempts bounds a single drain pass so a pathological queue
// cannot spin forever.
const maxDrainAttempts = 100

// Sender delivers one outbound message. The Telegram client implements it.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string, replyTo int) error
}

// DrainResult summarizes one drain pass.
type DrainResult struct {
	Sent      int
	Remaining int
}

// Drain delivers queued messages oldest-first. An item is removed from
// the persisted queue only after the transport acknowledges it; on the
// first failure the item goes back to the head and the pass stops, so
// ordering is preserved across runs.
func Drain(ctx context.Context, store *File[Outbound], sender Sender) DrainResult {
	items := store.Load()

	sent := 0
	for attempts := 0; len(items) > 0 && attempts < maxDrainAttempts; attempts++ {
		head := items[0]
		items = items[1:]

		if err := sender.SendMessage(ctx, head.ChatID, head.Text, head.ReplyToMessageID); err != nil {
			log.Printf("⚠️ failed to send queued message to chat %d: %v", head.ChatID, err)
			items = append([]Outbound{head}, items...)
			break
		}
		sent++

		if err := store.Save(items); err != nil {
			log.Printf("⚠️ failed to persist queue after send: %v", err)
		}
	}

	if err := store.Save(items); err != nil {
		log.Printf("⚠️ failed to persist queue: %v", err)
	}
	return DrainResult{Sent: sent, Remaining: len(items)}
}
