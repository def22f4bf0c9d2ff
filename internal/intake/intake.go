package intake

import (
	"context"
	"log"
	"time"

	"github.com/motyar/gitbutler/internal/state"
	"github.com/motyar/gitbutler/internal/telegram"
)

const defaultPollTimeout = 10

// Message is one accepted inbound message, immutable once produced.
type Message struct {
	UpdateID  int64     `json:"update_id"`
	MessageID int       `json:"message_id"`
	Text      string    `json:"text"`
	ChatID    int64     `json:"chat_id"`
	Timestamp time.Time `json:"timestamp"`
}

// UpdateSource produces Telegram updates. The live client implements it;
// tests and the CI cache path substitute their own.
type UpdateSource interface {
	GetUpdates(ctx context.Context, offset int64, limit, timeoutSec int) ([]telegram.Update, error)
}

// Loop fetches at most one unprocessed update per call and decides whether
// to surface it. The cursor is advanced and persisted as soon as an update
// is looked at, never after it is processed: a crash anywhere downstream
// cannot re-deliver an update that was already returned or skipped.
type Loop struct {
	tracker     *state.Tracker
	source      UpdateSource
	allowedChat int64
	pollTimeout int

	now func() time.Time
}

// NewLoop builds an intake loop restricted to a single allowed chat.
func NewLoop(tracker *state.Tracker, source UpdateSource, allowedChat int64) *Loop {
	return &Loop{
		tracker:     tracker,
		source:      source,
		allowedChat: allowedChat,
		pollTimeout: defaultPollTimeout,
		now:         time.Now,
	}
}

// SetPollTimeout overrides the long-poll duration in seconds.
func (l *Loop) SetPollTimeout(seconds int) {
	if seconds > 0 {
		l.pollTimeout = seconds
	}
}

// FetchNext requests the next update after the cursor and applies the
// intake policy. It returns nil when there is nothing to process this
// cycle; transport failures are logged and treated the same way, leaving
// the cursor untouched. A non-nil error means the cursor could not be
// persisted, in which case the update is not surfaced.
func (l *Loop) FetchNext(ctx context.Context) (*Message, error) {
	updates, err := l.source.GetUpdates(ctx, l.tracker.Cursor()+1, 1, l.pollTimeout)
	if err != nil {
		log.Printf("⚠️ failed to fetch updates: %v", err)
		return nil, nil
	}
	if len(updates) == 0 {
		return nil, nil
	}

	u := updates[0]
	if u.UpdateID <= l.tracker.Cursor() {
		// Already acknowledged. A well-behaved transport never sends
		// these, but a replayed cache batch can.
		log.Printf("⏭️ dropping stale update %d (cursor %d)", u.UpdateID, l.tracker.Cursor())
		return nil, nil
	}
	if u.Message == nil {
		return nil, l.skip(u.UpdateID, "non-message update")
	}
	if u.Message.Chat.ID != l.allowedChat {
		log.Printf("🚫 ignoring message from chat %d", u.Message.Chat.ID)
		return nil, l.skip(u.UpdateID, "disallowed chat")
	}
	if u.Message.Text == "" {
		return nil, l.skip(u.UpdateID, "non-text message")
	}

	// Acknowledge before handing off. If the cursor can't be persisted
	// the message must not be surfaced, or a crash would replay it.
	l.tracker.Advance(u.UpdateID)
	if err := l.tracker.Persist(); err != nil {
		return nil, err
	}

	msg := &Message{
		UpdateID:  u.UpdateID,
		MessageID: u.Message.MessageID,
		Text:      u.Message.Text,
		ChatID:    u.Message.Chat.ID,
		Timestamp: l.now().UTC(),
	}
	log.Printf("📩 accepted message %d (update %d)", msg.MessageID, msg.UpdateID)
	return msg, nil
}

// skip advances the cursor past a rejected update so it is never fetched
// again.
func (l *Loop) skip(updateID int64, reason string) error {
	log.Printf("⏭️ skipping update %d: %s", updateID, reason)
	l.tracker.Advance(updateID)
	return l.tracker.Persist()
}
