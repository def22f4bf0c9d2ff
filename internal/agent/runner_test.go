package agent

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/motyar/gitbutler/internal/actions"
	"github.com/motyar/gitbutler/internal/intake"
	"github.com/motyar/gitbutler/internal/memory"
	"github.com/motyar/gitbutler/internal/queue"
	"github.com/motyar/gitbutler/internal/state"
	"github.com/motyar/gitbutler/internal/telegram"
)

const testChat = int64(123456789)

type fakeProvider struct {
	reply string
	err   error

	calls     int
	prompts   []string
	userTexts []string
}

func (f *fakeProvider) Complete(ctx context.Context, systemPrompt, userText string) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, systemPrompt)
	f.userTexts = append(f.userTexts, userText)
	return f.reply, f.err
}

func (f *fakeProvider) Name() string { return "fake" }

type fakeSender struct {
	sent []queue.Outbound
	err  error
}

func (f *fakeSender) SendMessage(ctx context.Context, chatID int64, text string, replyTo int) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, queue.Outbound{ChatID: chatID, Text: text, ReplyToMessageID: replyTo})
	return nil
}

type fakePublisher struct {
	messages []string
}

func (f *fakePublisher) CommitAndPush(ctx context.Context, message string) error {
	f.messages = append(f.messages, message)
	return nil
}

// scriptedSource serves one pre-recorded batch per GetUpdates call and
// nothing once the script runs out.
type scriptedSource struct {
	batches [][]telegram.Update
	next    int
}

func (s *scriptedSource) GetUpdates(ctx context.Context, offset int64, limit, timeoutSec int) ([]telegram.Update, error) {
	if s.next >= len(s.batches) {
		return nil, nil
	}
	batch := s.batches[s.next]
	s.next++
	return batch, nil
}

func textUpdate(updateID int64, messageID int, text string) telegram.Update {
	return telegram.Update{
		UpdateID: updateID,
		Message: &telegram.Message{
			MessageID: messageID,
			Text:      text,
			Chat:      telegram.Chat{ID: testChat},
		},
	}
}

type harness struct {
	runner    *Runner
	tracker   *state.Tracker
	statePath string
	outbox    *queue.File[queue.Outbound]
	sender    *fakeSender
	provider  *fakeProvider
	publisher *fakePublisher
	store     *memory.Store
	source    *scriptedSource
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()

	statePath := filepath.Join(dir, "state.json")
	tracker := state.NewTracker(statePath)
	if err := tracker.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	store, err := memory.NewStore(filepath.Join(dir, "storage"), filepath.Join(dir, "skills"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	source := &scriptedSource{}
	sender := &fakeSender{}
	provider := &fakeProvider{reply: "ok"}
	publisher := &fakePublisher{}
	outbox := queue.NewFile[queue.Outbound](filepath.Join(dir, "outbox.json"))

	r := NewRunner(Deps{
		Tracker:   tracker,
		Intake:    intake.NewLoop(tracker, source, testChat),
		Outbox:    outbox,
		Sender:    sender,
		Provider:  provider,
		Store:     store,
		Actions:   actions.NewHandler(store, nil),
		Publisher: publisher,
	})
	r.sleeper = func(time.Duration) {}

	return &harness{
		runner:    r,
		tracker:   tracker,
		statePath: statePath,
		outbox:    outbox,
		sender:    sender,
		provider:  provider,
		publisher: publisher,
		store:     store,
		source:    source,
	}
}

func inboundMessage(text string) *intake.Message {
	return &intake.Message{
		UpdateID:  42,
		MessageID: 7,
		Text:      text,
		ChatID:    testChat,
		Timestamp: time.Now().UTC(),
	}
}

func TestProcess_RepliesAndPublishes(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.provider.reply = "Sure thing."

	h.runner.Process(context.Background(), inboundMessage("hi"))

	if len(h.sender.sent) != 1 {
		t.Fatalf("expected one reply, got %d", len(h.sender.sent))
	}
	got := h.sender.sent[0]
	if got.Text != "Sure thing." || got.ChatID != testChat || got.ReplyToMessageID != 7 {
		t.Fatalf("unexpected reply: %+v", got)
	}
	if left := h.outbox.Load(); len(left) != 0 {
		t.Fatalf("outbox must be drained, %d left", len(left))
	}
	if len(h.publisher.messages) != 1 || h.publisher.messages[0] != "Processed message 7" {
		t.Fatalf("unexpected publish: %+v", h.publisher.messages)
	}
}

func TestProcess_PromptCarriesUserText(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.runner.Process(context.Background(), inboundMessage("what did I say yesterday?"))

	if h.provider.calls != 1 {
		t.Fatalf("expected one completion, got %d", h.provider.calls)
	}
	if h.provider.userTexts[0] != "what did I say yesterday?" {
		t.Fatalf("unexpected user text: %q", h.provider.userTexts[0])
	}
	if !strings.Contains(h.provider.prompts[0], "CORE IDENTITY (soul.md)") {
		t.Fatal("system prompt must include memory documents")
	}
	if !strings.Contains(h.provider.prompts[0], "INJECTED SKILLS") {
		t.Fatal("system prompt must include the skills section")
	}
}

func TestProcess_ActionBlockStrippedAndApplied(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.provider.reply = "Saved.\n```json\n{\"update_memory\": true, \"content\": \"likes espresso\"}\n```"

	h.runner.Process(context.Background(), inboundMessage("remember this"))

	if len(h.sender.sent) != 1 || h.sender.sent[0].Text != "Saved." {
		t.Fatalf("block must not reach the user: %+v", h.sender.sent)
	}
	if !strings.Contains(h.store.Read(memory.MemoryFile), "likes espresso") {
		t.Fatal("memory action not applied")
	}
}

func TestProcess_ActionOnlyReplySendsNothing(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.provider.reply = "```json\n{\"update_user\": true, \"content\": \"prefers brevity\"}\n```"

	h.runner.Process(context.Background(), inboundMessage("noted?"))

	if len(h.sender.sent) != 0 {
		t.Fatalf("empty text must not be sent: %+v", h.sender.sent)
	}
	if !strings.Contains(h.store.Read(memory.UserFile), "prefers brevity") {
		t.Fatal("user action not applied")
	}
}

func TestProcess_ProviderFailure(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.provider.err = errors.New("model overloaded")

	h.runner.Process(context.Background(), inboundMessage("hi"))

	if len(h.sender.sent) != 1 {
		t.Fatalf("expected one failure reply, got %d", len(h.sender.sent))
	}
	if !strings.HasPrefix(h.sender.sent[0].Text, "I encountered an error processing your message: ") {
		t.Fatalf("unexpected failure reply: %q", h.sender.sent[0].Text)
	}
	if !strings.Contains(h.store.Read(memory.SoulFile), "Error processing message 7") {
		t.Fatal("failure must be logged to the soul document")
	}
	if len(h.publisher.messages) != 1 || h.publisher.messages[0] != "Error processing message 7" {
		t.Fatalf("unexpected publish: %+v", h.publisher.messages)
	}
}

func TestProcess_SendFailureKeepsReplyQueued(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.provider.reply = "Hello!"
	h.sender.err = errors.New("telegram down")

	h.runner.Process(context.Background(), inboundMessage("hi"))

	left := h.outbox.Load()
	if len(left) != 1 || left[0].Text != "Hello!" {
		t.Fatalf("undelivered reply must stay queued: %+v", left)
	}
	if len(h.publisher.messages) != 1 {
		t.Fatal("a failed send must not block the publish")
	}
}

func TestProcess_NilPublisher(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.runner.publisher = nil

	h.runner.Process(context.Background(), inboundMessage("hi"))

	if len(h.sender.sent) != 1 {
		t.Fatal("processing must work without a publisher")
	}
}

func TestRunOnce_ProcessesOneMessage(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.provider.reply = "Done."
	h.source.batches = [][]telegram.Update{{textUpdate(42, 7, "hi")}}

	if err := h.runner.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if len(h.sender.sent) != 1 || h.sender.sent[0].Text != "Done." {
		t.Fatalf("unexpected sends: %+v", h.sender.sent)
	}
	if h.tracker.Cursor() != 42 {
		t.Fatalf("cursor must be at 42, got %d", h.tracker.Cursor())
	}
}

func TestRunOnce_DrainsLeftoverReplies(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	if err := h.outbox.Append(queue.Outbound{ChatID: testChat, Text: "from last run", ReplyToMessageID: 3}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	if err := h.runner.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if len(h.sender.sent) != 1 || h.sender.sent[0].Text != "from last run" {
		t.Fatalf("leftover reply not drained: %+v", h.sender.sent)
	}
	if h.provider.calls != 0 {
		t.Fatal("no completion without a message")
	}
}

func TestClip(t *testing.T) {
	t.Parallel()

	if got := clip("short", 10); got != "short" {
		t.Fatalf("unexpected clip: %q", got)
	}
	if got := clip("0123456789abc", 10); got != "0123456789" {
		t.Fatalf("unexpected clip: %q", got)
	}

	// A cut landing inside a multibyte rune must back off to the rune
	// start instead of emitting a partial sequence.
	for max := 8; max <= 12; max++ {
		got := clip("12345678🦋🦋", max)
		if !utf8.ValidString(got) {
			t.Fatalf("clip at %d produced invalid UTF-8: %q", max, got)
		}
		if len(got) > max {
			t.Fatalf("clip at %d too long: %d bytes", max, len(got))
		}
	}
}

func TestProcess_FailureReplyStaysValidUTF8(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.provider.err = errors.New(strings.Repeat("é", 150))

	h.runner.Process(context.Background(), inboundMessage("hi"))

	if len(h.sender.sent) != 1 {
		t.Fatalf("expected one failure reply, got %d", len(h.sender.sent))
	}
	if !utf8.ValidString(h.sender.sent[0].Text) {
		t.Fatal("failure reply must remain valid UTF-8 after clipping")
	}
}
