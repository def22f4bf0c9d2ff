package actions

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/motyar/gitbutler/internal/memory"
)

type fakeIssues struct {
	titles []string
	bodies []string
	err    error
}

func (f *fakeIssues) CreateIssue(ctx context.Context, title, body string) error {
	f.titles = append(f.titles, title)
	f.bodies = append(f.bodies, body)
	return f.err
}

func newTestHandler(t *testing.T, issues IssueCreator) (*Handler, *memory.Store) {
	t.Helper()
	store, err := memory.NewStore(t.TempDir(), t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return NewHandler(store, issues), store
}

func TestApply_MemoryActions(t *testing.T) {
	t.Parallel()

	h, store := newTestHandler(t, nil)
	h.Apply(context.Background(), &Set{
		UpdateSoul:   true,
		UpdateMemory: true,
		UpdateUser:   true,
		Content:      "the user ships on Fridays",
	})

	if !strings.Contains(store.Read(memory.SoulFile), "the user ships on Fridays") {
		t.Fatal("soul document missing reflection")
	}
	if !strings.Contains(store.Read(memory.MemoryFile), "the user ships on Fridays") {
		t.Fatal("memory document missing entry")
	}
	if !strings.Contains(store.Read(memory.UserFile), "the user ships on Fridays") {
		t.Fatal("user document missing note")
	}
}

func TestApply_NoContentNoWrite(t *testing.T) {
	t.Parallel()

	h, store := newTestHandler(t, nil)
	before := store.Read(memory.SoulFile)

	h.Apply(context.Background(), &Set{UpdateSoul: true})

	if store.Read(memory.SoulFile) != before {
		t.Fatal("update without content must not touch the document")
	}
}

func TestApply_CreateIssue(t *testing.T) {
	t.Parallel()

	issues := &fakeIssues{}
	h, _ := newTestHandler(t, issues)

	h.Apply(context.Background(), &Set{
		CreateIssueForCopilot: true,
		IssueTitle:            "Tighten drain budget",
		IssueBody:             "See outbox growth on flaky links.",
	})

	if len(issues.titles) != 1 || issues.titles[0] != "Tighten drain budget" {
		t.Fatalf("unexpected issue calls: %+v", issues.titles)
	}
	if issues.bodies[0] != "See outbox growth on flaky links." {
		t.Fatalf("unexpected body: %q", issues.bodies[0])
	}
}

func TestApply_CreateIssueDefaultTitle(t *testing.T) {
	t.Parallel()

	issues := &fakeIssues{}
	h, _ := newTestHandler(t, issues)

	h.Apply(context.Background(), &Set{CreateIssueForCopilot: true})

	if len(issues.titles) != 1 || issues.titles[0] != "Code improvement task" {
		t.Fatalf("expected default title, got %+v", issues.titles)
	}
}

func TestApply_IssueFailureDoesNotAbort(t *testing.T) {
	t.Parallel()

	issues := &fakeIssues{err: errors.New("api down")}
	h, store := newTestHandler(t, issues)

	h.Apply(context.Background(), &Set{
		CreateIssueForCopilot: true,
		UpdateMemory:          true,
		Content:               "still recorded",
	})

	if !strings.Contains(store.Read(memory.MemoryFile), "still recorded") {
		t.Fatal("memory action must run even when issue creation fails")
	}
}

func TestApply_EmptySetIsNoOp(t *testing.T) {
	t.Parallel()

	issues := &fakeIssues{}
	h, _ := newTestHandler(t, issues)

	h.Apply(context.Background(), nil)
	h.Apply(context.Background(), &Set{})

	if len(issues.titles) != 0 {
		t.Fatalf("empty sets must do nothing, got %+v", issues.titles)
	}
}
