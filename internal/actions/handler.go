package actions

import (
	"context"
	"log"

	"github.com/motyar/gitbutler/internal/memory"
)

// IssueCreator files improvement issues against the hosting repository.
type IssueCreator interface {
	CreateIssue(ctx context.Context, title, body string) error
}

// Handler applies a parsed action set to its collaborators. Individual
// action failures are logged and never abort the remaining actions.
type Handler struct {
	store  *memory.Store
	issues IssueCreator
}

// NewHandler wires a handler to the memory store and issue creator.
func NewHandler(store *memory.Store, issues IssueCreator) *Handler {
	return &Handler{store: store, issues: issues}
}

// Apply executes every requested action in the set.
func (h *Handler) Apply(ctx context.Context, set *Set) {
	if set.Empty() {
		return
	}

	if set.UpdateSoul && set.Content != "" {
		if err := h.store.AppendReflection(set.Content); err != nil {
			log.Printf("⚠️ failed to update soul: %v", err)
		} else {
			log.Println("🪞 soul updated with reflection")
		}
	}

	if set.UpdateMemory && set.Content != "" {
		if err := h.store.AppendMemory(set.Content); err != nil {
			log.Printf("⚠️ failed to update memory log: %v", err)
		} else {
			log.Println("🧠 memory log updated")
		}
	}

	if set.UpdateUser && set.Content != "" {
		if err := h.store.AppendUserNote(set.Content); err != nil {
			log.Printf("⚠️ failed to update user profile: %v", err)
		} else {
			log.Println("👤 user profile updated")
		}
	}

	if set.CreateIssueForCopilot {
		title := set.IssueTitle
		if title == "" {
			title = "Code improvement task"
		}
		if h.issues == nil {
			log.Println("⚠️ issue creation requested but no issue backend configured")
		} else if err := h.issues.CreateIssue(ctx, title, set.IssueBody); err != nil {
			log.Printf("⚠️ failed to create issue: %v", err)
		}
	}

	if set.GenerateCode {
		log.Println("📝 direct code generation requested (not implemented)")
	}
	if set.MergePR != 0 {
		log.Printf("🔀 PR merge requested for #%d (not implemented)", set.MergePR)
	}
}
