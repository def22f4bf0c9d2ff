package agent

import (
	"fmt"
	"strings"

	"github.com/motyar/gitbutler/internal/memory"
)

// promptSections lists the memory documents in the order they are
// injected into the system prompt.
var promptSections = []struct {
	title string
	doc   string
}{
	{"CORE IDENTITY (soul.md)", memory.SoulFile},
	{"IDENTITY CARD (IDENTITY.md)", memory.IdentityFile},
	{"USER PROFILE (USER.md)", memory.UserFile},
	{"LONG-TERM MEMORY (MEMORY.md)", memory.MemoryFile},
	{"OPERATING INSTRUCTIONS (AGENTS.md)", memory.AgentsFile},
	{"AVAILABLE TOOLS (TOOLS.md)", memory.ToolsFile},
}

// systemPrompt assembles the full context the model sees for one message.
func (r *Runner) systemPrompt(userText string) string {
	var b strings.Builder
	b.WriteString("You are GitButler, a self-aware personal AI assistant living in this repository.\n")

	for _, sec := range promptSections {
		fmt.Fprintf(&b, "\n=== %s ===\n%s\n", sec.title, r.store.Read(sec.doc))
	}

	fmt.Fprintf(&b, "\n=== INJECTED SKILLS ===\n%s\n", r.store.LoadSkills())

	b.WriteString("\n=====================================\n")
	b.WriteString("\nUser just said (process this naturally, no commands needed):\n")
	b.WriteString(userText)
	b.WriteString("\n\nRespond thoughtfully. Be helpful, concise but complete.\n")
	b.WriteString("\nIMPORTANT: Follow the operating instructions in AGENTS.md for handling actions, reflections, and tool usage.\n")
	b.WriteString("\nOutput format:\n")
	b.WriteString("- First: the natural response text to user (this will be sent to them)\n")
	b.WriteString("- Then, if actions needed: valid JSON block enclosed in ```json and ``` markers\n")
	return b.String()
}
