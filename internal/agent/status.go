package agent

import (
	"fmt"
	"strings"
	"time"

	"github.com/motyar/gitbutler/internal/state"
)

var modeIcons = map[string]string{
	state.ModeActive:  "🟢",
	state.ModeIdle:    "🌙",
	state.ModeStopped: "🔴",
}

// FormatStatus renders the reply to the "status" control command.
func FormatStatus(mode, uptime string, processed, idleCycles, maxIdle int) string {
	icon, ok := modeIcons[mode]
	if !ok {
		icon = "❓"
	}

	var b strings.Builder
	b.WriteString("🤖 GitButler Status\n")
	fmt.Fprintf(&b, "Mode: %s %s\n", strings.ToUpper(mode), icon)
	fmt.Fprintf(&b, "Uptime: %s\n", uptime)
	fmt.Fprintf(&b, "Messages processed: %d\n", processed)
	fmt.Fprintf(&b, "Idle cycles: %d/%d", idleCycles, maxIdle)
	return b.String()
}

// formatUptime renders a duration as H:MM:SS.
func formatUptime(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}
