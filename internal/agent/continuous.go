package agent

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/motyar/gitbutler/internal/intake"
	"github.com/motyar/gitbutler/internal/queue"
	"github.com/motyar/gitbutler/internal/state"
)

const (
	activeSleep = 10 * time.Second
	idleSleep   = 30 * time.Second

	// Empty polls before an active session puts itself to sleep.
	maxIdleCycles = 180

	heartbeatSchedule = "@every 30m"
)

// session holds per-run counters. Deliberately in-memory only: persisting
// them would let stale counts survive a crash.
type session struct {
	start     time.Time
	processed int
	idle      int
}

// RunContinuous polls until the context is canceled. Single-threaded
// cooperative polling with a tiered sleep cadence; the only background
// work is the cron-scheduled memory heartbeat.
func (r *Runner) RunContinuous(ctx context.Context) error {
	log.Printf("🔄 GitButler continuous mode starting (run %s, mode %s)", r.runID, r.tracker.Mode())

	s := &session{start: r.now()}

	sched := cron.New()
	if _, err := sched.AddFunc(heartbeatSchedule, func() { r.heartbeat(ctx) }); err != nil {
		log.Printf("⚠️ failed to schedule heartbeat: %v", err)
	} else {
		sched.Start()
		defer sched.Stop()
	}

	for ctx.Err() == nil {
		msg, err := r.intake.FetchNext(ctx)
		if err != nil {
			// Cursor persistence is broken; polling on risks
			// re-delivering updates.
			return err
		}

		if msg == nil {
			s.idle++
			if r.tracker.Mode() == state.ModeActive && s.idle >= maxIdleCycles {
				log.Printf("🌙 %d idle cycles, auto-sleeping", s.idle)
				r.setMode(state.ModeIdle)
			}
		} else {
			s.idle = 0
			switch {
			case r.handleControl(ctx, msg, s):
				// handled as a control command
			case r.tracker.Mode() == state.ModeStopped:
				log.Printf("😴 stopped, ignoring message %d", msg.MessageID)
			default:
				if r.tracker.Mode() == state.ModeIdle {
					r.setMode(state.ModeActive)
				}
				r.Process(ctx, msg)
				s.processed++
			}
		}

		r.sleep(ctx, sleepFor(r.tracker.Mode()))
	}
	return nil
}

// handleControl intercepts the plain-text control commands before they
// reach the model. Reports whether msg was consumed.
func (r *Runner) handleControl(ctx context.Context, msg *intake.Message, s *session) bool {
	var reply string

	switch strings.ToLower(strings.TrimSpace(msg.Text)) {
	case "stop", "sleep", "pause":
		r.setMode(state.ModeStopped)
		reply = "😴 Going to sleep. Send 'start' to wake me up."
	case "start", "wake", "wake up":
		r.setMode(state.ModeActive)
		reply = "🟢 I'm awake and listening."
	case "status":
		reply = FormatStatus(r.tracker.Mode(), formatUptime(r.now().Sub(s.start)), s.processed, s.idle, maxIdleCycles)
	default:
		return false
	}

	r.enqueueReply(msg, reply)
	queue.Drain(ctx, r.outbox, r.sender)
	return true
}

func (r *Runner) setMode(mode string) {
	r.tracker.SetMode(mode)
	if err := r.tracker.Persist(); err != nil {
		log.Printf("⚠️ failed to persist mode change: %v", err)
	}
}

func (r *Runner) sleep(ctx context.Context, d time.Duration) {
	if r.sleeper != nil {
		r.sleeper(d)
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

func sleepFor(mode string) time.Duration {
	if mode == state.ModeActive {
		return activeSleep
	}
	return idleSleep
}
