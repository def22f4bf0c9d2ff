package publish

import (
	"context"
	"fmt"
	"log"
	"os/exec"
	"time"
)

const commandTimeout = 30 * time.Second

// Runner executes one git command in a directory and returns its combined
// output. Swappable in tests.
type Runner func(ctx context.Context, dir string, args ...string) ([]byte, error)

func execGit(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

// Publisher commits and pushes the working tree. Publishing is strictly
// best effort: callers log failures and carry on, and nothing here may
// influence the intake cursor.
type Publisher struct {
	dir        string
	authorName string
	authorMail string

	run Runner
}

// NewPublisher creates a publisher for the repository at dir.
func NewPublisher(dir string) *Publisher {
	return &Publisher{
		dir:        dir,
		authorName: "GitButler",
		authorMail: "bot@gitbutler.local",
		run:        execGit,
	}
}

func (p *Publisher) git(ctx context.Context, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()
	return p.run(ctx, p.dir, args...)
}

// CommitAndPush stages everything and pushes a single commit. A commit
// that fails because the tree is clean counts as success; any other
// failure is returned for the caller to log.
func (p *Publisher) CommitAndPush(ctx context.Context, message string) error {
	steps := [][]string{
		{"config", "user.name", p.authorName},
		{"config", "user.email", p.authorMail},
		{"add", "."},
	}
	for _, args := range steps {
		if out, err := p.git(ctx, args...); err != nil {
			return fmt.Errorf("git %s failed: %v: %s", args[0], err, out)
		}
	}

	if out, err := p.git(ctx, "commit", "-m", message); err != nil {
		// Almost always "nothing to commit"; either way there is
		// nothing to push.
		log.Printf("ℹ️ no changes to commit: %s", out)
		return nil
	}

	if out, err := p.git(ctx, "push"); err != nil {
		return fmt.Errorf("git push failed: %v: %s", err, out)
	}
	log.Printf("✅ git commit & push successful: %s", message)
	return nil
}
