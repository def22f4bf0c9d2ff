package memory

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const skillFileName = "skill.md"

// LoadSkills walks the skills directory and concatenates every skill.md
// it finds, one section per skill named after its directory. Returns a
// placeholder when the directory is absent or holds no skills.
func (s *Store) LoadSkills() string {
	var b strings.Builder

	err := filepath.WalkDir(s.skillsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Name() != skillFileName {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		name := filepath.Base(filepath.Dir(path))
		fmt.Fprintf(&b, "### Skill: %s\n%s\n\n", name, strings.TrimSpace(string(data)))
		return nil
	})
	if err != nil || b.Len() == 0 {
		return "No skills loaded."
	}
	return strings.TrimSpace(b.String())
}
