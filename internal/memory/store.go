package memory

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Document names under the storage directory. The system prompt loads
// them in this order.
const (
	SoulFile     = "soul.md"
	IdentityFile = "IDENTITY.md"
	UserFile     = "USER.md"
	MemoryFile   = "MEMORY.md"
	AgentsFile   = "AGENTS.md"
	ToolsFile    = "TOOLS.md"
)

// Doc is an append-only text document. Implementations decide where the
// bytes live; callers only read the whole thing or append a section.
type Doc interface {
	Read() string
	Append(section string) error
}

type fileDoc struct {
	path string
}

func (d *fileDoc) Read() string {
	data, err := os.ReadFile(d.path)
	if err != nil {
		return ""
	}
	return string(data)
}

func (d *fileDoc) Append(section string) error {
	f, err := os.OpenFile(d.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.WriteString(section)
	return err
}

// Store holds the assistant's flat-file memory documents.
type Store struct {
	dir       string
	skillsDir string

	now func() time.Time
}

// NewStore creates the storage directory and seeds the initial soul
// document on first run.
func NewStore(storageDir, skillsDir string) (*Store, error) {
	if err := os.MkdirAll(storageDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}

	s := &Store{
		dir:       storageDir,
		skillsDir: skillsDir,
		now:       time.Now,
	}

	soulPath := filepath.Join(storageDir, SoulFile)
	if _, err := os.Stat(soulPath); os.IsNotExist(err) {
		if err := os.WriteFile(soulPath, []byte(seedSoul), 0644); err != nil {
			return nil, fmt.Errorf("failed to seed %s: %w", SoulFile, err)
		}
	}
	return s, nil
}

// Doc returns the named document.
func (s *Store) Doc(name string) Doc {
	return &fileDoc{path: filepath.Join(s.dir, name)}
}

// Read returns the named document's content, or "" when it doesn't exist.
func (s *Store) Read(name string) string {
	return s.Doc(name).Read()
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format("2006-01-02 15:04:05 UTC")
}

// AppendSection appends a timestamped markdown section to a document.
func (s *Store) AppendSection(name, header, content string) error {
	section := fmt.Sprintf("\n\n## %s (%s)\n%s\n", header, s.timestamp(), content)
	return s.Doc(name).Append(section)
}

// AppendReflection records a reflection in the soul document.
func (s *Store) AppendReflection(content string) error {
	return s.AppendSection(SoulFile, "Reflection", content)
}

// AppendMemory records a long-term memory entry.
func (s *Store) AppendMemory(content string) error {
	section := fmt.Sprintf("\n\n### %s\n%s\n", s.timestamp(), content)
	return s.Doc(MemoryFile).Append(section)
}

// AppendUserNote records an update to the user profile.
func (s *Store) AppendUserNote(content string) error {
	section := fmt.Sprintf("\n\n### Update (%s)\n%s\n", s.timestamp(), content)
	return s.Doc(UserFile).Append(section)
}

// LogError appends an error entry to the soul document so failures
// survive into the next run's context. Best effort.
func (s *Store) LogError(message string) {
	if err := s.AppendSection(SoulFile, "Error Log Entry", message); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: failed to log error: %v\n", err)
	}
}
