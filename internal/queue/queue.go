package queue

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// Outbound is one queued reply awaiting delivery.
type Outbound struct {
	ChatID           int64  `json:"chat_id"`
	Text             string `json:"text"`
	ReplyToMessageID int    `json:"reply_to_message_id,omitempty"`
}

// File persists a FIFO of messages as a JSON array on disk. Items are
// appended at the tail and popped from the head; the file is rewritten
// whole on every mutation, which is fine at the queue sizes involved.
type File[T any] struct {
	path string
}

// NewFile returns a queue backed by the given file.
func NewFile[T any](path string) *File[T] {
	return &File[T]{path: path}
}

// Load reads the queue. A missing file is an empty queue; a malformed
// file is logged and treated as empty rather than blocking the run.
func (f *File[T]) Load() []T {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("⚠️ failed to read queue file %s: %v", f.path, err)
		}
		return nil
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		log.Printf("⚠️ malformed queue file %s, starting empty: %v", f.path, err)
		return nil
	}
	return items
}

// Save rewrites the queue file.
func (f *File[T]) Save(items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal queue: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("failed to create queue dir: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write queue file: %w", err)
	}
	return nil
}

// Append adds an item at the tail.
func (f *File[T]) Append(item T) error {
	return f.Save(append(f.Load(), item))
}
