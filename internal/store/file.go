package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"tg_earning_bot/internal/domain"
)

// FileStore keeps the ledger in a single pretty-printed JSON document,
// matching the legacy users.json layout (numeric chat ids as keys).
type FileStore struct {
	path string
}

// NewFileStore constructs a FileStore for the given document path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the whole document. A missing file is initialized to an empty
// mapping; read and parse errors degrade to an empty ledger so a corrupt
// document never blocks update handling.
func (s *FileStore) Load(_ context.Context) (domain.Ledger, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			if writeErr := os.WriteFile(s.path, []byte("{}"), 0o644); writeErr != nil {
				return domain.Ledger{}, fmt.Errorf("init ledger file: %w", writeErr)
			}
			return domain.Ledger{}, nil
		}
		return domain.Ledger{}, fmt.Errorf("read ledger file: %w", err)
	}

	ledger := domain.Ledger{}
	if len(raw) == 0 {
		return ledger, nil
	}

	if err := json.Unmarshal(raw, &ledger); err != nil {
		return domain.Ledger{}, fmt.Errorf("parse ledger file: %w", err)
	}

	return ledger, nil
}

// Save replaces the document with the full ledger.
func (s *FileStore) Save(_ context.Context, ledger domain.Ledger) error {
	raw, err := json.MarshalIndent(ledger, "", "    ")
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}

	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("write ledger file: %w", err)
	}

	return nil
}

// Ping reports whether the ledger file location is usable; a file that does
// not exist yet is fine, it will be created on first load.
func (s *FileStore) Ping(_ context.Context) error {
	if _, err := os.Stat(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}

	return nil
}
