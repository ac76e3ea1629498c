package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tg_earning_bot/internal/domain"
)

func TestFileStoreInitializesMissingDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	fileStore := NewFileStore(path)

	ledger, err := fileStore.Load(context.Background())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(ledger) != 0 {
		t.Fatalf("expected empty ledger, got %d accounts", len(ledger))
	}

	raw, readErr := os.ReadFile(path)
	if readErr != nil {
		t.Fatalf("expected document to be created, got %v", readErr)
	}
	if strings.TrimSpace(string(raw)) != "{}" {
		t.Fatalf("expected empty mapping document, got %q", string(raw))
	}
}

func TestFileStoreRoundtripsLedger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	fileStore := NewFileStore(path)

	referrer := int64(100)
	ledger := domain.Ledger{
		100: {Balance: 75, LastEarnAt: 1700000000, ReferralCount: 1, ReferralCode: "abc12345"},
		200: {Balance: 0, ReferralCode: "def67890", ReferredBy: &referrer},
	}

	if err := fileStore.Save(context.Background(), ledger); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	loaded, err := fileStore.Load(context.Background())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if len(loaded) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(loaded))
	}
	if loaded[100].Balance != 75 || loaded[100].ReferralCount != 1 || loaded[100].ReferralCode != "abc12345" {
		t.Fatalf("unexpected account 100: %+v", loaded[100])
	}
	if loaded[200].ReferredBy == nil || *loaded[200].ReferredBy != 100 {
		t.Fatalf("expected account 200 referred by 100, got %+v", loaded[200])
	}
}

func TestFileStoreWritesPrettyPrintedDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	fileStore := NewFileStore(path)

	ledger := domain.Ledger{100: {Balance: 10, ReferralCode: "abc12345"}}
	if err := fileStore.Save(context.Background(), ledger); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read document: %v", err)
	}

	if !strings.Contains(string(raw), "\n") {
		t.Fatalf("expected indented document, got %q", string(raw))
	}

	var asMap map[string]map[string]interface{}
	if err := json.Unmarshal(raw, &asMap); err != nil {
		t.Fatalf("document is not valid JSON: %v", err)
	}
	if _, ok := asMap["100"]["ref_code"]; !ok {
		t.Fatalf("expected legacy ref_code field, got %v", asMap)
	}
}

func TestFileStoreDegradesToEmptyLedgerOnCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}

	fileStore := NewFileStore(path)

	ledger, err := fileStore.Load(context.Background())
	if err == nil {
		t.Fatalf("expected parse error for corrupt document")
	}
	if ledger == nil || len(ledger) != 0 {
		t.Fatalf("expected usable empty ledger alongside the error, got %v", ledger)
	}
}

func TestFileStorePingAcceptsMissingFile(t *testing.T) {
	fileStore := NewFileStore(filepath.Join(t.TempDir(), "users.json"))

	if err := fileStore.Ping(context.Background()); err != nil {
		t.Fatalf("expected ping to tolerate a missing file, got %v", err)
	}
}
