package storage

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *Storage {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.seedvault"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}
	return db
}

func TestOpenAndInitialize(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.seedvault")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	initialized, err := db.IsInitialized()
	if err != nil {
		t.Fatalf("Failed to check initialization: %v", err)
	}
	if initialized {
		t.Error("Fresh database should not be initialized")
	}

	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}

	initialized, err = db.IsInitialized()
	if err != nil {
		t.Fatalf("Failed to check initialization: %v", err)
	}
	if !initialized {
		t.Error("Database should be initialized")
	}
}

func TestEntryOperations(t *testing.T) {
	db := openTestDB(t)

	key := NewEntry("cold", KindKey, "6PRVWUbkzzsbcVac2qwfssoUJAN1Xhrg6bNk8J7Nzm5H7kxEbn2Nh2ZoGg")
	key.Address = "1Jq6MksXQVWzrznvZzxkV6oY57oWXD9TXB"
	seed := NewEntry("alpha", KindSeed, "abandon ability able")

	for _, e := range []*Entry{key, seed} {
		if err := db.PutEntry(e); err != nil {
			t.Fatalf("Failed to put entry %s: %v", e.Name, err)
		}
	}

	got, err := db.GetEntry("cold")
	if err != nil {
		t.Fatalf("Failed to get entry: %v", err)
	}
	if got.Kind != KindKey || got.Payload != key.Payload || got.Address != key.Address {
		t.Errorf("Entry mismatch: got %+v", got)
	}
	if !got.Created.Equal(key.Created) {
		t.Errorf("Created mismatch: got %v, want %v", got.Created, key.Created)
	}

	list, err := db.ListEntries()
	if err != nil {
		t.Fatalf("Failed to list entries: %v", err)
	}
	if len(list) != 2 || list[0].Name != "alpha" || list[1].Name != "cold" {
		t.Errorf("Expected sorted [alpha cold], got %+v", list)
	}

	ok, err := db.HasEntry("alpha")
	if err != nil || !ok {
		t.Errorf("HasEntry(alpha) = %v, %v", ok, err)
	}

	if err := db.DeleteEntry("alpha"); err != nil {
		t.Fatalf("Failed to delete entry: %v", err)
	}
	if _, err := db.GetEntry("alpha"); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("Expected ErrEntryNotFound, got %v", err)
	}
	if err := db.DeleteEntry("alpha"); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("Expected ErrEntryNotFound on second delete, got %v", err)
	}

	ok, err = db.HasEntry("alpha")
	if err != nil || ok {
		t.Errorf("HasEntry(alpha) after delete = %v, %v", ok, err)
	}
}

func TestPutEntryRejectsBadNames(t *testing.T) {
	db := openTestDB(t)

	for _, name := range []string{"", " padded", "tab\there", string(make([]byte, maxNameLen+1))} {
		if err := db.PutEntry(NewEntry(name, KindKey, "x")); err == nil {
			t.Errorf("Expected error for name %q", name)
		}
	}
}

func TestModifiedTimestamp(t *testing.T) {
	db := openTestDB(t)

	before, err := db.GetModified()
	if err != nil {
		t.Fatalf("Failed to get modified: %v", err)
	}

	time.Sleep(10 * time.Millisecond)
	if err := db.PutEntry(NewEntry("k", KindKey, "payload")); err != nil {
		t.Fatalf("Failed to put entry: %v", err)
	}

	after, err := db.GetModified()
	if err != nil {
		t.Fatalf("Failed to get modified: %v", err)
	}
	if !after.After(before) {
		t.Errorf("Modified should advance: before %v, after %v", before, after)
	}

	created, err := db.GetCreated()
	if err != nil {
		t.Fatalf("Failed to get created: %v", err)
	}
	if !created.Equal(before) {
		t.Errorf("Created should equal initial modified: %v vs %v", created, before)
	}

	if err := db.UpdateModified(); err != nil {
		t.Fatalf("Failed to update modified: %v", err)
	}
}

func TestVaultID(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.GetVaultID(); err == nil {
		t.Error("Expected error before vault id is created")
	}

	id, err := db.GetOrCreateVaultID()
	if err != nil {
		t.Fatalf("Failed to create vault id: %v", err)
	}
	if len(id) != 36 {
		t.Errorf("Expected UUID string, got %q", id)
	}

	again, err := db.GetOrCreateVaultID()
	if err != nil {
		t.Fatalf("Failed to get vault id: %v", err)
	}
	if again != id {
		t.Errorf("Vault id changed: %s != %s", again, id)
	}
}

func TestCompact(t *testing.T) {
	db := openTestDB(t)

	for _, name := range []string{"a", "b", "c"} {
		if err := db.PutEntry(NewEntry(name, KindSeed, "payload-"+name)); err != nil {
			t.Fatalf("Failed to put entry: %v", err)
		}
	}
	if err := db.DeleteEntry("b"); err != nil {
		t.Fatalf("Failed to delete entry: %v", err)
	}

	if err := db.Compact(); err != nil {
		t.Fatalf("Failed to compact: %v", err)
	}

	list, err := db.ListEntries()
	if err != nil {
		t.Fatalf("Failed to list after compact: %v", err)
	}
	if len(list) != 2 || list[0].Payload != "payload-a" || list[1].Payload != "payload-c" {
		t.Errorf("Unexpected entries after compact: %+v", list)
	}

	initialized, err := db.IsInitialized()
	if err != nil || !initialized {
		t.Errorf("Database should stay initialized after compact: %v, %v", initialized, err)
	}
}

func TestPersistence(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.seedvault")

	// Create and populate database
	{
		db, err := Open(dbPath)
		if err != nil {
			t.Fatalf("Failed to open database: %v", err)
		}
		if err := db.Initialize(); err != nil {
			t.Fatalf("Failed to initialize: %v", err)
		}
		if err := db.PutEntry(NewEntry("kept", KindKey, "6Pxyz")); err != nil {
			t.Fatalf("Failed to put entry: %v", err)
		}
		db.Close()
	}

	// Reopen and verify
	{
		db, err := Open(dbPath)
		if err != nil {
			t.Fatalf("Failed to reopen database: %v", err)
		}
		defer db.Close()

		entry, err := db.GetEntry("kept")
		if err != nil {
			t.Fatalf("Failed to get entry after reopen: %v", err)
		}
		if entry.Payload != "6Pxyz" {
			t.Errorf("Payload mismatch after reopen: %s", entry.Payload)
		}
	}
}
