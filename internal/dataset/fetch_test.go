package dataset

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/smartfinance/smartfinance/internal/storage"
)

func TestEnsureLocalDownloadsMissingFile(t *testing.T) {
	store := &memoryStore{objects: map[string][]byte{"datasets/CFO_SAP_PYL/CFO_SAP_PYL.db": []byte("db-bytes")}}
	path := filepath.Join(t.TempDir(), "data", "CFO_SAP_PYL.db")

	fetched, err := EnsureLocal(context.Background(), store, "datasets/CFO_SAP_PYL/CFO_SAP_PYL.db", path)
	if err != nil {
		t.Fatalf("EnsureLocal() error = %v", err)
	}
	if !fetched {
		t.Fatal("EnsureLocal() fetched = false, want true")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read dataset: %v", err)
	}
	if string(raw) != "db-bytes" {
		t.Fatalf("dataset contents = %q", raw)
	}
}

func TestEnsureLocalKeepsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "CFO_SAP_PYL.db")
	if err := os.WriteFile(path, []byte("local"), 0o600); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	store := &memoryStore{objects: map[string][]byte{"k": []byte("remote")}}

	fetched, err := EnsureLocal(context.Background(), store, "k", path)
	if err != nil {
		t.Fatalf("EnsureLocal() error = %v", err)
	}
	if fetched {
		t.Fatal("EnsureLocal() fetched = true, want false")
	}
	if store.gets != 0 {
		t.Fatalf("store gets = %d, want 0", store.gets)
	}
}

func TestEnsureLocalWithoutStoreReportsUnavailable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "CFO_SAP_PYL.db")
	_, err := EnsureLocal(context.Background(), nil, "k", path)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("EnsureLocal() error = %v, want ErrUnavailable", err)
	}
}

func TestEnsureLocalMissingObject(t *testing.T) {
	path := filepath.Join(t.TempDir(), "CFO_SAP_PYL.db")
	_, err := EnsureLocal(context.Background(), &memoryStore{}, "missing", path)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("EnsureLocal() error = %v, want ErrUnavailable", err)
	}
	if _, statErr := os.Stat(path); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("dataset should not exist, stat error = %v", statErr)
	}
}

type memoryStore struct {
	objects map[string][]byte
	gets    int
}

func (m *memoryStore) Put(context.Context, string, io.Reader, int64, storage.PutOptions) (storage.ObjectInfo, error) {
	return storage.ObjectInfo{}, nil
}

func (m *memoryStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	m.gets++
	raw, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (m *memoryStore) Stat(_ context.Context, key string) (storage.ObjectInfo, error) {
	raw, ok := m.objects[key]
	if !ok {
		return storage.ObjectInfo{}, storage.ErrObjectNotFound
	}
	return storage.ObjectInfo{Key: key, Size: int64(len(raw))}, nil
}
