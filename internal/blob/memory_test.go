package blob

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStorePutGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Put(ctx, "device_id=D1/sensor=temp/a.json", []byte(`{"v":1}`)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	data, err := store.Get(ctx, "device_id=D1/sensor=temp/a.json")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(data) != `{"v":1}` {
		t.Errorf("unexpected body: %s", data)
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestMemoryStoreListPrefix(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	keys := []string{
		"device_id=D1/sensor=temp/1.json",
		"device_id=D1/sensor=hum/2.json",
		"device_id=D2/sensor=temp/3.json",
	}
	for _, k := range keys {
		if err := store.Put(ctx, k, []byte("{}")); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	var listed []string
	err := store.List(ctx, "device_id=D1/", func(key string) error {
		listed = append(listed, key)
		return nil
	})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if len(listed) != 2 {
		t.Fatalf("expected 2 keys under prefix, got %d: %v", len(listed), listed)
	}
	// Sorted order
	if listed[0] != "device_id=D1/sensor=hum/2.json" {
		t.Errorf("expected sorted listing, got %v", listed)
	}
}

func TestMemoryStoreListStop(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for _, k := range []string{"a.json", "b.json", "c.json"} {
		if err := store.Put(ctx, k, []byte("{}")); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	count := 0
	err := store.List(ctx, "", func(key string) error {
		count++
		if count == 2 {
			return ErrStopIteration
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected clean stop, got %v", err)
	}
	if count != 2 {
		t.Errorf("expected walk to stop at 2, got %d", count)
	}
}

func TestMemoryStoreListCancelledContext(t *testing.T) {
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())

	if err := store.Put(ctx, "a.json", []byte("{}")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	cancel()

	err := store.List(ctx, "", func(key string) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
