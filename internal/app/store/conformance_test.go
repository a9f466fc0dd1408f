package store

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/dalemusser/formdrop/internal/domain/models"
)

func sub(name string) models.Submission {
	return models.Submission{
		Name:      name,
		Email:     name + "@example.com",
		Message:   "hello from " + name,
		Timestamp: "2024-05-01T09:30:00.000Z",
	}
}

// exerciseStore runs the behavior every backend shares against an empty
// store.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List on empty store: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Fatalf("empty List = %#v, want empty non-nil", list)
	}

	for i := 1; i <= 3; i++ {
		got, err := s.Append(ctx, sub(fmt.Sprintf("user%d", i)))
		if err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
		if got.ID != i {
			t.Errorf("Append %d: ID = %d", i, got.ID)
		}
	}

	list, err = s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("List len = %d, want 3", len(list))
	}
	for i, got := range list {
		want := sub(fmt.Sprintf("user%d", i+1))
		want.ID = i + 1
		if got != want {
			t.Errorf("List[%d] = %+v\nwant %+v", i, got, want)
		}
	}

	n, err := s.Count(ctx)
	if err != nil || n != 3 {
		t.Errorf("Count = %d, %v", n, err)
	}
}

// exerciseConcurrentAppends checks ids stay unique and dense under
// concurrent appends.
func exerciseConcurrentAppends(t *testing.T, s Store, workers int) {
	t.Helper()
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make(chan int, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := s.Append(ctx, sub(fmt.Sprintf("c%d", i)))
			if err != nil {
				t.Errorf("Append: %v", err)
				return
			}
			ids <- got.ID
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := make(map[int]bool)
	for id := range ids {
		if seen[id] {
			t.Errorf("duplicate id %d", id)
		}
		seen[id] = true
	}
	for i := 1; i <= workers; i++ {
		if !seen[i] {
			t.Errorf("id %d never assigned", i)
		}
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for i, got := range list {
		if got.ID != i+1 {
			t.Errorf("List[%d].ID = %d, want %d", i, got.ID, i+1)
		}
	}
}
