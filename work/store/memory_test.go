package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dshills/treework-go/work/emit"
	"github.com/dshills/treework-go/work/store"
)

func TestMemJournalClear(t *testing.T) {
	ctx := context.Background()
	journal := store.NewMemJournal()
	defer journal.Close()

	_ = journal.Append(ctx, store.Transition{Run: "keep", Seq: 1, Node: "a", Msg: emit.MsgStarted})
	_ = journal.Append(ctx, store.Transition{Run: "drop", Seq: 1, Node: "a", Msg: emit.MsgStarted})

	journal.Clear("drop")

	if _, err := journal.History(ctx, "drop"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("History(drop) after Clear error = %v, want ErrNotFound", err)
	}
	if _, err := journal.History(ctx, "keep"); err != nil {
		t.Errorf("History(keep) error = %v, want nil", err)
	}
}

func TestMemJournalConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	journal := store.NewMemJournal()
	defer journal.Close()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tr := store.Transition{Run: "r", Seq: int64(i), Node: "n", Msg: emit.MsgCompleted}
			if err := journal.Append(ctx, tr); err != nil {
				t.Errorf("Append error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	history, err := journal.History(ctx, "r")
	if err != nil {
		t.Fatalf("History(r) error = %v", err)
	}
	if len(history) != 100 {
		t.Errorf("recorded %d transitions, want 100", len(history))
	}
}

func TestMemJournalHistoryIsACopy(t *testing.T) {
	ctx := context.Background()
	journal := store.NewMemJournal()
	defer journal.Close()

	_ = journal.Append(ctx, store.Transition{Run: "r", Seq: 1, Node: "a", Msg: emit.MsgStarted})

	history, _ := journal.History(ctx, "r")
	history[0].Node = "mutated"

	again, _ := journal.History(ctx, "r")
	if again[0].Node != "a" {
		t.Errorf("journal was mutated through returned slice: node = %q", again[0].Node)
	}
}
