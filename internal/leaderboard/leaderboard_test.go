package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/robalobadob/memorama/internal/cards"
	"github.com/robalobadob/memorama/internal/store"
)

type failingKV struct{ store.KV }

func (failingKV) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("disk gone")
}
func (failingKV) Set(context.Context, string, string) error { return errors.New("disk gone") }

func TestAddKeepsTop20Descending(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	b := Open(ctx, kv, "memorama")

	for i := 1; i <= 25; i++ {
		if _, err := b.Add(ctx, fmt.Sprintf("p%d", i), i*10, cards.Easy); err != nil {
			t.Fatal(err)
		}
	}
	got := b.Query("")
	if len(got) != Capacity {
		t.Fatalf("expected %d records, got %d", Capacity, len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].Score < got[i].Score {
			t.Fatalf("not descending at %d: %d < %d", i, got[i-1].Score, got[i].Score)
		}
	}
	if last := got[len(got)-1].Score; last != 60 {
		t.Fatalf("expected lowest kept score 60, got %d", last)
	}

	// The persisted value is the same table.
	raw, ok, _ := kv.Get(ctx, "memorama-high-scores")
	if !ok {
		t.Fatal("leaderboard not persisted")
	}
	var stored []Record
	if err := json.Unmarshal([]byte(raw), &stored); err != nil || len(stored) != Capacity {
		t.Fatalf("unexpected stored table: %d records, err %v", len(stored), err)
	}
	reopened := Open(ctx, kv, "memorama")
	if len(reopened.Query("")) != Capacity {
		t.Fatal("reopen lost records")
	}
}

func TestTiesKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	b := Open(ctx, store.NewMemoryKV(), "memorama")
	first, _ := b.Add(ctx, "first", 500, cards.Easy)
	second, _ := b.Add(ctx, "second", 500, cards.Easy)
	b.Add(ctx, "top", 900, cards.Hard)

	got := b.Top(3)
	if got[0].PlayerName != "top" || got[1].ID != first.ID || got[2].ID != second.ID {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestQueryIsCaseInsensitiveSubstring(t *testing.T) {
	ctx := context.Background()
	b := Open(ctx, store.NewMemoryKV(), "memorama")
	rec, err := b.Add(ctx, "Ana", 950, cards.Easy)
	if err != nil {
		t.Fatal(err)
	}
	b.Add(ctx, "Bob", 700, cards.Easy)

	got := b.Query("an")
	if len(got) != 1 || got[0].ID != rec.ID {
		t.Fatalf("expected only Ana, got %+v", got)
	}
	if len(b.Query("AN")) != 1 {
		t.Fatal("upper-case filter should match")
	}
	if len(b.Query("   ")) != 2 {
		t.Fatal("blank filter should return everything")
	}
}

func TestFilterByDifficulty(t *testing.T) {
	ctx := context.Background()
	b := Open(ctx, store.NewMemoryKV(), "memorama")
	b.Add(ctx, "Ana", 950, cards.Easy)
	b.Add(ctx, "Anabel", 1500, cards.Hard)

	if got := b.Filter("ana", cards.Hard); len(got) != 1 || got[0].PlayerName != "Anabel" {
		t.Fatalf("unexpected hard results: %+v", got)
	}
	if got := b.Filter("", cards.Medium); len(got) != 0 {
		t.Fatalf("expected no medium results, got %+v", got)
	}
}

func TestAddRejectsBlankName(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	b := Open(ctx, kv, "memorama")

	for _, name := range []string{"", "   ", "\t\n"} {
		if _, err := b.Add(ctx, name, 100, cards.Easy); !errors.Is(err, ErrInvalidName) {
			t.Fatalf("name %q: expected ErrInvalidName, got %v", name, err)
		}
	}
	if _, ok, _ := kv.Get(ctx, Key("memorama")); ok {
		t.Fatal("rejected add wrote to the store")
	}
}

func TestAddTrimsNameAndAssignsID(t *testing.T) {
	ctx := context.Background()
	b := Open(ctx, store.NewMemoryKV(), "memorama")
	r1, _ := b.Add(ctx, "  Ana  ", 10, cards.Easy)
	r2, _ := b.Add(ctx, "Ana", 10, cards.Easy)
	if r1.PlayerName != "Ana" {
		t.Fatalf("name not trimmed: %q", r1.PlayerName)
	}
	if r1.ID == "" || r1.ID == r2.ID {
		t.Fatalf("ids not unique: %q %q", r1.ID, r2.ID)
	}
	if r1.Timestamp.IsZero() {
		t.Fatal("timestamp not set")
	}
}

func TestRemoveAndClear(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	b := Open(ctx, kv, "memorama")
	a, _ := b.Add(ctx, "Ana", 10, cards.Easy)
	b.Add(ctx, "Bob", 20, cards.Easy)

	if !b.Remove(ctx, a.ID) {
		t.Fatal("remove reported missing record")
	}
	if b.Remove(ctx, a.ID) {
		t.Fatal("second remove should be a no-op")
	}
	if len(Open(ctx, kv, "memorama").Query("")) != 1 {
		t.Fatal("remove not persisted")
	}

	// A miss still writes the board back.
	kv.Set(ctx, Key("memorama"), "[]")
	if b.Remove(ctx, "missing") {
		t.Fatal("remove of unknown id reported a record")
	}
	if got := Open(ctx, kv, "memorama").Query(""); len(got) != 1 || got[0].PlayerName != "Bob" {
		t.Fatalf("missed remove did not persist the board: %+v", got)
	}

	b.Clear(ctx)
	if len(b.Query("")) != 0 || len(Open(ctx, kv, "memorama").Query("")) != 0 {
		t.Fatal("clear not applied")
	}
}

func TestMalformedDataStartsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	kv.Set(ctx, Key("memorama"), "{not json")

	b := Open(ctx, kv, "memorama")
	if len(b.Query("")) != 0 {
		t.Fatal("expected empty board")
	}
	if _, err := b.Add(ctx, "Ana", 10, cards.Easy); err != nil {
		t.Fatal(err)
	}
	if len(Open(ctx, kv, "memorama").Query("")) != 1 {
		t.Fatal("board did not recover after malformed data")
	}
}

func TestPersistenceFailureDoesNotBlockPlay(t *testing.T) {
	ctx := context.Background()
	b := Open(ctx, failingKV{}, "memorama")
	if _, err := b.Add(ctx, "Ana", 10, cards.Easy); err != nil {
		t.Fatalf("write failure leaked to caller: %v", err)
	}
	if len(b.Query("")) != 1 {
		t.Fatal("in-memory change lost")
	}
}
