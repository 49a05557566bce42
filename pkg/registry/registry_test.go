package registry

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestLoadDefaultsOnEmptyStore(t *testing.T) {
	r, _ := newTestRegistry(t)

	st, err := r.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(st, DefaultState()) {
		t.Fatalf("expected defaults, got %+v", st)
	}
}

func TestLoadFallsBackForOutOfRangeValues(t *testing.T) {
	r, store := newTestRegistry(t)
	store.values[KeyBlockingMode] = json.RawMessage(`"explode"`)
	store.values[KeySensitivity] = json.RawMessage(`9`)
	store.values[KeyEnabled] = json.RawMessage(`false`)

	st, err := r.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if st.BlockingMode != ModeWarning || st.Sensitivity != 2 || st.Enabled {
		t.Fatalf("unexpected state %+v", st)
	}
}

func TestLoadFailsOnCorruptShows(t *testing.T) {
	r, store := newTestRegistry(t)
	store.values[KeyWatchedShows] = json.RawMessage(`{"name":"Dune"}`)

	if _, err := r.Load(context.Background()); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestLoadToleratesMissingKeywords(t *testing.T) {
	r, store := newTestRegistry(t)
	store.values[KeyWatchedShows] = json.RawMessage(`[{"name":"Dune"}]`)

	st, err := r.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(st.Shows) != 1 || st.Shows[0].Name != "Dune" || len(st.Shows[0].Keywords) != 0 {
		t.Fatalf("unexpected shows %+v", st.Shows)
	}
}

func TestInitOnlyWritesMissingKeys(t *testing.T) {
	r, store := newTestRegistry(t)
	store.values[KeyEnabled] = json.RawMessage(`false`)

	if err := r.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	if string(store.values[KeyEnabled]) != "false" {
		t.Fatalf("init overwrote enabled: %s", store.values[KeyEnabled])
	}
	if string(store.values[KeyWatchedShows]) != "[]" {
		t.Fatalf("expected empty show list, got %s", store.values[KeyWatchedShows])
	}
	if _, ok := store.values[KeySensitivity]; ok {
		t.Fatalf("init must not write sensitivity")
	}
}

func TestAddShow(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	show, err := r.AddShow(ctx, "  Breaking Bad ")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if show.Name != "Breaking Bad" {
		t.Fatalf("expected trimmed name, got %q", show.Name)
	}
	if show.AddedAt != 1700000000000 {
		t.Fatalf("unexpected addedAt %d", show.AddedAt)
	}
	want := []string{"breaking", "bad", "breakingbad", "breaking-bad"}
	if !reflect.DeepEqual(show.Keywords, want) {
		t.Fatalf("unexpected keywords %#v", show.Keywords)
	}

	st, _ := r.Load(ctx)
	if len(st.Shows) != 1 || !reflect.DeepEqual(st.Shows[0], show) {
		t.Fatalf("show not persisted: %+v", st.Shows)
	}
}

func TestAddShowRejectsCaseInsensitiveDuplicate(t *testing.T) {
	r, store := newTestRegistry(t)
	ctx := context.Background()

	if _, err := r.AddShow(ctx, "The Wire"); err != nil {
		t.Fatalf("add: %v", err)
	}
	before := string(store.values[KeyWatchedShows])

	_, err := r.AddShow(ctx, "the wire")
	if !errors.Is(err, ErrDuplicateShow) {
		t.Fatalf("expected ErrDuplicateShow, got %v", err)
	}
	if string(store.values[KeyWatchedShows]) != before {
		t.Fatalf("duplicate add changed state")
	}
}

func TestAddShowRejectsEmptyName(t *testing.T) {
	r, _ := newTestRegistry(t)
	if _, err := r.AddShow(context.Background(), "   "); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}

func TestAddShowKeepsInsertionOrder(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	for _, n := range []string{"Dune", "Severance", "Andor"} {
		if _, err := r.AddShow(ctx, n); err != nil {
			t.Fatalf("add %s: %v", n, err)
		}
	}
	st, _ := r.Load(ctx)
	var names []string
	for _, s := range st.Shows {
		names = append(names, s.Name)
	}
	if !reflect.DeepEqual(names, []string{"Dune", "Severance", "Andor"}) {
		t.Fatalf("unexpected order %v", names)
	}
}

func TestRemoveShowByIndex(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()
	for _, n := range []string{"Dune", "Severance", "Andor"} {
		_, _ = r.AddShow(ctx, n)
	}

	removed, err := r.RemoveShow(ctx, 1)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if removed.Name != "Severance" {
		t.Fatalf("removed wrong show %q", removed.Name)
	}
	st, _ := r.Load(ctx)
	if len(st.Shows) != 2 || st.Shows[0].Name != "Dune" || st.Shows[1].Name != "Andor" {
		t.Fatalf("unexpected shows after remove: %+v", st.Shows)
	}

	if _, err := r.RemoveShow(ctx, 5); !errors.Is(err, ErrShowNotFound) {
		t.Fatalf("expected ErrShowNotFound, got %v", err)
	}
	if _, err := r.RemoveShow(ctx, -1); !errors.Is(err, ErrShowNotFound) {
		t.Fatalf("expected ErrShowNotFound, got %v", err)
	}
}

func TestSetKeywords(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()
	_, _ = r.AddShow(ctx, "Dune")

	show, err := r.SetKeywords(ctx, "DUNE", []string{" Arrakis", "", "spice", "arrakis"})
	if err != nil {
		t.Fatalf("set keywords: %v", err)
	}
	if !reflect.DeepEqual(show.Keywords, []string{"arrakis", "spice"}) {
		t.Fatalf("unexpected keywords %#v", show.Keywords)
	}
	st, _ := r.Load(ctx)
	if !reflect.DeepEqual(st.Shows[0].Keywords, []string{"arrakis", "spice"}) {
		t.Fatalf("keywords not persisted: %#v", st.Shows[0].Keywords)
	}

	if _, err := r.SetKeywords(ctx, "Andor", nil); !errors.Is(err, ErrShowNotFound) {
		t.Fatalf("expected ErrShowNotFound, got %v", err)
	}
}

func TestSetKeywordsAt(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()
	_, _ = r.AddShow(ctx, "Dune")

	show, err := r.SetKeywordsAt(ctx, 0, ParseKeywordList("arrakis, fremen"))
	if err != nil {
		t.Fatalf("set keywords: %v", err)
	}
	if !reflect.DeepEqual(show.Keywords, []string{"arrakis", "fremen"}) {
		t.Fatalf("unexpected keywords %#v", show.Keywords)
	}
	if _, err := r.SetKeywordsAt(ctx, 3, nil); !errors.Is(err, ErrShowNotFound) {
		t.Fatalf("expected ErrShowNotFound, got %v", err)
	}
}

func TestSettersValidate(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	if err := r.SetBlockingMode(ctx, "popup"); !errors.Is(err, ErrInvalidBlockingMode) {
		t.Fatalf("expected ErrInvalidBlockingMode, got %v", err)
	}
	if err := r.SetSensitivity(ctx, 0); !errors.Is(err, ErrInvalidSensitivity) {
		t.Fatalf("expected ErrInvalidSensitivity, got %v", err)
	}
	if err := r.SetSensitivity(ctx, 4); !errors.Is(err, ErrInvalidSensitivity) {
		t.Fatalf("expected ErrInvalidSensitivity, got %v", err)
	}

	if err := r.SetEnabled(ctx, false); err != nil {
		t.Fatalf("set enabled: %v", err)
	}
	if err := r.SetBlockingMode(ctx, ModeRedirect); err != nil {
		t.Fatalf("set mode: %v", err)
	}
	if err := r.SetSensitivity(ctx, 3); err != nil {
		t.Fatalf("set sensitivity: %v", err)
	}
	st, _ := r.Load(ctx)
	if st.Enabled || st.BlockingMode != ModeRedirect || st.Sensitivity != 3 {
		t.Fatalf("unexpected state %+v", st)
	}
}

func TestMutationsTakeTheLock(t *testing.T) {
	store := newMemStore()
	lock := &countingLocker{}
	r := New(store, lock)
	ctx := context.Background()

	_, _ = r.AddShow(ctx, "Dune")
	_, _ = r.RemoveShow(ctx, 0)
	_ = r.Reset(ctx)

	if lock.locks != 3 || lock.unlocks != 3 {
		t.Fatalf("expected 3 lock/unlock pairs, got %d/%d", lock.locks, lock.unlocks)
	}
}

func TestLoadPropagatesStoreErrors(t *testing.T) {
	r, store := newTestRegistry(t)
	store.getErr = errors.New("disk on fire")

	if _, err := r.Load(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}
