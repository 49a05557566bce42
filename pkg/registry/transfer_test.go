package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/sw33tLie/spoilerguard/pkg/storage"
)

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src, srcStore := newTestRegistry(t)
	_, _ = src.AddShow(ctx, "Dune")
	_, _ = src.AddShow(ctx, "Breaking Bad")
	_, _ = src.SetKeywords(ctx, "Dune", []string{"arrakis"})
	_ = src.SetBlockingMode(ctx, ModeRedirect)
	_ = src.SetSensitivity(ctx, 3)
	_ = src.SetEnabled(ctx, false)

	exported, err := src.Export(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	dst, dstStore := newTestRegistry(t)
	if err := dst.Import(ctx, exported); err != nil {
		t.Fatalf("import: %v", err)
	}

	if !reflect.DeepEqual(srcStore.keys(), dstStore.keys()) {
		t.Fatalf("key sets differ: %v vs %v", srcStore.keys(), dstStore.keys())
	}
	for _, k := range srcStore.keys() {
		if !bytes.Equal(srcStore.values[k], dstStore.values[k]) {
			t.Fatalf("value for %s differs:\n%s\n%s", k, srcStore.values[k], dstStore.values[k])
		}
	}

	again, _ := dst.Export(ctx)
	if !bytes.Equal(exported, again) {
		t.Fatalf("second export differs")
	}
}

func TestImportMergesAndKeepsUnknownKeys(t *testing.T) {
	ctx := context.Background()
	r, store := newTestRegistry(t)
	_, _ = r.AddShow(ctx, "Dune")
	_ = r.SetSensitivity(ctx, 1)

	err := r.Import(ctx, []byte(`{"sensitivity": 3, "theme": {"dark": true}}`))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	st, _ := r.Load(ctx)
	if st.Sensitivity != 3 {
		t.Fatalf("expected imported sensitivity, got %d", st.Sensitivity)
	}
	if len(st.Shows) != 1 {
		t.Fatalf("import must not drop keys absent from the file")
	}
	if string(store.values["theme"]) != `{"dark":true}` {
		t.Fatalf("unknown key not kept: %s", store.values["theme"])
	}
}

func TestImportRejectsMalformedFiles(t *testing.T) {
	tests := map[string]string{
		"not json":         `{"enabled": tru`,
		"array":            `[1,2,3]`,
		"string":           `"hello"`,
		"bad enabled":      `{"enabled": "yes"}`,
		"bad mode":         `{"blockingMode": "nuke"}`,
		"bad sensitivity":  `{"sensitivity": 7}`,
		"float sens":       `{"sensitivity": 1.5}`,
		"shows not array":  `{"watchedShows": {"name": "Dune"}}`,
		"show no name":     `{"watchedShows": [{"keywords": []}]}`,
		"duplicate show":   `{"watchedShows": [{"name": "Dune"}, {"name": "dune"}]}`,
		"keyword not text": `{"watchedShows": [{"name": "Dune", "keywords": [1]}]}`,
		"addedAt text":     `{"watchedShows": [{"name": "Dune", "keywords": ["arrakis"], "addedAt": "yesterday"}]}`,
		"addedAt fraction": `{"watchedShows": [{"name": "Dune", "addedAt": 1.5}]}`,
		"addedAt object":   `{"watchedShows": [{"name": "Dune", "addedAt": {}}]}`,
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			r, store := newTestRegistry(t)
			_ = r.SetEnabled(ctx, true)
			before := store.keys()

			err := r.Import(ctx, []byte(data))
			if !errors.Is(err, ErrInvalidImport) {
				t.Fatalf("expected ErrInvalidImport, got %v", err)
			}
			if !reflect.DeepEqual(before, store.keys()) || string(store.values[KeyEnabled]) != "true" {
				t.Fatalf("storage modified by a rejected import")
			}
		})
	}
}

func TestImportNormalizesKeywords(t *testing.T) {
	ctx := context.Background()
	r, store := newTestRegistry(t)

	err := r.Import(ctx, []byte(`{"watchedShows": [{"name": " Dune ", "keywords": ["  ARRAKIS  ", "", "arrakis", "Spice"], "addedAt": 1700000000000}]}`))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	want := `[{"name":"Dune","keywords":["arrakis","spice"],"addedAt":1700000000000}]`
	if got := string(store.values[KeyWatchedShows]); got != want {
		t.Fatalf("stored shows = %s, want %s", got, want)
	}

	st, err := r.Load(ctx)
	if err != nil {
		t.Fatalf("load after import: %v", err)
	}
	if len(st.Shows) != 1 || st.Shows[0].AddedAt != 1700000000000 {
		t.Fatalf("unexpected shows %+v", st.Shows)
	}
	if _, err := r.AddShow(ctx, "The Wire"); err != nil {
		t.Fatalf("add after import: %v", err)
	}
}

func TestImportShowWithoutKeywordsOrDate(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRegistry(t)

	if err := r.Import(ctx, []byte(`{"watchedShows": [{"name": "Dune", "keywords": null}]}`)); err != nil {
		t.Fatalf("import: %v", err)
	}
	st, err := r.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(st.Shows) != 1 || len(st.Shows[0].Keywords) != 0 || st.Shows[0].AddedAt != 0 {
		t.Fatalf("unexpected shows %+v", st.Shows)
	}
}

func TestImportStoresSensitivityAsInteger(t *testing.T) {
	for _, raw := range []string{"2.0", "2e0", "2"} {
		t.Run(raw, func(t *testing.T) {
			ctx := context.Background()
			r, store := newTestRegistry(t)
			_ = r.SetSensitivity(ctx, 3)

			if err := r.Import(ctx, []byte(`{"sensitivity": `+raw+`}`)); err != nil {
				t.Fatalf("import: %v", err)
			}
			if got := string(store.values[KeySensitivity]); got != "2" {
				t.Fatalf("stored sensitivity = %s, want 2", got)
			}
			st, _ := r.Load(ctx)
			if st.Sensitivity != 2 {
				t.Fatalf("loaded sensitivity = %d, want 2", st.Sensitivity)
			}
		})
	}
}

func TestResetRestoresExactlyTheDefaults(t *testing.T) {
	ctx := context.Background()
	r, store := newTestRegistry(t)
	_, _ = r.AddShow(ctx, "Dune")
	_ = r.SetEnabled(ctx, false)
	_ = r.Import(ctx, []byte(`{"theme": "dark"}`))

	if err := r.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}

	want := map[string]string{
		KeyEnabled:      "true",
		KeyWatchedShows: "[]",
		KeyBlockingMode: `"warning"`,
		KeySensitivity:  "2",
	}
	if len(store.values) != len(want) {
		t.Fatalf("expected exactly %d keys, got %v", len(want), store.keys())
	}
	for k, v := range want {
		if string(store.values[k]) != v {
			t.Fatalf("%s = %s, want %s", k, store.values[k], v)
		}
	}
}

func TestExportImportRoundTripSQLite(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	srcDB, err := storage.Open(filepath.Join(dir, "src.sqlite"), storage.DefaultDBTimeout)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer srcDB.Close()
	dstDB, err := storage.Open(filepath.Join(dir, "dst.sqlite"), storage.DefaultDBTimeout)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer dstDB.Close()

	src := New(srcDB, nil)
	if err := src.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	_, _ = src.AddShow(ctx, "The Wire")
	_, _ = src.AddShow(ctx, "Dune")

	exported, err := src.Export(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	dst := New(dstDB, nil)
	if err := dst.Import(ctx, exported); err != nil {
		t.Fatalf("import: %v", err)
	}

	srcAll, _ := srcDB.Get(ctx)
	dstAll, _ := dstDB.Get(ctx)
	if len(srcAll) != len(dstAll) {
		t.Fatalf("key count differs: %d vs %d", len(srcAll), len(dstAll))
	}
	for k, v := range srcAll {
		if !bytes.Equal(v, dstAll[k]) {
			t.Fatalf("%s differs after round trip:\n%s\n%s", k, v, dstAll[k])
		}
	}

	var st State
	raw, _ := dst.Export(ctx)
	if err := json.Unmarshal(raw, &st); err != nil {
		t.Fatalf("export is not a state document: %v", err)
	}
	if len(st.Shows) != 2 || st.Shows[0].Name != "The Wire" {
		t.Fatalf("unexpected shows %+v", st.Shows)
	}
}
