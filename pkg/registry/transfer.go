package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Export serializes every stored key as an indented JSON object.
func (r *Registry) Export(ctx context.Context) ([]byte, error) {
	values, err := r.store.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not read settings: %w", err)
	}
	return json.MarshalIndent(values, "", "  ")
}

// Import merges an exported settings file into the store. Every key in the
// file overwrites the stored key of the same name; keys not in the file are
// kept. A file that is not a JSON object, or whose known keys hold invalid
// values, is rejected with ErrInvalidImport and nothing is written. Known
// keys are stored in the form Load decodes: sensitivity as an integer and
// show keywords normalized.
func (r *Registry) Import(ctx context.Context, data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("%w: not valid JSON", ErrInvalidImport)
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return fmt.Errorf("%w: expected a JSON object", ErrInvalidImport)
	}

	values := make(map[string]json.RawMessage)
	var verr error
	doc.ForEach(func(key, value gjson.Result) bool {
		k := key.String()
		raw, err := importValue(k, value)
		if err != nil {
			verr = err
			return false
		}
		values[k] = raw
		return true
	})
	if verr != nil {
		return fmt.Errorf("%w: %v", ErrInvalidImport, verr)
	}

	return r.withLock(func() error {
		return r.store.Set(ctx, values)
	})
}

// Reset wipes the store and writes the four defaults.
func (r *Registry) Reset(ctx context.Context) error {
	def := DefaultState()
	return r.withLock(func() error {
		if err := r.store.Clear(ctx); err != nil {
			return err
		}
		return r.store.Set(ctx, map[string]json.RawMessage{
			KeyEnabled:      mustMarshal(def.Enabled),
			KeyWatchedShows: mustMarshal(def.Shows),
			KeyBlockingMode: mustMarshal(def.BlockingMode),
			KeySensitivity:  mustMarshal(def.Sensitivity),
		})
	})
}

func importValue(key string, v gjson.Result) (json.RawMessage, error) {
	if key == "" {
		return nil, fmt.Errorf("empty key")
	}
	switch key {
	case KeyEnabled:
		if v.Type != gjson.True && v.Type != gjson.False {
			return nil, fmt.Errorf("%s must be a boolean", key)
		}
	case KeyBlockingMode:
		if v.Type != gjson.String || !BlockingMode(v.Str).Valid() {
			return nil, ErrInvalidBlockingMode
		}
	case KeySensitivity:
		if v.Type != gjson.Number || v.Num != float64(int(v.Num)) || int(v.Num) < MinSensitivity || int(v.Num) > MaxSensitivity {
			return nil, ErrInvalidSensitivity
		}
		// 2.0 and 2e0 are stored as 2.
		return mustMarshal(int(v.Num)), nil
	case KeyWatchedShows:
		return importShows(v)
	}
	return json.RawMessage(v.Raw), nil
}

// importShows checks the watchedShows array and returns it re-encoded from
// []Show, so that anything accepted here decodes in Load.
func importShows(v gjson.Result) (json.RawMessage, error) {
	if !v.IsArray() {
		return nil, fmt.Errorf("%s must be an array", KeyWatchedShows)
	}
	shows := make([]Show, 0, len(v.Array()))
	seen := map[string]bool{}
	var err error
	v.ForEach(func(_, show gjson.Result) bool {
		if !show.IsObject() {
			err = fmt.Errorf("%s entries must be objects", KeyWatchedShows)
			return false
		}
		name := show.Get("name")
		if name.Type != gjson.String || strings.TrimSpace(name.Str) == "" {
			err = fmt.Errorf("%w in %s", ErrEmptyName, KeyWatchedShows)
			return false
		}
		folded := strings.ToLower(strings.TrimSpace(name.Str))
		if seen[folded] {
			err = fmt.Errorf("%w: %s", ErrDuplicateShow, name.Str)
			return false
		}
		seen[folded] = true

		var keywords []string
		if kw := show.Get("keywords"); kw.Exists() && kw.Type != gjson.Null {
			if !kw.IsArray() {
				err = fmt.Errorf("keywords of %s must be an array", name.Str)
				return false
			}
			for _, k := range kw.Array() {
				if k.Type != gjson.String {
					err = fmt.Errorf("keywords of %s must be strings", name.Str)
					return false
				}
				keywords = append(keywords, k.Str)
			}
		}

		var addedAt int64
		if at := show.Get("addedAt"); at.Exists() && at.Type != gjson.Null {
			if at.Type != gjson.Number || at.Num != float64(int64(at.Num)) {
				err = fmt.Errorf("addedAt of %s must be an integer", name.Str)
				return false
			}
			addedAt = int64(at.Num)
		}

		shows = append(shows, Show{
			Name:     strings.TrimSpace(name.Str),
			Keywords: NormalizeKeywords(keywords),
			AddedAt:  addedAt,
		})
		return true
	})
	if err != nil {
		return nil, err
	}
	return json.Marshal(shows)
}
