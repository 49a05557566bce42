package registry

import (
	"context"
	"fmt"
	"strings"
)

// AddShow appends a show with generated keywords. A name already in the list
// (ignoring case) is rejected with ErrDuplicateShow and nothing is written.
func (r *Registry) AddShow(ctx context.Context, name string) (Show, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Show{}, ErrEmptyName
	}

	var added Show
	err := r.withLock(func() error {
		st, err := r.Load(ctx)
		if err != nil {
			return err
		}
		for _, s := range st.Shows {
			if s.SameName(name) {
				return fmt.Errorf("%w: %s", ErrDuplicateShow, s.Name)
			}
		}

		added = Show{
			Name:     name,
			Keywords: GenerateKeywords(name),
			AddedAt:  r.now().UnixMilli(),
		}
		return r.set(ctx, KeyWatchedShows, append(st.Shows, added))
	})
	if err != nil {
		return Show{}, err
	}
	return added, nil
}

// RemoveShow deletes the show at index (display order).
func (r *Registry) RemoveShow(ctx context.Context, index int) (Show, error) {
	var removed Show
	err := r.withLock(func() error {
		st, err := r.Load(ctx)
		if err != nil {
			return err
		}
		if index < 0 || index >= len(st.Shows) {
			return fmt.Errorf("%w: no show at position %d", ErrShowNotFound, index)
		}

		removed = st.Shows[index]
		shows := append(st.Shows[:index:index], st.Shows[index+1:]...)
		return r.set(ctx, KeyWatchedShows, shows)
	})
	if err != nil {
		return Show{}, err
	}
	return removed, nil
}

// SetKeywords replaces the keyword list of the named show.
func (r *Registry) SetKeywords(ctx context.Context, name string, keywords []string) (Show, error) {
	var updated Show
	err := r.withLock(func() error {
		st, err := r.Load(ctx)
		if err != nil {
			return err
		}
		for i := range st.Shows {
			if st.Shows[i].SameName(name) {
				st.Shows[i].Keywords = NormalizeKeywords(keywords)
				updated = st.Shows[i]
				return r.set(ctx, KeyWatchedShows, st.Shows)
			}
		}
		return fmt.Errorf("%w: %s", ErrShowNotFound, name)
	})
	if err != nil {
		return Show{}, err
	}
	return updated, nil
}

// SetKeywordsAt replaces the keyword list of the show at index.
func (r *Registry) SetKeywordsAt(ctx context.Context, index int, keywords []string) (Show, error) {
	var updated Show
	err := r.withLock(func() error {
		st, err := r.Load(ctx)
		if err != nil {
			return err
		}
		if index < 0 || index >= len(st.Shows) {
			return fmt.Errorf("%w: no show at position %d", ErrShowNotFound, index)
		}
		st.Shows[index].Keywords = NormalizeKeywords(keywords)
		updated = st.Shows[index]
		return r.set(ctx, KeyWatchedShows, st.Shows)
	})
	if err != nil {
		return Show{}, err
	}
	return updated, nil
}

func (r *Registry) SetEnabled(ctx context.Context, enabled bool) error {
	return r.set(ctx, KeyEnabled, enabled)
}

func (r *Registry) SetBlockingMode(ctx context.Context, mode BlockingMode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidBlockingMode, mode)
	}
	return r.set(ctx, KeyBlockingMode, mode)
}

// SetSensitivity stores the sensitivity level. Matching does not read it.
func (r *Registry) SetSensitivity(ctx context.Context, level int) error {
	if level < MinSensitivity || level > MaxSensitivity {
		return fmt.Errorf("%w: got %d", ErrInvalidSensitivity, level)
	}
	return r.set(ctx, KeySensitivity, level)
}
