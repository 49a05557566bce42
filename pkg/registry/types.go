package registry

import (
	"strings"
	"time"
)

// Storage keys. These are also the top-level keys of an exported settings file.
const (
	KeyEnabled      = "enabled"
	KeyWatchedShows = "watchedShows"
	KeyBlockingMode = "blockingMode"
	KeySensitivity  = "sensitivity"
)

// BlockingMode selects what happens when page content matches a watched show.
type BlockingMode string

const (
	ModeWarning  BlockingMode = "warning"
	ModeRedirect BlockingMode = "redirect"
)

func (m BlockingMode) Valid() bool {
	return m == ModeWarning || m == ModeRedirect
}

// Sensitivity bounds.
const (
	MinSensitivity = 1
	MaxSensitivity = 3
)

// Defaults applied for absent keys and written by Reset.
const (
	DefaultEnabled      = true
	DefaultBlockingMode = ModeWarning
	DefaultSensitivity  = 2
)

// Show is a watched show. Name keeps the user's spelling; Keywords are
// lowercase.
type Show struct {
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
	AddedAt  int64    `json:"addedAt"` // unix milliseconds
}

// Added returns AddedAt as a time.
func (s Show) Added() time.Time {
	return time.UnixMilli(s.AddedAt)
}

// SameName reports whether name refers to this show (case-insensitive).
func (s Show) SameName(name string) bool {
	return strings.EqualFold(strings.TrimSpace(s.Name), strings.TrimSpace(name))
}

// State is the full registry as read from storage, with defaults applied.
type State struct {
	Enabled      bool         `json:"enabled"`
	Shows        []Show       `json:"watchedShows"`
	BlockingMode BlockingMode `json:"blockingMode"`
	Sensitivity  int          `json:"sensitivity"`
}

// DefaultState is the state of an empty store.
func DefaultState() State {
	return State{
		Enabled:      DefaultEnabled,
		Shows:        []Show{},
		BlockingMode: DefaultBlockingMode,
		Sensitivity:  DefaultSensitivity,
	}
}
