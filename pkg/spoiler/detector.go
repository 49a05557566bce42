package spoiler

import (
	"context"

	"github.com/sw33tLie/spoilerguard/pkg/registry"
)

// Logger abstracts logging so callers can use logrus, stdlib log, or any
// other logger that satisfies this interface.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// nopLogger silently discards all messages.
type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

// StateLoader reads the current registry state.
type StateLoader interface {
	Load(ctx context.Context) (registry.State, error)
}

// Detector runs the classifiers against the registry as it is at call time.
// Any failure to read the registry yields NoMatch: a broken store must never
// break browsing.
type Detector struct {
	registry StateLoader
	log      Logger
}

// NewDetector builds a Detector. log may be nil.
func NewDetector(reg StateLoader, log Logger) *Detector {
	if log == nil {
		log = nopLogger{}
	}
	return &Detector{registry: reg, log: log}
}

// CheckURL classifies a top-level navigation target.
func (d *Detector) CheckURL(ctx context.Context, url string) Result {
	st, ok := d.load(ctx)
	if !ok {
		return NoMatch
	}
	res := ClassifyNavigation(url, st)
	if res.Matched {
		d.log.Debugf("Navigation to %s matches %q", url, res.ShowName)
	}
	return res
}

// CheckPage classifies a fully parsed page.
func (d *Detector) CheckPage(ctx context.Context, page Page) Result {
	st, ok := d.load(ctx)
	if !ok {
		return NoMatch
	}
	res := ClassifyContent(page, st)
	if res.Matched {
		d.log.Debugf("Content of %s matches %q", page.URL, res.ShowName)
	}
	return res
}

// State returns the current registry state, or false when it cannot be read.
func (d *Detector) State(ctx context.Context) (registry.State, bool) {
	return d.load(ctx)
}

func (d *Detector) load(ctx context.Context) (registry.State, bool) {
	st, err := d.registry.Load(ctx)
	if err != nil {
		d.log.Warnf("Could not read watched shows, letting page through: %v", err)
		return registry.State{}, false
	}
	return st, true
}
