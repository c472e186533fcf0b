package filter

import (
	"github.com/osa030/mixbox/internal/domain/track"
)

// ExplicitFilter drops explicit tracks when enabled.
type ExplicitFilter struct {
	exclude bool
}

func (f *ExplicitFilter) Name() string {
	return "explicit_filter"
}

func (f *ExplicitFilter) Description() string {
	return "Drops explicit tracks when exclude_explicit is set"
}

func (f *ExplicitFilter) Match(t track.Track) bool {
	return !f.exclude || !t.Explicit
}

func init() {
	Register("explicit_filter", func(o Options) Filter {
		return &ExplicitFilter{exclude: o.ExcludeExplicit}
	})
}
