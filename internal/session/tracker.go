package session

import (
	"fmt"

	"github.com/five82/lookout/internal/registry"
	"github.com/five82/lookout/internal/services"
)

// watched lists the mutable services whose changes dirty the session.
var watched = []registry.Capability{
	services.SearchExtractorCap,
	services.SearchFilterCap,
	services.HighlightingPipelineCap,
	services.ExtractingPipelineCap,
	services.FilteringPipelineCap,
	services.ClassifyingPipelineCap,
}

// tracker forwards change notifications of the watched services.
type tracker struct {
	unsubscribe []func()
}

// watch subscribes fn to every watched service bound in r.
func (t *tracker) watch(r *registry.Registry, fn func()) error {
	t.stop()
	for _, c := range watched {
		n, err := registry.Resolve[services.Notifier](r, c)
		if err != nil {
			t.stop()
			return fmt.Errorf("watch %s: %w", c, err)
		}
		t.unsubscribe = append(t.unsubscribe, n.Subscribe(fn))
	}
	return nil
}

// stop removes every subscription made by watch.
func (t *tracker) stop() {
	for _, u := range t.unsubscribe {
		u()
	}
	t.unsubscribe = nil
}
