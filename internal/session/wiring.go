package session

import (
	"errors"
	"fmt"

	"github.com/five82/lookout/internal/logs"
	"github.com/five82/lookout/internal/providers"
	"github.com/five82/lookout/internal/registry"
	"github.com/five82/lookout/internal/services"
	"github.com/five82/lookout/internal/views"
)

// configure creates the session logger, shows it in the window frame through
// viewIDs, and starts a provider for every pending record. Providers run on
// their own; configure does not wait for them.
func configure(r *registry.Registry, name string, viewIDs []string, pending []providers.PendingRecord) (*logs.Logger, error) {
	lm, err := registry.Resolve[*logs.Manager](r, services.LogManagerCap)
	if err != nil {
		return nil, err
	}
	logger, err := lm.Add(name)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	vm, err := registry.Resolve[*views.Manager](r, services.ViewManagerCap)
	if err != nil {
		return nil, err
	}
	frame, err := registry.Resolve[*views.Frame](r, services.WindowFrameCap)
	if err != nil {
		return nil, err
	}
	if len(viewIDs) == 0 {
		if reg := vm.GetRegistered(); len(reg) > 0 {
			viewIDs = []string{reg[0].ID}
		}
	}
	frame.SetLog(logger)
	if err := frame.SetViews(viewIDs); err != nil {
		return nil, err
	}
	vm.AddViewer(frame)

	if err := startProviders(r, logger, pending); err != nil {
		return nil, err
	}
	return logger, nil
}

// startProviders creates, attaches and starts a provider per record. A
// provider that fails to start is closed and forgotten, so it is never saved.
func startProviders(r *registry.Registry, logger *logs.Logger, pending []providers.PendingRecord) error {
	if len(pending) == 0 {
		return nil
	}
	pm, err := registry.Resolve[*providers.Manager](r, services.ProviderManagerCap)
	if err != nil {
		return err
	}
	for _, rec := range pending {
		p, err := pm.Create(rec.Info.Identifier, rec.Settings)
		if err != nil {
			return err
		}
		p.SetLogger(logger)
		if err := p.Start(); err != nil {
			pm.Remove(p)
			return errors.Join(
				fmt.Errorf("start %s: %w", rec.Settings.InstanceName(), err),
				p.Close(),
			)
		}
	}
	return nil
}
