// Package registry maps capabilities (service roles) to the instances that
// currently fill them.
//
// Bindings are either eager instances (Register) or lazy factories
// (RegisterFactory) constructed on first Get and cached when singleton.
// Registration is insert-or-replace: the last binding for a capability wins,
// and no error is reported for the replacement.
//
// A Registry is an explicit object owned by whoever builds a session; there is
// no process-wide instance. Dropping a session means dropping its Registry.
//
// Typical usage:
//
//	r := registry.New()
//	r.RegisterFactory(services.SearchFilterCap, func(*registry.Registry) (any, error) {
//	    return services.NewSearchFilter(), nil
//	}, true)
//	filter, err := registry.Resolve[*services.SearchFilter](r, services.SearchFilterCap)
package registry
