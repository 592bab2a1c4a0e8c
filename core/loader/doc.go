// Package loader provides the feature loading system for the HTTP server.
//
// Each feature implements the Feature interface and registers its routes when
// loaded. The Manager keeps features in registration order and loads the
// enabled ones with LoadAll.
//
// # Feature Interface
//
//	type Feature interface {
//	    Name() string
//	    IsEnabled() bool
//	    Load(app fiber.Router) error
//	}
package loader
