package changes

import (
	"github.com/gofiber/fiber/v2"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates the changes feature around an existing service. HTTP
// requests may only name locations that locations accepts.
func NewFeature(service *Service, locations *Locations) *Feature {
	return &Feature{service: service, handler: NewHandler(service, locations)}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "changes"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
