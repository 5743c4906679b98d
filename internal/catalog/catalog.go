package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/homedash/internal/domain"
)

var (
	// ErrValidation marks caller mistakes (missing name, unresolvable URL...).
	ErrValidation = errors.New("validation failed")
	// ErrTileNotFound is returned for operations on an unknown tile id.
	ErrTileNotFound = errors.New("tile not found")
	// ErrUnknownIntegration is returned for an unsupported integration key.
	ErrUnknownIntegration = errors.New("unknown integration")
)

// ConfigStore is the persistence the catalog needs.
type ConfigStore interface {
	Load(ctx context.Context) domain.AppConfig
	Update(ctx context.Context, fn func(cfg *domain.AppConfig) error) (domain.AppConfig, error)
}

// Catalog applies tile and integration settings operations on top of the
// config store. Every mutation is a single read-modify-write of the store.
type Catalog struct {
	store ConfigStore
	newID func() string
}

func New(store ConfigStore) *Catalog {
	return &Catalog{
		store: store,
		newID: NewTileID,
	}
}

// WithIDGenerator overrides tile id generation. Used by tests.
func (c *Catalog) WithIDGenerator(fn func() string) *Catalog {
	c.newID = fn
	return c
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func tileNotFound(id string) error {
	return fmt.Errorf("%w: %s", ErrTileNotFound, id)
}
