package store

import (
	"context"
	"errors"
	"fmt"
	"ponudaplus/internal/models"
	"ponudaplus/internal/providers"
	"ponudaplus/internal/structures"
)

var (
	ErrNotFound = errors.New("document not found")
	ErrConflict = errors.New("document already exists")
)

type ListOptions struct {
	Limit  int
	Offset int
}

// DocumentStore is the contract the backup manager needs from the document database.
// Update merges the given fields into the stored document and fails with
// ErrNotFound when there is nothing to merge into. Create with an empty id lets
// the store assign one.
type DocumentStore interface {
	List(ctx context.Context, collectionID string, opts ListOptions) ([]models.Document, error)
	Get(ctx context.Context, collectionID, documentID string) (models.Document, error)
	Create(ctx context.Context, collectionID, documentID string, fields models.Document) (models.Document, error)
	Update(ctx context.Context, collectionID, documentID string, fields models.Document) (models.Document, error)
	Delete(ctx context.Context, collectionID, documentID string) error
}

// ResponseError is a non-2xx answer from a remote store that has no sentinel of its own.
type ResponseError struct {
	Status  int
	Type    string
	Message string
}

func (e *ResponseError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("store responded %d (%s): %s", e.Status, e.Type, e.Message)
	}
	return fmt.Sprintf("store responded %d: %s", e.Status, e.Message)
}

// NewDocumentStore opens the configured backend and wraps it with metrics and the read cache.
func NewDocumentStore(conf *structures.Config, logger providers.Logger, cache providers.CacheProviderInterface, metrics providers.MetricsProviderInterface) (DocumentStore, func(), error) {
	var (
		backend DocumentStore
		cleanup = func() {}
	)

	switch conf.Store.Driver {
	case "appwrite":
		backend = NewAppwriteStore(conf, logger)
		logger.Infof(providers.TypeApp, "Document store: appwrite %s (database %s)", conf.Store.Endpoint, conf.Store.DatabaseID)
	case "sqlite":
		s, err := NewSQLiteStore(conf.Store.Path, logger)
		if err != nil {
			return nil, nil, err
		}
		backend = s
		cleanup = func() {
			if err := s.Close(); err != nil {
				logger.Errorf(providers.TypeApp, "Failed to close document store: %v", err)
			}
		}
		logger.Infof(providers.TypeApp, "Document store: sqlite %s", conf.Store.Path)
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", conf.Store.Driver)
	}

	return NewCachedStore(NewInstrumentedStore(backend, metrics), cache), cleanup, nil
}
