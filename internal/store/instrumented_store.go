package store

import (
	"context"
	"errors"
	"ponudaplus/internal/models"
	"ponudaplus/internal/providers"
)

// InstrumentedStore counts every store call by operation and outcome.
type InstrumentedStore struct {
	inner   DocumentStore
	metrics providers.MetricsProviderInterface
}

func NewInstrumentedStore(inner DocumentStore, metrics providers.MetricsProviderInterface) *InstrumentedStore {
	return &InstrumentedStore{inner: inner, metrics: metrics}
}

func operationStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}

func (s *InstrumentedStore) List(ctx context.Context, collectionID string, opts ListOptions) ([]models.Document, error) {
	docs, err := s.inner.List(ctx, collectionID, opts)
	s.metrics.IncStoreOperations("list", operationStatus(err))
	return docs, err
}

func (s *InstrumentedStore) Get(ctx context.Context, collectionID, documentID string) (models.Document, error) {
	doc, err := s.inner.Get(ctx, collectionID, documentID)
	s.metrics.IncStoreOperations("get", operationStatus(err))
	return doc, err
}

func (s *InstrumentedStore) Create(ctx context.Context, collectionID, documentID string, fields models.Document) (models.Document, error) {
	doc, err := s.inner.Create(ctx, collectionID, documentID, fields)
	s.metrics.IncStoreOperations("create", operationStatus(err))
	return doc, err
}

func (s *InstrumentedStore) Update(ctx context.Context, collectionID, documentID string, fields models.Document) (models.Document, error) {
	doc, err := s.inner.Update(ctx, collectionID, documentID, fields)
	s.metrics.IncStoreOperations("update", operationStatus(err))
	return doc, err
}

func (s *InstrumentedStore) Delete(ctx context.Context, collectionID, documentID string) error {
	err := s.inner.Delete(ctx, collectionID, documentID)
	s.metrics.IncStoreOperations("delete", operationStatus(err))
	return err
}
