package catalog

import "context"

// CatalogService exposes read-only lookups; services are managed elsewhere on the platform.
type CatalogService interface {
	GetByID(ctx context.Context, id string) (*Service, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) CatalogService {
	return &service{repo: repo}
}

func (s *service) GetByID(ctx context.Context, id string) (*Service, error) {
	return s.repo.GetByID(ctx, id)
}
