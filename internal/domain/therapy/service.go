package therapy

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	repo     Repository
	resolver *Resolver
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, resolver: NewResolver(repo)}
}

func (s *Service) Resolver() *Resolver {
	return s.resolver
}

func (s *Service) GetRequest(ctx context.Context, id uuid.UUID) (*TherapyRequest, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("%w: %s", ErrRequestNotFound, id)
	}
	return req, nil
}

func (s *Service) ListSessions(ctx context.Context, id uuid.UUID) ([]SessionRef, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("%w: %s", ErrRequestNotFound, id)
	}
	return s.repo.ListSessions(ctx, id)
}
