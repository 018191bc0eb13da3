package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/gic/cashtransfer/internal/model"
)

type RateWriter interface {
	FindByID(ctx context.Context, id int64) (*model.TransferRate, error)
	List(ctx context.Context, kind model.ScopeKind, limit, offset int) ([]model.TransferRate, int, error)
	Create(ctx context.Context, rate *model.TransferRate) error
	Update(ctx context.Context, rate *model.TransferRate) error
	SetActive(ctx context.Context, id int64, active bool) error
}

// RateInvalidator drops cached rate lists for a scope after a write.
type RateInvalidator interface {
	Invalidate(ctx context.Context, scope model.RateScope) error
}

type RateAdminService struct {
	repo  RateWriter
	cache RateInvalidator
}

func NewRateAdminService(repo RateWriter, cache RateInvalidator) *RateAdminService {
	return &RateAdminService{repo: repo, cache: cache}
}

func (s *RateAdminService) List(ctx context.Context, kind model.ScopeKind, limit, offset int) ([]model.TransferRate, int, error) {
	return s.repo.List(ctx, kind, limit, offset)
}

func (s *RateAdminService) Get(ctx context.Context, id int64) (*model.TransferRate, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *RateAdminService) Create(ctx context.Context, rate *model.TransferRate) error {
	if err := rate.Validate(); err != nil {
		return invalidInput("%s", err)
	}
	if err := s.repo.Create(ctx, rate); err != nil {
		return fmt.Errorf("create transfer rate: %w", err)
	}

	log.Info().Int64("rate_id", rate.ID).Str("scope", rate.Scope.Key()).Msg("transfer rate created")
	s.invalidate(ctx, rate.Scope)
	return nil
}

func (s *RateAdminService) Update(ctx context.Context, rate *model.TransferRate) error {
	if err := rate.Validate(); err != nil {
		return invalidInput("%s", err)
	}

	existing, err := s.repo.FindByID(ctx, rate.ID)
	if err != nil {
		return err
	}
	if err := s.repo.Update(ctx, rate); err != nil {
		return fmt.Errorf("update transfer rate: %w", err)
	}

	log.Info().Int64("rate_id", rate.ID).Str("scope", rate.Scope.Key()).Msg("transfer rate updated")
	s.invalidate(ctx, existing.Scope)
	if existing.Scope != rate.Scope {
		s.invalidate(ctx, rate.Scope)
	}
	return nil
}

func (s *RateAdminService) Deactivate(ctx context.Context, id int64) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return err
		}
		return fmt.Errorf("deactivate transfer rate: %w", err)
	}

	log.Info().Int64("rate_id", id).Str("scope", existing.Scope.Key()).Msg("transfer rate deactivated")
	s.invalidate(ctx, existing.Scope)
	return nil
}

func (s *RateAdminService) invalidate(ctx context.Context, scope model.RateScope) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, scope); err != nil {
		log.Warn().Err(err).Str("scope", scope.Key()).Msg("rate cache invalidation failed")
	}
}
