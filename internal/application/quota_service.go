package application

import (
	"context"
	"fmt"
	"log/slog"
)

// QuotaService manages the per-category vote allowances. Reads are open;
// writes require an administrator principal and are bounds-checked against
// the configured upper bound.
type QuotaService struct {
	quotas     QuotaStore
	upperBound int
	logger     *slog.Logger
}

// NewQuotaService wires dependencies for the quota service. upperBound caps
// any configurable allowance; values below 1 fall back to the default of 20.
func NewQuotaService(quotas QuotaStore, upperBound int) *QuotaService {
	return NewQuotaServiceWithLogger(quotas, upperBound, nil)
}

// NewQuotaServiceWithLogger constructs a QuotaService with a specified logger.
func NewQuotaServiceWithLogger(quotas QuotaStore, upperBound int, logger *slog.Logger) *QuotaService {
	if upperBound < 1 {
		upperBound = 20
	}
	return &QuotaService{
		quotas:     quotas,
		upperBound: upperBound,
		logger:     defaultLogger(logger),
	}
}

func (s *QuotaService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "QuotaService", operation, attrs...)
}

// GetQuotas returns the current allowance for each category.
func (s *QuotaService) GetQuotas(ctx context.Context) (map[Category]int, error) {
	if s == nil || s.quotas == nil {
		return nil, fmt.Errorf("quota store not configured")
	}
	return s.quotas.ListQuotas(ctx)
}

// SetQuota updates one category's allowance. The change applies to subsequent
// eligibility checks only; votes already recorded are never re-evaluated.
func (s *QuotaService) SetQuota(ctx context.Context, principal Principal, category Category, maxVotes int) error {
	if s == nil || s.quotas == nil {
		return fmt.Errorf("quota store not configured")
	}

	logger := s.loggerWith(ctx, "SetQuota",
		"admin_id", principal.AdminID,
		"category", string(category),
		"max_votes", maxVotes,
	)

	if !principal.IsAdmin {
		logger.WarnContext(ctx, "quota update rejected", "error_kind", "unauthorized")
		return ErrUnauthorized
	}

	vErr := &ValidationError{}
	if !category.Valid() {
		vErr.add("category", "category must be 2000 or 3000")
	}
	if vErr.HasErrors() {
		return vErr
	}

	if maxVotes < 1 || maxVotes > s.upperBound {
		logger.InfoContext(ctx, "quota update rejected", "error_kind", "config_out_of_range")
		return &ConfigOutOfRangeError{Category: category, Max: maxVotes, UpperBound: s.upperBound}
	}

	if err := s.quotas.SetQuota(ctx, category, maxVotes); err != nil {
		logger.ErrorContext(ctx, "quota update failed", "error", err)
		return err
	}

	logger.InfoContext(ctx, "quota updated")
	return nil
}
