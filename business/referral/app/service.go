package app

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/sam-client/business/referral/domain"
	"github.com/fd1az/sam-client/internal/apperror"
	"github.com/fd1az/sam-client/internal/logger"
)

// Service captures and serves the referral upline.
type Service struct {
	store  Store
	logger logger.LoggerInterface
	now    func() time.Time
}

// NewService creates a Service over store.
func NewService(store Store, log logger.LoggerInterface) *Service {
	return &Service{store: store, logger: log, now: time.Now}
}

// CaptureURL extracts the ref parameter from rawURL and captures it.
func (s *Service) CaptureURL(ctx context.Context, rawURL string, connected common.Address) (common.Address, domain.Decision, error) {
	return s.Capture(ctx, domain.FromURL(rawURL), connected)
}

// Capture stores candidate as the referral when it is a valid address other
// than connected and nothing is stored yet.
func (s *Service) Capture(ctx context.Context, candidate string, connected common.Address) (common.Address, domain.Decision, error) {
	_, stored, err := s.store.Get(ctx)
	if err != nil {
		return common.Address{}, "", apperror.New(apperror.CodeReferralStoreFailed, apperror.WithCause(err))
	}

	addr, decision := domain.Evaluate(candidate, connected, stored)
	if decision != domain.Accepted {
		s.logger.Debug(ctx, "referral not captured", "candidate", candidate, "decision", string(decision))
		return addr, decision, nil
	}

	written, err := s.store.SetIfAbsent(ctx, domain.Referral{Address: addr, CapturedAt: s.now()})
	if err != nil {
		return common.Address{}, "", apperror.New(apperror.CodeReferralStoreFailed, apperror.WithCause(err))
	}
	if !written {
		return addr, domain.AlreadyStored, nil
	}

	s.logger.Info(ctx, "referral captured", "upline", addr.Hex())
	return addr, domain.Accepted, nil
}

// Referral returns the stored upline. Store failures are logged and reported
// as no referral.
func (s *Service) Referral(ctx context.Context) (common.Address, bool) {
	ref, ok, err := s.store.Get(ctx)
	if err != nil {
		s.logger.Warn(ctx, "referral lookup failed", "error", err)
		return common.Address{}, false
	}
	if !ok || ref.Address == (common.Address{}) {
		return common.Address{}, false
	}
	return ref.Address, true
}

// Stored returns the full stored record.
func (s *Service) Stored(ctx context.Context) (domain.Referral, bool, error) {
	return s.store.Get(ctx)
}

// Clear forgets the stored referral.
func (s *Service) Clear(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return apperror.New(apperror.CodeReferralStoreFailed, apperror.WithCause(err))
	}
	s.logger.Info(ctx, "referral cleared")
	return nil
}
