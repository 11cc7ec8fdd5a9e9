package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fd1az/sam-client/business/pricing/domain"
	"github.com/fd1az/sam-client/internal/apperror"
	"github.com/fd1az/sam-client/internal/asset"
	"github.com/fd1az/sam-client/internal/logger"
)

const meterName = "github.com/fd1az/sam-client/business/pricing/app"

// ErrAlreadyStarted is returned by Start on a running service.
var ErrAlreadyStarted = errors.New("pricing service already started")

// PricingService keeps the latest native coin quote from a feed.
// A nil feed yields a service that never has a price.
type PricingService struct {
	feed    PriceFeed
	maxAge  time.Duration
	logger  logger.LoggerInterface
	now     func() time.Time
	latest  atomic.Pointer[domain.Quote]
	updates metric.Int64Counter
	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewPricingService creates a service over feed. Quotes older than maxAge are not served.
func NewPricingService(feed PriceFeed, maxAge time.Duration, log logger.LoggerInterface) *PricingService {
	s := &PricingService{
		feed:   feed,
		maxAge: maxAge,
		logger: log,
		now:    time.Now,
	}

	counter, err := otel.Meter(meterName).Int64Counter(
		"price_updates_total",
		metric.WithDescription("Native coin quotes received"),
		metric.WithUnit("{quote}"),
	)
	if err == nil {
		s.updates = counter
	}
	return s
}

// Start runs the feed in the background.
func (s *PricingService) Start(ctx context.Context) error {
	if s.feed == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		if err := s.feed.Run(ctx, s.publish); err != nil && ctx.Err() == nil {
			s.logger.Error(ctx, "price feed stopped", "feed", s.feed.Name(), "error", err)
		}
	}(s.done)

	s.logger.Info(ctx, "price feed started", "feed", s.feed.Name())
	return nil
}

// Stop stops the feed and waits for it. Safe to call more than once.
func (s *PricingService) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Refresh fetches one quote synchronously and stores it.
func (s *PricingService) Refresh(ctx context.Context) (domain.Quote, error) {
	if s.feed == nil {
		return domain.Quote{}, apperror.New(apperror.CodePriceUnavailable,
			apperror.WithContext("no price feed configured"))
	}
	q, err := s.feed.Fetch(ctx)
	if err != nil {
		return domain.Quote{}, err
	}
	s.publish(q)
	return q, nil
}

// Latest returns the current native coin price if one is usable.
func (s *PricingService) Latest() (asset.Price, bool) {
	q := s.latest.Load()
	if q == nil || !q.Usable(s.now(), s.maxAge) {
		return asset.Price{}, false
	}
	return q.Price, true
}

// Quote returns the latest stored quote regardless of age.
func (s *PricingService) Quote() (domain.Quote, bool) {
	q := s.latest.Load()
	if q == nil {
		return domain.Quote{}, false
	}
	return *q, true
}

// Check reports feed freshness for the health server.
func (s *PricingService) Check(context.Context) (bool, string) {
	if s.feed == nil {
		return true, "disabled"
	}
	q := s.latest.Load()
	if q == nil {
		return false, "no quote yet"
	}
	age := q.Age(s.now()).Round(time.Second)
	if !q.Usable(s.now(), s.maxAge) {
		return false, fmt.Sprintf("stale: %s old", age)
	}
	return true, fmt.Sprintf("%s from %s, %s old", q.Price, q.Source, age)
}

func (s *PricingService) publish(q domain.Quote) {
	if q.Price.IsZero() {
		return
	}
	s.latest.Store(&q)
	if s.updates != nil {
		s.updates.Add(context.Background(), 1, metric.WithAttributes(attribute.String("source", q.Source)))
	}
}
