package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/frumelad/bom-explode/internal/bom"
	"github.com/frumelad/bom-explode/internal/report"
	"github.com/frumelad/bom-explode/internal/store"
)

// ReportSource reads stored explosion results.
type ReportSource interface {
	ProductRows(ctx context.Context, productKey string) ([]bom.Row, error)
	ProductErrors(ctx context.Context, productKey string) ([]bom.Error, error)
	AllRows(ctx context.Context) ([]bom.Row, error)
	AllErrors(ctx context.Context) ([]bom.Error, error)
	LastCalculation(ctx context.Context) (bom.Calculation, error)
}

// Reports renders stored results and caches per-product reports. The cache is
// bound to the newest recorded calculation, so a run finished by any process
// drops it.
type Reports struct {
	src   ReportSource
	cache *lru.Cache[string, string]

	mu   sync.Mutex
	calc int64
}

func NewReports(src ReportSource, cacheSize int) (*Reports, error) {
	cache, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("report cache: %w", err)
	}
	return &Reports{src: src, cache: cache}, nil
}

// ProductReport renders one product. It returns store.ErrNoData when nothing
// was stored for the product.
func (s *Reports) ProductReport(ctx context.Context, productKey string) (string, error) {
	if err := s.sync(ctx); err != nil {
		return "", err
	}
	if out, ok := s.cache.Get(productKey); ok {
		return out, nil
	}

	rows, err := s.src.ProductRows(ctx, productKey)
	if err != nil && !errors.Is(err, store.ErrNoData) {
		return "", err
	}
	errs, eerr := s.src.ProductErrors(ctx, productKey)
	if eerr != nil {
		return "", eerr
	}
	if len(rows) == 0 && len(errs) == 0 {
		return "", store.ErrNoData
	}

	name := productKey
	switch {
	case len(rows) > 0:
		name = rows[0].ProductName
	case len(errs) > 0:
		name = errs[0].ProductName
	}
	out := report.Product(name, rows, errs)
	s.cache.Add(productKey, out)
	return out, nil
}

// FullReport renders every stored product.
func (s *Reports) FullReport(ctx context.Context, now time.Time) (string, error) {
	rows, err := s.src.AllRows(ctx)
	if err != nil {
		return "", err
	}
	errs, err := s.src.AllErrors(ctx)
	if err != nil {
		return "", err
	}
	return report.Full(report.Sections(rows, errs), now), nil
}

// sync purges the cache when a newer calculation has been recorded.
func (s *Reports) sync(ctx context.Context) error {
	last, err := s.src.LastCalculation(ctx)
	if err != nil && !errors.Is(err, store.ErrNoData) {
		return fmt.Errorf("last calculation: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if last.ID != s.calc {
		s.cache.Purge()
		s.calc = last.ID
	}
	return nil
}

// Invalidate drops cached reports.
func (s *Reports) Invalidate() { s.cache.Purge() }
