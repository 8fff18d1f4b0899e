package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/frumelad/bom-explode/internal/bom"
	"github.com/frumelad/bom-explode/internal/catalog"
	"github.com/frumelad/bom-explode/internal/metrics"
	"github.com/frumelad/bom-explode/internal/store"
)

// memStore is an in-memory CatalogSource, ResultSink and ReportSource.
type memStore struct {
	mu      sync.Mutex
	snap    *catalog.Snapshot
	loadErr error
	saveErr error
	block   chan struct{}

	rows     []bom.Row
	errs     []bom.Error
	calcs    []bom.Calculation
	replaces int
}

func (m *memStore) LoadCatalog(ctx context.Context) (*catalog.Snapshot, error) {
	if m.block != nil {
		<-m.block
	}
	return m.snap, m.loadErr
}

func (m *memStore) ReplaceResults(ctx context.Context, results []*bom.Result, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.replaces++
	m.rows, m.errs = nil, nil
	for _, res := range results {
		m.rows = append(m.rows, res.Rows()...)
		m.errs = append(m.errs, res.Errors...)
	}
	return nil
}

func (m *memStore) RecordCalculation(ctx context.Context, c bom.Calculation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = int64(len(m.calcs) + 1)
	m.calcs = append(m.calcs, c)
	return nil
}

func (m *memStore) LastCalculation(ctx context.Context) (bom.Calculation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calcs) == 0 {
		return bom.Calculation{}, store.ErrNoData
	}
	return m.calcs[len(m.calcs)-1], nil
}

func (m *memStore) ProductRows(ctx context.Context, key string) ([]bom.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []bom.Row
	for _, r := range m.rows {
		if r.ProductKey == key {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil, store.ErrNoData
	}
	return out, nil
}

func (m *memStore) ProductErrors(ctx context.Context, key string) ([]bom.Error, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []bom.Error
	for _, e := range m.errs {
		if e.ProductKey == key {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memStore) AllRows(ctx context.Context) ([]bom.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]bom.Row(nil), m.rows...), nil
}

func (m *memStore) AllErrors(ctx context.Context) ([]bom.Error, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]bom.Error(nil), m.errs...), nil
}

type memArchive struct {
	name, body string
}

func (a *memArchive) PutReport(ctx context.Context, name, body string) (string, error) {
	a.name, a.body = name, body
	return "mem://" + name, nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testSnapshot() *catalog.Snapshot {
	return &catalog.Snapshot{
		Types: []catalog.NomenclatureType{
			{ID: "gp", Name: "Готовая продукция"},
			{ID: "semi", Name: "Полуфабрикаты"},
			{ID: "cost", Name: "Себестоимость"},
			{ID: "flour", Name: "Мука", ParentID: "cost"},
		},
		Items: []catalog.Item{
			{Key: "P", Name: "Пирог", UnitCode: "шт", TypeID: "gp"},
			{Key: "Q", Name: "Кекс", UnitCode: "шт", TypeID: "gp"},
			{Key: "M", Name: "Тесто", UnitName: "кг", TypeID: "semi"},
			{Key: "C", Name: "Крем", UnitName: "кг", TypeID: "semi"},
			{Key: "T", Name: "Мука пшеничная", UnitName: "кг", TypeID: "flour"},
		},
		Specs: []catalog.Specification{
			{RefKey: "sP", ProductKey: "P", OutputQty: dec("2"), Active: true},
			{RefKey: "sQ", ProductKey: "Q", OutputQty: dec("1"), Active: true},
			{RefKey: "sM", ProductKey: "M", OutputQty: dec("5"), Active: true},
		},
		Lines: []catalog.SpecLine{
			{SpecKey: "sP", MaterialKey: "M", Quantity: dec("10")},
			{SpecKey: "sQ", MaterialKey: "C", Quantity: dec("0.3")},
			{SpecKey: "sM", MaterialKey: "T", Quantity: dec("1")},
		},
	}
}

func TestRunnerRun(t *testing.T) {
	ms := &memStore{snap: testSnapshot()}
	arch := &memArchive{}
	r := NewRunner(ms, ms, RunnerConfig{Workers: 2}, zap.NewNop()).WithArchiver(arch)
	r.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	before := testutil.ToFloat64(metrics.RunsTotal.WithLabelValues(bom.StatusCompleted))
	sum, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := testutil.ToFloat64(metrics.RunsTotal.WithLabelValues(bom.StatusCompleted)); got != before+1 {
		t.Fatalf("runs counter = %v, want %v", got, before+1)
	}

	if sum.Products != 2 || sum.Materials != 2 || sum.Errors != 1 || sum.ByKind[bom.KindNoSpec] != 1 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if ms.replaces != 1 || len(ms.calcs) != 1 || ms.calcs[0].Status != bom.StatusCompleted {
		t.Fatalf("unexpected sink state: replaces=%d calcs=%+v", ms.replaces, ms.calcs)
	}
	if len(ms.rows) != 2 {
		t.Fatalf("expected 2 stored rows, got %d", len(ms.rows))
	}
	if arch.name != "bom_report_20260102_030405.txt" || sum.ArchivedAt != "mem://"+arch.name {
		t.Fatalf("unexpected archive: %q %q", arch.name, sum.ArchivedAt)
	}
	if !strings.Contains(arch.body, "PRODUCT: Пирог") || !strings.Contains(arch.body, "  * Крем") {
		t.Fatalf("archived report missing content:\n%s", arch.body)
	}
}

func TestRunnerLoadFailure(t *testing.T) {
	ms := &memStore{loadErr: errors.New("boom")}
	r := NewRunner(ms, ms, RunnerConfig{}, nil)

	_, err := r.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "load catalog") {
		t.Fatalf("expected load error, got %v", err)
	}
	if len(ms.calcs) != 1 || ms.calcs[0].Status != bom.StatusFailed {
		t.Fatalf("failed run should be recorded: %+v", ms.calcs)
	}
	if ms.replaces != 0 {
		t.Fatalf("previous results must survive a failed load")
	}
}

func TestRunnerSaveFailure(t *testing.T) {
	ms := &memStore{snap: testSnapshot()}
	r := NewRunner(ms, ms, RunnerConfig{Workers: 1}, nil)
	if _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	previous := append([]bom.Row(nil), ms.rows...)

	ms.saveErr = errors.New("disk full")
	if _, err := r.Run(context.Background()); err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected save error, got %v", err)
	}
	if len(ms.rows) != len(previous) {
		t.Fatalf("failed save must keep previous results: got %d rows, want %d", len(ms.rows), len(previous))
	}
	if last := ms.calcs[len(ms.calcs)-1]; last.Status != bom.StatusFailed {
		t.Fatalf("expected failed calculation, got %+v", last)
	}
}

func TestRunnerSingleFlight(t *testing.T) {
	ms := &memStore{snap: testSnapshot(), block: make(chan struct{})}
	r := NewRunner(ms, ms, RunnerConfig{Workers: 1}, nil)

	done := make(chan error, 1)
	go func() {
		_, err := r.Run(context.Background())
		done <- err
	}()

	deadline := time.Now().Add(2 * time.Second)
	for {
		r.mu.Lock()
		running := r.running
		r.mu.Unlock()
		if running {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("first run did not start")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if _, err := r.Run(context.Background()); !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("expected ErrRunInProgress, got %v", err)
	}
	close(ms.block)
	if err := <-done; err != nil {
		t.Fatalf("first run: %v", err)
	}
}

func TestRunnerMultipleSpecs(t *testing.T) {
	snap := testSnapshot()
	snap.Specs = append(snap.Specs, catalog.Specification{RefKey: "sP2", ProductKey: "P", OutputQty: dec("1"), Active: true})
	ms := &memStore{snap: snap}
	r := NewRunner(ms, ms, RunnerConfig{Workers: 1, ReportMultipleSpecs: true}, nil)

	sum, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.ByKind[bom.KindMultipleSpecs] != 1 {
		t.Fatalf("expected one multiple_specs error, got %+v", sum.ByKind)
	}
}
