package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"stockpulse/backend/internal/cache"
	"stockpulse/backend/internal/domain"
	"stockpulse/backend/internal/store"
	"stockpulse/backend/internal/store/memory"
	"stockpulse/backend/internal/xid"
)

var fixedNow = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, repo store.Repository, opts ...Option) *Service {
	t.Helper()

	logger, _ := logtest.NewNullLogger()
	base := []Option{
		WithClock(func() time.Time { return fixedNow }),
		WithLocation(time.UTC),
		WithLogger(logger),
	}
	svc := New(repo, append(base, opts...)...)
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	return svc
}

// newStockedService registers A (push) and B with the given stock levels.
func newStockedService(t *testing.T, stockA int, stockB int) *Service {
	t.Helper()

	svc := newTestService(t, memory.New())
	ctx := context.Background()
	for _, model := range []string{"a", "b"} {
		_, err := svc.AddModel(ctx, model)
		require.NoError(t, err)
	}
	push := domain.CategoryPush
	_, err := svc.SetAttributes(ctx, "A", domain.AttributeUpdateRequest{Category: &push})
	require.NoError(t, err)
	_, err = svc.SetStock(ctx, "A", stockA)
	require.NoError(t, err)
	_, err = svc.SetStock(ctx, "B", stockB)
	require.NoError(t, err)
	return svc
}

func loggedAt(hook *logtest.Hook, level logrus.Level) bool {
	for _, entry := range hook.AllEntries() {
		if entry.Level == level {
			return true
		}
	}
	return false
}

func viewOf(t *testing.T, svc *Service, model string) domain.ModelView {
	t.Helper()
	for _, view := range svc.ListModels(context.Background()) {
		if view.Model == model {
			return view
		}
	}
	t.Fatalf("model %s not registered", model)
	return domain.ModelView{}
}

func TestLoadSeedsDefaultCatalog(t *testing.T) {
	repo := memory.New()
	svc := newTestService(t, repo, WithSeedDefaults(true))

	models := svc.ListModels(context.Background())
	require.Len(t, models, len(domain.DefaultCatalog()))
	assert.Equal(t, "100Q7800H", models[0].Model)
	assert.Equal(t, domain.CategoryPush, models[0].Category)
	assert.True(t, models[0].Price.Equal(decimal.NewFromInt(45000)))
	assert.Len(t, repo.Keys(), len(store.AllKeys))

	settings := svc.Settings(context.Background())
	assert.Equal(t, domain.DefaultSafetyStockPeriod, settings.SafetyStockPeriod)
	assert.Equal(t, domain.DefaultMonthlyTargets(), settings.MonthlyTargets)
}

func TestLoadWithoutSeedStartsEmpty(t *testing.T) {
	repo := memory.New()
	svc := newTestService(t, repo)

	assert.Empty(t, svc.ListModels(context.Background()))
	assert.Zero(t, repo.Writes())
}

func TestStateSurvivesReload(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	first := newTestService(t, repo)
	_, err := first.AddModel(ctx, "55Q6600H")
	require.NoError(t, err)
	_, err = first.SetStock(ctx, "55Q6600H", 4)
	require.NoError(t, err)
	_, err = first.SetPrice(ctx, "55Q6600H", decimal.RequireFromString("10000.50"))
	require.NoError(t, err)
	_, err = first.RecordSale(ctx, domain.SaleRequest{
		Date:  "2024-01-10",
		Items: []domain.LineItem{{Model: "55q6600h", Quantity: 1}},
	})
	require.NoError(t, err)
	_, err = first.SetSafetyStockPeriod(ctx, 14)
	require.NoError(t, err)

	second := newTestService(t, repo, WithSeedDefaults(true))
	view := viewOf(t, second, "55Q6600H")
	assert.Equal(t, 3, view.Stock)
	assert.Equal(t, 1, view.SafetyStock)
	assert.True(t, view.Price.Equal(decimal.RequireFromString("10000.50")))
	assert.Len(t, second.ListModels(ctx), 1)
	assert.Equal(t, 14, second.Settings(ctx).SafetyStockPeriod)

	sales, err := second.ListSales(ctx, "")
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, domain.DefaultSaleTime, sales[0].Time)
}

func TestLoadFallsBackOnCorruptSnapshot(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()
	require.NoError(t, repo.Put(ctx, "stockpulse:monthlyTargets", []byte("{not json")))

	logger, hook := logtest.NewNullLogger()
	svc := New(repo, WithLogger(logger), WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, svc.Load(ctx))

	assert.Equal(t, domain.DefaultMonthlyTargets(), svc.Settings(ctx).MonthlyTargets)
	assert.True(t, loggedAt(hook, logrus.WarnLevel), "expected a warning for the corrupt snapshot")
}

func TestLoadRejectsNewerSchema(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()
	payload := []byte(`{"schemaVersion":99,"savedAt":"2024-01-10T08:00:00Z","checksum":"","data":[]}`)
	require.NoError(t, repo.Put(ctx, "stockpulse:sales", payload))

	svc := New(repo)
	err := svc.Load(ctx)
	assert.ErrorIs(t, err, store.ErrUnsupportedSchema)
}

func TestAddModelRejectsDuplicatesAndBlank(t *testing.T) {
	svc := newTestService(t, memory.New())
	ctx := context.Background()

	view, err := svc.AddModel(ctx, "  65x8700g ")
	require.NoError(t, err)
	assert.Equal(t, "65X8700G", view.Model)
	assert.Equal(t, domain.StatusUsual, view.Status)
	assert.Equal(t, domain.CategoryNonPush, view.Category)
	assert.True(t, view.Price.IsZero())

	_, err = svc.AddModel(ctx, "65X8700G")
	assert.ErrorIs(t, err, domain.ErrDuplicateModel)

	_, err = svc.AddModel(ctx, "   ")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRecordSaleDecrementsStockAndRecomputes(t *testing.T) {
	svc := newStockedService(t, 5, 5)
	ctx := context.Background()

	record, err := svc.RecordSale(ctx, domain.SaleRequest{
		Date:  "2024-01-10",
		Time:  "09:15",
		Items: []domain.LineItem{{Model: "A", Quantity: 2}, {Model: "b", Quantity: 1}},
	})
	require.NoError(t, err)
	assert.True(t, xid.Valid("sale", record.ID))
	assert.Equal(t, "09:15", record.Time)
	assert.Equal(t, []domain.LineItem{{Model: "A", Quantity: 2}, {Model: "B", Quantity: 1}}, record.Items)

	a := viewOf(t, svc, "A")
	assert.Equal(t, 3, a.Stock)
	assert.Equal(t, 2, a.SafetyStock)
	assert.Equal(t, 4, viewOf(t, svc, "B").Stock)
}

func TestRecordSaleSumsDuplicateModelsBeforeStockCheck(t *testing.T) {
	svc := newStockedService(t, 3, 0)
	ctx := context.Background()

	_, err := svc.RecordSale(ctx, domain.SaleRequest{
		Date:  "2024-01-10",
		Items: []domain.LineItem{{Model: "A", Quantity: 2}, {Model: "A", Quantity: 2}},
	})
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	assert.Contains(t, err.Error(), "available 3")

	assert.Equal(t, 3, viewOf(t, svc, "A").Stock)
	sales, err := svc.ListSales(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, sales)
}

func TestRecordSaleValidation(t *testing.T) {
	svc := newStockedService(t, 5, 5)
	ctx := context.Background()

	cases := []struct {
		name string
		req  domain.SaleRequest
		want error
	}{
		{"future date", domain.SaleRequest{Date: "2024-01-11", Items: []domain.LineItem{{Model: "A", Quantity: 1}}}, domain.ErrValidation},
		{"bad date", domain.SaleRequest{Date: "10/01/2024", Items: []domain.LineItem{{Model: "A", Quantity: 1}}}, domain.ErrValidation},
		{"bad time", domain.SaleRequest{Date: "2024-01-10", Time: "25:99", Items: []domain.LineItem{{Model: "A", Quantity: 1}}}, domain.ErrValidation},
		{"no items", domain.SaleRequest{Date: "2024-01-10"}, domain.ErrValidation},
		{"zero quantity", domain.SaleRequest{Date: "2024-01-10", Items: []domain.LineItem{{Model: "A", Quantity: 0}}}, domain.ErrValidation},
		{"unknown model", domain.SaleRequest{Date: "2024-01-10", Items: []domain.LineItem{{Model: "Z", Quantity: 1}}}, domain.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.RecordSale(ctx, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Equal(t, 5, viewOf(t, svc, "A").Stock)
}

func TestDeleteSaleLineItemRestoresStock(t *testing.T) {
	svc := newStockedService(t, 5, 5)
	ctx := context.Background()

	_, err := svc.RecordSale(ctx, domain.SaleRequest{
		Date:  "2024-01-09",
		Items: []domain.LineItem{{Model: "A", Quantity: 2}, {Model: "B", Quantity: 1}},
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteSaleLineItem(ctx, "2024-01-09", "a", 2))
	a := viewOf(t, svc, "A")
	assert.Equal(t, 5, a.Stock)
	assert.Equal(t, 0, a.SafetyStock)

	sales, err := svc.ListSales(ctx, "2024-01-09")
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, []domain.LineItem{{Model: "B", Quantity: 1}}, sales[0].Items)

	require.NoError(t, svc.DeleteSaleLineItem(ctx, "2024-01-09", "B", 1))
	sales, err = svc.ListSales(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, sales)

	err = svc.DeleteSaleLineItem(ctx, "2024-01-09", "B", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRenameModelRekeysTablesAndLedger(t *testing.T) {
	svc := newStockedService(t, 5, 5)
	ctx := context.Background()

	_, err := svc.SetPrice(ctx, "A", decimal.NewFromInt(300))
	require.NoError(t, err)
	_, err = svc.RecordSale(ctx, domain.SaleRequest{Date: "2024-01-10", Items: []domain.LineItem{{Model: "A", Quantity: 2}}})
	require.NoError(t, err)

	view, err := svc.RenameModel(ctx, "A", "c")
	require.NoError(t, err)
	assert.Equal(t, "C", view.Model)
	assert.Equal(t, 3, view.Stock)
	assert.Equal(t, 2, view.SafetyStock)
	assert.Equal(t, domain.CategoryPush, view.Category)
	assert.True(t, view.Price.Equal(decimal.NewFromInt(300)))

	models := svc.ListModels(ctx)
	require.Len(t, models, 2)
	assert.Equal(t, "C", models[0].Model)

	period, err := svc.SalesForSafetyStockPeriod(ctx, "C")
	require.NoError(t, err)
	assert.Equal(t, domain.PeriodSales{Model: "C", Days: domain.DefaultSafetyStockPeriod, Units: 2}, period)

	_, err = svc.RenameModel(ctx, "C", "B")
	assert.ErrorIs(t, err, domain.ErrDuplicateModel)
	_, err = svc.RenameModel(ctx, "A", "D")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	same, err := svc.RenameModel(ctx, "C", "c")
	require.NoError(t, err)
	assert.Equal(t, "C", same.Model)
}

func TestDeleteModelStripsLedgerItems(t *testing.T) {
	svc := newStockedService(t, 5, 5)
	ctx := context.Background()

	_, err := svc.RecordSale(ctx, domain.SaleRequest{Date: "2024-01-10", Items: []domain.LineItem{{Model: "A", Quantity: 1}, {Model: "B", Quantity: 1}}})
	require.NoError(t, err)
	_, err = svc.RecordSale(ctx, domain.SaleRequest{Date: "2024-01-10", Items: []domain.LineItem{{Model: "A", Quantity: 1}}})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteModel(ctx, "A"))
	assert.ErrorIs(t, svc.DeleteModel(ctx, "A"), domain.ErrNotFound)

	sales, err := svc.ListSales(ctx, "")
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, []domain.LineItem{{Model: "B", Quantity: 1}}, sales[0].Items)
	assert.Len(t, svc.ListModels(ctx), 1)
}

func TestBatchUpdateStock(t *testing.T) {
	svc := newStockedService(t, 5, 5)
	ctx := context.Background()

	resp, err := svc.BatchUpdateStock(ctx, domain.StockUpdateRequest{
		Date:  "2024-01-10",
		Items: []domain.StockUpdateItem{{Model: "a", Stock: 9}, {Model: "B", Stock: 5}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, resp.Changed)
	assert.Equal(t, 9, viewOf(t, svc, "A").Stock)

	_, err = svc.BatchUpdateStock(ctx, domain.StockUpdateRequest{
		Date:  "2024-01-10",
		Items: []domain.StockUpdateItem{{Model: "A", Stock: 9}},
	})
	assert.ErrorIs(t, err, domain.ErrNoChanges)

	_, err = svc.BatchUpdateStock(ctx, domain.StockUpdateRequest{
		Date:  "2024-01-10",
		Items: []domain.StockUpdateItem{{Model: "A", Stock: -1}},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.BatchUpdateStock(ctx, domain.StockUpdateRequest{
		Date:  "2024-02-01",
		Items: []domain.StockUpdateItem{{Model: "A", Stock: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSetStockClampsAndRejectsUnknown(t *testing.T) {
	svc := newStockedService(t, 5, 5)
	ctx := context.Background()

	view, err := svc.SetStock(ctx, "A", -4)
	require.NoError(t, err)
	assert.Equal(t, 0, view.Stock)

	_, err = svc.SetStock(ctx, "missing", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSetPricesIsAllOrNothing(t *testing.T) {
	svc := newStockedService(t, 1, 1)
	ctx := context.Background()

	_, err := svc.SetPrices(ctx, map[string]decimal.Decimal{"A": decimal.NewFromInt(10), "Z": decimal.NewFromInt(5)})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.True(t, viewOf(t, svc, "A").Price.IsZero())

	views, err := svc.SetPrices(ctx, map[string]decimal.Decimal{"A": decimal.NewFromInt(10), "b": decimal.NewFromInt(-5)})
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.True(t, viewOf(t, svc, "A").Price.Equal(decimal.NewFromInt(10)))
	assert.True(t, viewOf(t, svc, "B").Price.IsZero())
}

func TestSetAttributesRejectsUnknownValues(t *testing.T) {
	svc := newStockedService(t, 1, 1)
	ctx := context.Background()

	bogus := domain.ModelStatus("retired")
	_, err := svc.SetAttributes(ctx, "A", domain.AttributeUpdateRequest{Status: &bogus})
	assert.ErrorIs(t, err, domain.ErrValidation)

	clean := domain.StatusClean
	view, err := svc.SetAttributes(ctx, "A", domain.AttributeUpdateRequest{Status: &clean})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClean, view.Status)
	assert.Equal(t, domain.CategoryPush, view.Category)
}

func TestSafetyStockPeriodSettings(t *testing.T) {
	svc := newStockedService(t, 10, 0)
	ctx := context.Background()

	_, err := svc.RecordSale(ctx, domain.SaleRequest{Date: "2024-01-10", Items: []domain.LineItem{{Model: "A", Quantity: 1}}})
	require.NoError(t, err)
	_, err = svc.RecordSale(ctx, domain.SaleRequest{Date: "2024-01-05", Items: []domain.LineItem{{Model: "A", Quantity: 2}}})
	require.NoError(t, err)
	assert.Equal(t, 3, viewOf(t, svc, "A").SafetyStock)

	settings, err := svc.SetSafetyStockPeriod(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, settings.SafetyStockPeriod)
	assert.Equal(t, 1, viewOf(t, svc, "A").SafetyStock)

	_, err = svc.SetSafetyStockPeriod(ctx, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidRange)
	_, err = svc.SetSafetyStockPeriod(ctx, 31)
	assert.ErrorIs(t, err, domain.ErrInvalidRange)
}

func TestRecomputeFollowsClock(t *testing.T) {
	now := fixedNow
	logger, _ := logtest.NewNullLogger()
	svc := New(memory.New(), WithClock(func() time.Time { return now }), WithLocation(time.UTC), WithLogger(logger))
	ctx := context.Background()
	require.NoError(t, svc.Load(ctx))

	_, err := svc.AddModel(ctx, "A")
	require.NoError(t, err)
	_, err = svc.SetStock(ctx, "A", 5)
	require.NoError(t, err)
	_, err = svc.SetSafetyStockPeriod(ctx, 1)
	require.NoError(t, err)
	_, err = svc.RecordSale(ctx, domain.SaleRequest{Date: "2024-01-10", Items: []domain.LineItem{{Model: "A", Quantity: 2}}})
	require.NoError(t, err)
	assert.Equal(t, 2, viewOf(t, svc, "A").SafetyStock)

	now = now.Add(24 * time.Hour)
	svc.RecomputeSafetyStock(ctx)
	assert.Equal(t, 0, viewOf(t, svc, "A").SafetyStock)
}

func TestMonthlyTargetsValidation(t *testing.T) {
	svc := newTestService(t, memory.New())
	ctx := context.Background()

	_, err := svc.SetMonthlyTargets(ctx, domain.MonthlyTargets{Revenue: 1000, TotalUnits: 10, StructureUnits: 11})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.SetMonthlyTargets(ctx, domain.MonthlyTargets{Revenue: 0, TotalUnits: 10, StructureUnits: 5})
	assert.ErrorIs(t, err, domain.ErrValidation)

	settings, err := svc.SetMonthlyTargets(ctx, domain.MonthlyTargets{Revenue: 1000, TotalUnits: 10, StructureUnits: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1000), settings.MonthlyTargets.Revenue)
}

func TestMonthReportAgainstTargets(t *testing.T) {
	svc := newStockedService(t, 5, 5)
	ctx := context.Background()

	_, err := svc.SetPrice(ctx, "A", decimal.NewFromInt(125000))
	require.NoError(t, err)
	_, err = svc.RecordSale(ctx, domain.SaleRequest{Date: "2024-01-03", Items: []domain.LineItem{{Model: "A", Quantity: 2}}})
	require.NoError(t, err)

	report := svc.MonthReport(ctx)
	assert.Equal(t, "2024-01", report.Month)
	assert.True(t, report.TotalRevenue.Equal(decimal.NewFromInt(250000)))
	assert.Equal(t, 50, report.RevenuePercent)
	assert.Equal(t, 2, report.StructureUnits)
}

func TestRangeReportUsesCacheUntilLedgerChanges(t *testing.T) {
	reports := cache.NewMemoryRangeReportCache()
	svc := newTestService(t, memory.New(), WithRangeReportCache(reports, time.Minute))
	ctx := context.Background()

	_, err := svc.AddModel(ctx, "A")
	require.NoError(t, err)
	_, err = svc.SetStock(ctx, "A", 5)
	require.NoError(t, err)

	first, err := svc.RangeReport(ctx, "2024-01-01", "2024-01-10")
	require.NoError(t, err)
	assert.Zero(t, first.TotalUnits)

	_, err = svc.RangeReport(ctx, "2024-01-01", "2024-01-10")
	require.NoError(t, err)
	assert.Equal(t, 1, reports.Hits())

	_, err = svc.RecordSale(ctx, domain.SaleRequest{Date: "2024-01-10", Items: []domain.LineItem{{Model: "A", Quantity: 1}}})
	require.NoError(t, err)

	after, err := svc.RangeReport(ctx, "2024-01-01", "2024-01-10")
	require.NoError(t, err)
	assert.Equal(t, 1, after.TotalUnits)
	assert.Equal(t, 1, reports.Hits())

	_, err = svc.RangeReport(ctx, "2024-01-10", "2024-01-01")
	assert.ErrorIs(t, err, domain.ErrInvalidRange)
}

func TestInventoryRanksUrgentFirst(t *testing.T) {
	svc := newStockedService(t, 5, 0)
	ctx := context.Background()

	rows := svc.Inventory(ctx)
	require.Len(t, rows, 2)
	assert.Equal(t, "B", rows[0].Model)
	assert.True(t, rows[0].Urgent)

	summary := svc.InventorySummary(ctx)
	assert.Equal(t, 2, summary.TotalModels)
	assert.Equal(t, 1, summary.OutOfStock)
	assert.Equal(t, fixedNow, summary.GeneratedAt)
}

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	payload, _ := args.Get(0).([]byte)
	return payload, args.Error(1)
}

func (m *mockRepository) Put(ctx context.Context, key string, payload []byte) error {
	args := m.Called(ctx, key, payload)
	return args.Error(0)
}

func (m *mockRepository) Close() error {
	return nil
}

func TestPersistFailureKeepsMemoryState(t *testing.T) {
	repo := &mockRepository{}
	repo.On("Get", mock.Anything, mock.Anything).Return(nil, store.ErrNotFound)
	repo.On("Put", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("disk full"))

	logger, hook := logtest.NewNullLogger()
	svc := New(repo, WithLogger(logger), WithClock(func() time.Time { return fixedNow }))
	ctx := context.Background()
	require.NoError(t, svc.Load(ctx))

	_, err := svc.AddModel(ctx, "A")
	require.NoError(t, err)
	assert.Len(t, svc.ListModels(ctx), 1)

	repo.AssertCalled(t, "Put", mock.Anything, "stockpulse:models", mock.Anything)
	assert.True(t, loggedAt(hook, logrus.ErrorLevel), "expected the failed write to be logged")
}

func TestLoadPropagatesRepositoryErrors(t *testing.T) {
	repo := &mockRepository{}
	repo.On("Get", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	svc := New(repo)
	err := svc.Load(context.Background())
	if err == nil {
		t.Fatalf("expected load to fail when the repository is unreachable")
	}
}

func TestRecordSaleRejectsQuantitiesThatWouldOverflow(t *testing.T) {
	svc := newStockedService(t, 10, 0)
	ctx := context.Background()

	huge := 5_000_000_000_000_000_000
	_, err := svc.RecordSale(ctx, domain.SaleRequest{
		Date:  "2024-01-10",
		Items: []domain.LineItem{{Model: "A", Quantity: huge}, {Model: "A", Quantity: huge}},
	})
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	a := viewOf(t, svc, "A")
	assert.Equal(t, 10, a.Stock)
	assert.Equal(t, 0, a.SafetyStock)
	sales, err := svc.ListSales(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, sales)
}

func TestRecordSaleNormalizesTime(t *testing.T) {
	svc := newStockedService(t, 5, 5)

	record, err := svc.RecordSale(context.Background(), domain.SaleRequest{
		Date:  "2024-01-10",
		Time:  "9:05",
		Items: []domain.LineItem{{Model: "A", Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, "09:05", record.Time)
}

func TestCategoryChangeAppliesToRecordedSales(t *testing.T) {
	svc := newStockedService(t, 5, 5)
	ctx := context.Background()

	_, err := svc.RecordSale(ctx, domain.SaleRequest{Date: "2024-01-05", Items: []domain.LineItem{{Model: "B", Quantity: 2}}})
	require.NoError(t, err)

	day, err := svc.DayReport(ctx, "2024-01-05")
	require.NoError(t, err)
	assert.Equal(t, 0, day.StructureUnits)

	push := domain.CategoryPush
	_, err = svc.SetAttributes(ctx, "B", domain.AttributeUpdateRequest{Category: &push})
	require.NoError(t, err)

	day, err = svc.DayReport(ctx, "2024-01-05")
	require.NoError(t, err)
	assert.Equal(t, 2, day.StructureUnits)
	assert.Equal(t, 2, svc.MonthReport(ctx).StructureUnits)
	period, err := svc.RangeReport(ctx, "2024-01-01", "2024-01-10")
	require.NoError(t, err)
	assert.Equal(t, 2, period.StructureUnits)
}

func TestSalesForPeriodRejectsZeroDays(t *testing.T) {
	svc := newStockedService(t, 5, 5)
	ctx := context.Background()

	_, err := svc.SalesForPeriod(ctx, "A", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidRange)

	sales, err := svc.SalesForSafetyStockPeriod(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSafetyStockPeriod, sales.Days)
}

func TestLoadDropsInvalidSaleItems(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, repo, "stockpulse:models", []string{"A"}, fixedNow))
	require.NoError(t, store.Save(ctx, repo, "stockpulse:inventory", map[string]domain.InventoryEntry{"A": {Stock: 5}}, fixedNow))
	require.NoError(t, store.Save(ctx, repo, "stockpulse:sales", []domain.SaleRecord{
		{ID: "sale-1", Date: " 2024-01-09 ", Time: "9:30", Items: []domain.LineItem{{Model: "a", Quantity: 2}, {Model: "A", Quantity: -4}}},
		{ID: "sale-2", Date: "2024-01-08", Items: []domain.LineItem{{Model: "A", Quantity: 0}}},
		{ID: "sale-3", Date: "yesterday", Items: []domain.LineItem{{Model: "A", Quantity: 1}}},
	}, fixedNow))

	logger, hook := logtest.NewNullLogger()
	svc := New(repo, WithLogger(logger), WithClock(func() time.Time { return fixedNow }), WithLocation(time.UTC))
	require.NoError(t, svc.Load(ctx))

	sales, err := svc.ListSales(ctx, "")
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, "2024-01-09", sales[0].Date)
	assert.Equal(t, "09:30", sales[0].Time)
	assert.Equal(t, []domain.LineItem{{Model: "A", Quantity: 2}}, sales[0].Items)
	assert.Equal(t, 2, viewOf(t, svc, "A").SafetyStock)
	assert.True(t, loggedAt(hook, logrus.WarnLevel))
}
