package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"stockpulse/backend/internal/cache"
	"stockpulse/backend/internal/domain"
	"stockpulse/backend/internal/engine"
	"stockpulse/backend/internal/store"
	"stockpulse/backend/internal/xid"
)

type Option func(*Service)

// WithClock replaces time.Now. Tests use it to pin "today".
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

func WithRangeReportCache(c cache.RangeReportCache, ttl time.Duration) Option {
	return func(s *Service) {
		if c != nil {
			s.rangeCache = c
			s.rangeCacheTTL = ttl
		}
	}
}

func WithKeyPrefix(prefix string) Option {
	return func(s *Service) {
		s.keyPrefix = prefix
	}
}

// WithSeedDefaults controls whether Load installs the default catalog when no
// model registry has ever been saved.
func WithSeedDefaults(seed bool) Option {
	return func(s *Service) {
		s.seedDefaults = seed
	}
}

// Service owns the in-memory tables and writes every change through to the
// snapshot repository.
type Service struct {
	repo          store.Repository
	rangeCache    cache.RangeReportCache
	rangeCacheTTL time.Duration
	log           logrus.FieldLogger
	validate      *validator.Validate
	now           func() time.Time
	loc           *time.Location
	keyPrefix     string
	seedDefaults  bool

	mu         sync.RWMutex
	models     []string
	prices     map[string]decimal.Decimal
	attributes map[string]domain.Attribute
	inventory  map[string]domain.InventoryEntry
	sales      []domain.SaleRecord
	targets    domain.MonthlyTargets
	period     int
	// generation changes on every mutation; range report cache keys embed it
	generation string
}

func New(repo store.Repository, opts ...Option) *Service {
	s := &Service{
		repo:          repo,
		rangeCache:    cache.NoopRangeReportCache{},
		rangeCacheTTL: time.Minute,
		log:           logrus.StandardLogger(),
		validate:      validator.New(validator.WithRequiredStructEnabled()),
		now:           time.Now,
		loc:           time.Local,
		keyPrefix:     "stockpulse",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithField("module", "service")
	s.resetTables()
	return s
}

func (s *Service) resetTables() {
	s.models = []string{}
	s.prices = map[string]decimal.Decimal{}
	s.attributes = map[string]domain.Attribute{}
	s.inventory = map[string]domain.InventoryEntry{}
	s.sales = []domain.SaleRecord{}
	s.targets = domain.DefaultMonthlyTargets()
	s.period = domain.DefaultSafetyStockPeriod
	s.generation = xid.New("gen")
}

func (s *Service) today() time.Time {
	return s.now().In(s.loc)
}

func (s *Service) book() engine.Book {
	return engine.Book{
		Models:     s.models,
		Prices:     s.prices,
		Attributes: s.attributes,
		Inventory:  s.inventory,
		Sales:      s.sales,
	}
}

func (s *Service) isRegistered(model string) bool {
	_, ok := s.inventory[model]
	return ok
}

// sanitizeSale normalizes a stored record. Items without a model or a positive
// quantity are dropped, as is a record with an unparsable date or no items left.
func sanitizeSale(sale domain.SaleRecord) (domain.SaleRecord, bool) {
	day, err := domain.ParseDay(sale.Date)
	if err != nil {
		return domain.SaleRecord{}, false
	}
	record := domain.SaleRecord{ID: sale.ID, Date: domain.Day(day), Time: domain.DefaultSaleTime}
	if clock, err := time.Parse(domain.TimeLayout, strings.TrimSpace(sale.Time)); err == nil {
		record.Time = clock.Format(domain.TimeLayout)
	}
	for _, item := range sale.Items {
		model := domain.NormalizeModel(item.Model)
		if model == "" || item.Quantity <= 0 {
			continue
		}
		record.Items = append(record.Items, domain.LineItem{Model: model, Quantity: item.Quantity})
	}
	return record, len(record.Items) > 0
}

func (s *Service) touch() {
	s.generation = xid.New("gen")
}

// Load restores every table from the repository. Missing or corrupt tables
// fall back to defaults; a snapshot written by a newer schema aborts.
func (s *Service) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resetTables()

	var models []string
	modelsFound, err := s.loadTable(ctx, store.KeyModels, &models)
	if err != nil {
		return err
	}
	var prices map[string]decimal.Decimal
	if _, err := s.loadTable(ctx, store.KeyPrices, &prices); err != nil {
		return err
	}
	var attributes map[string]domain.Attribute
	if _, err := s.loadTable(ctx, store.KeyAttributes, &attributes); err != nil {
		return err
	}
	var inventory map[string]domain.InventoryEntry
	if _, err := s.loadTable(ctx, store.KeyInventory, &inventory); err != nil {
		return err
	}
	var sales []domain.SaleRecord
	if _, err := s.loadTable(ctx, store.KeySales, &sales); err != nil {
		return err
	}
	var targets domain.MonthlyTargets
	targetsFound, err := s.loadTable(ctx, store.KeyMonthlyTargets, &targets)
	if err != nil {
		return err
	}
	var period int
	periodFound, err := s.loadTable(ctx, store.KeySafetyStockPeriod, &period)
	if err != nil {
		return err
	}

	seeded := false
	if !modelsFound && s.seedDefaults {
		s.seedCatalog()
		seeded = true
	} else {
		for _, model := range models {
			model = domain.NormalizeModel(model)
			if model == "" || slices.Contains(s.models, model) {
				continue
			}
			s.models = append(s.models, model)
		}
	}

	for _, model := range s.models {
		if price, ok := prices[model]; ok {
			s.prices[model] = normalizePrice(price)
		} else if _, ok := s.prices[model]; !ok {
			s.prices[model] = decimal.Zero
		}
		if attr, ok := attributes[model]; ok && attr.Status.Valid() && attr.Category.Valid() {
			s.attributes[model] = attr
		} else if _, ok := s.attributes[model]; !ok {
			s.attributes[model] = domain.DefaultAttribute()
		}
		entry := inventory[model]
		if entry.Stock < 0 {
			entry.Stock = 0
		}
		s.inventory[model] = entry
	}

	dropped := 0
	for _, sale := range sales {
		if record, ok := sanitizeSale(sale); ok {
			s.sales = append(s.sales, record)
		} else {
			dropped++
		}
	}
	if dropped > 0 {
		s.log.WithField("dropped", dropped).Warn("skipped invalid sale records in snapshot")
	}

	if targetsFound {
		if err := s.validate.Struct(targets); err != nil {
			s.log.WithError(err).Warn("stored monthly targets are invalid, using defaults")
		} else {
			s.targets = targets
		}
	}
	if periodFound {
		if period < domain.MinSafetyStockPeriod || period > domain.MaxSafetyStockPeriod {
			s.log.WithField("period", period).Warn("stored safety stock period out of range, using default")
		} else {
			s.period = period
		}
	}

	s.recompute()

	if seeded {
		s.persist(ctx, store.AllKeys...)
	}

	s.log.WithFields(logrus.Fields{
		"models": len(s.models),
		"sales":  len(s.sales),
		"period": s.period,
		"seeded": seeded,
	}).Info("state loaded")
	return nil
}

func (s *Service) loadTable(ctx context.Context, key string, dest any) (bool, error) {
	found, err := store.Load(ctx, s.repo, store.Namespaced(s.keyPrefix, key), dest)
	switch {
	case err == nil:
		return found, nil
	case errors.Is(err, store.ErrUnsupportedSchema):
		return false, fmt.Errorf("load %s: %w", key, err)
	case errors.Is(err, store.ErrCorruptSnapshot):
		s.log.WithError(err).WithField("key", key).Warn("corrupt snapshot, using defaults")
		return false, nil
	default:
		return false, fmt.Errorf("load %s: %w", key, err)
	}
}

func (s *Service) seedCatalog() {
	for _, entry := range domain.DefaultCatalog() {
		s.models = append(s.models, entry.Model)
		s.prices[entry.Model] = entry.Price
		s.attributes[entry.Model] = domain.Attribute{Status: domain.StatusUsual, Category: entry.Category}
	}
}

func (s *Service) tableFor(key string) any {
	switch key {
	case store.KeyModels:
		return s.models
	case store.KeyPrices:
		return s.prices
	case store.KeyAttributes:
		return s.attributes
	case store.KeyInventory:
		return s.inventory
	case store.KeySales:
		return s.sales
	case store.KeyMonthlyTargets:
		return s.targets
	case store.KeySafetyStockPeriod:
		return s.period
	default:
		return nil
	}
}

// persist writes the named tables. Failures are logged; memory stays
// authoritative. Callers hold the write lock.
func (s *Service) persist(ctx context.Context, keys ...string) {
	savedAt := s.now()
	for _, key := range keys {
		value := s.tableFor(key)
		if value == nil {
			continue
		}
		if err := store.Save(ctx, s.repo, store.Namespaced(s.keyPrefix, key), value, savedAt); err != nil {
			s.log.WithError(err).WithField("key", key).Error("failed to persist snapshot")
		}
	}
}

func (s *Service) recompute() {
	totals := engine.SafetyStock(s.sales, s.models, s.period, s.today())
	for model, qty := range totals {
		entry := s.inventory[model]
		entry.SafetyStock = qty
		s.inventory[model] = entry
	}
}

func (s *Service) view(model string) domain.ModelView {
	attr := s.attributes[model]
	entry := s.inventory[model]
	return domain.ModelView{
		Model:       model,
		Price:       s.prices[model],
		Status:      attr.Status,
		Category:    attr.Category,
		Stock:       entry.Stock,
		SafetyStock: entry.SafetyStock,
	}
}

func normalizePrice(price decimal.Decimal) decimal.Decimal {
	if price.IsNegative() {
		return decimal.Zero
	}
	return price
}

func (s *Service) validationError(err error) error {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	parts := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s must satisfy %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s must satisfy %s", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(parts, "; "))
}

// checkNotFuture parses date and rejects days after today.
func (s *Service) checkNotFuture(date string) (string, error) {
	day, err := domain.ParseDay(date)
	if err != nil {
		return "", fmt.Errorf("%w: invalid date %q", domain.ErrValidation, date)
	}
	normalized := domain.Day(day)
	if normalized > domain.Day(s.today()) {
		return "", fmt.Errorf("%w: date %s is in the future", domain.ErrValidation, normalized)
	}
	return normalized, nil
}

func (s *Service) ListModels(_ context.Context) []domain.ModelView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	views := make([]domain.ModelView, 0, len(s.models))
	for _, model := range s.models {
		views = append(views, s.view(model))
	}
	return views
}

func (s *Service) AddModel(ctx context.Context, name string) (domain.ModelView, error) {
	model := domain.NormalizeModel(name)
	if model == "" {
		return domain.ModelView{}, fmt.Errorf("%w: model name is required", domain.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRegistered(model) {
		return domain.ModelView{}, fmt.Errorf("%w: %s", domain.ErrDuplicateModel, model)
	}

	s.models = append(s.models, model)
	s.inventory[model] = domain.InventoryEntry{}
	s.prices[model] = decimal.Zero
	s.attributes[model] = domain.DefaultAttribute()
	s.touch()
	s.persist(ctx, store.KeyModels, store.KeyInventory, store.KeyPrices, store.KeyAttributes)

	s.log.WithField("model", model).Info("model added")
	return s.view(model), nil
}

func (s *Service) RenameModel(ctx context.Context, oldName string, newName string) (domain.ModelView, error) {
	from := domain.NormalizeModel(oldName)
	to := domain.NormalizeModel(newName)
	if to == "" {
		return domain.ModelView{}, fmt.Errorf("%w: new model name is required", domain.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRegistered(from) {
		return domain.ModelView{}, fmt.Errorf("%w: model %s", domain.ErrNotFound, from)
	}
	if from == to {
		return s.view(from), nil
	}
	if s.isRegistered(to) {
		return domain.ModelView{}, fmt.Errorf("%w: %s", domain.ErrDuplicateModel, to)
	}

	s.models[slices.Index(s.models, from)] = to
	s.inventory[to] = s.inventory[from]
	s.prices[to] = s.prices[from]
	s.attributes[to] = s.attributes[from]
	delete(s.inventory, from)
	delete(s.prices, from)
	delete(s.attributes, from)

	for i := range s.sales {
		for j := range s.sales[i].Items {
			if s.sales[i].Items[j].Model == from {
				s.sales[i].Items[j].Model = to
			}
		}
	}

	s.recompute()
	s.touch()
	s.persist(ctx, store.KeyModels, store.KeyInventory, store.KeyPrices, store.KeyAttributes, store.KeySales)

	s.log.WithFields(logrus.Fields{"from": from, "to": to}).Info("model renamed")
	return s.view(to), nil
}

func (s *Service) DeleteModel(ctx context.Context, name string) error {
	model := domain.NormalizeModel(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRegistered(model) {
		return fmt.Errorf("%w: model %s", domain.ErrNotFound, model)
	}

	s.models = slices.DeleteFunc(s.models, func(m string) bool { return m == model })
	delete(s.inventory, model)
	delete(s.prices, model)
	delete(s.attributes, model)

	kept := s.sales[:0]
	for _, sale := range s.sales {
		sale.Items = slices.DeleteFunc(sale.Items, func(item domain.LineItem) bool { return item.Model == model })
		if len(sale.Items) > 0 {
			kept = append(kept, sale)
		}
	}
	s.sales = kept

	s.recompute()
	s.touch()
	s.persist(ctx, store.KeyModels, store.KeyInventory, store.KeyPrices, store.KeyAttributes, store.KeySales)

	s.log.WithField("model", model).Info("model deleted")
	return nil
}

func (s *Service) SetPrice(ctx context.Context, name string, price decimal.Decimal) (domain.ModelView, error) {
	model := domain.NormalizeModel(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRegistered(model) {
		return domain.ModelView{}, fmt.Errorf("%w: model %s", domain.ErrNotFound, model)
	}

	s.prices[model] = normalizePrice(price)
	s.touch()
	s.persist(ctx, store.KeyPrices)
	return s.view(model), nil
}

// SetPrices applies every price or none: all models are checked first.
func (s *Service) SetPrices(ctx context.Context, prices map[string]decimal.Decimal) ([]domain.ModelView, error) {
	if len(prices) == 0 {
		return nil, fmt.Errorf("%w: no prices given", domain.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	normalized := make(map[string]decimal.Decimal, len(prices))
	for name, price := range prices {
		model := domain.NormalizeModel(name)
		if !s.isRegistered(model) {
			return nil, fmt.Errorf("%w: model %s", domain.ErrNotFound, model)
		}
		normalized[model] = normalizePrice(price)
	}

	views := make([]domain.ModelView, 0, len(normalized))
	for _, model := range s.models {
		price, ok := normalized[model]
		if !ok {
			continue
		}
		s.prices[model] = price
		views = append(views, s.view(model))
	}
	s.touch()
	s.persist(ctx, store.KeyPrices)
	return views, nil
}

func (s *Service) SetAttributes(ctx context.Context, name string, req domain.AttributeUpdateRequest) (domain.ModelView, error) {
	model := domain.NormalizeModel(name)
	if req.Status != nil && !req.Status.Valid() {
		return domain.ModelView{}, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, *req.Status)
	}
	if req.Category != nil && !req.Category.Valid() {
		return domain.ModelView{}, fmt.Errorf("%w: unknown category %q", domain.ErrValidation, *req.Category)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRegistered(model) {
		return domain.ModelView{}, fmt.Errorf("%w: model %s", domain.ErrNotFound, model)
	}

	attr := s.attributes[model]
	if req.Status != nil {
		attr.Status = *req.Status
	}
	if req.Category != nil {
		attr.Category = *req.Category
	}
	s.attributes[model] = attr
	s.touch()
	s.persist(ctx, store.KeyAttributes)
	return s.view(model), nil
}

func (s *Service) SetStock(ctx context.Context, name string, quantity int) (domain.ModelView, error) {
	model := domain.NormalizeModel(name)
	if quantity < 0 {
		quantity = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.inventory[model]
	if !ok {
		return domain.ModelView{}, fmt.Errorf("%w: model %s", domain.ErrNotFound, model)
	}
	entry.Stock = quantity
	s.inventory[model] = entry
	s.persist(ctx, store.KeyInventory)
	return s.view(model), nil
}

func (s *Service) BatchUpdateStock(ctx context.Context, req domain.StockUpdateRequest) (domain.StockUpdateResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return domain.StockUpdateResponse{}, s.validationError(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	date, err := s.checkNotFuture(req.Date)
	if err != nil {
		return domain.StockUpdateResponse{}, err
	}

	next := make(map[string]int, len(req.Items))
	order := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		model := domain.NormalizeModel(item.Model)
		if !s.isRegistered(model) {
			return domain.StockUpdateResponse{}, fmt.Errorf("%w: model %s", domain.ErrNotFound, model)
		}
		if _, seen := next[model]; !seen {
			order = append(order, model)
		}
		next[model] = item.Stock
	}

	changed := make([]string, 0, len(order))
	for _, model := range order {
		entry := s.inventory[model]
		if entry.Stock == next[model] {
			continue
		}
		entry.Stock = next[model]
		s.inventory[model] = entry
		changed = append(changed, model)
	}
	if len(changed) == 0 {
		return domain.StockUpdateResponse{}, domain.ErrNoChanges
	}

	s.persist(ctx, store.KeyInventory)
	s.log.WithFields(logrus.Fields{"date": date, "changed": len(changed)}).Info("stock updated")
	return domain.StockUpdateResponse{Date: date, Changed: changed}, nil
}

func (s *Service) RecordSale(ctx context.Context, req domain.SaleRequest) (domain.SaleRecord, error) {
	if strings.TrimSpace(req.Time) == "" {
		req.Time = domain.DefaultSaleTime
	}
	if err := s.validate.Struct(req); err != nil {
		return domain.SaleRecord{}, s.validationError(err)
	}
	// "9:05" parses, store it as "09:05"
	clock, err := time.Parse(domain.TimeLayout, req.Time)
	if err != nil {
		return domain.SaleRecord{}, fmt.Errorf("%w: invalid time %q", domain.ErrValidation, req.Time)
	}
	req.Time = clock.Format(domain.TimeLayout)

	s.mu.Lock()
	defer s.mu.Unlock()

	date, err := s.checkNotFuture(req.Date)
	if err != nil {
		return domain.SaleRecord{}, err
	}

	items := make([]domain.LineItem, 0, len(req.Items))
	requested := make(map[string]int, len(req.Items))
	for _, item := range req.Items {
		model := domain.NormalizeModel(item.Model)
		if !s.isRegistered(model) {
			return domain.SaleRecord{}, fmt.Errorf("%w: model %s", domain.ErrNotFound, model)
		}
		// checked against the remainder so the running sum cannot overflow
		available := s.inventory[model].Stock
		if item.Quantity > available-requested[model] {
			return domain.SaleRecord{}, fmt.Errorf("%w: %s requested more than available %d",
				domain.ErrInsufficientStock, model, available)
		}
		items = append(items, domain.LineItem{Model: model, Quantity: item.Quantity})
		requested[model] += item.Quantity
	}

	for model, qty := range requested {
		entry := s.inventory[model]
		entry.Stock -= qty
		s.inventory[model] = entry
	}

	record := domain.SaleRecord{
		ID:    xid.New("sale"),
		Date:  date,
		Time:  req.Time,
		Items: items,
	}
	s.sales = append(s.sales, record)

	s.recompute()
	s.touch()
	s.persist(ctx, store.KeyInventory, store.KeySales)

	s.log.WithFields(logrus.Fields{"sale_id": record.ID, "date": date, "items": len(items)}).Info("sale recorded")
	return cloneSale(record), nil
}

// DeleteSaleLineItem removes the first line item on date matching model and
// quantity exactly, returning its units to stock.
func (s *Service) DeleteSaleLineItem(ctx context.Context, date string, name string, quantity int) error {
	model := domain.NormalizeModel(name)
	day, err := domain.ParseDay(date)
	if err != nil {
		return fmt.Errorf("%w: invalid date %q", domain.ErrValidation, date)
	}
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", domain.ErrValidation)
	}
	date = domain.Day(day)

	s.mu.Lock()
	defer s.mu.Unlock()

	saleIndex, itemIndex := -1, -1
	for i, sale := range s.sales {
		if sale.Date != date {
			continue
		}
		itemIndex = slices.IndexFunc(sale.Items, func(item domain.LineItem) bool {
			return item.Model == model && item.Quantity == quantity
		})
		if itemIndex >= 0 {
			saleIndex = i
			break
		}
	}
	if saleIndex < 0 {
		return fmt.Errorf("%w: no %s x%d sold on %s", domain.ErrNotFound, model, quantity, date)
	}

	if entry, ok := s.inventory[model]; ok {
		entry.Stock += quantity
		s.inventory[model] = entry
	}

	sale := &s.sales[saleIndex]
	sale.Items = slices.Delete(sale.Items, itemIndex, itemIndex+1)
	if len(sale.Items) == 0 {
		s.sales = slices.Delete(s.sales, saleIndex, saleIndex+1)
	}

	s.recompute()
	s.touch()
	s.persist(ctx, store.KeyInventory, store.KeySales)

	s.log.WithFields(logrus.Fields{"date": date, "model": model, "quantity": quantity}).Info("sale line item deleted")
	return nil
}

func cloneSale(sale domain.SaleRecord) domain.SaleRecord {
	sale.Items = slices.Clone(sale.Items)
	return sale
}

// ListSales returns ledger records in ledger order, optionally for one date.
func (s *Service) ListSales(_ context.Context, date string) ([]domain.SaleRecord, error) {
	if date != "" {
		day, err := domain.ParseDay(date)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid date %q", domain.ErrValidation, date)
		}
		date = domain.Day(day)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]domain.SaleRecord, 0, len(s.sales))
	for _, sale := range s.sales {
		if date != "" && sale.Date != date {
			continue
		}
		records = append(records, cloneSale(sale))
	}
	return records, nil
}

func (s *Service) RecomputeSafetyStock(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recompute()
	s.persist(ctx, store.KeyInventory)
	s.log.WithField("period", s.period).Info("safety stock recomputed")
}

// SalesForPeriod sums a model's units over the trailing days.
func (s *Service) SalesForPeriod(_ context.Context, name string, days int) (domain.PeriodSales, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.salesForPeriod(domain.NormalizeModel(name), days)
}

// SalesForSafetyStockPeriod is SalesForPeriod over the configured period.
func (s *Service) SalesForSafetyStockPeriod(_ context.Context, name string) (domain.PeriodSales, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.salesForPeriod(domain.NormalizeModel(name), s.period)
}

func (s *Service) salesForPeriod(model string, days int) (domain.PeriodSales, error) {
	if !s.isRegistered(model) {
		return domain.PeriodSales{}, fmt.Errorf("%w: model %s", domain.ErrNotFound, model)
	}
	units, err := engine.SalesForPeriod(s.sales, model, days, s.today())
	if err != nil {
		return domain.PeriodSales{}, err
	}
	return domain.PeriodSales{Model: model, Days: days, Units: units}, nil
}

func (s *Service) DayReport(_ context.Context, date string) (domain.DayAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if date == "" {
		date = domain.Day(s.today())
	} else {
		day, err := domain.ParseDay(date)
		if err != nil {
			return domain.DayAggregate{}, fmt.Errorf("%w: invalid date %q", domain.ErrValidation, date)
		}
		date = domain.Day(day)
	}
	return engine.AggregateForDay(s.book(), date), nil
}

func (s *Service) TrailingReport(_ context.Context, days int) (domain.TrailingAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return engine.AggregateForTrailingDays(s.book(), days, s.today())
}

func (s *Service) MonthReport(_ context.Context) domain.MonthAggregate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return engine.AggregateForMonth(s.book(), s.today(), s.targets)
}

func (s *Service) RangeReport(ctx context.Context, start string, end string) (domain.RangeAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := cache.RangeReportKey(s.keyPrefix, s.generation, start, end)
	cached, ok, err := s.rangeCache.Get(ctx, key)
	if err != nil {
		s.log.WithError(err).Warn("range report cache read failed")
	}
	if ok && cached != nil {
		return *cached, nil
	}

	report, err := engine.AggregateForDateRange(s.book(), start, end)
	if err != nil {
		return domain.RangeAggregate{}, err
	}
	if err := s.rangeCache.Set(ctx, key, &report, s.rangeCacheTTL); err != nil {
		s.log.WithError(err).Warn("range report cache write failed")
	}
	return report, nil
}

func (s *Service) Inventory(_ context.Context) []domain.InventoryRow {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return engine.RankInventory(s.book())
}

func (s *Service) InventorySummary(_ context.Context) domain.InventorySummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return engine.Summarize(engine.RankInventory(s.book()), s.now())
}

func (s *Service) Settings(_ context.Context) domain.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return domain.Settings{SafetyStockPeriod: s.period, MonthlyTargets: s.targets}
}

func (s *Service) SetSafetyStockPeriod(ctx context.Context, days int) (domain.Settings, error) {
	if days < domain.MinSafetyStockPeriod || days > domain.MaxSafetyStockPeriod {
		return domain.Settings{}, fmt.Errorf("%w: safety stock period must be between %d and %d, got %d",
			domain.ErrInvalidRange, domain.MinSafetyStockPeriod, domain.MaxSafetyStockPeriod, days)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.period = days
	s.recompute()
	s.persist(ctx, store.KeySafetyStockPeriod, store.KeyInventory)

	s.log.WithField("period", days).Info("safety stock period updated")
	return domain.Settings{SafetyStockPeriod: s.period, MonthlyTargets: s.targets}, nil
}

func (s *Service) SetMonthlyTargets(ctx context.Context, targets domain.MonthlyTargets) (domain.Settings, error) {
	if err := s.validate.Struct(targets); err != nil {
		return domain.Settings{}, s.validationError(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.targets = targets
	s.persist(ctx, store.KeyMonthlyTargets)
	return domain.Settings{SafetyStockPeriod: s.period, MonthlyTargets: s.targets}, nil
}
