package integration

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/erp/catalogsync/internal/domain/integration"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// ---------------------------------------------------------------------------
// Remote catalog
// ---------------------------------------------------------------------------

type MockRemoteCatalog struct {
	mock.Mock
	pageSize int
}

func newMockRemote(pageSize int) *MockRemoteCatalog {
	return &MockRemoteCatalog{pageSize: pageSize}
}

func (m *MockRemoteCatalog) PageSize() int {
	return m.pageSize
}

func (m *MockRemoteCatalog) FetchProducts(ctx context.Context, id string, page int) ([]integration.RemoteItem, error) {
	args := m.Called(ctx, id, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.RemoteItem), args.Error(1)
}

func (m *MockRemoteCatalog) FetchAllProducts(ctx context.Context) ([]integration.RemoteItem, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.RemoteItem), args.Error(1)
}

func (m *MockRemoteCatalog) CreateDocument(ctx context.Context, docType integration.DocumentType, req integration.DocumentRequest) (*integration.DocumentResult, error) {
	args := m.Called(ctx, docType, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.DocumentResult), args.Error(1)
}

func (m *MockRemoteCatalog) FetchImage(ctx context.Context, remoteItemID string) ([]byte, string, error) {
	args := m.Called(ctx, remoteItemID)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).([]byte), args.String(1), args.Error(2)
}

func (m *MockRemoteCatalog) FetchRates(ctx context.Context) ([]integration.Rate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.Rate), args.Error(1)
}

// ---------------------------------------------------------------------------
// Notifier / image store
// ---------------------------------------------------------------------------

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyRunErrors(ctx context.Context, to string, report integration.RunReport) error {
	args := m.Called(ctx, to, report)
	return args.Error(0)
}

func (m *MockNotifier) NotifyCycleComplete(ctx context.Context, to string, report integration.CycleReport) error {
	args := m.Called(ctx, to, report)
	return args.Error(0)
}

type MockImageStore struct {
	mock.Mock
}

func (m *MockImageStore) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	args := m.Called(ctx, key, data, contentType)
	return args.String(0), args.Error(1)
}

// ---------------------------------------------------------------------------
// Local store
// ---------------------------------------------------------------------------

type storedProduct struct {
	product    integration.LocalProduct
	price      decimal.Decimal
	stock      int64
	policy     integration.StockPolicy
	categories []uuid.UUID
	packLines  []integration.PackLine
	imageURL   string
}

type fakeStore struct {
	mu       sync.Mutex
	products []*storedProduct
	variants []*integration.LocalVariant
	terms    []*integration.Term

	plans        []integration.UpsertPlan
	termsCreated int
	upsertErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{}
}

func (s *fakeStore) seedProduct(p integration.LocalProduct) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	s.products = append(s.products, &storedProduct{product: p})
	return p.ID
}

func (s *fakeStore) seedVariant(productID uuid.UUID, sku string, active bool) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := &integration.LocalVariant{ID: uuid.New(), ProductID: productID, SKU: sku, Active: active}
	s.variants = append(s.variants, v)
	return v.ID
}

func (s *fakeStore) product(id uuid.UUID) *storedProduct {
	for _, p := range s.products {
		if p.product.ID == id {
			return p
		}
	}
	return nil
}

func (s *fakeStore) variantsOf(productID uuid.UUID) []integration.LocalVariant {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []integration.LocalVariant
	for _, v := range s.variants {
		if v.ProductID == productID {
			out = append(out, *v)
		}
	}
	return out
}

func (s *fakeStore) FindProductBySKU(_ context.Context, sku string) (*integration.LocalProduct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.product.SKU == sku && !p.product.Trashed {
			cp := p.product
			return &cp, nil
		}
	}
	return nil, integration.ErrProductNotFound
}

func (s *fakeStore) FindProductByRemoteID(_ context.Context, remoteItemID string) (*integration.LocalProduct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.product.RemoteItemID == remoteItemID {
			cp := p.product
			return &cp, nil
		}
	}
	return nil, integration.ErrProductNotFound
}

func (s *fakeStore) FindParentBySKU(_ context.Context, skus []string) (*integration.LocalProduct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.variants {
		for _, sku := range skus {
			if v.SKU == sku {
				if p := s.product(v.ProductID); p != nil {
					cp := p.product
					return &cp, nil
				}
			}
		}
	}
	return nil, integration.ErrProductNotFound
}

func (s *fakeStore) UpsertProduct(_ context.Context, plan *integration.UpsertPlan) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upsertErr != nil {
		return uuid.Nil, s.upsertErr
	}
	s.plans = append(s.plans, *plan)

	var p *storedProduct
	if plan.ExistingID != nil {
		p = s.product(*plan.ExistingID)
		if p == nil {
			return uuid.Nil, errors.New("product vanished")
		}
	} else {
		p = &storedProduct{product: integration.LocalProduct{
			ID:     uuid.New(),
			SKU:    plan.SKU,
			Status: plan.Status,
		}}
		s.products = append(s.products, p)
	}

	p.product.RemoteItemID = plan.RemoteItemID
	p.product.Name = plan.Name
	p.product.Type = plan.Type
	p.price = plan.Price
	p.stock = plan.Stock
	p.policy = plan.Policy
	p.packLines = plan.PackLines
	if plan.ImageURL != "" {
		p.imageURL = plan.ImageURL
	}
	return p.product.ID, nil
}

func (s *fakeStore) ListVariants(_ context.Context, productID uuid.UUID) ([]integration.LocalVariant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []integration.LocalVariant
	for _, v := range s.variants {
		if v.ProductID == productID {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (s *fakeStore) UpsertVariant(_ context.Context, productID uuid.UUID, change integration.VariantChange) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if change.ID != uuid.Nil {
		for _, v := range s.variants {
			if v.ID == change.ID {
				v.Price = change.Price
				v.Stock = change.Stock
				v.Attributes = change.Attributes
				v.Active = true
				return v.ID, nil
			}
		}
		return uuid.Nil, errors.New("variant vanished")
	}
	v := &integration.LocalVariant{
		ID:         uuid.New(),
		ProductID:  productID,
		SKU:        change.SKU,
		Price:      change.Price,
		Stock:      change.Stock,
		Attributes: change.Attributes,
		Active:     true,
	}
	s.variants = append(s.variants, v)
	return v.ID, nil
}

func (s *fakeStore) SetVariantInactive(_ context.Context, variantID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.variants {
		if v.ID == variantID {
			v.Active = false
			return nil
		}
	}
	return errors.New("variant not found")
}

func (s *fakeStore) FindTermBySlug(_ context.Context, slug string, parentID *uuid.UUID) (*integration.Term, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.terms {
		if t.Slug == slug && sameParent(t.ParentID, parentID) {
			cp := *t
			return &cp, nil
		}
	}
	return nil, integration.ErrTermNotFound
}

func (s *fakeStore) CreateTerm(_ context.Context, name, slug string, parentID *uuid.UUID) (*integration.Term, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &integration.Term{ID: uuid.New(), Name: name, Slug: slug, ParentID: parentID}
	s.terms = append(s.terms, t)
	s.termsCreated++
	cp := *t
	return &cp, nil
}

func (s *fakeStore) AssignCategories(_ context.Context, productID uuid.UUID, termIDs []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.product(productID)
	if p == nil {
		return errors.New("product not found")
	}
	p.categories = termIDs
	return nil
}

func sameParent(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// ---------------------------------------------------------------------------
// Queue repository
// ---------------------------------------------------------------------------

type fakeQueue struct {
	mu      sync.Mutex
	rows    []integration.SyncQueueEntry
	cycles  []*integration.SyncCycle
	markErr map[string]error
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{markErr: map[string]error{}}
}

func (q *fakeQueue) count(synced bool) int64 {
	var n int64
	for _, r := range q.rows {
		if r.Synced == synced {
			n++
		}
	}
	return n
}

func (q *fakeQueue) CountUnsynced(context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count(false), nil
}

func (q *fakeQueue) CountSynced(context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count(true), nil
}

func (q *fakeQueue) Truncate(context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.rows = nil
	return nil
}

func (q *fakeQueue) InsertPending(_ context.Context, ids []string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, id := range ids {
		dup := false
		for _, r := range q.rows {
			if r.RemoteItemID == id {
				dup = true
				break
			}
		}
		if !dup {
			q.rows = append(q.rows, integration.SyncQueueEntry{RemoteItemID: id})
		}
	}
	return nil
}

func (q *fakeQueue) NextUnsynced(_ context.Context, limit int) ([]integration.SyncQueueEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []integration.SyncQueueEntry
	for _, r := range q.rows {
		if !r.Synced && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

func (q *fakeQueue) MarkSynced(_ context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.markErr[id]; err != nil {
		return err
	}
	for i := range q.rows {
		if q.rows[i].RemoteItemID == id {
			q.rows[i].Synced = true
		}
	}
	return nil
}

func (q *fakeQueue) LatestCycle(context.Context) (*integration.SyncCycle, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.cycles) == 0 {
		return nil, integration.ErrCycleNotFound
	}
	cp := *q.cycles[len(q.cycles)-1]
	cp.Errors = append([]integration.CycleError(nil), cp.Errors...)
	return &cp, nil
}

func (q *fakeQueue) SaveCycle(_ context.Context, cycle *integration.SyncCycle) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	cp := *cycle
	q.cycles = append(q.cycles, &cp)
	return nil
}

func (q *fakeQueue) findCycle(id uuid.UUID) *integration.SyncCycle {
	for _, c := range q.cycles {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (q *fakeQueue) RecordCycleError(_ context.Context, cycleID uuid.UUID, cycleErr integration.CycleError) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	c := q.findCycle(cycleID)
	if c == nil {
		return integration.ErrCycleNotFound
	}
	for i := range c.Errors {
		if c.Errors[i].RemoteItemID == cycleErr.RemoteItemID {
			c.Errors[i] = cycleErr
			return nil
		}
	}
	c.Errors = append(c.Errors, cycleErr)
	return nil
}

func (q *fakeQueue) ClearCycleError(_ context.Context, cycleID uuid.UUID, remoteItemID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	c := q.findCycle(cycleID)
	if c == nil {
		return integration.ErrCycleNotFound
	}
	kept := c.Errors[:0]
	for _, e := range c.Errors {
		if e.RemoteItemID != remoteItemID {
			kept = append(kept, e)
		}
	}
	c.Errors = kept
	return nil
}

// ---------------------------------------------------------------------------
// Order repository
// ---------------------------------------------------------------------------

type fakeOrders struct {
	mu      sync.Mutex
	orders  map[uuid.UUID]*integration.Order
	lines   map[uuid.UUID][]integration.OrderLine
	notes   map[uuid.UUID][]string
	saveErr error
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{
		orders: map[uuid.UUID]*integration.Order{},
		lines:  map[uuid.UUID][]integration.OrderLine{},
		notes:  map[uuid.UUID][]string{},
	}
}

func (r *fakeOrders) add(order integration.Order, lines ...integration.OrderLine) uuid.UUID {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	r.orders[order.ID] = &order
	r.lines[order.ID] = lines
	return order.ID
}

func (r *fakeOrders) GetOrder(_ context.Context, id uuid.UUID) (*integration.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, integration.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrders) GetOrderLines(_ context.Context, id uuid.UUID) ([]integration.OrderLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lines[id], nil
}

func (r *fakeOrders) SaveExportRecord(_ context.Context, id uuid.UUID, record integration.OrderExportRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	o, ok := r.orders[id]
	if !ok {
		return integration.ErrOrderNotFound
	}
	o.Export = record
	return nil
}

func (r *fakeOrders) AppendOrderNote(_ context.Context, id uuid.UUID, note string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes[id] = append(r.notes[id], note)
	return nil
}

func (r *fakeOrders) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return integration.ErrOrderNotFound
	}
	o.Status = status
	return nil
}

// ---------------------------------------------------------------------------
// Page stash / run error log
// ---------------------------------------------------------------------------

type fakeStash struct {
	mu    sync.Mutex
	pages map[string]*integration.StashedPage
}

func newFakeStash() *fakeStash {
	return &fakeStash{pages: map[string]*integration.StashedPage{}}
}

func (s *fakeStash) Load(_ context.Context, runID string) (*integration.StashedPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pages[runID]
	if !ok {
		return nil, integration.ErrStashMiss
	}
	return p, nil
}

func (s *fakeStash) Save(_ context.Context, runID string, page *integration.StashedPage, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[runID] = page
	return nil
}

func (s *fakeStash) Delete(_ context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pages, runID)
	return nil
}

type fakeRunLog struct {
	mu      sync.Mutex
	reports map[string][]integration.ErrorReport
}

func newFakeRunLog() *fakeRunLog {
	return &fakeRunLog{reports: map[string][]integration.ErrorReport{}}
}

func (l *fakeRunLog) Append(_ context.Context, runID string, report integration.ErrorReport, _ time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reports[runID] = append(l.reports[runID], report)
	return nil
}

func (l *fakeRunLog) Drain(_ context.Context, runID string) ([]integration.ErrorReport, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.reports[runID]
	delete(l.reports, runID)
	return out, nil
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

func testSettings() integration.SyncSettings {
	return integration.SyncSettings{
		APIKey:            "test-key",
		DefaultPostStatus: integration.PostStatusPublish,
		CategorySeparator: ">",
		RateSelector:      integration.DefaultRateSelector,
		BatchSize:         10,
		ScheduleInterval:  time.Hour,
		NotificationEmail: "ops@example.com",
		DocumentType:      integration.DocumentTypeInvoice,
		ExportOnStatus:    "completed",
		Features: integration.FeatureSet{
			PackImport:  true,
			OrderExport: true,
		},
	}
}

func simpleItem(id, sku string, price int64, stock int64) integration.RemoteItem {
	return integration.RemoteItem{
		ID:    id,
		SKU:   sku,
		Name:  "Item " + id,
		Price: decimal.NewFromInt(price),
		Stock: stock,
		Body:  integration.SimpleBody{},
	}
}

func variant(sku string, price int64) integration.RemoteVariant {
	return integration.RemoteVariant{
		SKU:            sku,
		Price:          decimal.NewFromInt(price),
		Stock:          3,
		CategoryFields: []integration.Attribute{{Name: "size", Value: sku}},
	}
}

func variantsItem(id string, variants ...integration.RemoteVariant) integration.RemoteItem {
	return integration.RemoteItem{
		ID:   id,
		Name: "Variable " + id,
		Body: integration.VariantsBody{Variants: variants},
	}
}
