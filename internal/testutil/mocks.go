package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/ankunda/payflow/internal/domain/catalog"
	domainErrors "github.com/ankunda/payflow/internal/domain/errors"
	"github.com/ankunda/payflow/internal/domain/payment"
	"github.com/ankunda/payflow/internal/providers"
)

// --- Payment Repository Mock ---

// MockPaymentRepository is an in-memory implementation of payment.Repository.
// Individual methods can be overridden through the corresponding Func field.
type MockPaymentRepository struct {
	mu       sync.Mutex
	payments map[string]*payment.Payment // keyed by reference

	CreateCalls int
	UpdateCalls int

	CreateFunc            func(ctx context.Context, p *payment.Payment) error
	GetByReferenceFunc    func(ctx context.Context, ref string) (*payment.Payment, error)
	LockByReferenceFunc   func(ctx context.Context, ref string) (*payment.Payment, error)
	UpdateByReferenceFunc func(ctx context.Context, ref string, upd payment.Update) (*payment.Payment, error)
	ListFunc              func(ctx context.Context, filter payment.ListFilter) ([]*payment.Payment, error)
	ListStalePendingFunc  func(ctx context.Context, cutoff time.Time, limit int) ([]*payment.Payment, error)
}

func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{payments: make(map[string]*payment.Payment)}
}

// AddPayment pre-populates the mock with a payment.
func (m *MockPaymentRepository) AddPayment(p *payment.Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[p.ReferenceID] = p
}

// GetStored returns the stored payment (test helper, no context needed).
func (m *MockPaymentRepository) GetStored(ref string) *payment.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.payments[ref]
}

func (m *MockPaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	if _, exists := m.payments[p.ReferenceID]; exists {
		return domainErrors.ErrDuplicateReference
	}
	cp := *p
	m.payments[p.ReferenceID] = &cp
	return nil
}

func (m *MockPaymentRepository) GetByReference(ctx context.Context, ref string) (*payment.Payment, error) {
	if m.GetByReferenceFunc != nil {
		return m.GetByReferenceFunc(ctx, ref)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[ref]
	if !ok {
		return nil, domainErrors.ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPaymentRepository) LockByReference(ctx context.Context, ref string) (*payment.Payment, error) {
	if m.LockByReferenceFunc != nil {
		return m.LockByReferenceFunc(ctx, ref)
	}
	return m.GetByReference(ctx, ref)
}

func (m *MockPaymentRepository) UpdateByReference(ctx context.Context, ref string, upd payment.Update) (*payment.Payment, error) {
	if m.UpdateByReferenceFunc != nil {
		return m.UpdateByReferenceFunc(ctx, ref, upd)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalls++
	p, ok := m.payments[ref]
	if !ok {
		return nil, domainErrors.ErrPaymentNotFound
	}
	if upd.Status != nil {
		p.Status = *upd.Status
	}
	if upd.ProviderName != nil {
		p.ProviderName = upd.ProviderName
	}
	if upd.ProviderTransactionID != nil {
		p.ProviderTransactionID = upd.ProviderTransactionID
	}
	p.UpdatedAt = time.Now()
	cp := *p
	return &cp, nil
}

func (m *MockPaymentRepository) List(ctx context.Context, filter payment.ListFilter) ([]*payment.Payment, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*payment.Payment
	for _, p := range m.payments {
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockPaymentRepository) ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]*payment.Payment, error) {
	if m.ListStalePendingFunc != nil {
		return m.ListStalePendingFunc(ctx, cutoff, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*payment.Payment
	for _, p := range m.payments {
		if p.Status == payment.StatusPending && p.UpdatedAt.Before(cutoff) {
			cp := *p
			out = append(out, &cp)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// Snapshot captures current state and returns a restore function.
func (m *MockPaymentRepository) Snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := make(map[string]*payment.Payment, len(m.payments))
	for k, v := range m.payments {
		cp := *v
		saved[k] = &cp
	}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.payments = saved
	}
}

// --- Webhook Repository Mock ---

// MockWebhookRepository is an in-memory implementation of payment.WebhookRepository.
type MockWebhookRepository struct {
	mu     sync.Mutex
	events map[string]*payment.WebhookEvent // keyed by payment reference

	MarkProcessedCalls int

	GetByPaymentReferenceFunc func(ctx context.Context, ref string) (*payment.WebhookEvent, error)
	MarkProcessedFunc         func(ctx context.Context, event *payment.WebhookEvent) error
}

func NewMockWebhookRepository() *MockWebhookRepository {
	return &MockWebhookRepository{events: make(map[string]*payment.WebhookEvent)}
}

// AddEvent pre-populates the mock with an event.
func (m *MockWebhookRepository) AddEvent(e *payment.WebhookEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[e.PaymentReferenceID] = e
}

// GetStored returns the stored event (test helper).
func (m *MockWebhookRepository) GetStored(ref string) *payment.WebhookEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events[ref]
}

func (m *MockWebhookRepository) GetByPaymentReference(ctx context.Context, ref string) (*payment.WebhookEvent, error) {
	if m.GetByPaymentReferenceFunc != nil {
		return m.GetByPaymentReferenceFunc(ctx, ref)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[ref]
	if !ok {
		return nil, domainErrors.ErrWebhookEventNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *MockWebhookRepository) MarkProcessed(ctx context.Context, event *payment.WebhookEvent) error {
	if m.MarkProcessedFunc != nil {
		return m.MarkProcessedFunc(ctx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MarkProcessedCalls++
	cp := *event
	cp.IsProcessed = true
	m.events[event.PaymentReferenceID] = &cp
	return nil
}

// Snapshot captures current state and returns a restore function.
func (m *MockWebhookRepository) Snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := make(map[string]*payment.WebhookEvent, len(m.events))
	for k, v := range m.events {
		cp := *v
		saved[k] = &cp
	}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.events = saved
	}
}

// --- Catalog Repository Mock ---

// MockCatalogRepository serves seeded reference data from memory.
type MockCatalogRepository struct {
	Currencies map[string]*catalog.Currency
	Methods    map[string]*catalog.PaymentMethod
}

func NewMockCatalogRepository() *MockCatalogRepository {
	return &MockCatalogRepository{
		Currencies: make(map[string]*catalog.Currency),
		Methods:    make(map[string]*catalog.PaymentMethod),
	}
}

func (m *MockCatalogRepository) GetCurrencyByName(ctx context.Context, name string) (*catalog.Currency, error) {
	c, ok := m.Currencies[name]
	if !ok {
		return nil, domainErrors.ErrCurrencyNotFound
	}
	return c, nil
}

func (m *MockCatalogRepository) GetPaymentMethodByName(ctx context.Context, name string) (*catalog.PaymentMethod, error) {
	pm, ok := m.Methods[name]
	if !ok {
		return nil, domainErrors.ErrPaymentMethodNotFound
	}
	return pm, nil
}

func (m *MockCatalogRepository) ListCurrencies(ctx context.Context) ([]*catalog.Currency, error) {
	out := make([]*catalog.Currency, 0, len(m.Currencies))
	for _, c := range m.Currencies {
		out = append(out, c)
	}
	return out, nil
}

func (m *MockCatalogRepository) ListPaymentMethods(ctx context.Context) ([]*catalog.PaymentMethod, error) {
	out := make([]*catalog.PaymentMethod, 0, len(m.Methods))
	for _, pm := range m.Methods {
		out = append(out, pm)
	}
	return out, nil
}

// --- Transaction Manager Mock ---

// Restorable is anything whose state can be snapshotted and rolled back.
type Restorable interface {
	Snapshot() func()
}

// MockTransactionManager runs the function directly but honors rollback
// semantics: when fn fails, every registered Restorable is reset to its
// pre-transaction state. That lets tests assert the both-or-neither
// guarantee of the combined webhook transaction.
type MockTransactionManager struct {
	restorables []Restorable

	WithTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func NewMockTransactionManager(restorables ...Restorable) *MockTransactionManager {
	return &MockTransactionManager{restorables: restorables}
}

func (m *MockTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.WithTransactionFunc != nil {
		return m.WithTransactionFunc(ctx, fn)
	}
	restores := make([]func(), 0, len(m.restorables))
	for _, r := range m.restorables {
		restores = append(restores, r.Snapshot())
	}
	if err := fn(ctx); err != nil {
		for _, restore := range restores {
			restore()
		}
		return err
	}
	return nil
}

// --- Locker Mock ---

// MockLocker implements single-acquisition lock semantics in memory.
type MockLocker struct {
	mu   sync.Mutex
	held map[string]bool

	AcquireFunc func(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error)
}

func NewMockLocker() *MockLocker {
	return &MockLocker{held: make(map[string]bool)}
}

func (m *MockLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	if m.AcquireFunc != nil {
		return m.AcquireFunc(ctx, key, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[key] {
		return nil, false, nil
	}
	m.held[key] = true
	release := func(context.Context) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.held, key)
		return nil
	}
	return release, true, nil
}

// Hold marks a key as held by someone else.
func (m *MockLocker) Hold(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.held[key] = true
}

// --- Provider Mock ---

// MockProvider is a deterministic providers.Provider for tests.
type MockProvider struct {
	ProviderName string

	InitiateCalls int

	InitiatePaymentFunc    func(ctx context.Context, req providers.InitiateRequest) (*providers.Result, error)
	CheckPaymentStatusFunc func(ctx context.Context, providerTxID string) (*providers.Result, error)
}

func (m *MockProvider) Name() string { return m.ProviderName }

func (m *MockProvider) InitiatePayment(ctx context.Context, req providers.InitiateRequest) (*providers.Result, error) {
	m.InitiateCalls++
	if m.InitiatePaymentFunc != nil {
		return m.InitiatePaymentFunc(ctx, req)
	}
	return &providers.Result{
		ProviderTransactionID: "TXN1",
		Status:                payment.StatusPending,
	}, nil
}

func (m *MockProvider) CheckPaymentStatus(ctx context.Context, providerTxID string) (*providers.Result, error) {
	if m.CheckPaymentStatusFunc != nil {
		return m.CheckPaymentStatusFunc(ctx, providerTxID)
	}
	return &providers.Result{
		ProviderTransactionID: providerTxID,
		Status:                payment.StatusSuccess,
	}, nil
}
