package services_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"lojinha/internal/models/db_models"
	"lojinha/internal/services"
)

// memDB is a shared in-memory backing store for the repository fakes, guarded
// by one mutex so tests can hit it from many goroutines.
type memDB struct {
	mu sync.Mutex

	plans    map[uuid.UUID]db_models.Plan
	stores   map[uuid.UUID]db_models.Store
	subs     map[uuid.UUID]db_models.Subscription
	payments map[uuid.UUID]db_models.Payment
	events   []db_models.PaymentEvent

	// activations counts pending->active subscription transitions, the side
	// effect that must happen at most once per payment.
	activations int
	openWrites  int
}

func newMemDB() *memDB {
	return &memDB{
		plans:    make(map[uuid.UUID]db_models.Plan),
		stores:   make(map[uuid.UUID]db_models.Store),
		subs:     make(map[uuid.UUID]db_models.Subscription),
		payments: make(map[uuid.UUID]db_models.Payment),
	}
}

func (m *memDB) addPlan(plan db_models.Plan) db_models.Plan {
	m.mu.Lock()
	defer m.mu.Unlock()
	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}
	m.plans[plan.ID] = plan
	return plan
}

func (m *memDB) addStore(store db_models.Store) db_models.Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	if store.ID == uuid.Nil {
		store.ID = uuid.New()
	}
	m.stores[store.ID] = store
	return store
}

func (m *memDB) addSubscription(sub db_models.Subscription) db_models.Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	if sub.CreatedAt == 0 {
		sub.CreatedAt = time.Now().Unix()
	}
	m.subs[sub.ID] = sub
	return sub
}

func (m *memDB) addPayment(payment db_models.Payment) db_models.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	if payment.CreatedAt == 0 {
		payment.CreatedAt = time.Now().Unix()
	}
	m.payments[payment.ID] = payment
	return payment
}

func (m *memDB) store(id uuid.UUID) db_models.Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stores[id]
}

func (m *memDB) subscription(id uuid.UUID) db_models.Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subs[id]
}

func (m *memDB) payment(id uuid.UUID) db_models.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.payments[id]
}

// --- plan repository fake ---

type fakePlanRepo struct{ db *memDB }

func (f *fakePlanRepo) GetByID(ctx context.Context, planID uuid.UUID) (*db_models.Plan, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if plan, ok := f.db.plans[planID]; ok {
		return &plan, nil
	}
	return nil, nil
}

func (f *fakePlanRepo) GetByName(ctx context.Context, name string) (*db_models.Plan, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, plan := range f.db.plans {
		if plan.Name == name {
			return &plan, nil
		}
	}
	return nil, nil
}

func (f *fakePlanRepo) ListEnabled(ctx context.Context) ([]db_models.Plan, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []db_models.Plan
	for _, plan := range f.db.plans {
		if plan.Enabled {
			out = append(out, plan)
		}
	}
	return out, nil
}

// --- store repository fake ---

type fakeStoreRepo struct{ db *memDB }

func (f *fakeStoreRepo) GetByID(ctx context.Context, storeID uuid.UUID) (*db_models.Store, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if store, ok := f.db.stores[storeID]; ok {
		return &store, nil
	}
	return nil, nil
}

// GetByIDForUpdate reads like GetByID; the fake transactor already serializes
// the sections that would hold the row lock.
func (f *fakeStoreRepo) GetByIDForUpdate(ctx context.Context, storeID uuid.UUID) (*db_models.Store, error) {
	return f.GetByID(ctx, storeID)
}

func (f *fakeStoreRepo) GetBySlug(ctx context.Context, slug string) (*db_models.Store, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, store := range f.db.stores {
		if store.Slug == slug {
			return &store, nil
		}
	}
	return nil, nil
}

func (f *fakeStoreRepo) SetOpen(ctx context.Context, storeID uuid.UUID, open bool) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	store := f.db.stores[storeID]
	store.Open = open
	f.db.stores[storeID] = store
	f.db.openWrites++
	return nil
}

// --- subscription repository fake ---

type fakeSubscriptionRepo struct{ db *memDB }

func (f *fakeSubscriptionRepo) withRelations(sub db_models.Subscription) db_models.Subscription {
	sub.Plan = f.db.plans[sub.PlanID]
	sub.Store = f.db.stores[sub.StoreID]
	return sub
}

func (f *fakeSubscriptionRepo) GetByID(ctx context.Context, id uuid.UUID) (*db_models.Subscription, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if sub, ok := f.db.subs[id]; ok {
		sub = f.withRelations(sub)
		return &sub, nil
	}
	return nil, nil
}

func (f *fakeSubscriptionRepo) GetCurrentByStore(ctx context.Context, storeID uuid.UUID) (*db_models.Subscription, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var current *db_models.Subscription
	for _, sub := range f.db.subs {
		if sub.StoreID != storeID {
			continue
		}
		if current == nil || sub.EndsAt > current.EndsAt {
			s := sub
			current = &s
		}
	}
	if current == nil {
		return nil, nil
	}
	withRel := f.withRelations(*current)
	return &withRel, nil
}

func (f *fakeSubscriptionRepo) Create(ctx context.Context, sub *db_models.Subscription) error {
	*sub = f.db.addSubscription(*sub)
	return nil
}

func (f *fakeSubscriptionRepo) Update(ctx context.Context, sub *db_models.Subscription) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	stored := f.db.subs[sub.ID]
	if stored.Status != db_models.SubStatusActive && sub.Status == db_models.SubStatusActive {
		f.db.activations++
	}
	stored.PlanID = sub.PlanID
	stored.Status = sub.Status
	stored.StartsAt = sub.StartsAt
	stored.EndsAt = sub.EndsAt
	stored.AutoRenew = sub.AutoRenew
	stored.ReminderStage = sub.ReminderStage
	f.db.subs[sub.ID] = stored
	return nil
}

func (f *fakeSubscriptionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status db_models.SubscriptionStatus) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	sub := f.db.subs[id]
	sub.Status = status
	f.db.subs[id] = sub
	return nil
}

func (f *fakeSubscriptionRepo) UpdateReminderStage(ctx context.Context, id uuid.UUID, stage int) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	sub := f.db.subs[id]
	sub.ReminderStage = stage
	f.db.subs[id] = sub
	return nil
}

func (f *fakeSubscriptionRepo) ListAll(ctx context.Context) ([]db_models.Subscription, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []db_models.Subscription
	for _, sub := range f.db.subs {
		out = append(out, f.withRelations(sub))
	}
	return out, nil
}

// --- payment repository fake ---

type fakePaymentRepo struct{ db *memDB }

func (f *fakePaymentRepo) Create(ctx context.Context, payment *db_models.Payment) error {
	*payment = f.db.addPayment(*payment)
	return nil
}

func (f *fakePaymentRepo) GetByID(ctx context.Context, id uuid.UUID) (*db_models.Payment, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if payment, ok := f.db.payments[id]; ok {
		payment.Subscription = f.db.subs[payment.SubscriptionID]
		payment.Subscription.Plan = f.db.plans[payment.Subscription.PlanID]
		return &payment, nil
	}
	return nil, nil
}

func (f *fakePaymentRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*db_models.Payment, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if payment, ok := f.db.payments[id]; ok {
		return &payment, nil
	}
	return nil, nil
}

func (f *fakePaymentRepo) GetPendingByStore(ctx context.Context, storeID uuid.UUID) (*db_models.Payment, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var latest *db_models.Payment
	for _, payment := range f.db.payments {
		if payment.StoreID != storeID || payment.Status != db_models.PaymentStatusPending {
			continue
		}
		if latest == nil || payment.CreatedAt > latest.CreatedAt {
			p := payment
			latest = &p
		}
	}
	return latest, nil
}

func (f *fakePaymentRepo) CountByStoreSince(ctx context.Context, storeID uuid.UUID, since int64) (int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var count int64
	for _, payment := range f.db.payments {
		if payment.StoreID == storeID && payment.CreatedAt >= since {
			count++
		}
	}
	return count, nil
}

func (f *fakePaymentRepo) Update(ctx context.Context, payment *db_models.Payment) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	stored := *payment
	stored.Subscription = db_models.Subscription{}
	f.db.payments[payment.ID] = stored
	return nil
}

func (f *fakePaymentRepo) UpdateArtifacts(ctx context.Context, payment *db_models.Payment) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	stored := f.db.payments[payment.ID]
	stored.Provider = payment.Provider
	stored.ProviderPaymentID = payment.ProviderPaymentID
	stored.QRCodeBase64 = payment.QRCodeBase64
	stored.QRCodeText = payment.QRCodeText
	stored.PaymentLink = payment.PaymentLink
	f.db.payments[payment.ID] = stored
	return nil
}

func (f *fakePaymentRepo) MarkFailed(ctx context.Context, id uuid.UUID) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	payment := f.db.payments[id]
	if payment.Status == db_models.PaymentStatusPending {
		payment.Status = db_models.PaymentStatusFailed
		f.db.payments[id] = payment
	}
	return nil
}

func (f *fakePaymentRepo) AppendEvent(ctx context.Context, event *db_models.PaymentEvent) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	f.db.events = append(f.db.events, *event)
	return nil
}

// --- transactor fake ---

// fakeTransactor serializes all transactional sections with one mutex,
// standing in for the row lock the real repository takes.
type fakeTransactor struct {
	mu sync.Mutex
}

type fakeTxKey struct{}

func (f *fakeTransactor) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(fakeTxKey{}) != nil {
		return fn(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return fn(context.WithValue(ctx, fakeTxKey{}, struct{}{}))
}

// --- mail fake ---

type sentMail struct {
	To            string
	StoreSlug     string
	DaysRemaining int
	Activation    bool
}

type fakeMail struct {
	mu       sync.Mutex
	sent     []sentMail
	failNext error
}

func (f *fakeMail) SendActivationEmail(to, storeSlug string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return err
	}
	f.sent = append(f.sent, sentMail{To: to, StoreSlug: storeSlug, Activation: true})
	return nil
}

func (f *fakeMail) SendSubscriptionReminder(to, storeName, storeSlug string, daysRemaining int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return err
	}
	f.sent = append(f.sent, sentMail{To: to, StoreSlug: storeSlug, DaysRemaining: daysRemaining})
	return nil
}

func (f *fakeMail) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

// --- gateway fake ---

type fakeGateway struct {
	mu          sync.Mutex
	createOut   *services.GatewayPayment
	createErr   error
	getOut      map[string]interface{}
	getErr      error
	createCalls int
}

func (f *fakeGateway) Name() string { return "mercadopago" }

func (f *fakeGateway) CreatePayment(ctx context.Context, req services.GatewayCreateRequest) (*services.GatewayPayment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	return f.createOut, f.createErr
}

func (f *fakeGateway) GetPayment(ctx context.Context, providerPaymentID string) (map[string]interface{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getOut, f.getErr
}
