package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/subforge/renewals/internal/clock"
	"github.com/subforge/renewals/internal/config"
	"github.com/subforge/renewals/internal/gateway"
	orderdomain "github.com/subforge/renewals/internal/order/domain"
	paymentdomain "github.com/subforge/renewals/internal/payment/domain"
	subscriptiondomain "github.com/subforge/renewals/internal/subscription/domain"
	subscriptionservice "github.com/subforge/renewals/internal/subscription/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Manual mocks. The subscription service under the payment processor is the
// real implementation backed by in-memory stores, so these tests exercise the
// full webhook -> lifecycle flow.

type mockSubRepo struct {
	subscriptions map[string]*subscriptiondomain.Subscription
	notes         []subscriptiondomain.SubscriptionNote

	// lifecycleErr fails the next UpdateLifecycle call, then clears.
	lifecycleErr error
}

func (m *mockSubRepo) Insert(ctx context.Context, db *gorm.DB, s *subscriptiondomain.Subscription) error {
	copied := *s
	m.subscriptions[s.ID.String()] = &copied
	return nil
}
func (m *mockSubRepo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*subscriptiondomain.Subscription, error) {
	if s, ok := m.subscriptions[id.String()]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, nil
}
func (m *mockSubRepo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*subscriptiondomain.Subscription, error) {
	return m.FindByID(ctx, db, id)
}
func (m *mockSubRepo) FindByProfileID(ctx context.Context, db *gorm.DB, gatewayID, profileID string) (*subscriptiondomain.Subscription, error) {
	for _, s := range m.subscriptions {
		if s.Gateway == gatewayID && s.ProfileID == profileID {
			copied := *s
			return &copied, nil
		}
	}
	return nil, nil
}
func (m *mockSubRepo) UpdateLifecycle(ctx context.Context, db *gorm.DB, s *subscriptiondomain.Subscription) error {
	if m.lifecycleErr != nil {
		err := m.lifecycleErr
		m.lifecycleErr = nil
		return err
	}
	copied := *s
	m.subscriptions[s.ID.String()] = &copied
	return nil
}
func (m *mockSubRepo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	delete(m.subscriptions, id.String())
	return nil
}
func (m *mockSubRepo) InsertNote(ctx context.Context, db *gorm.DB, note *subscriptiondomain.SubscriptionNote) error {
	m.notes = append(m.notes, *note)
	return nil
}
func (m *mockSubRepo) ListNotes(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID) ([]subscriptiondomain.SubscriptionNote, error) {
	var out []subscriptiondomain.SubscriptionNote
	for _, n := range m.notes {
		if n.SubscriptionID == subscriptionID {
			out = append(out, n)
		}
	}
	return out, nil
}
func (m *mockSubRepo) ClaimDueForRenewal(ctx context.Context, db *gorm.DB, now, staleBefore time.Time, limit int) ([]subscriptiondomain.Subscription, error) {
	return nil, nil
}
func (m *mockSubRepo) FindOverdueFailing(ctx context.Context, db *gorm.DB, before time.Time, limit int) ([]subscriptiondomain.Subscription, error) {
	return nil, nil
}
func (m *mockSubRepo) FindCapReachedActive(ctx context.Context, db *gorm.DB, limit int) ([]subscriptiondomain.Subscription, error) {
	return nil, nil
}

type mockOrderService struct {
	orders map[snowflake.ID]*orderdomain.Order
}

func (m *mockOrderService) Create(ctx context.Context, order *orderdomain.Order) error {
	copied := *order
	m.orders[order.ID] = &copied
	return nil
}
func (m *mockOrderService) GetByID(ctx context.Context, id snowflake.ID) (orderdomain.Order, error) {
	if o, ok := m.orders[id]; ok {
		return *o, nil
	}
	return orderdomain.Order{}, orderdomain.ErrOrderNotFound
}
func (m *mockOrderService) MarkStatus(ctx context.Context, id snowflake.ID, status orderdomain.OrderStatus) error {
	if o, ok := m.orders[id]; ok {
		o.Status = status
		return nil
	}
	return orderdomain.ErrOrderNotFound
}
func (m *mockOrderService) SetTransactionID(ctx context.Context, id snowflake.ID, transactionID string) error {
	if o, ok := m.orders[id]; ok {
		o.TransactionID = transactionID
		return nil
	}
	return orderdomain.ErrOrderNotFound
}
func (m *mockOrderService) FindRenewalByTransactionID(ctx context.Context, subscriptionID snowflake.ID, transactionID string) (*orderdomain.Order, error) {
	for _, o := range m.orders {
		if o.Kind == orderdomain.OrderKindRenewal && o.SubscriptionID != nil && *o.SubscriptionID == subscriptionID && o.TransactionID == transactionID {
			copied := *o
			return &copied, nil
		}
	}
	return nil, nil
}
func (m *mockOrderService) ListRenewals(ctx context.Context, subscriptionID snowflake.ID) ([]orderdomain.Order, error) {
	var out []orderdomain.Order
	for _, o := range m.orders {
		if o.Kind == orderdomain.OrderKindRenewal && o.SubscriptionID != nil && *o.SubscriptionID == subscriptionID {
			out = append(out, *o)
		}
	}
	return out, nil
}
func (m *mockOrderService) CountCompletedRenewals(ctx context.Context, subscriptionID snowflake.ID) (int64, error) {
	var count int64
	for _, o := range m.orders {
		if o.Kind == orderdomain.OrderKindRenewal && o.SubscriptionID != nil && *o.SubscriptionID == subscriptionID && o.Status == orderdomain.OrderStatusComplete {
			count++
		}
	}
	return count, nil
}
func (m *mockOrderService) DetachSubscription(ctx context.Context, subscriptionID snowflake.ID) error {
	return nil
}

type mockEventRepo struct {
	records map[string]*paymentdomain.EventRecord
}

func (m *mockEventRepo) InsertEvent(ctx context.Context, db *gorm.DB, record *paymentdomain.EventRecord) (bool, error) {
	key := record.Gateway + "/" + record.EventID
	if _, ok := m.records[key]; ok {
		return true, nil
	}
	copied := *record
	m.records[key] = &copied
	return false, nil
}
func (m *mockEventRepo) FindEvent(ctx context.Context, db *gorm.DB, gatewayID, eventID string) (*paymentdomain.EventRecord, error) {
	if r, ok := m.records[gatewayID+"/"+eventID]; ok {
		copied := *r
		return &copied, nil
	}
	return nil, nil
}
func (m *mockEventRepo) MarkProcessed(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	for _, r := range m.records {
		if r.ID == id {
			r.Processed = true
		}
	}
	return nil
}

type fixture struct {
	svc    paymentdomain.Service
	subs   *mockSubRepo
	orders *mockOrderService
	events *mockEventRepo
	node   *snowflake.Node
	clock  *clock.FakeClock
}

func setup(t *testing.T) *fixture {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	node, _ := snowflake.NewNode(1)
	subs := &mockSubRepo{subscriptions: make(map[string]*subscriptiondomain.Subscription)}
	orders := &mockOrderService{orders: make(map[snowflake.ID]*orderdomain.Order)}
	events := &mockEventRepo{records: make(map[string]*paymentdomain.EventRecord)}
	fakeTime := clock.NewFakeClock(time.Date(2024, 2, 3, 10, 0, 0, 0, time.UTC))

	subsvc := subscriptionservice.NewService(subscriptionservice.ServiceParam{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    fakeTime,
		Cfg:      config.Config{GatewayCancelTimeout: time.Second},
		StoreCfg: config.NewStaticStoreConfigHolder(config.DefaultStoreConfig()),
		Repo:     subs,
		Ordersvc: orders,
		Gateways: gateway.NewRegistry(gateway.NewManualGateway()),
	})

	svc := NewService(ServiceParam{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    fakeTime,
		Repo:     events,
		Subsvc:   subsvc,
		Ordersvc: orders,
	})

	return &fixture{svc: svc, subs: subs, orders: orders, events: events, node: node, clock: fakeTime}
}

// seed creates a subscription with its parent order in the mock stores.
func (f *fixture) seed(status subscriptiondomain.SubscriptionStatus, billTimes int, createdAt time.Time) *subscriptiondomain.Subscription {
	parentID := f.node.Generate()
	customerID := f.node.Generate()

	f.orders.orders[parentID] = &orderdomain.Order{
		ID:         parentID,
		CustomerID: customerID,
		Kind:       orderdomain.OrderKindParent,
		Total:      2000,
		Currency:   "USD",
		Gateway:    "stripe",
		Status:     orderdomain.OrderStatusPending,
		CreatedAt:  createdAt,
	}

	sub := &subscriptiondomain.Subscription{
		ID:              f.node.Generate(),
		CustomerID:      customerID,
		ParentOrderID:   parentID,
		ProductID:       f.node.Generate(),
		Period:          subscriptiondomain.PeriodMonth,
		Frequency:       1,
		BillTimes:       billTimes,
		InitialAmount:   2000,
		RecurringAmount: 2000,
		Currency:        "USD",
		Gateway:         "stripe",
		ProfileID:       "sub_123",
		Status:          status,
		Expiration:      time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		CreatedAt:       createdAt,
		UpdatedAt:       createdAt,
	}
	f.subs.subscriptions[sub.ID.String()] = sub
	return sub
}

func renewalEvent(eventID, txn string) paymentdomain.Event {
	return paymentdomain.Event{
		Gateway:          "stripe",
		EventID:          eventID,
		Type:             paymentdomain.EventTypePaymentCompleted,
		ProfileID:        "sub_123",
		TransactionID:    txn,
		TransactionState: paymentdomain.TransactionStateCompleted,
		Amount:           2000,
		Currency:         "USD",
		OccurredAt:       time.Date(2024, 2, 3, 10, 0, 0, 0, time.UTC),
	}
}

func TestRenewalCompletedAdvancesSubscription(t *testing.T) {
	f := setup(t)
	// Created weeks ago, so the completed payment classifies as a renewal.
	sub := f.seed(subscriptiondomain.SubscriptionStatusActive, 3, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	// One renewal already done (1 of 3).
	firstID := f.node.Generate()
	f.orders.orders[firstID] = &orderdomain.Order{
		ID:             firstID,
		SubscriptionID: &sub.ID,
		Kind:           orderdomain.OrderKindRenewal,
		Total:          2000,
		Currency:       "USD",
		TransactionID:  "txn_prev",
		Status:         orderdomain.OrderStatusComplete,
	}

	result, err := f.svc.Process(context.Background(), renewalEvent("evt_1", "txn_new"))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if result.Outcome != paymentdomain.OutcomeProcessed {
		t.Fatalf("expected processed, got %s (%s)", result.Outcome, result.Detail)
	}

	current := f.subs.subscriptions[sub.ID.String()]
	want := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
	if !current.Expiration.Equal(want) {
		t.Errorf("expected expiration %v, got %v", want, current.Expiration)
	}
	// 2 of 3 renewals done; still active.
	if current.Status != subscriptiondomain.SubscriptionStatusActive {
		t.Errorf("expected active, got %s", current.Status)
	}

	renewals, _ := f.orders.ListRenewals(context.Background(), sub.ID)
	if len(renewals) != 2 {
		t.Errorf("expected 2 renewal orders, got %d", len(renewals))
	}
}

func TestRenewalCompletesAtBillTimes(t *testing.T) {
	f := setup(t)
	sub := f.seed(subscriptiondomain.SubscriptionStatusActive, 3, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	for _, txn := range []string{"txn_1", "txn_2"} {
		id := f.node.Generate()
		f.orders.orders[id] = &orderdomain.Order{
			ID:             id,
			SubscriptionID: &sub.ID,
			Kind:           orderdomain.OrderKindRenewal,
			Total:          2000,
			Currency:       "USD",
			TransactionID:  txn,
			Status:         orderdomain.OrderStatusComplete,
		}
	}

	result, err := f.svc.Process(context.Background(), renewalEvent("evt_final", "txn_3"))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if result.Outcome != paymentdomain.OutcomeProcessed {
		t.Fatalf("expected processed, got %s", result.Outcome)
	}

	current := f.subs.subscriptions[sub.ID.String()]
	if current.Status != subscriptiondomain.SubscriptionStatusCompleted {
		t.Errorf("expected completed after third renewal, got %s", current.Status)
	}
}

func TestDuplicateEventIgnored(t *testing.T) {
	f := setup(t)
	sub := f.seed(subscriptiondomain.SubscriptionStatusActive, 0, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	event := renewalEvent("evt_dup", "txn_once")
	if _, err := f.svc.Process(context.Background(), event); err != nil {
		t.Fatalf("first delivery failed: %v", err)
	}

	result, err := f.svc.Process(context.Background(), event)
	if err != nil {
		t.Fatalf("second delivery failed: %v", err)
	}
	if result.Outcome != paymentdomain.OutcomeIgnored {
		t.Errorf("expected ignored, got %s", result.Outcome)
	}

	renewals, _ := f.orders.ListRenewals(context.Background(), sub.ID)
	if len(renewals) != 1 {
		t.Errorf("duplicate delivery must not double-create orders, got %d", len(renewals))
	}

	current := f.subs.subscriptions[sub.ID.String()]
	want := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
	if !current.Expiration.Equal(want) {
		t.Errorf("duplicate delivery must not double-advance, got %v", current.Expiration)
	}
}

func TestRedeliveryAfterInfrastructureError(t *testing.T) {
	f := setup(t)
	sub := f.seed(subscriptiondomain.SubscriptionStatusActive, 0, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	// First delivery dies mid-renewal on a store error, after the renewal
	// order was written but before the lifecycle advance committed.
	f.subs.lifecycleErr = errors.New("connection reset by peer")
	if _, err := f.svc.Process(context.Background(), renewalEvent("evt_retry", "txn_retry")); err == nil {
		t.Fatal("expected first delivery to fail")
	}

	current := f.subs.subscriptions[sub.ID.String()]
	if !current.Expiration.Equal(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expiration must not advance on the failed attempt, got %v", current.Expiration)
	}

	// The gateway redelivers the same event. It must be re-applied, not
	// answered as a duplicate.
	result, err := f.svc.Process(context.Background(), renewalEvent("evt_retry", "txn_retry"))
	if err != nil {
		t.Fatalf("redelivery failed: %v", err)
	}
	if result.Outcome != paymentdomain.OutcomeProcessed {
		t.Fatalf("expected processed on redelivery, got %s (%s)", result.Outcome, result.Detail)
	}

	current = f.subs.subscriptions[sub.ID.String()]
	want := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
	if !current.Expiration.Equal(want) {
		t.Errorf("expected expiration %v after redelivery, got %v", want, current.Expiration)
	}

	renewals, _ := f.orders.ListRenewals(context.Background(), sub.ID)
	if len(renewals) != 1 {
		t.Errorf("expected exactly 1 renewal order across deliveries, got %d", len(renewals))
	}

	record := f.events.records["stripe/evt_retry"]
	if record == nil || !record.Processed {
		t.Error("event record must be marked processed after the successful redelivery")
	}

	// A third delivery is now a plain duplicate.
	result, err = f.svc.Process(context.Background(), renewalEvent("evt_retry", "txn_retry"))
	if err != nil {
		t.Fatalf("third delivery failed: %v", err)
	}
	if result.Outcome != paymentdomain.OutcomeIgnored {
		t.Errorf("expected ignored after successful redelivery, got %s", result.Outcome)
	}
}

func TestSameTransactionDifferentEventIgnored(t *testing.T) {
	f := setup(t)
	sub := f.seed(subscriptiondomain.SubscriptionStatusActive, 0, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	if _, err := f.svc.Process(context.Background(), renewalEvent("evt_a", "txn_same")); err != nil {
		t.Fatalf("first delivery failed: %v", err)
	}
	result, err := f.svc.Process(context.Background(), renewalEvent("evt_b", "txn_same"))
	if err != nil {
		t.Fatalf("second delivery failed: %v", err)
	}
	if result.Outcome != paymentdomain.OutcomeIgnored {
		t.Errorf("expected ignored on replayed transaction, got %s", result.Outcome)
	}

	renewals, _ := f.orders.ListRenewals(context.Background(), sub.ID)
	if len(renewals) != 1 {
		t.Errorf("expected 1 renewal order, got %d", len(renewals))
	}
}

func TestRenewalCurrencyMismatch(t *testing.T) {
	f := setup(t)
	sub := f.seed(subscriptiondomain.SubscriptionStatusActive, 0, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	event := renewalEvent("evt_eur", "txn_eur")
	event.Currency = "EUR"

	result, err := f.svc.Process(context.Background(), event)
	var validationErr *paymentdomain.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if result.Outcome != paymentdomain.OutcomeSoftFailed {
		t.Errorf("expected soft failure, got %s", result.Outcome)
	}

	// Mismatch is noted before the error propagates.
	if len(f.subs.notes) != 1 {
		t.Errorf("expected audit note, got %d", len(f.subs.notes))
	}

	current := f.subs.subscriptions[sub.ID.String()]
	if !current.Expiration.Equal(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)) {
		t.Error("mismatched event must not advance the subscription")
	}
}

func TestFailedEventMarksFailing(t *testing.T) {
	f := setup(t)
	sub := f.seed(subscriptiondomain.SubscriptionStatusActive, 0, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	result, err := f.svc.Process(context.Background(), paymentdomain.Event{
		Gateway:   "stripe",
		EventID:   "evt_failed",
		Type:      paymentdomain.EventTypePaymentFailed,
		ProfileID: "sub_123",
		Reason:    "card_declined",
	})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if result.Outcome != paymentdomain.OutcomeProcessed {
		t.Errorf("expected processed, got %s", result.Outcome)
	}

	current := f.subs.subscriptions[sub.ID.String()]
	if current.Status != subscriptiondomain.SubscriptionStatusFailing {
		t.Errorf("expected failing, got %s", current.Status)
	}
	if len(f.subs.notes) != 1 {
		t.Errorf("expected failure note, got %d", len(f.subs.notes))
	}
}

func TestUnknownProfileSoftFails(t *testing.T) {
	f := setup(t)

	result, err := f.svc.Process(context.Background(), renewalEvent("evt_orphan", "txn_orphan"))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if result.Outcome != paymentdomain.OutcomeSoftFailed {
		t.Errorf("expected soft failure for unknown profile, got %s", result.Outcome)
	}
}

func TestInitialPaymentActivates(t *testing.T) {
	f := setup(t)
	// Created within the classification window of the event.
	sub := f.seed(subscriptiondomain.SubscriptionStatusPending, 0, time.Date(2024, 2, 3, 9, 0, 0, 0, time.UTC))

	result, err := f.svc.Process(context.Background(), renewalEvent("evt_init", "txn_init"))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if result.Outcome != paymentdomain.OutcomeProcessed {
		t.Fatalf("expected processed, got %s (%s)", result.Outcome, result.Detail)
	}

	current := f.subs.subscriptions[sub.ID.String()]
	if current.Status != subscriptiondomain.SubscriptionStatusActive {
		t.Errorf("expected active after initial payment, got %s", current.Status)
	}
	// Initial payment must not advance the renewal calendar.
	if !current.Expiration.Equal(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("initial payment must not advance expiration, got %v", current.Expiration)
	}

	parent := f.orders.orders[sub.ParentOrderID]
	if parent.Status != orderdomain.OrderStatusComplete {
		t.Errorf("expected parent order complete, got %s", parent.Status)
	}
	if parent.TransactionID != "txn_init" {
		t.Errorf("expected transaction recorded, got %q", parent.TransactionID)
	}
}

func TestInitialPaymentAmountMismatch(t *testing.T) {
	f := setup(t)
	sub := f.seed(subscriptiondomain.SubscriptionStatusPending, 0, time.Date(2024, 2, 3, 9, 0, 0, 0, time.UTC))

	// 19.99 paid against a 20.00 order.
	event := renewalEvent("evt_short", "txn_short")
	event.Amount = 1999

	result, err := f.svc.Process(context.Background(), event)
	var validationErr *paymentdomain.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if result.Outcome != paymentdomain.OutcomeSoftFailed {
		t.Errorf("expected soft failure, got %s", result.Outcome)
	}

	parent := f.orders.orders[sub.ParentOrderID]
	if parent.Status != orderdomain.OrderStatusFailed {
		t.Errorf("expected parent order failed, got %s", parent.Status)
	}
	if len(f.subs.notes) != 1 {
		t.Errorf("expected mismatch note, got %d", len(f.subs.notes))
	}
}

func TestInitialPaymentDeclined(t *testing.T) {
	f := setup(t)
	sub := f.seed(subscriptiondomain.SubscriptionStatusTrialling, 0, time.Date(2024, 2, 3, 9, 0, 0, 0, time.UTC))

	event := renewalEvent("evt_decl", "txn_decl")
	event.TransactionState = paymentdomain.TransactionStateDeclined
	event.Reason = "insufficient_funds"

	result, err := f.svc.Process(context.Background(), event)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if result.Outcome != paymentdomain.OutcomeProcessed {
		t.Errorf("expected processed, got %s", result.Outcome)
	}

	parent := f.orders.orders[sub.ParentOrderID]
	if parent.Status != orderdomain.OrderStatusFailed {
		t.Errorf("expected parent order failed, got %s", parent.Status)
	}
	current := f.subs.subscriptions[sub.ID.String()]
	if current.Status != subscriptiondomain.SubscriptionStatusFailing {
		t.Errorf("expected failing, got %s", current.Status)
	}
}

func TestInitialPaymentPending(t *testing.T) {
	f := setup(t)
	sub := f.seed(subscriptiondomain.SubscriptionStatusPending, 0, time.Date(2024, 2, 3, 9, 0, 0, 0, time.UTC))

	event := renewalEvent("evt_pend", "txn_pend")
	event.TransactionState = paymentdomain.TransactionStatePending
	event.Reason = "echeck_clearing"

	if _, err := f.svc.Process(context.Background(), event); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	parent := f.orders.orders[sub.ParentOrderID]
	if parent.Status != orderdomain.OrderStatusProcessing {
		t.Errorf("expected parent order processing, got %s", parent.Status)
	}
	current := f.subs.subscriptions[sub.ID.String()]
	if current.Status != subscriptiondomain.SubscriptionStatusPending {
		t.Errorf("pending payment must not activate, got %s", current.Status)
	}
}

func TestUnexpectedStateSoftFails(t *testing.T) {
	f := setup(t)
	f.seed(subscriptiondomain.SubscriptionStatusActive, 0, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	event := renewalEvent("evt_odd", "txn_odd")
	event.TransactionState = "chargeback"

	result, err := f.svc.Process(context.Background(), event)
	if !errors.Is(err, paymentdomain.ErrUnexpectedGatewayState) {
		t.Fatalf("expected ErrUnexpectedGatewayState, got %v", err)
	}
	if result.Outcome != paymentdomain.OutcomeSoftFailed {
		t.Errorf("expected soft failure, got %s", result.Outcome)
	}
}
