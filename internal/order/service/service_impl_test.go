package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/subforge/renewals/internal/clock"
	orderdomain "github.com/subforge/renewals/internal/order/domain"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type mockRepository struct {
	orders map[snowflake.ID]*orderdomain.Order

	statusUpdates int
}

func newMockRepository() *mockRepository {
	return &mockRepository{orders: make(map[snowflake.ID]*orderdomain.Order)}
}

func (m *mockRepository) Insert(ctx context.Context, db *gorm.DB, order *orderdomain.Order) error {
	cp := *order
	m.orders[order.ID] = &cp
	return nil
}

func (m *mockRepository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*orderdomain.Order, error) {
	order, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *order
	return &cp, nil
}

func (m *mockRepository) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status orderdomain.OrderStatus) error {
	m.statusUpdates++
	if order, ok := m.orders[id]; ok {
		order.Status = status
	}
	return nil
}

func (m *mockRepository) UpdateTransactionID(ctx context.Context, db *gorm.DB, id snowflake.ID, transactionID string) error {
	if order, ok := m.orders[id]; ok {
		order.TransactionID = transactionID
	}
	return nil
}

func (m *mockRepository) FindRenewalByTransactionID(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID, transactionID string) (*orderdomain.Order, error) {
	for _, order := range m.orders {
		if order.Kind != orderdomain.OrderKindRenewal || order.SubscriptionID == nil {
			continue
		}
		if *order.SubscriptionID == subscriptionID && order.TransactionID == transactionID {
			cp := *order
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockRepository) ListRenewals(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID) ([]orderdomain.Order, error) {
	var out []orderdomain.Order
	for _, order := range m.orders {
		if order.Kind == orderdomain.OrderKindRenewal && order.SubscriptionID != nil && *order.SubscriptionID == subscriptionID {
			out = append(out, *order)
		}
	}
	return out, nil
}

func (m *mockRepository) CountRenewals(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID, status orderdomain.OrderStatus) (int64, error) {
	var count int64
	for _, order := range m.orders {
		if order.Kind == orderdomain.OrderKindRenewal && order.SubscriptionID != nil && *order.SubscriptionID == subscriptionID && order.Status == status {
			count++
		}
	}
	return count, nil
}

func (m *mockRepository) ClearSubscription(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID) error {
	for _, order := range m.orders {
		if order.SubscriptionID != nil && *order.SubscriptionID == subscriptionID {
			order.SubscriptionID = nil
		}
	}
	return nil
}

var node, _ = snowflake.NewNode(1)

var testTime = time.Date(2024, 2, 3, 10, 0, 0, 0, time.UTC)

func newService(t *testing.T, repo orderdomain.Repository) orderdomain.Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	return NewService(Params{DB: db, Log: zap.NewNop(), Clock: clock.NewFakeClock(testTime), Repo: repo})
}

func renewalOrder(subscriptionID snowflake.ID, status orderdomain.OrderStatus, txn string) *orderdomain.Order {
	subID := subscriptionID
	return &orderdomain.Order{
		ID:             node.Generate(),
		CustomerID:     node.Generate(),
		SubscriptionID: &subID,
		Kind:           orderdomain.OrderKindRenewal,
		Total:          2000,
		Currency:       "USD",
		Gateway:        "stripe",
		TransactionID:  txn,
		Status:         status,
		CreatedAt:      time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateValidation(t *testing.T) {
	repo := newMockRepository()
	svc := newService(t, repo)
	ctx := context.Background()

	err := svc.Create(ctx, nil)
	require.ErrorIs(t, err, orderdomain.ErrInvalidOrder)

	err = svc.Create(ctx, &orderdomain.Order{
		ID:         node.Generate(),
		CustomerID: node.Generate(),
		Kind:       orderdomain.OrderKindRenewal,
		Total:      -1,
		Currency:   "USD",
		Status:     orderdomain.OrderStatusPending,
	})
	require.ErrorIs(t, err, orderdomain.ErrInvalidAmount)

	err = svc.Create(ctx, &orderdomain.Order{
		ID:         node.Generate(),
		CustomerID: node.Generate(),
		Kind:       orderdomain.OrderKind("refund"),
		Total:      100,
		Currency:   "USD",
		Status:     orderdomain.OrderStatusPending,
	})
	require.ErrorIs(t, err, orderdomain.ErrInvalidKind)

	order := renewalOrder(node.Generate(), orderdomain.OrderStatusPending, "txn_1")
	require.NoError(t, svc.Create(ctx, order))
	require.False(t, order.CreatedAt.IsZero())
	require.Equal(t, testTime, order.UpdatedAt)
}

func TestCreateStampsClockTime(t *testing.T) {
	repo := newMockRepository()
	svc := newService(t, repo)

	order := &orderdomain.Order{
		ID:         node.Generate(),
		CustomerID: node.Generate(),
		Kind:       orderdomain.OrderKindRenewal,
		Total:      2000,
		Currency:   "USD",
		Status:     orderdomain.OrderStatusComplete,
	}
	require.NoError(t, svc.Create(context.Background(), order))
	require.Equal(t, testTime, order.CreatedAt)
	require.Equal(t, testTime, order.UpdatedAt)
}

func TestMarkStatusIdempotent(t *testing.T) {
	repo := newMockRepository()
	svc := newService(t, repo)
	ctx := context.Background()

	order := renewalOrder(node.Generate(), orderdomain.OrderStatusPending, "txn_1")
	require.NoError(t, svc.Create(ctx, order))

	require.NoError(t, svc.MarkStatus(ctx, order.ID, orderdomain.OrderStatusComplete))
	require.Equal(t, 1, repo.statusUpdates)

	// Same status again must not touch the row.
	require.NoError(t, svc.MarkStatus(ctx, order.ID, orderdomain.OrderStatusComplete))
	require.Equal(t, 1, repo.statusUpdates)

	err := svc.MarkStatus(ctx, node.Generate(), orderdomain.OrderStatusComplete)
	require.ErrorIs(t, err, orderdomain.ErrOrderNotFound)

	err = svc.MarkStatus(ctx, order.ID, orderdomain.OrderStatus("weird"))
	require.ErrorIs(t, err, orderdomain.ErrInvalidStatus)
}

func TestCountCompletedRenewalsSkipsFailed(t *testing.T) {
	repo := newMockRepository()
	svc := newService(t, repo)
	ctx := context.Background()

	subscriptionID := node.Generate()
	require.NoError(t, svc.Create(ctx, renewalOrder(subscriptionID, orderdomain.OrderStatusComplete, "txn_1")))
	require.NoError(t, svc.Create(ctx, renewalOrder(subscriptionID, orderdomain.OrderStatusFailed, "txn_2")))
	require.NoError(t, svc.Create(ctx, renewalOrder(subscriptionID, orderdomain.OrderStatusComplete, "txn_3")))

	count, err := svc.CountCompletedRenewals(ctx, subscriptionID)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)
}

func TestFindRenewalByTransactionIDEmptyIsNil(t *testing.T) {
	repo := newMockRepository()
	svc := newService(t, repo)
	ctx := context.Background()

	subscriptionID := node.Generate()
	require.NoError(t, svc.Create(ctx, renewalOrder(subscriptionID, orderdomain.OrderStatusComplete, "")))

	// Blank transaction ids never dedupe against each other.
	found, err := svc.FindRenewalByTransactionID(ctx, subscriptionID, "")
	require.NoError(t, err)
	require.Nil(t, found)
}

func TestDetachSubscription(t *testing.T) {
	repo := newMockRepository()
	svc := newService(t, repo)
	ctx := context.Background()

	subscriptionID := node.Generate()
	order := renewalOrder(subscriptionID, orderdomain.OrderStatusComplete, "txn_1")
	require.NoError(t, svc.Create(ctx, order))

	require.NoError(t, svc.DetachSubscription(ctx, subscriptionID))

	got, err := svc.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.Nil(t, got.SubscriptionID)
}
