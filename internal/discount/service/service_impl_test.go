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
	discountdomain "github.com/subforge/renewals/internal/discount/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type mockRepository struct {
	discounts map[snowflake.ID]*discountdomain.Discount
}

func newMockRepository() *mockRepository {
	return &mockRepository{discounts: make(map[snowflake.ID]*discountdomain.Discount)}
}

func (m *mockRepository) Insert(ctx context.Context, db *gorm.DB, discount *discountdomain.Discount) error {
	for _, d := range m.discounts {
		if d.Code == discount.Code {
			return gorm.ErrDuplicatedKey
		}
	}
	copied := *discount
	m.discounts[discount.ID] = &copied
	return nil
}
func (m *mockRepository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*discountdomain.Discount, error) {
	if d, ok := m.discounts[id]; ok {
		copied := *d
		return &copied, nil
	}
	return nil, nil
}
func (m *mockRepository) FindByCode(ctx context.Context, db *gorm.DB, code string) (*discountdomain.Discount, error) {
	for _, d := range m.discounts {
		if d.Code == code {
			copied := *d
			return &copied, nil
		}
	}
	return nil, nil
}
func (m *mockRepository) List(ctx context.Context, db *gorm.DB) ([]discountdomain.Discount, error) {
	var out []discountdomain.Discount
	for _, d := range m.discounts {
		out = append(out, *d)
	}
	return out, nil
}
func (m *mockRepository) SetActive(ctx context.Context, db *gorm.DB, id snowflake.ID, active bool) error {
	if d, ok := m.discounts[id]; ok {
		d.Active = active
	}
	return nil
}

func setup(t *testing.T, storeDefault bool) (discountdomain.Service, *mockRepository, *clock.FakeClock) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	node, _ := snowflake.NewNode(1)
	repo := newMockRepository()
	fakeTime := clock.NewFakeClock(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))

	storeCfg := config.DefaultStoreConfig()
	storeCfg.DiscountsApplyToRenewals = storeDefault

	svc := NewService(ServiceParam{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    fakeTime,
		StoreCfg: config.NewStaticStoreConfigHolder(storeCfg),
		Repo:     repo,
	})
	return svc, repo, fakeTime
}

func TestCreateAndResolve(t *testing.T) {
	svc, _, _ := setup(t, false)

	created, err := svc.Create(context.Background(), discountdomain.CreateDiscountRequest{
		Code:    "SAVE20",
		Type:    "percent",
		Percent: 20,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	resolved, err := svc.Resolve(context.Background(), "SAVE20")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if resolved.ID != created.ID {
		t.Errorf("expected %s, got %s", created.ID, resolved.ID)
	}

	if _, err := svc.Create(context.Background(), discountdomain.CreateDiscountRequest{
		Code:    "SAVE20",
		Type:    "percent",
		Percent: 10,
	}); !errors.Is(err, discountdomain.ErrDuplicateCode) {
		t.Errorf("expected ErrDuplicateCode, got %v", err)
	}
}

func TestResolveExpired(t *testing.T) {
	svc, _, fakeTime := setup(t, false)

	expiry := fakeTime.Now().Add(24 * time.Hour)
	if _, err := svc.Create(context.Background(), discountdomain.CreateDiscountRequest{
		Code:       "FLASH",
		Type:       "flat",
		FlatAmount: 500,
		ExpiresAt:  &expiry,
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := svc.Resolve(context.Background(), "FLASH"); err != nil {
		t.Fatalf("Resolve before expiry failed: %v", err)
	}

	fakeTime.Advance(48 * time.Hour)
	if _, err := svc.Resolve(context.Background(), "FLASH"); !errors.Is(err, discountdomain.ErrDiscountExpired) {
		t.Errorf("expected ErrDiscountExpired, got %v", err)
	}
}

func TestResolveDeactivated(t *testing.T) {
	svc, _, _ := setup(t, false)

	created, err := svc.Create(context.Background(), discountdomain.CreateDiscountRequest{
		Code:       "GONE",
		Type:       "flat",
		FlatAmount: 100,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := svc.Deactivate(context.Background(), created.ID.String()); err != nil {
		t.Fatalf("Deactivate failed: %v", err)
	}

	if _, err := svc.Resolve(context.Background(), "GONE"); !errors.Is(err, discountdomain.ErrDiscountInactive) {
		t.Errorf("expected ErrDiscountInactive, got %v", err)
	}
}

func TestRenewalEligiblePrecedence(t *testing.T) {
	svcDefaultOff, _, _ := setup(t, false)
	svcDefaultOn, _, _ := setup(t, true)

	first := discountdomain.Discount{RenewalBehavior: discountdomain.RenewalBehaviorFirst}
	renewals := discountdomain.Discount{RenewalBehavior: discountdomain.RenewalBehaviorRenewals}
	unset := discountdomain.Discount{}

	// Per-discount behavior wins over any store default.
	if svcDefaultOn.RenewalEligible(first) {
		t.Error("first-payment-only discount must not carry into renewals")
	}
	if !svcDefaultOff.RenewalEligible(renewals) {
		t.Error("renewals discount must carry regardless of store default")
	}

	if svcDefaultOff.RenewalEligible(unset) {
		t.Error("unset behavior must follow store default off")
	}
	if !svcDefaultOn.RenewalEligible(unset) {
		t.Error("unset behavior must follow store default on")
	}
}

func TestAppliesTo(t *testing.T) {
	node, _ := snowflake.NewNode(1)
	productA := node.Generate()
	productB := node.Generate()

	global := discountdomain.Discount{}
	if !global.AppliesTo(productA) {
		t.Error("global discount should apply to any product")
	}

	limited := discountdomain.Discount{ProductRequirements: []int64{int64(productA)}}
	if !limited.AppliesTo(productA) || limited.AppliesTo(productB) {
		t.Error("requirements should limit applicability")
	}

	excluded := discountdomain.Discount{
		ProductRequirements: []int64{int64(productA)},
		ProductExclusions:   []int64{int64(productA)},
	}
	if excluded.AppliesTo(productA) {
		t.Error("exclusion must win over requirement")
	}
}
