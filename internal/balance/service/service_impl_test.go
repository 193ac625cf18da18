package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cwu2020/reflist-sub001/internal/balance/domain"
	"github.com/cwu2020/reflist-sub001/internal/clock"
	commissiondomain "github.com/cwu2020/reflist-sub001/internal/commission/domain"
	workspacedomain "github.com/cwu2020/reflist-sub001/internal/workspace/domain"
)

func setupBalanceService(t *testing.T, clk clock.Clock) (domain.Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := db.AutoMigrate(
		&commissiondomain.Commission{},
		&workspacedomain.Workspace{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	svc := NewService(Params{DB: db, Log: zap.NewNop(), Clock: clk})
	return svc, db
}

func seedBalanceCommission(t *testing.T, db *gorm.DB, node *snowflake.Node, workspaceID, programID, partnerID snowflake.ID, status commissiondomain.Status, earnings int64, payoutID *snowflake.ID) {
	t.Helper()
	seedBalanceCommissionAt(t, db, node, workspaceID, programID, partnerID, status, earnings, payoutID, time.Now().UTC())
}

func seedBalanceCommissionAt(t *testing.T, db *gorm.DB, node *snowflake.Node, workspaceID, programID, partnerID snowflake.ID, status commissiondomain.Status, earnings int64, payoutID *snowflake.ID, createdAt time.Time) {
	t.Helper()
	commission := commissiondomain.Commission{
		ID:          node.Generate(),
		WorkspaceID: workspaceID,
		ProgramID:   programID,
		PartnerID:   &partnerID,
		LinkID:      node.Generate(),
		Type:        commissiondomain.TypeSale,
		Amount:      earnings * 10,
		Earnings:    earnings,
		Currency:    "usd",
		Status:      status,
		PayoutID:    payoutID,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	if err := db.Create(&commission).Error; err != nil {
		t.Fatalf("seed commission: %v", err)
	}
}

func balanceMustNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	return node
}

func TestGetBalancesConservation(t *testing.T) {
	node := balanceMustNode(t)
	svc, db := setupBalanceService(t, clock.NewSystemClock())
	workspaceID := node.Generate()
	programID := node.Generate()
	partnerID := node.Generate()

	payoutID := node.Generate()
	seedBalanceCommission(t, db, node, workspaceID, programID, partnerID, commissiondomain.StatusPending, 100, nil)
	seedBalanceCommission(t, db, node, workspaceID, programID, partnerID, commissiondomain.StatusProcessed, 200, nil)
	seedBalanceCommission(t, db, node, workspaceID, programID, partnerID, commissiondomain.StatusProcessed, 300, &payoutID)
	seedBalanceCommission(t, db, node, workspaceID, programID, partnerID, commissiondomain.StatusPaid, 400, &payoutID)
	seedBalanceCommission(t, db, node, workspaceID, programID, partnerID, commissiondomain.StatusFraud, 500, nil)

	balances, err := svc.GetBalances(context.Background(), domain.Scope{
		Kind:        domain.ScopeWorkspace,
		WorkspaceID: workspaceID,
	})
	if err != nil {
		t.Fatalf("get balances: %v", err)
	}

	if len(balances.Counts) != len(commissiondomain.AllStatuses) {
		t.Fatalf("expected one bucket per status, got %d", len(balances.Counts))
	}

	// The per-status buckets must sum exactly to the All totals.
	var count, earnings int64
	byStatus := make(map[commissiondomain.Status]domain.StatusTotals, len(balances.Counts))
	for _, bucket := range balances.Counts {
		count += bucket.Count
		earnings += bucket.Earnings
		byStatus[bucket.Status] = bucket
	}
	if count != balances.All.Count || earnings != balances.All.Earnings {
		t.Fatalf("conservation broken: buckets %d/%d vs all %d/%d", count, earnings, balances.All.Count, balances.All.Earnings)
	}
	if balances.All.Count != 5 || balances.All.Earnings != 1500 {
		t.Fatalf("unexpected totals: count=%d earnings=%d", balances.All.Count, balances.All.Earnings)
	}

	if bucket := byStatus[commissiondomain.StatusProcessed]; bucket.Count != 2 || bucket.Earnings != 500 {
		t.Fatalf("processed bucket: count=%d earnings=%d", bucket.Count, bucket.Earnings)
	}
	if bucket := byStatus[commissiondomain.StatusRefunded]; bucket.Count != 0 || bucket.Earnings != 0 {
		t.Fatalf("expected zero-filled refunded bucket, got count=%d earnings=%d", bucket.Count, bucket.Earnings)
	}

	// Available excludes the processed commission already attached to a payout.
	if balances.AvailableBalance != 200 {
		t.Fatalf("expected available 200, got %d", balances.AvailableBalance)
	}
	if balances.PendingEarnings != 100 {
		t.Fatalf("expected pending 100, got %d", balances.PendingEarnings)
	}
	if balances.MonthlyEarnings != 1000 {
		t.Fatalf("expected monthly 1000 from pending+processed+paid, got %d", balances.MonthlyEarnings)
	}
}

func TestGetBalancesScopeIsolation(t *testing.T) {
	node := balanceMustNode(t)
	svc, db := setupBalanceService(t, clock.NewSystemClock())
	workspaceID := node.Generate()
	programID := node.Generate()
	partnerA := node.Generate()
	partnerB := node.Generate()

	seedBalanceCommission(t, db, node, workspaceID, programID, partnerA, commissiondomain.StatusProcessed, 100, nil)
	seedBalanceCommission(t, db, node, workspaceID, programID, partnerB, commissiondomain.StatusProcessed, 900, nil)

	available, err := svc.AvailableBalance(context.Background(), domain.Scope{
		Kind:       domain.ScopePartnerIDs,
		PartnerIDs: []snowflake.ID{partnerA},
	})
	if err != nil {
		t.Fatalf("available: %v", err)
	}
	if available != 100 {
		t.Fatalf("partner scope leaked: got %d", available)
	}

	available, err = svc.AvailableBalance(context.Background(), domain.Scope{
		Kind:        domain.ScopeWorkspace,
		WorkspaceID: workspaceID,
	})
	if err != nil {
		t.Fatalf("available: %v", err)
	}
	if available != 1000 {
		t.Fatalf("workspace scope: got %d", available)
	}
}

func TestMonthlyEarningsUsesWorkspaceMonthBoundary(t *testing.T) {
	node := balanceMustNode(t)
	// Feb 28 22:00 in New York; already March in UTC. The local month is
	// still February, so its start is Feb 1 00:00 EST (Feb 1 05:00 UTC).
	clk := clock.NewFakeClock(time.Date(2025, time.March, 1, 3, 0, 0, 0, time.UTC))
	svc, db := setupBalanceService(t, clk)
	workspaceID := node.Generate()
	programID := node.Generate()
	partnerID := node.Generate()

	workspace := workspacedomain.Workspace{
		ID:       workspaceID,
		Name:     "Acme",
		Slug:     "acme",
		Timezone: "America/New_York",
	}
	if err := db.Create(&workspace).Error; err != nil {
		t.Fatalf("seed workspace: %v", err)
	}

	before := time.Date(2025, time.February, 1, 4, 0, 0, 0, time.UTC)
	after := time.Date(2025, time.February, 1, 6, 0, 0, 0, time.UTC)
	seedBalanceCommissionAt(t, db, node, workspaceID, programID, partnerID, commissiondomain.StatusProcessed, 100, nil, before)
	seedBalanceCommissionAt(t, db, node, workspaceID, programID, partnerID, commissiondomain.StatusProcessed, 200, nil, after)

	balances, err := svc.GetBalances(context.Background(), domain.Scope{
		Kind:        domain.ScopeWorkspace,
		WorkspaceID: workspaceID,
	})
	if err != nil {
		t.Fatalf("get balances: %v", err)
	}
	if balances.MonthlyEarnings != 200 {
		t.Fatalf("expected only the in-month commission counted, got %d", balances.MonthlyEarnings)
	}
}

func TestGetBalancesRejectsInvalidScope(t *testing.T) {
	svc, _ := setupBalanceService(t, clock.NewSystemClock())

	if _, err := svc.GetBalances(context.Background(), domain.Scope{Kind: domain.ScopeWorkspace}); err != domain.ErrInvalidScope {
		t.Fatalf("expected invalid scope, got %v", err)
	}
	if _, err := svc.AvailableBalance(context.Background(), domain.Scope{}); err != domain.ErrInvalidScope {
		t.Fatalf("expected invalid scope, got %v", err)
	}
}
