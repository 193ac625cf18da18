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

	auditdomain "github.com/cwu2020/reflist-sub001/internal/audit/domain"
	auditrepository "github.com/cwu2020/reflist-sub001/internal/audit/repository"
	auditservice "github.com/cwu2020/reflist-sub001/internal/audit/service"
	"github.com/cwu2020/reflist-sub001/internal/commission/domain"
	"github.com/cwu2020/reflist-sub001/internal/commission/repository"
	payoutdomain "github.com/cwu2020/reflist-sub001/internal/payout/domain"
	programdomain "github.com/cwu2020/reflist-sub001/internal/program/domain"
	"github.com/cwu2020/reflist-sub001/internal/workspacecontext"
	"github.com/cwu2020/reflist-sub001/pkg/db/pagination"
)

func setupCommissionService(t *testing.T, node *snowflake.Node) (domain.Service, *gorm.DB) {
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
	_ = db.Exec("PRAGMA busy_timeout = 5000").Error

	if err := db.AutoMigrate(
		&domain.Commission{},
		&domain.CommissionSplit{},
		&programdomain.Program{},
		&programdomain.Link{},
		&payoutdomain.Payout{},
		&auditdomain.AuditLog{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	auditSvc := auditservice.NewService(auditservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  auditrepository.Provide(),
	})

	svc := NewService(Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		AuditSvc: auditSvc,
		Repo:     repository.Provide(),
	})
	return svc, db
}

type fixture struct {
	workspaceID snowflake.ID
	programID   snowflake.ID
	partnerID   snowflake.ID
	linkID      snowflake.ID
}

// seedCommission inserts a commission together with the rollup state it
// already contributed (one sale on the link, its amount on the program)
// when the status counts toward rollups.
func seedCommission(t *testing.T, db *gorm.DB, node *snowflake.Node, f fixture, status domain.Status, amount, earnings int64) domain.Commission {
	t.Helper()

	rollup := int64(0)
	if domain.IsValidStatus(status) {
		rollup = 1
	}
	program := programdomain.Program{
		ID:              f.programID,
		WorkspaceID:     f.workspaceID,
		Name:            "Default Program",
		Currency:        "usd",
		CommissionUsage: rollup * amount,
	}
	if err := db.Where("id = ?", f.programID).FirstOrCreate(&program).Error; err != nil {
		t.Fatalf("seed program: %v", err)
	}
	link := programdomain.Link{
		ID:          f.linkID,
		WorkspaceID: f.workspaceID,
		ProgramID:   f.programID,
		PartnerID:   &f.partnerID,
		ShortKey:    fmt.Sprintf("k%d", f.linkID),
		Sales:       rollup,
		SaleAmount:  rollup * amount,
	}
	if err := db.Where("id = ?", f.linkID).FirstOrCreate(&link).Error; err != nil {
		t.Fatalf("seed link: %v", err)
	}

	commission := domain.Commission{
		ID:          node.Generate(),
		WorkspaceID: f.workspaceID,
		ProgramID:   f.programID,
		PartnerID:   &f.partnerID,
		LinkID:      f.linkID,
		Type:        domain.TypeSale,
		Amount:      amount,
		Earnings:    earnings,
		Currency:    "usd",
		Status:      status,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := db.Create(&commission).Error; err != nil {
		t.Fatalf("seed commission: %v", err)
	}
	return commission
}

func newFixture(node *snowflake.Node) fixture {
	return fixture{
		workspaceID: node.Generate(),
		programID:   node.Generate(),
		partnerID:   node.Generate(),
		linkID:      node.Generate(),
	}
}

func mustNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	return node
}

func rollupState(t *testing.T, db *gorm.DB, f fixture) (sales, saleAmount, usage int64) {
	t.Helper()
	var link programdomain.Link
	if err := db.Where("id = ?", f.linkID).First(&link).Error; err != nil {
		t.Fatalf("load link: %v", err)
	}
	var program programdomain.Program
	if err := db.Where("id = ?", f.programID).First(&program).Error; err != nil {
		t.Fatalf("load program: %v", err)
	}
	return link.Sales, link.SaleAmount, program.CommissionUsage
}

func TestTransitionLifecycle(t *testing.T) {
	node := mustNode(t)
	svc, db := setupCommissionService(t, node)
	f := newFixture(node)
	commission := seedCommission(t, db, node, f, domain.StatusPending, 1000, 100)
	ctx := workspacecontext.WithWorkspaceID(context.Background(), int64(f.workspaceID))

	got, err := svc.Transition(ctx, domain.TransitionRequest{
		ID:           commission.ID.String(),
		TargetStatus: "processed",
	})
	if err != nil {
		t.Fatalf("pending -> processed: %v", err)
	}
	if got.Status != domain.StatusProcessed {
		t.Fatalf("expected processed, got %s", got.Status)
	}

	got, err = svc.Transition(ctx, domain.TransitionRequest{
		ID:           commission.ID.String(),
		TargetStatus: "paid",
	})
	if err != nil {
		t.Fatalf("processed -> paid: %v", err)
	}
	if got.Status != domain.StatusPaid {
		t.Fatalf("expected paid, got %s", got.Status)
	}

	var stored domain.Commission
	if err := db.Where("id = ?", commission.ID).First(&stored).Error; err != nil {
		t.Fatalf("load commission: %v", err)
	}
	if stored.Status != domain.StatusPaid {
		t.Fatalf("expected paid in store, got %s", stored.Status)
	}
}

func TestTransitionRejectsIllegalEdge(t *testing.T) {
	node := mustNode(t)
	svc, db := setupCommissionService(t, node)
	f := newFixture(node)
	commission := seedCommission(t, db, node, f, domain.StatusPending, 1000, 100)
	ctx := workspacecontext.WithWorkspaceID(context.Background(), int64(f.workspaceID))

	// pending -> paid is not a legal edge; paid requires processed first.
	if _, err := svc.Transition(ctx, domain.TransitionRequest{
		ID:           commission.ID.String(),
		TargetStatus: "paid",
	}); err != domain.ErrStateInvariantViolation {
		t.Fatalf("expected state invariant violation, got %v", err)
	}
}

func TestPaidIsTerminalEvenForced(t *testing.T) {
	node := mustNode(t)
	svc, db := setupCommissionService(t, node)
	f := newFixture(node)
	commission := seedCommission(t, db, node, f, domain.StatusPaid, 1000, 100)
	ctx := workspacecontext.WithWorkspaceID(context.Background(), int64(f.workspaceID))

	if _, err := svc.Transition(ctx, domain.TransitionRequest{
		ID:           commission.ID.String(),
		TargetStatus: "pending",
	}); err != domain.ErrStateInvariantViolation {
		t.Fatalf("transition out of paid: expected violation, got %v", err)
	}
	if _, err := svc.ForceStatus(ctx, domain.ForceStatusRequest{
		ID:           commission.ID.String(),
		TargetStatus: "pending",
	}); err != domain.ErrStateInvariantViolation {
		t.Fatalf("forced transition out of paid: expected violation, got %v", err)
	}
}

func TestForceStatusBypassesTable(t *testing.T) {
	node := mustNode(t)
	svc, db := setupCommissionService(t, node)
	f := newFixture(node)
	commission := seedCommission(t, db, node, f, domain.StatusPending, 1000, 100)
	ctx := workspacecontext.WithWorkspaceID(context.Background(), int64(f.workspaceID))

	got, err := svc.ForceStatus(ctx, domain.ForceStatusRequest{
		ID:           commission.ID.String(),
		TargetStatus: "paid",
	})
	if err != nil {
		t.Fatalf("forced pending -> paid: %v", err)
	}
	if got.Status != domain.StatusPaid {
		t.Fatalf("expected paid, got %s", got.Status)
	}
}

func TestTransitionAdjustsRollups(t *testing.T) {
	node := mustNode(t)
	svc, db := setupCommissionService(t, node)
	f := newFixture(node)
	commission := seedCommission(t, db, node, f, domain.StatusPending, 1000, 100)
	ctx := workspacecontext.WithWorkspaceID(context.Background(), int64(f.workspaceID))

	// Crossing into an exception status reverses the contribution.
	if _, err := svc.Transition(ctx, domain.TransitionRequest{
		ID:           commission.ID.String(),
		TargetStatus: "fraud",
	}); err != nil {
		t.Fatalf("pending -> fraud: %v", err)
	}
	sales, saleAmount, usage := rollupState(t, db, f)
	if sales != 0 || saleAmount != 0 || usage != 0 {
		t.Fatalf("expected rollups reversed, got sales=%d amount=%d usage=%d", sales, saleAmount, usage)
	}

	// Reinstating restores it.
	if _, err := svc.Transition(ctx, domain.TransitionRequest{
		ID:           commission.ID.String(),
		TargetStatus: "pending",
	}); err != nil {
		t.Fatalf("fraud -> pending: %v", err)
	}
	sales, saleAmount, usage = rollupState(t, db, f)
	if sales != 1 || saleAmount != 1000 || usage != 1000 {
		t.Fatalf("expected rollups restored, got sales=%d amount=%d usage=%d", sales, saleAmount, usage)
	}
}

func TestTransitionSameStatusIsNoOp(t *testing.T) {
	node := mustNode(t)
	svc, db := setupCommissionService(t, node)
	f := newFixture(node)
	commission := seedCommission(t, db, node, f, domain.StatusPending, 1000, 100)
	ctx := workspacecontext.WithWorkspaceID(context.Background(), int64(f.workspaceID))

	got, err := svc.Transition(ctx, domain.TransitionRequest{
		ID:           commission.ID.String(),
		TargetStatus: "pending",
	})
	if err != nil {
		t.Fatalf("pending -> pending: %v", err)
	}
	if got.Status != domain.StatusPending {
		t.Fatalf("expected pending, got %s", got.Status)
	}
	sales, saleAmount, usage := rollupState(t, db, f)
	if sales != 1 || saleAmount != 1000 || usage != 1000 {
		t.Fatalf("no-op changed rollups: sales=%d amount=%d usage=%d", sales, saleAmount, usage)
	}
}

func TestTransitionValidationErrors(t *testing.T) {
	node := mustNode(t)
	svc, db := setupCommissionService(t, node)
	f := newFixture(node)
	commission := seedCommission(t, db, node, f, domain.StatusPending, 1000, 100)
	ctx := workspacecontext.WithWorkspaceID(context.Background(), int64(f.workspaceID))

	if _, err := svc.Transition(ctx, domain.TransitionRequest{
		ID:           "not-a-snowflake",
		TargetStatus: "processed",
	}); err != domain.ErrInvalidID {
		t.Fatalf("expected invalid id, got %v", err)
	}
	if _, err := svc.Transition(ctx, domain.TransitionRequest{
		ID:           commission.ID.String(),
		TargetStatus: "settled",
	}); err != domain.ErrInvalidStatus {
		t.Fatalf("expected invalid status, got %v", err)
	}
	if _, err := svc.Transition(ctx, domain.TransitionRequest{
		ID:           node.Generate().String(),
		TargetStatus: "processed",
	}); err != domain.ErrNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteRejectsPaid(t *testing.T) {
	node := mustNode(t)
	svc, db := setupCommissionService(t, node)
	f := newFixture(node)
	commission := seedCommission(t, db, node, f, domain.StatusPaid, 1000, 100)
	ctx := workspacecontext.WithWorkspaceID(context.Background(), int64(f.workspaceID))

	if _, err := svc.Delete(ctx, domain.DeleteRequest{ID: commission.ID.String()}); err != domain.ErrStateInvariantViolation {
		t.Fatalf("expected state invariant violation, got %v", err)
	}
	var count int64
	if err := db.Model(&domain.Commission{}).Where("id = ?", commission.ID).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("paid commission must survive delete, count=%d", count)
	}
}

func TestDeleteRejectsPayoutAttached(t *testing.T) {
	node := mustNode(t)
	svc, db := setupCommissionService(t, node)
	f := newFixture(node)
	commission := seedCommission(t, db, node, f, domain.StatusProcessed, 1000, 100)
	ctx := workspacecontext.WithWorkspaceID(context.Background(), int64(f.workspaceID))

	payoutID := node.Generate()
	if err := db.Exec(`UPDATE commissions SET payout_id = ? WHERE id = ?`, payoutID, commission.ID).Error; err != nil {
		t.Fatalf("attach payout: %v", err)
	}

	if _, err := svc.Delete(ctx, domain.DeleteRequest{ID: commission.ID.String()}); err != domain.ErrAttachedToPayout {
		t.Fatalf("expected attached-to-payout error, got %v", err)
	}
}

func TestDeleteGuardsAgainstLateAttach(t *testing.T) {
	node := mustNode(t)
	_, db := setupCommissionService(t, node)
	f := newFixture(node)
	repo := repository.Provide()
	ctx := context.Background()

	// Rows that became paid or payout-attached after the precondition read
	// must be left alone by the delete statement itself.
	attached := seedCommission(t, db, node, f, domain.StatusProcessed, 1000, 100)
	payoutID := node.Generate()
	if err := db.Exec(`UPDATE commissions SET payout_id = ? WHERE id = ?`, payoutID, attached.ID).Error; err != nil {
		t.Fatalf("attach payout: %v", err)
	}
	matched, err := repo.Delete(ctx, db, attached.ID)
	if err != nil {
		t.Fatalf("delete attached: %v", err)
	}
	if matched {
		t.Fatalf("expected no row matched for a payout-attached commission")
	}

	paid := seedCommission(t, db, node, f, domain.StatusPaid, 1000, 100)
	matched, err = repo.Delete(ctx, db, paid.ID)
	if err != nil {
		t.Fatalf("delete paid: %v", err)
	}
	if matched {
		t.Fatalf("expected no row matched for a paid commission")
	}

	var count int64
	if err := db.Model(&domain.Commission{}).Where("id IN ?", []snowflake.ID{attached.ID, paid.ID}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected both guarded rows to survive, got %d", count)
	}

	clean := seedCommission(t, db, node, f, domain.StatusPending, 1000, 100)
	matched, err = repo.Delete(ctx, db, clean.ID)
	if err != nil {
		t.Fatalf("delete clean: %v", err)
	}
	if !matched {
		t.Fatalf("expected a detached non-paid commission to delete")
	}
}

func TestDeleteReversesRollup(t *testing.T) {
	node := mustNode(t)
	svc, db := setupCommissionService(t, node)
	f := newFixture(node)
	commission := seedCommission(t, db, node, f, domain.StatusPending, 1000, 100)
	ctx := workspacecontext.WithWorkspaceID(context.Background(), int64(f.workspaceID))

	resp, err := svc.Delete(ctx, domain.DeleteRequest{ID: commission.ID.String(), Actor: "ops-1"})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !resp.RollbackApplied {
		t.Fatalf("expected rollback applied for a counted status")
	}
	sales, saleAmount, usage := rollupState(t, db, f)
	if sales != 0 || saleAmount != 0 || usage != 0 {
		t.Fatalf("expected rollups reversed, got sales=%d amount=%d usage=%d", sales, saleAmount, usage)
	}

	var count int64
	if err := db.Model(&domain.Commission{}).Where("id = ?", commission.ID).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("commission still present after delete")
	}
}

func TestDeleteExceptionStatusSkipsRollback(t *testing.T) {
	node := mustNode(t)
	svc, db := setupCommissionService(t, node)
	f := newFixture(node)
	commission := seedCommission(t, db, node, f, domain.StatusFraud, 1000, 100)
	ctx := workspacecontext.WithWorkspaceID(context.Background(), int64(f.workspaceID))

	resp, err := svc.Delete(ctx, domain.DeleteRequest{ID: commission.ID.String()})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if resp.RollbackApplied {
		t.Fatalf("fraud never contributed to rollups, nothing to reverse")
	}
	sales, saleAmount, usage := rollupState(t, db, f)
	if sales != 0 || saleAmount != 0 || usage != 0 {
		t.Fatalf("rollups moved on exception delete: sales=%d amount=%d usage=%d", sales, saleAmount, usage)
	}
}

func TestListFiltersAndPaginates(t *testing.T) {
	node := mustNode(t)
	svc, db := setupCommissionService(t, node)
	f := newFixture(node)
	ctx := workspacecontext.WithWorkspaceID(context.Background(), int64(f.workspaceID))

	seedCommission(t, db, node, f, domain.StatusPending, 100, 10)
	seedCommission(t, db, node, f, domain.StatusProcessed, 200, 20)
	seedCommission(t, db, node, f, domain.StatusProcessed, 300, 30)

	resp, err := svc.List(ctx, domain.ListRequest{Status: "processed"})
	if err != nil {
		t.Fatalf("list processed: %v", err)
	}
	if len(resp.Commissions) != 2 {
		t.Fatalf("expected 2 processed commissions, got %d", len(resp.Commissions))
	}

	page, err := svc.List(ctx, domain.ListRequest{
		Pagination: pagination.Pagination{PageSize: 2},
	})
	if err != nil {
		t.Fatalf("list page: %v", err)
	}
	if len(page.Commissions) != 2 {
		t.Fatalf("expected page of 2, got %d", len(page.Commissions))
	}
	if !page.HasMore || page.NextPageToken == "" {
		t.Fatalf("expected another page, has_more=%v token=%q", page.HasMore, page.NextPageToken)
	}

	rest, err := svc.List(ctx, domain.ListRequest{
		Pagination: pagination.Pagination{PageSize: 2, PageToken: page.NextPageToken},
	})
	if err != nil {
		t.Fatalf("list rest: %v", err)
	}
	if len(rest.Commissions) != 1 {
		t.Fatalf("expected 1 remaining commission, got %d", len(rest.Commissions))
	}
	if rest.HasMore {
		t.Fatalf("expected final page")
	}
}
