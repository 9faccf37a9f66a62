package issuance

import (
	"context"
	"errors"
	"testing"

	"soulcertify-backend/internal/ledger"
	"soulcertify-backend/internal/models"
	"soulcertify-backend/internal/requests"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	ownerAddr     = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	requesterAddr = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

// fakeLedger records Issue calls and can be told to fail or to race the
// queue.
type fakeLedger struct {
	issueCalls []ledger.IssueInput
	nextID     uint64
	failWith   error
	beforeMark func()
}

func (f *fakeLedger) Issue(ctx context.Context, caller string, in ledger.IssueInput) (uint64, error) {
	if f.failWith != nil {
		return 0, f.failWith
	}
	f.issueCalls = append(f.issueCalls, in)
	f.nextID++
	if f.beforeMark != nil {
		f.beforeMark()
	}
	return f.nextID, nil
}

func setupCoordinatorTest(t *testing.T) (*Service, *requests.Service, *fakeLedger, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.Certificate{}, &models.CertificateRequest{}))

	queue := &requests.Service{DB: db}
	fl := &fakeLedger{}
	return &Service{Queue: queue, Ledger: fl}, queue, fl, db
}

func submitPending(t *testing.T, queue *requests.Service) string {
	t.Helper()
	id, err := queue.Submit(context.Background(), requests.SubmitInput{
		StudentAddress:   requesterAddr,
		StudentName:      "Ada Lovelace",
		UniversityName:   "Analytical Academy",
		YearOfGraduation: 2024,
		Degree:           "B.Sc.",
		Major:            "Mathematics",
		Skills:           []string{"Analysis"},
	})
	require.NoError(t, err)
	return id
}

func TestApproveAndIssue_PromotesRequest(t *testing.T) {
	svc, queue, fl, _ := setupCoordinatorTest(t)
	ctx := context.Background()
	reqID := submitPending(t, queue)

	certID, err := svc.ApproveAndIssue(ctx, reqID, ownerAddr)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), certID)

	require.Len(t, fl.issueCalls, 1)
	issued := fl.issueCalls[0]
	assert.Equal(t, requesterAddr, issued.StudentAddress)
	assert.Equal(t, "Ada Lovelace", issued.StudentName)
	assert.Equal(t, []string{"Analysis"}, issued.Skills)

	req, err := queue.Get(ctx, reqID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusApproved, req.Status)
	assert.NotNil(t, req.ApprovedAt)
}

func TestApproveAndIssue_Twice_InvalidState(t *testing.T) {
	svc, queue, fl, _ := setupCoordinatorTest(t)
	ctx := context.Background()
	reqID := submitPending(t, queue)

	_, err := svc.ApproveAndIssue(ctx, reqID, ownerAddr)
	require.NoError(t, err)

	_, err = svc.ApproveAndIssue(ctx, reqID, ownerAddr)
	assert.ErrorIs(t, err, requests.ErrInvalidState)
	// No second certificate was issued.
	assert.Len(t, fl.issueCalls, 1)
}

func TestApproveAndIssue_UnknownRequest(t *testing.T) {
	svc, _, fl, _ := setupCoordinatorTest(t)

	_, err := svc.ApproveAndIssue(context.Background(), "req_0_missing", ownerAddr)
	assert.ErrorIs(t, err, requests.ErrNotFound)
	assert.Empty(t, fl.issueCalls)
}

func TestApproveAndIssue_LedgerFailure_LeavesPending(t *testing.T) {
	svc, queue, fl, _ := setupCoordinatorTest(t)
	ctx := context.Background()
	reqID := submitPending(t, queue)
	fl.failWith = ledger.ErrUnauthorized

	_, err := svc.ApproveAndIssue(ctx, reqID, requesterAddr)
	assert.ErrorIs(t, err, ledger.ErrUnauthorized)

	req, err := queue.Get(ctx, reqID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPending, req.Status)
}

func TestApproveAndIssue_QueueWriteFails_Divergence(t *testing.T) {
	svc, queue, fl, _ := setupCoordinatorTest(t)
	ctx := context.Background()
	reqID := submitPending(t, queue)

	// Decide the request between the ledger write and the queue write; the
	// mark then fails and the coordinator must report divergence, not hide it.
	fl.beforeMark = func() {
		require.NoError(t, queue.MarkRejected(ctx, reqID))
	}

	certID, err := svc.ApproveAndIssue(ctx, reqID, ownerAddr)
	assert.ErrorIs(t, err, ErrDivergence)
	assert.Equal(t, uint64(1), certID)
}

func TestReject_NeverCallsLedger(t *testing.T) {
	svc, queue, fl, _ := setupCoordinatorTest(t)
	ctx := context.Background()
	reqID := submitPending(t, queue)

	require.NoError(t, svc.Reject(ctx, reqID))

	assert.Empty(t, fl.issueCalls)
	req, err := queue.Get(ctx, reqID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusRejected, req.Status)
	assert.NotNil(t, req.RejectedAt)
}

func TestReject_DecidedRequest_InvalidState(t *testing.T) {
	svc, queue, _, _ := setupCoordinatorTest(t)
	ctx := context.Background()
	reqID := submitPending(t, queue)

	require.NoError(t, svc.Reject(ctx, reqID))
	assert.ErrorIs(t, svc.Reject(ctx, reqID), requests.ErrInvalidState)
}

func TestReconcile_HealsOrphanedRequest(t *testing.T) {
	svc, queue, _, db := setupCoordinatorTest(t)
	ctx := context.Background()
	reqID := submitPending(t, queue)

	// A certificate exists on the ledger but the request is still pending.
	cert := models.Certificate{
		StudentAddress:   requesterAddr,
		StudentName:      "Ada Lovelace",
		UniversityName:   "Analytical Academy",
		YearOfGraduation: 2024,
		Degree:           "B.Sc.",
		Major:            "Mathematics",
	}
	require.NoError(t, db.Create(&cert).Error)

	finder := &GormCertificateFinder{DB: db}
	healed, err := svc.Reconcile(ctx, finder)
	require.NoError(t, err)
	assert.Equal(t, 1, healed)

	req, err := queue.Get(ctx, reqID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusApproved, req.Status)

	// Idempotent: a second pass heals nothing.
	healed, err = svc.Reconcile(ctx, finder)
	require.NoError(t, err)
	assert.Equal(t, 0, healed)
}

func TestReconcile_NoMatch_LeavesPending(t *testing.T) {
	svc, queue, _, db := setupCoordinatorTest(t)
	ctx := context.Background()
	reqID := submitPending(t, queue)

	healed, err := svc.Reconcile(ctx, &GormCertificateFinder{DB: db})
	require.NoError(t, err)
	assert.Equal(t, 0, healed)

	req, err := queue.Get(ctx, reqID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPending, req.Status)
}

func TestFakeLedgerErrorPropagation(t *testing.T) {
	svc, queue, fl, _ := setupCoordinatorTest(t)
	reqID := submitPending(t, queue)
	fl.failWith = errors.New("ledger transport down")

	_, err := svc.ApproveAndIssue(context.Background(), reqID, ownerAddr)
	assert.EqualError(t, err, "ledger transport down")
}
