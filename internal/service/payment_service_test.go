package service

import (
	"context"
	"testing"

	"pmis/internal/workflow"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	submitter = viewer(1, 5, workflow.PrivPaymentRequestCreate)
	engineer  = viewer(2, 10, workflow.PrivPaymentRequestRead, workflow.PrivPaymentRequestUpdate)
	chief     = viewer(3, 20, workflow.PrivPaymentRequestRead, workflow.PrivPaymentRequestUpdate)
	finance   = viewer(4, 30, workflow.PrivPaymentRequestRead, workflow.PrivPaymentDetailsCreate)
)

func TestCreateRequest_StartsAtFirstLevel(t *testing.T) {
	f := newFixture(t)
	svc := f.paymentService()

	req := mustCreateRequest(t, f, svc, submitter)
	assert.Equal(t, workflow.StatusPendingReview, req.Status)
	require.NotNil(t, req.CurrentApprovalLevelID)
	assert.Equal(t, f.level1.ID, *req.CurrentApprovalLevelID)
	assert.Equal(t, "KES 250,000.00", req.AmountDisplay)
	assert.False(t, req.ReadOnly)

	history, err := svc.GetPaymentApprovalHistory(context.Background(), req.RequestID, submitter)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, workflow.ActionSubmit, history[0].Action)
	assert.Equal(t, "Engineer", history[0].LevelName)
	assert.Contains(t, f.events.names(), EventPaymentRequestUpdated)
}

func TestCreateRequest_Validation(t *testing.T) {
	f := newFixture(t)
	svc := f.paymentService()
	ctx := context.Background()

	_, err := svc.CreateRequest(ctx, f.project.ID, CreatePaymentRequestDTO{Amount: decimal.NewFromInt(1), Description: "x"}, viewer(9, 9))
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.CreateRequest(ctx, f.project.ID, CreatePaymentRequestDTO{Amount: decimal.Zero, Description: "x"}, submitter)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreateRequest(ctx, f.project.ID, CreatePaymentRequestDTO{Amount: decimal.NewFromInt(1), Description: "  "}, submitter)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreateRequest(ctx, 999, CreatePaymentRequestDTO{Amount: decimal.NewFromInt(1), Description: "x"}, submitter)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApprovalChain_WalksToPaid(t *testing.T) {
	f := newFixture(t)
	svc := f.paymentService()
	ctx := context.Background()
	req := mustCreateRequest(t, f, svc, submitter)

	view, err := svc.GetApprovalView(ctx, req.RequestID, engineer)
	require.NoError(t, err)
	assert.True(t, view.IsCurrentApprover)
	assert.Equal(t, []workflow.Action{workflow.ActionApprove, workflow.ActionReject, workflow.ActionReturn}, view.AvailableActions)
	require.NotNil(t, view.CurrentLevel)
	assert.Equal(t, "Engineer", view.CurrentLevel.LevelName)
	assert.Len(t, view.Levels, 2)

	// the chief cannot act on the engineer's level
	_, err = svc.RecordApprovalAction(ctx, req.RequestID, ApprovalActionRequest{Action: "approve"}, chief)
	assert.ErrorIs(t, err, ErrActionNotAllowed)

	view, err = svc.RecordApprovalAction(ctx, req.RequestID, ApprovalActionRequest{Action: "approve"}, engineer)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusPendingReview, view.Request.Status)
	require.NotNil(t, view.CurrentLevel)
	assert.Equal(t, f.level2.ID, view.CurrentLevel.LevelID)
	assert.Empty(t, view.AvailableActions)
	last := view.History[len(view.History)-1]
	assert.Equal(t, "Approved by Engineer", last.Notes)
	assert.Equal(t, "Approved", last.ActionLabel)

	view, err = svc.RecordApprovalAction(ctx, req.RequestID, ApprovalActionRequest{Action: "Approve", Notes: " ok "}, chief)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusApprovedForPayment, view.Request.Status)
	assert.Nil(t, view.CurrentLevel)
	assert.Equal(t, "ok", view.History[len(view.History)-1].Notes)

	_, err = svc.RecordApprovalAction(ctx, req.RequestID, ApprovalActionRequest{Action: "mark_paid"}, finance)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreatePaymentDetails(ctx, req.RequestID, PaymentDetailsRequest{PaymentMethod: "EFT", AmountPaid: decimal.NewFromInt(250_000)}, chief)
	assert.ErrorIs(t, err, ErrForbidden)

	view, err = svc.CreatePaymentDetails(ctx, req.RequestID, PaymentDetailsRequest{
		PaymentMethod:        "EFT",
		TransactionReference: "TRX-1",
		AmountPaid:           decimal.NewFromInt(250_000),
		PaymentDate:          "2025-01-15",
	}, finance)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusPaid, view.Request.Status)
	assert.True(t, view.Request.ReadOnly)
	require.NotNil(t, view.Request.PaymentDetails)
	assert.Equal(t, "2025-01-15", view.Request.PaymentDetails.PaymentDate)
	assert.Equal(t, "Paid KES 250,000.00 via EFT", view.History[len(view.History)-1].Notes)
	assert.Len(t, view.History, 4)
}

func TestPaymentDetails_RequiresApprovedRequest(t *testing.T) {
	f := newFixture(t)
	svc := f.paymentService()
	req := mustCreateRequest(t, f, svc, submitter)

	_, err := svc.CreatePaymentDetails(context.Background(), req.RequestID,
		PaymentDetailsRequest{PaymentMethod: "EFT", AmountPaid: decimal.NewFromInt(1)}, finance)
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)

	_, err = svc.CreatePaymentDetails(context.Background(), req.RequestID,
		PaymentDetailsRequest{PaymentMethod: "EFT", AmountPaid: decimal.NewFromInt(1), PaymentDate: "15/01/2025"}, finance)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRejectAndReturn_RequireNotes(t *testing.T) {
	f := newFixture(t)
	svc := f.paymentService()
	ctx := context.Background()
	req := mustCreateRequest(t, f, svc, submitter)

	_, err := svc.RecordApprovalAction(ctx, req.RequestID, ApprovalActionRequest{Action: "reject", Notes: "  "}, engineer)
	assert.ErrorIs(t, err, workflow.ErrNotesRequired)

	view, err := svc.RecordApprovalAction(ctx, req.RequestID, ApprovalActionRequest{Action: "reject", Notes: "Missing invoice"}, engineer)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusRejected, view.Request.Status)
	assert.True(t, view.Request.ReadOnly)
	assert.Empty(t, view.AvailableActions)

	_, err = svc.RecordApprovalAction(ctx, req.RequestID, ApprovalActionRequest{Action: "approve"}, engineer)
	assert.ErrorIs(t, err, ErrActionNotAllowed)
}

func TestReturnedRequest_ResubmitsToFirstLevel(t *testing.T) {
	f := newFixture(t)
	svc := f.paymentService()
	ctx := context.Background()
	req := mustCreateRequest(t, f, svc, submitter)

	_, err := svc.RecordApprovalAction(ctx, req.RequestID, ApprovalActionRequest{Action: "approve"}, engineer)
	require.NoError(t, err)
	view, err := svc.RecordApprovalAction(ctx, req.RequestID, ApprovalActionRequest{Action: "return", Notes: "Attach photos"}, chief)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusReturned, view.Request.Status)

	view, err = svc.GetApprovalView(ctx, req.RequestID, submitter)
	require.NoError(t, err)
	assert.Equal(t, []workflow.Action{workflow.ActionSubmit}, view.AvailableActions)

	view, err = svc.RecordApprovalAction(ctx, req.RequestID, ApprovalActionRequest{Action: "submit"}, submitter)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusPendingReview, view.Request.Status)
	require.NotNil(t, view.CurrentLevel)
	assert.Equal(t, f.level1.ID, view.CurrentLevel.LevelID)
}

func TestVisibility(t *testing.T) {
	f := newFixture(t)
	svc := f.paymentService()
	ctx := context.Background()
	req := mustCreateRequest(t, f, svc, submitter)
	stranger := viewer(42, 5, workflow.PrivPaymentRequestCreate)

	_, err := svc.GetRequestByID(ctx, req.RequestID, stranger)
	assert.ErrorIs(t, err, ErrForbidden)

	list, err := svc.GetRequestsForProject(ctx, f.project.ID, stranger)
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = svc.GetRequestsForProject(ctx, f.project.ID, engineer)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.RecordApprovalAction(ctx, req.RequestID, ApprovalActionRequest{Action: "approve"}, stranger)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.GetRequestByID(ctx, 999, engineer)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordApprovalAction_UnknownAction(t *testing.T) {
	f := newFixture(t)
	svc := f.paymentService()
	req := mustCreateRequest(t, f, svc, submitter)

	_, err := svc.RecordApprovalAction(context.Background(), req.RequestID, ApprovalActionRequest{Action: "escalate"}, engineer)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, err, workflow.ErrUnknownAction)
}

func TestUpdateStatus_Override(t *testing.T) {
	f := newFixture(t)
	svc := f.paymentService()
	ctx := context.Background()
	req := mustCreateRequest(t, f, svc, submitter)

	_, err := svc.UpdateStatus(ctx, req.RequestID, UpdateStatusRequest{Status: "Archived"}, engineer)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.UpdateStatus(ctx, req.RequestID, UpdateStatusRequest{Status: "Rejected"}, submitter)
	assert.ErrorIs(t, err, ErrForbidden)

	resp, err := svc.UpdateStatus(ctx, req.RequestID, UpdateStatusRequest{Status: "returned"}, engineer)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusReturned, resp.Status)
	assert.Nil(t, resp.CurrentApprovalLevelID)

	resp, err = svc.UpdateStatus(ctx, req.RequestID, UpdateStatusRequest{Status: "pending_review"}, engineer)
	require.NoError(t, err)
	require.NotNil(t, resp.CurrentApprovalLevelID)
	assert.Equal(t, f.level1.ID, *resp.CurrentApprovalLevelID)

	history, err := svc.GetPaymentApprovalHistory(ctx, req.RequestID, engineer)
	require.NoError(t, err)
	last := history[len(history)-1]
	assert.Equal(t, workflow.ActionStatusUpdate, last.Action)
	assert.Equal(t, "Status changed from Returned to Pending Review", last.Notes)
}

func TestUpdateStatus_PaidRequestStaysPaid(t *testing.T) {
	f := newFixture(t)
	svc := f.paymentService()
	ctx := context.Background()
	req := mustCreateRequest(t, f, svc, submitter)

	_, err := svc.UpdateStatus(ctx, req.RequestID, UpdateStatusRequest{Status: "Approved for Payment"}, engineer)
	require.NoError(t, err)
	_, err = svc.CreatePaymentDetails(ctx, req.RequestID, PaymentDetailsRequest{PaymentMethod: "EFT", AmountPaid: decimal.NewFromInt(1_000)}, finance)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, req.RequestID, UpdateStatusRequest{Status: "Approved for Payment"}, engineer)
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)

	got, err := svc.GetRequestByID(ctx, req.RequestID, engineer)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusPaid, got.Status)

	_, err = svc.CreatePaymentDetails(ctx, req.RequestID, PaymentDetailsRequest{PaymentMethod: "EFT", AmountPaid: decimal.NewFromInt(1_000)}, finance)
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
}
