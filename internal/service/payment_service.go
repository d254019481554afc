package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pmis/internal/display"
	"pmis/internal/model"
	"pmis/internal/repository"
	"pmis/internal/workflow"

	"github.com/shopspring/decimal"
)

// --- DTOs ---

type CreatePaymentRequestDTO struct {
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	Description   string          `json:"description" binding:"required"`
	InvoiceNumber string          `json:"invoiceNumber"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes"`
}

type ApprovalActionRequest struct {
	Action           string `json:"action" binding:"required"`
	Notes            string `json:"notes"`
	AssignedToUserID *uint  `json:"assignedToUserId"`
}

type PaymentDetailsRequest struct {
	PaymentMethod        string          `json:"paymentMethod" binding:"required"`
	TransactionReference string          `json:"transactionReference"`
	BankName             string          `json:"bankName"`
	AmountPaid           decimal.Decimal `json:"amountPaid" binding:"required"`
	PaymentDate          string          `json:"paymentDate"` // YYYY-MM-DD, defaults to today
	Notes                string          `json:"notes"`
}

type PaymentDetailsResponse struct {
	PaymentDetailsID     uint            `json:"paymentDetailsId"`
	PaymentMethod        string          `json:"paymentMethod"`
	TransactionReference string          `json:"transactionReference"`
	BankName             string          `json:"bankName"`
	AmountPaid           decimal.Decimal `json:"amountPaid"`
	AmountPaidDisplay    string          `json:"amountPaidDisplay"`
	PaymentDate          string          `json:"paymentDate"`
	Notes                string          `json:"notes"`
	PaidByUserID         uint            `json:"paidByUserId"`
}

type PaymentRequestResponse struct {
	RequestID              uint                    `json:"requestId"`
	ProjectID              uint                    `json:"projectId"`
	UserID                 uint                    `json:"userId"`
	Amount                 decimal.Decimal         `json:"amount"`
	AmountDisplay          string                  `json:"amountDisplay"`
	Description            string                  `json:"description"`
	InvoiceNumber          string                  `json:"invoiceNumber"`
	Status                 workflow.Status         `json:"status"`
	ReadOnly               bool                    `json:"readOnly"`
	CurrentApprovalLevelID *uint                   `json:"currentApprovalLevelId"`
	CreatedAt              string                  `json:"createdAt"`
	UpdatedAt              string                  `json:"updatedAt"`
	PaymentDetails         *PaymentDetailsResponse `json:"paymentDetails"`
	Documents              []DocumentResponse      `json:"documents"`
	Photos                 []DocumentResponse      `json:"photos"`
	DocumentCount          int                     `json:"documentCount"`
	PhotoCount             int                     `json:"photoCount"`
}

type ApprovalLevelResponse struct {
	LevelID   uint   `json:"levelId"`
	LevelName string `json:"levelName"`
	RoleID    uint   `json:"roleId"`
	Sequence  int    `json:"sequence"`
}

type ApprovalHistoryResponse struct {
	HistoryID        uint            `json:"historyId"`
	RequestID        uint            `json:"requestId"`
	ApprovalLevelID  *uint           `json:"approvalLevelId"`
	LevelName        string          `json:"levelName"`
	Action           workflow.Action `json:"action"`
	ActionLabel      string          `json:"actionLabel"`
	Notes            string          `json:"notes"`
	FromStatus       workflow.Status `json:"fromStatus"`
	ToStatus         workflow.Status `json:"toStatus"`
	ActionByUserID   uint            `json:"actionByUserId"`
	ActionByName     string          `json:"actionByName"`
	AssignedToUserID *uint           `json:"assignedToUserId"`
	ActionDate       string          `json:"actionDate"`
}

// ApprovalView is everything the approval modal renders for one request.
type ApprovalView struct {
	Request           PaymentRequestResponse    `json:"request"`
	History           []ApprovalHistoryResponse `json:"history"`
	Levels            []ApprovalLevelResponse   `json:"levels"`
	CurrentLevel      *ApprovalLevelResponse    `json:"currentLevel"`
	AvailableActions  []workflow.Action         `json:"availableActions"`
	IsCurrentApprover bool                      `json:"isCurrentApprover"`
}

// --- Interface ---

type PaymentService interface {
	GetRequestsForProject(ctx context.Context, projectID uint, viewer workflow.Viewer) ([]PaymentRequestResponse, error)
	GetRequestByID(ctx context.Context, id uint, viewer workflow.Viewer) (*PaymentRequestResponse, error)
	CreateRequest(ctx context.Context, projectID uint, req CreatePaymentRequestDTO, viewer workflow.Viewer) (*PaymentRequestResponse, error)
	UpdateStatus(ctx context.Context, id uint, req UpdateStatusRequest, viewer workflow.Viewer) (*PaymentRequestResponse, error)
	RecordApprovalAction(ctx context.Context, id uint, req ApprovalActionRequest, viewer workflow.Viewer) (*ApprovalView, error)
	CreatePaymentDetails(ctx context.Context, id uint, req PaymentDetailsRequest, viewer workflow.Viewer) (*ApprovalView, error)
	GetPaymentApprovalHistory(ctx context.Context, id uint, viewer workflow.Viewer) ([]ApprovalHistoryResponse, error)
	GetApprovalView(ctx context.Context, id uint, viewer workflow.Viewer) (*ApprovalView, error)
}

type paymentService struct {
	tm        repository.TransactionManager
	requests  repository.PaymentRequestRepository
	approvals repository.ApprovalRepository
	projects  repository.ProjectRepository
	urls      URLResolver
	events    EventPublisher
	now       func() time.Time
}

func NewPaymentService(
	tm repository.TransactionManager,
	requests repository.PaymentRequestRepository,
	approvals repository.ApprovalRepository,
	projects repository.ProjectRepository,
	urls URLResolver,
	events EventPublisher,
) PaymentService {
	return &paymentService{
		tm:        tm,
		requests:  requests,
		approvals: approvals,
		projects:  projects,
		urls:      urls,
		events:    publisherOrNoop(events),
		now:       time.Now,
	}
}

// --- Implementation ---

func (s *paymentService) GetRequestsForProject(ctx context.Context, projectID uint, viewer workflow.Viewer) ([]PaymentRequestResponse, error) {
	if _, err := s.projects.FindByID(ctx, projectID); err != nil {
		return nil, lookupErr("project", err)
	}

	requests, err := s.requests.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payment requests: %w", err)
	}

	res := make([]PaymentRequestResponse, 0, len(requests))
	for _, r := range requests {
		if !workflow.CanView(viewer, r.UserID) {
			continue
		}
		res = append(res, toPaymentRequestResponse(r, s.urls))
	}
	return res, nil
}

func (s *paymentService) GetRequestByID(ctx context.Context, id uint, viewer workflow.Viewer) (*PaymentRequestResponse, error) {
	req, err := s.loadVisible(ctx, id, viewer)
	if err != nil {
		return nil, err
	}
	resp := toPaymentRequestResponse(*req, s.urls)
	return &resp, nil
}

func (s *paymentService) CreateRequest(ctx context.Context, projectID uint, dto CreatePaymentRequestDTO, viewer workflow.Viewer) (*PaymentRequestResponse, error) {
	if !viewer.Can(workflow.PrivPaymentRequestCreate) {
		return nil, fmt.Errorf("%w: missing privilege %s", ErrForbidden, workflow.PrivPaymentRequestCreate)
	}
	if !dto.Amount.IsPositive() {
		return nil, invalidf("amount must be greater than zero")
	}
	if strings.TrimSpace(dto.Description) == "" {
		return nil, invalidf("description is required")
	}

	var created model.PaymentRequest
	err := s.tm.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.projects.FindByID(txCtx, projectID); err != nil {
			return lookupErr("project", err)
		}

		chain, err := s.chain(txCtx)
		if err != nil {
			return err
		}
		outcome, err := workflow.Initial(chain)
		if err != nil {
			return err
		}

		now := s.now()
		created = model.PaymentRequest{
			ProjectID:              projectID,
			UserID:                 viewer.UserID,
			Amount:                 dto.Amount,
			Description:            strings.TrimSpace(dto.Description),
			InvoiceNumber:          strings.TrimSpace(dto.InvoiceNumber),
			Status:                 outcome.Status,
			CurrentApprovalLevelID: outcome.LevelID,
			CreatedAt:              now,
			UpdatedAt:              now,
		}
		if err := s.requests.Create(txCtx, &created); err != nil {
			return fmt.Errorf("failed to create payment request: %w", err)
		}

		return s.approvals.AppendHistory(txCtx, &model.ApprovalHistory{
			RequestID:       created.ID,
			ApprovalLevelID: outcome.LevelID,
			Action:          workflow.ActionSubmit,
			Notes:           "Payment request submitted",
			ToStatus:        outcome.Status,
			ActionByUserID:  viewer.UserID,
			ActionDate:      now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(EventPaymentRequestUpdated, payload{"requestId": created.ID, "projectId": projectID})
	return s.GetRequestByID(ctx, created.ID, viewer)
}

func (s *paymentService) UpdateStatus(ctx context.Context, id uint, dto UpdateStatusRequest, viewer workflow.Viewer) (*PaymentRequestResponse, error) {
	if !viewer.Can(workflow.PrivPaymentRequestUpdate) {
		return nil, fmt.Errorf("%w: missing privilege %s", ErrForbidden, workflow.PrivPaymentRequestUpdate)
	}
	status, ok := workflow.ParseStatus(dto.Status)
	if !ok {
		return nil, invalidf("unknown status %q", dto.Status)
	}

	var projectID uint
	err := s.tm.RunInTx(ctx, func(txCtx context.Context) error {
		req, err := s.requests.FindForUpdate(txCtx, id)
		if err != nil {
			return lookupErr("payment request", err)
		}
		projectID = req.ProjectID

		// a recorded payment pins the request to Paid
		if status != workflow.StatusPaid {
			paid, err := s.requests.HasDetails(txCtx, req.ID)
			if err != nil {
				return fmt.Errorf("failed to check payment details: %w", err)
			}
			if paid {
				return fmt.Errorf("%w: payment details already recorded", workflow.ErrInvalidTransition)
			}
		}

		from := req.Status
		fromLevel := req.CurrentApprovalLevelID
		req.Status = status
		if status == workflow.StatusPendingReview {
			if req.CurrentApprovalLevelID == nil {
				chain, err := s.chain(txCtx)
				if err != nil {
					return err
				}
				outcome, err := workflow.Initial(chain)
				if err != nil {
					return err
				}
				req.CurrentApprovalLevelID = outcome.LevelID
			}
		} else {
			req.CurrentApprovalLevelID = nil
		}

		now := s.now()
		req.UpdatedAt = now
		if err := s.requests.UpdateState(txCtx, req); err != nil {
			return fmt.Errorf("failed to update payment request status: %w", err)
		}

		notes := strings.TrimSpace(dto.Notes)
		if notes == "" {
			notes = fmt.Sprintf("Status changed from %s to %s", from, status)
		}
		return s.approvals.AppendHistory(txCtx, &model.ApprovalHistory{
			RequestID:       req.ID,
			ApprovalLevelID: fromLevel,
			Action:          workflow.ActionStatusUpdate,
			Notes:           notes,
			FromStatus:      from,
			ToStatus:        status,
			ActionByUserID:  viewer.UserID,
			ActionDate:      now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(EventPaymentRequestUpdated, payload{"requestId": id, "projectId": projectID})
	return s.GetRequestByID(ctx, id, viewer)
}

func (s *paymentService) RecordApprovalAction(ctx context.Context, id uint, dto ApprovalActionRequest, viewer workflow.Viewer) (*ApprovalView, error) {
	action, err := workflow.ParseAction(dto.Action)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if action == workflow.ActionMarkPaid {
		return nil, invalidf("record payment details to mark a request as paid")
	}

	var projectID uint
	err = s.tm.RunInTx(ctx, func(txCtx context.Context) error {
		req, err := s.requests.FindForUpdate(txCtx, id)
		if err != nil {
			return lookupErr("payment request", err)
		}
		projectID = req.ProjectID
		if !workflow.CanView(viewer, req.UserID) {
			return ErrForbidden
		}

		chain, err := s.chain(txCtx)
		if err != nil {
			return err
		}
		snap := snapshotOf(req, chain)
		if !workflow.Allowed(viewer, snap, action) {
			return fmt.Errorf("%w: cannot %s a request that is %s", ErrActionNotAllowed, action, req.Status)
		}

		levelName := ""
		if snap.CurrentLevel != nil {
			levelName = snap.CurrentLevel.Name
		}
		notes, err := workflow.ResolveNotes(action, dto.Notes, levelName)
		if err != nil {
			return err
		}

		outcome, err := workflow.Transition(chain, snap, action)
		if err != nil {
			return err
		}

		return s.apply(txCtx, req, snap, outcome, action, notes, dto.AssignedToUserID, viewer)
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(EventPaymentRequestUpdated, payload{"requestId": id, "projectId": projectID})
	return s.GetApprovalView(ctx, id, viewer)
}

func (s *paymentService) CreatePaymentDetails(ctx context.Context, id uint, dto PaymentDetailsRequest, viewer workflow.Viewer) (*ApprovalView, error) {
	if strings.TrimSpace(dto.PaymentMethod) == "" {
		return nil, invalidf("payment method is required")
	}
	if !dto.AmountPaid.IsPositive() {
		return nil, invalidf("amount paid must be greater than zero")
	}
	paymentDate := s.now()
	if dto.PaymentDate != "" {
		parsed, err := time.Parse("2006-01-02", dto.PaymentDate)
		if err != nil {
			return nil, invalidf("payment date must be YYYY-MM-DD")
		}
		paymentDate = parsed
	}

	var projectID uint
	err := s.tm.RunInTx(ctx, func(txCtx context.Context) error {
		req, err := s.requests.FindForUpdate(txCtx, id)
		if err != nil {
			return lookupErr("payment request", err)
		}
		projectID = req.ProjectID

		chain, err := s.chain(txCtx)
		if err != nil {
			return err
		}
		snap := snapshotOf(req, chain)
		if !workflow.Allowed(viewer, snap, workflow.ActionMarkPaid) {
			if req.Status != workflow.StatusApprovedForPayment {
				return fmt.Errorf("%w: request is %s", workflow.ErrInvalidTransition, req.Status)
			}
			return fmt.Errorf("%w: missing privilege %s", ErrForbidden, workflow.PrivPaymentDetailsCreate)
		}
		outcome, err := workflow.Transition(chain, snap, workflow.ActionMarkPaid)
		if err != nil {
			return err
		}

		details := model.PaymentDetails{
			RequestID:            req.ID,
			PaymentMethod:        strings.TrimSpace(dto.PaymentMethod),
			TransactionReference: strings.TrimSpace(dto.TransactionReference),
			BankName:             strings.TrimSpace(dto.BankName),
			AmountPaid:           dto.AmountPaid,
			PaymentDate:          paymentDate,
			Notes:                strings.TrimSpace(dto.Notes),
			PaidByUserID:         viewer.UserID,
		}
		if err := s.requests.CreateDetails(txCtx, &details); err != nil {
			return fmt.Errorf("failed to record payment details: %w", err)
		}

		notes := details.Notes
		if notes == "" {
			notes = fmt.Sprintf("Paid %s via %s", display.FormatKES(details.AmountPaid), details.PaymentMethod)
		}
		return s.apply(txCtx, req, snap, outcome, workflow.ActionMarkPaid, notes, nil, viewer)
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(EventPaymentRequestUpdated, payload{"requestId": id, "projectId": projectID})
	return s.GetApprovalView(ctx, id, viewer)
}

func (s *paymentService) GetPaymentApprovalHistory(ctx context.Context, id uint, viewer workflow.Viewer) ([]ApprovalHistoryResponse, error) {
	if _, err := s.loadVisible(ctx, id, viewer); err != nil {
		return nil, err
	}
	chain, err := s.chain(ctx)
	if err != nil {
		return nil, err
	}
	return s.history(ctx, id, chain)
}

func (s *paymentService) GetApprovalView(ctx context.Context, id uint, viewer workflow.Viewer) (*ApprovalView, error) {
	req, err := s.loadVisible(ctx, id, viewer)
	if err != nil {
		return nil, err
	}
	chain, err := s.chain(ctx)
	if err != nil {
		return nil, err
	}
	history, err := s.history(ctx, id, chain)
	if err != nil {
		return nil, err
	}

	snap := snapshotOf(req, chain)
	view := &ApprovalView{
		Request:           toPaymentRequestResponse(*req, s.urls),
		History:           history,
		Levels:            toLevelResponses(chain),
		AvailableActions:  workflow.AvailableActions(viewer, snap),
		IsCurrentApprover: workflow.IsCurrentApprover(viewer, snap),
	}
	if snap.CurrentLevel != nil {
		lvl := toLevelResponse(*snap.CurrentLevel)
		view.CurrentLevel = &lvl
	}
	return view, nil
}

// --- Helpers ---

func (s *paymentService) loadVisible(ctx context.Context, id uint, viewer workflow.Viewer) (*model.PaymentRequest, error) {
	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr("payment request", err)
	}
	if !workflow.CanView(viewer, req.UserID) {
		return nil, fmt.Errorf("%w: payment request %d belongs to another user", ErrForbidden, id)
	}
	return req, nil
}

func (s *paymentService) chain(ctx context.Context) (workflow.Chain, error) {
	levels, err := s.approvals.ListLevels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch approval levels: %w", err)
	}
	wl := make([]workflow.Level, 0, len(levels))
	for _, l := range levels {
		wl = append(wl, l.WorkflowLevel())
	}
	return workflow.NewChain(wl), nil
}

func (s *paymentService) history(ctx context.Context, id uint, chain workflow.Chain) ([]ApprovalHistoryResponse, error) {
	entries, err := s.approvals.ListHistory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch approval history: %w", err)
	}
	res := make([]ApprovalHistoryResponse, 0, len(entries))
	for _, h := range entries {
		res = append(res, toHistoryResponse(h, chain))
	}
	return res, nil
}

// apply persists an outcome and appends the matching history entry.
func (s *paymentService) apply(ctx context.Context, req *model.PaymentRequest, snap workflow.Snapshot, outcome workflow.Outcome,
	action workflow.Action, notes string, assignee *uint, viewer workflow.Viewer) error {
	now := s.now()
	req.Status = outcome.Status
	req.CurrentApprovalLevelID = outcome.LevelID
	req.UpdatedAt = now
	if err := s.requests.UpdateState(ctx, req); err != nil {
		return fmt.Errorf("failed to update payment request: %w", err)
	}

	var levelID *uint
	if snap.CurrentLevel != nil {
		id := snap.CurrentLevel.ID
		levelID = &id
	}
	if err := s.approvals.AppendHistory(ctx, &model.ApprovalHistory{
		RequestID:        req.ID,
		ApprovalLevelID:  levelID,
		Action:           action,
		Notes:            notes,
		FromStatus:       snap.Status,
		ToStatus:         outcome.Status,
		ActionByUserID:   viewer.UserID,
		AssignedToUserID: assignee,
		ActionDate:       now,
	}); err != nil {
		return fmt.Errorf("failed to record approval history: %w", err)
	}
	return nil
}

func snapshotOf(req *model.PaymentRequest, chain workflow.Chain) workflow.Snapshot {
	snap := workflow.Snapshot{Status: req.Status, SubmitterID: req.UserID}
	if req.CurrentApprovalLevelID != nil {
		if lvl, ok := chain.Find(*req.CurrentApprovalLevelID); ok {
			snap.CurrentLevel = &lvl
		}
	}
	return snap
}

func toPaymentRequestResponse(r model.PaymentRequest, urls URLResolver) PaymentRequestResponse {
	documents, photos := partitionDocuments(r.Documents, urls)
	resp := PaymentRequestResponse{
		RequestID:              r.ID,
		ProjectID:              r.ProjectID,
		UserID:                 r.UserID,
		Amount:                 r.Amount,
		AmountDisplay:          display.FormatKES(r.Amount),
		Description:            r.Description,
		InvoiceNumber:          r.InvoiceNumber,
		Status:                 r.Status,
		ReadOnly:               r.Status.ReadOnly(),
		CurrentApprovalLevelID: r.CurrentApprovalLevelID,
		CreatedAt:              r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:              r.UpdatedAt.Format(time.RFC3339),
		Documents:              documents,
		Photos:                 photos,
		DocumentCount:          len(documents),
		PhotoCount:             len(photos),
	}
	if d := r.PaymentDetails; d != nil {
		resp.PaymentDetails = &PaymentDetailsResponse{
			PaymentDetailsID:     d.ID,
			PaymentMethod:        d.PaymentMethod,
			TransactionReference: d.TransactionReference,
			BankName:             d.BankName,
			AmountPaid:           d.AmountPaid,
			AmountPaidDisplay:    display.FormatKES(d.AmountPaid),
			PaymentDate:          d.PaymentDate.Format("2006-01-02"),
			Notes:                d.Notes,
			PaidByUserID:         d.PaidByUserID,
		}
	}
	return resp
}

func toHistoryResponse(h model.ApprovalHistory, chain workflow.Chain) ApprovalHistoryResponse {
	resp := ApprovalHistoryResponse{
		HistoryID:        h.ID,
		RequestID:        h.RequestID,
		ApprovalLevelID:  h.ApprovalLevelID,
		Action:           h.Action,
		ActionLabel:      h.Action.Label(),
		Notes:            h.Notes,
		FromStatus:       h.FromStatus,
		ToStatus:         h.ToStatus,
		ActionByUserID:   h.ActionByUserID,
		ActionByName:     fmt.Sprintf("User #%d", h.ActionByUserID),
		AssignedToUserID: h.AssignedToUserID,
		ActionDate:       h.ActionDate.Format(time.RFC3339),
	}
	if h.ActionBy != nil {
		resp.ActionByName = h.ActionBy.FullName()
	}
	if h.ApprovalLevelID != nil {
		if lvl, ok := chain.Find(*h.ApprovalLevelID); ok {
			resp.LevelName = lvl.Name
		}
	}
	return resp
}

func toLevelResponse(l workflow.Level) ApprovalLevelResponse {
	return ApprovalLevelResponse{LevelID: l.ID, LevelName: l.Name, RoleID: l.RoleID, Sequence: l.Sequence}
}

func toLevelResponses(chain workflow.Chain) []ApprovalLevelResponse {
	res := make([]ApprovalLevelResponse, 0, len(chain))
	for _, l := range chain {
		res = append(res, toLevelResponse(l))
	}
	return res
}
