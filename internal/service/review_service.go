package service

import (
	"context"
	"fmt"
	"time"

	"pmis/internal/display"
	"pmis/internal/model"
	"pmis/internal/repository"
	"pmis/internal/workflow"

	"github.com/shopspring/decimal"
)

type ProjectSummary struct {
	ProjectID       uint            `json:"projectId"`
	Name            string          `json:"projectName"`
	Department      string          `json:"department"`
	Budget          decimal.Decimal `json:"budget"`
	ContractSum     decimal.Decimal `json:"contractSum"`
	BudgetDisplay   string          `json:"budgetDisplay"`
	PercentComplete decimal.Decimal `json:"percentComplete"`
	CoverPhotoURL   string          `json:"coverPhotoUrl"`
}

type MilestoneReview struct {
	MilestoneID uint               `json:"milestoneId"`
	Name        string             `json:"milestoneName"`
	TargetDate  string             `json:"targetDate"`
	Status      string             `json:"status"`
	Overdue     bool               `json:"overdue"`
	Photos      []DocumentResponse `json:"photos"`
}

type ReviewCounts struct {
	PaymentRequests int `json:"paymentRequests"`
	Documents       int `json:"documents"`
	Photos          int `json:"photos"`
	ProgressPhotos  int `json:"progressPhotos"`
}

// ProjectReview is the project manager's review panel: every payment request
// with its supporting documents and photos, and the milestone progress photos.
type ProjectReview struct {
	Project          ProjectSummary           `json:"project"`
	PaymentRequests  []PaymentRequestResponse `json:"paymentRequests"`
	Milestones       []MilestoneReview        `json:"milestones"`
	ProjectDocuments []DocumentResponse       `json:"projectDocuments"`
	Counts           ReviewCounts             `json:"counts"`
}

type ReviewService interface {
	GetProjectReview(ctx context.Context, projectID uint, viewer workflow.Viewer) (*ProjectReview, error)
}

type reviewService struct {
	projects repository.ProjectRepository
	requests repository.PaymentRequestRepository
	docs     repository.DocumentRepository
	urls     URLResolver
	now      func() time.Time
}

func NewReviewService(projects repository.ProjectRepository, requests repository.PaymentRequestRepository,
	docs repository.DocumentRepository, urls URLResolver) ReviewService {
	return &reviewService{projects: projects, requests: requests, docs: docs, urls: urls, now: time.Now}
}

func (s *reviewService) GetProjectReview(ctx context.Context, projectID uint, viewer workflow.Viewer) (*ProjectReview, error) {
	if err := requirePrivilege(viewer, workflow.PrivProjectRead); err != nil {
		return nil, err
	}
	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, lookupErr("project", err)
	}
	requests, err := s.requests.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payment requests: %w", err)
	}
	milestones, err := s.projects.ListMilestones(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch milestones: %w", err)
	}
	docs, err := s.docs.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch documents: %w", err)
	}

	review := &ProjectReview{
		Project: ProjectSummary{
			ProjectID:       project.ID,
			Name:            project.Name,
			Department:      project.Department,
			Budget:          project.Budget,
			ContractSum:     project.ContractSum,
			BudgetDisplay:   display.FormatKES(project.Budget),
			PercentComplete: project.PercentComplete,
		},
		PaymentRequests:  make([]PaymentRequestResponse, 0, len(requests)),
		Milestones:       make([]MilestoneReview, 0, len(milestones)),
		ProjectDocuments: make([]DocumentResponse, 0),
	}

	for _, r := range requests {
		if !workflow.CanView(viewer, r.UserID) {
			continue
		}
		resp := toPaymentRequestResponse(r, s.urls)
		review.PaymentRequests = append(review.PaymentRequests, resp)
		review.Counts.Documents += resp.DocumentCount
		review.Counts.Photos += resp.PhotoCount
	}
	review.Counts.PaymentRequests = len(review.PaymentRequests)

	progress := make(map[uint][]model.Document)
	for _, d := range docs {
		if d.IsProjectCover == 1 && review.Project.CoverPhotoURL == "" && s.urls != nil {
			review.Project.CoverPhotoURL = s.urls.URL(d.DocumentPath)
		}
		switch {
		case d.DocumentType == model.DocTypeMilestonePhoto && d.MilestoneID != nil:
			progress[*d.MilestoneID] = append(progress[*d.MilestoneID], d)
		case d.RequestID == nil && d.MilestoneID == nil && !d.IsPhoto():
			review.ProjectDocuments = append(review.ProjectDocuments, toDocumentResponse(d, s.urls))
		}
	}

	now := s.now()
	for _, m := range milestones {
		_, photos := partitionDocuments(progress[m.ID], s.urls)
		review.Milestones = append(review.Milestones, MilestoneReview{
			MilestoneID: m.ID,
			Name:        m.Name,
			TargetDate:  display.FormatDate(m.TargetDate),
			Status:      m.Status,
			Overdue:     m.Overdue(now),
			Photos:      photos,
		})
		review.Counts.ProgressPhotos += len(photos)
	}

	return review, nil
}
