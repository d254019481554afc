package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"pmis/internal/logging"
	"pmis/internal/model"
	"pmis/internal/repository"
	"pmis/internal/storage"
	"pmis/internal/workflow"
)

// --- DTOs ---

type DocumentResponse struct {
	ID               uint   `json:"id"`
	ProjectID        uint   `json:"projectId"`
	RequestID        *uint  `json:"requestId"`
	MilestoneID      *uint  `json:"milestoneId"`
	DocumentType     string `json:"documentType"`
	DocumentCategory string `json:"documentCategory"`
	DocumentPath     string `json:"documentPath"`
	URL              string `json:"url"`
	OriginalFileName string `json:"originalFileName"`
	Description      string `json:"description"`
	DisplayOrder     int    `json:"displayOrder"`
	IsProjectCover   int    `json:"isProjectCover"`
	UserID           uint   `json:"userId"`
	CreatedAt        string `json:"createdAt"`
}

// UploadDocumentInput is a multipart upload after the handler has opened the file part.
type UploadDocumentInput struct {
	ProjectID        uint
	RequestID        *uint
	MilestoneID      *uint
	DocumentType     string
	DocumentCategory string
	Description      string
	FileName         string
	Size             int64
	Content          io.Reader
}

type FileInput struct {
	FileName string
	Size     int64
	Content  io.Reader
}

type UpdateDocumentRequest struct {
	Description      *string `json:"description"`
	DocumentCategory *string `json:"documentCategory"`
}

type ResizePhotoRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type PhotoOrder struct {
	ID           uint `json:"id" binding:"required"`
	DisplayOrder int  `json:"displayOrder"`
}

type ReorderPhotosRequest struct {
	Photos []PhotoOrder `json:"photos" binding:"required"`
}

type MovePhotoRequest struct {
	ToIndex int `json:"toIndex"`
}

type ProjectDocumentsResponse struct {
	Documents []DocumentResponse `json:"documents"`
	Photos    []DocumentResponse `json:"photos"`
	Cover     *DocumentResponse  `json:"cover"`
}

// FileStore is where document bytes live.
type FileStore interface {
	URLResolver
	Save(dir, originalName string, r io.Reader) (string, error)
	Overwrite(rel string, content []byte) error
	Open(rel string) (io.ReadCloser, error)
	Remove(rel string) error
}

// --- Interface ---

type DocumentService interface {
	ListProjectDocuments(ctx context.Context, projectID uint, viewer workflow.Viewer) (*ProjectDocumentsResponse, error)
	Upload(ctx context.Context, in UploadDocumentInput, viewer workflow.Viewer) (*DocumentResponse, error)
	Update(ctx context.Context, id uint, req UpdateDocumentRequest, viewer workflow.Viewer) (*DocumentResponse, error)
	Replace(ctx context.Context, id uint, file FileInput, viewer workflow.Viewer) (*DocumentResponse, error)
	Delete(ctx context.Context, id uint, viewer workflow.Viewer) error
	Resize(ctx context.Context, id uint, req ResizePhotoRequest, viewer workflow.Viewer) (*DocumentResponse, error)
	SetProjectCoverPhoto(ctx context.Context, id uint, viewer workflow.Viewer) (*DocumentResponse, error)
	ReorderPhotos(ctx context.Context, orders []PhotoOrder, viewer workflow.Viewer) ([]DocumentResponse, error)
	MovePhoto(ctx context.Context, id uint, toIndex int, viewer workflow.Viewer) ([]DocumentResponse, error)
	Open(ctx context.Context, id uint, viewer workflow.Viewer) (io.ReadCloser, *DocumentResponse, error)
}

type documentService struct {
	tm          repository.TransactionManager
	docs        repository.DocumentRepository
	requests    repository.PaymentRequestRepository
	projects    repository.ProjectRepository
	audit       repository.AuditRepository
	files       FileStore
	events      EventPublisher
	maxUploadMB int64
}

func NewDocumentService(
	tm repository.TransactionManager,
	docs repository.DocumentRepository,
	requests repository.PaymentRequestRepository,
	projects repository.ProjectRepository,
	audit repository.AuditRepository,
	files FileStore,
	events EventPublisher,
	maxUploadMB int64,
) DocumentService {
	return &documentService{
		tm:          tm,
		docs:        docs,
		requests:    requests,
		projects:    projects,
		audit:       audit,
		files:       files,
		events:      publisherOrNoop(events),
		maxUploadMB: maxUploadMB,
	}
}

// --- Implementation ---

func (s *documentService) ListProjectDocuments(ctx context.Context, projectID uint, viewer workflow.Viewer) (*ProjectDocumentsResponse, error) {
	if err := requirePrivilege(viewer, workflow.PrivDocumentRead); err != nil {
		return nil, err
	}
	if _, err := s.projects.FindByID(ctx, projectID); err != nil {
		return nil, lookupErr("project", err)
	}
	docs, err := s.docs.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch documents: %w", err)
	}

	documents, photos := partitionDocuments(docs, s.files)
	res := &ProjectDocumentsResponse{Documents: documents, Photos: photos}
	for i := range photos {
		if photos[i].IsProjectCover == 1 {
			res.Cover = &photos[i]
			break
		}
	}
	return res, nil
}

func (s *documentService) Upload(ctx context.Context, in UploadDocumentInput, viewer workflow.Viewer) (*DocumentResponse, error) {
	if err := requirePrivilege(viewer, workflow.PrivDocumentUpdate); err != nil {
		return nil, err
	}
	if err := s.checkSize(in.Size); err != nil {
		return nil, err
	}
	if in.DocumentType == "" {
		in.DocumentType = model.DocTypeDocument
	}

	if _, err := s.projects.FindByID(ctx, in.ProjectID); err != nil {
		return nil, lookupErr("project", err)
	}
	if err := s.checkOwner(ctx, in); err != nil {
		return nil, err
	}

	rel, err := s.files.Save(projectDir(in.ProjectID), in.FileName, in.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	doc := model.Document{
		ProjectID:        in.ProjectID,
		RequestID:        in.RequestID,
		MilestoneID:      in.MilestoneID,
		DocumentType:     in.DocumentType,
		DocumentCategory: strings.TrimSpace(in.DocumentCategory),
		DocumentPath:     rel,
		OriginalFileName: path.Base(in.FileName),
		Description:      strings.TrimSpace(in.Description),
		UserID:           viewer.UserID,
	}
	err = s.tm.RunInTx(ctx, func(txCtx context.Context) error {
		if doc.IsPhoto() {
			next, err := s.docs.NextDisplayOrder(txCtx, &doc)
			if err != nil {
				return fmt.Errorf("failed to compute display order: %w", err)
			}
			doc.DisplayOrder = next
		}
		if err := s.docs.Create(txCtx, &doc); err != nil {
			return fmt.Errorf("failed to save document: %w", err)
		}
		return s.audit.Log(txCtx, newAuditLog(viewer.UserID, model.ActionUploadDocument, "document", doc.ID,
			map[string]interface{}{"file": doc.OriginalFileName, "type": doc.DocumentType}))
	})
	if err != nil {
		s.discard(ctx, rel)
		return nil, err
	}

	s.events.Publish(EventDocumentUpdated, payload{"id": doc.ID, "projectId": doc.ProjectID})
	resp := toDocumentResponse(doc, s.files)
	return &resp, nil
}

func (s *documentService) Update(ctx context.Context, id uint, req UpdateDocumentRequest, viewer workflow.Viewer) (*DocumentResponse, error) {
	if err := requirePrivilege(viewer, workflow.PrivDocumentUpdate); err != nil {
		return nil, err
	}

	var doc *model.Document
	err := s.tm.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		doc, err = s.docs.FindByID(txCtx, id)
		if err != nil {
			return lookupErr("document", err)
		}
		if req.Description != nil {
			doc.Description = strings.TrimSpace(*req.Description)
		}
		if req.DocumentCategory != nil {
			doc.DocumentCategory = strings.TrimSpace(*req.DocumentCategory)
		}
		if err := s.docs.Update(txCtx, doc); err != nil {
			return fmt.Errorf("failed to update document: %w", err)
		}
		return s.audit.Log(txCtx, newAuditLog(viewer.UserID, model.ActionUpdateDocument, "document", doc.ID,
			map[string]interface{}{"description": doc.Description}))
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(EventDocumentUpdated, payload{"id": doc.ID, "projectId": doc.ProjectID})
	resp := toDocumentResponse(*doc, s.files)
	return &resp, nil
}

func (s *documentService) Replace(ctx context.Context, id uint, file FileInput, viewer workflow.Viewer) (*DocumentResponse, error) {
	if err := requirePrivilege(viewer, workflow.PrivDocumentUpdate); err != nil {
		return nil, err
	}
	if err := s.checkSize(file.Size); err != nil {
		return nil, err
	}

	doc, err := s.docs.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr("document", err)
	}
	oldPath := doc.DocumentPath

	rel, err := s.files.Save(projectDir(doc.ProjectID), file.FileName, file.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to store replacement: %w", err)
	}

	err = s.tm.RunInTx(ctx, func(txCtx context.Context) error {
		doc.DocumentPath = rel
		doc.OriginalFileName = path.Base(file.FileName)
		if err := s.docs.Update(txCtx, doc); err != nil {
			return fmt.Errorf("failed to update document: %w", err)
		}
		return s.audit.Log(txCtx, newAuditLog(viewer.UserID, model.ActionReplaceDocument, "document", doc.ID,
			map[string]interface{}{"old": oldPath, "new": rel}))
	})
	if err != nil {
		s.discard(ctx, rel)
		return nil, err
	}
	s.discard(ctx, oldPath)

	s.events.Publish(EventDocumentUpdated, payload{"id": doc.ID, "projectId": doc.ProjectID})
	resp := toDocumentResponse(*doc, s.files)
	return &resp, nil
}

func (s *documentService) Delete(ctx context.Context, id uint, viewer workflow.Viewer) error {
	if err := requirePrivilege(viewer, workflow.PrivDocumentDelete); err != nil {
		return err
	}

	var doc *model.Document
	err := s.tm.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		doc, err = s.docs.FindByID(txCtx, id)
		if err != nil {
			return lookupErr("document", err)
		}
		if err := s.docs.Delete(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete document: %w", err)
		}
		if doc.IsPhoto() {
			// close the gap left in the gallery
			group, err := s.docs.ListGroup(txCtx, doc)
			if err != nil {
				return fmt.Errorf("failed to load photo group: %w", err)
			}
			ids := make([]uint, 0, len(group))
			for _, d := range group {
				ids = append(ids, d.ID)
			}
			if err := s.docs.UpdateDisplayOrders(txCtx, sequentialOrders(ids)); err != nil {
				return fmt.Errorf("failed to renumber photos: %w", err)
			}
		}
		return s.audit.Log(txCtx, newAuditLog(viewer.UserID, model.ActionDeleteDocument, "document", doc.ID,
			map[string]interface{}{"file": doc.OriginalFileName, "path": doc.DocumentPath}))
	})
	if err != nil {
		return err
	}
	s.discard(ctx, doc.DocumentPath)

	s.events.Publish(EventDocumentUpdated, payload{"id": doc.ID, "projectId": doc.ProjectID, "deleted": true})
	return nil
}

func (s *documentService) Resize(ctx context.Context, id uint, req ResizePhotoRequest, viewer workflow.Viewer) (*DocumentResponse, error) {
	if err := requirePrivilege(viewer, workflow.PrivDocumentUpdate); err != nil {
		return nil, err
	}

	doc, err := s.docs.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr("document", err)
	}
	if !doc.IsPhoto() {
		return nil, invalidf("document %d is not a photo", id)
	}

	src, err := s.files.Open(doc.DocumentPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open photo: %w", err)
	}
	resized, _, err := storage.Resize(src, req.Width, req.Height)
	src.Close()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.files.Overwrite(doc.DocumentPath, resized); err != nil {
		return nil, fmt.Errorf("failed to write resized photo: %w", err)
	}

	if err := s.tm.RunInTx(ctx, func(txCtx context.Context) error {
		doc.UpdatedAt = time.Now()
		if err := s.docs.Update(txCtx, doc); err != nil {
			return fmt.Errorf("failed to update document: %w", err)
		}
		return s.audit.Log(txCtx, newAuditLog(viewer.UserID, model.ActionResizePhoto, "document", doc.ID,
			map[string]interface{}{"width": req.Width, "height": req.Height}))
	}); err != nil {
		return nil, err
	}

	s.events.Publish(EventDocumentUpdated, payload{"id": doc.ID, "projectId": doc.ProjectID})
	resp := toDocumentResponse(*doc, s.files)
	return &resp, nil
}

func (s *documentService) SetProjectCoverPhoto(ctx context.Context, id uint, viewer workflow.Viewer) (*DocumentResponse, error) {
	if err := requirePrivilege(viewer, workflow.PrivDocumentUpdate); err != nil {
		return nil, err
	}

	var doc *model.Document
	err := s.tm.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		doc, err = s.docs.FindByID(txCtx, id)
		if err != nil {
			return lookupErr("document", err)
		}
		if !doc.IsPhoto() {
			return invalidf("document %d is not a photo", id)
		}
		if err := s.docs.SetProjectCover(txCtx, doc.ProjectID, doc.ID); err != nil {
			return fmt.Errorf("failed to set cover photo: %w", err)
		}
		doc.IsProjectCover = 1
		return s.audit.Log(txCtx, newAuditLog(viewer.UserID, model.ActionSetCoverPhoto, "project", doc.ProjectID,
			map[string]interface{}{"documentId": doc.ID}))
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(EventDocumentUpdated, payload{"id": doc.ID, "projectId": doc.ProjectID})
	resp := toDocumentResponse(*doc, s.files)
	return &resp, nil
}

func (s *documentService) ReorderPhotos(ctx context.Context, orders []PhotoOrder, viewer workflow.Viewer) ([]DocumentResponse, error) {
	if err := requirePrivilege(viewer, workflow.PrivDocumentUpdate); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, invalidf("no photos to reorder")
	}

	ids := make([]uint, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}

	var group []model.Document
	err := s.tm.RunInTx(ctx, func(txCtx context.Context) error {
		docs, err := s.docs.FindByIDs(txCtx, ids)
		if err != nil {
			return fmt.Errorf("failed to load photos: %w", err)
		}
		if len(docs) != len(uniqueIDs(ids)) {
			return fmt.Errorf("photo %w", ErrNotFound)
		}
		group, err = s.loadGroup(txCtx, docs)
		if err != nil {
			return err
		}
		if err := validateReorder(orders, group); err != nil {
			return err
		}

		target := make(map[uint]int, len(orders))
		for _, o := range orders {
			target[o.ID] = o.DisplayOrder
		}
		return s.persistOrder(txCtx, group[0], target, viewer)
	})
	if err != nil {
		return nil, err
	}
	return s.publishGroup(ctx, group[0])
}

func (s *documentService) MovePhoto(ctx context.Context, id uint, toIndex int, viewer workflow.Viewer) ([]DocumentResponse, error) {
	if err := requirePrivilege(viewer, workflow.PrivDocumentUpdate); err != nil {
		return nil, err
	}

	var anchor model.Document
	err := s.tm.RunInTx(ctx, func(txCtx context.Context) error {
		doc, err := s.docs.FindByID(txCtx, id)
		if err != nil {
			return lookupErr("photo", err)
		}
		group, err := s.loadGroup(txCtx, []model.Document{*doc})
		if err != nil {
			return err
		}
		anchor = *doc

		ids := make([]uint, 0, len(group))
		from := -1
		for i, d := range group {
			ids = append(ids, d.ID)
			if d.ID == id {
				from = i
			}
		}
		return s.persistOrder(txCtx, anchor, sequentialOrders(movePosition(ids, from, toIndex)), viewer)
	})
	if err != nil {
		return nil, err
	}
	return s.publishGroup(ctx, anchor)
}

func (s *documentService) Open(ctx context.Context, id uint, viewer workflow.Viewer) (io.ReadCloser, *DocumentResponse, error) {
	if err := requirePrivilege(viewer, workflow.PrivDocumentRead); err != nil {
		return nil, nil, err
	}
	doc, err := s.docs.FindByID(ctx, id)
	if err != nil {
		return nil, nil, lookupErr("document", err)
	}
	rc, err := s.files.Open(doc.DocumentPath)
	if err != nil {
		return nil, nil, fmt.Errorf("document file %w", ErrNotFound)
	}
	resp := toDocumentResponse(*doc, s.files)
	return rc, &resp, nil
}

// --- Helpers ---

// loadGroup checks that docs are photos of a single gallery and returns that whole gallery.
func (s *documentService) loadGroup(ctx context.Context, docs []model.Document) ([]model.Document, error) {
	first := docs[0]
	for _, d := range docs {
		if !d.IsPhoto() {
			return nil, invalidf("document %d is not a photo", d.ID)
		}
		if groupKey(d) != groupKey(first) {
			return nil, invalidf("photos must belong to the same gallery")
		}
	}
	group, err := s.docs.ListGroup(ctx, &first)
	if err != nil {
		return nil, fmt.Errorf("failed to load photo group: %w", err)
	}
	return group, nil
}

func (s *documentService) persistOrder(ctx context.Context, anchor model.Document, orders map[uint]int, viewer workflow.Viewer) error {
	if err := s.docs.UpdateDisplayOrders(ctx, orders); err != nil {
		return fmt.Errorf("failed to save photo order: %w", err)
	}
	return s.audit.Log(ctx, newAuditLog(viewer.UserID, model.ActionReorderPhotos, "project", anchor.ProjectID,
		map[string]interface{}{"type": anchor.DocumentType, "photos": len(orders)}))
}

func (s *documentService) publishGroup(ctx context.Context, anchor model.Document) ([]DocumentResponse, error) {
	group, err := s.docs.ListGroup(ctx, &anchor)
	if err != nil {
		return nil, fmt.Errorf("failed to reload photos: %w", err)
	}
	s.events.Publish(EventPhotosReordered, payload{
		"projectId": anchor.ProjectID, "requestId": anchor.RequestID, "milestoneId": anchor.MilestoneID,
	})
	res := make([]DocumentResponse, 0, len(group))
	for _, d := range group {
		res = append(res, toDocumentResponse(d, s.files))
	}
	return res, nil
}

func (s *documentService) checkSize(size int64) error {
	if s.maxUploadMB > 0 && size > s.maxUploadMB<<20 {
		return invalidf("file exceeds %d MB", s.maxUploadMB)
	}
	return nil
}

func (s *documentService) checkOwner(ctx context.Context, in UploadDocumentInput) error {
	switch in.DocumentType {
	case model.DocTypePaymentPhoto:
		if in.RequestID == nil {
			return invalidf("payment photos need a requestId")
		}
	case model.DocTypeMilestonePhoto:
		if in.MilestoneID == nil {
			return invalidf("progress photos need a milestoneId")
		}
	}
	if in.RequestID != nil {
		req, err := s.requests.FindByID(ctx, *in.RequestID)
		if err != nil {
			return lookupErr("payment request", err)
		}
		if req.ProjectID != in.ProjectID {
			return invalidf("payment request %d belongs to another project", req.ID)
		}
	}
	if in.MilestoneID != nil {
		m, err := s.projects.FindMilestone(ctx, *in.MilestoneID)
		if err != nil {
			return lookupErr("milestone", err)
		}
		if m.ProjectID != in.ProjectID {
			return invalidf("milestone %d belongs to another project", m.ID)
		}
	}
	return nil
}

func (s *documentService) discard(ctx context.Context, rel string) {
	if err := s.files.Remove(rel); err != nil {
		log := logging.FromContext(ctx)
		log.Warn().Err(err).Str("path", rel).Msg("failed to remove stored file")
	}
}

func requirePrivilege(viewer workflow.Viewer, p workflow.Privilege) error {
	if !viewer.Can(p) {
		return fmt.Errorf("%w: missing privilege %s", ErrForbidden, p)
	}
	return nil
}

func projectDir(projectID uint) string {
	return fmt.Sprintf("projects/%d", projectID)
}

type photoGroup struct {
	projectID   uint
	docType     string
	requestID   uint
	milestoneID uint
}

func groupKey(d model.Document) photoGroup {
	k := photoGroup{projectID: d.ProjectID, docType: d.DocumentType}
	if d.DocumentType == model.DocTypePaymentPhoto && d.RequestID != nil {
		k.requestID = *d.RequestID
	}
	if d.DocumentType == model.DocTypeMilestonePhoto && d.MilestoneID != nil {
		k.milestoneID = *d.MilestoneID
	}
	return k
}

// validateReorder requires orders to cover the whole group exactly once with
// display orders forming 0..n-1.
func validateReorder(orders []PhotoOrder, group []model.Document) error {
	if len(orders) != len(group) {
		return invalidf("reorder must include all %d photos of the gallery", len(group))
	}
	inGroup := make(map[uint]bool, len(group))
	for _, d := range group {
		inGroup[d.ID] = true
	}
	seenID := make(map[uint]bool, len(orders))
	seenPos := make(map[int]bool, len(orders))
	for _, o := range orders {
		if !inGroup[o.ID] {
			return invalidf("photo %d is not part of the gallery", o.ID)
		}
		if seenID[o.ID] {
			return invalidf("photo %d listed twice", o.ID)
		}
		if o.DisplayOrder < 0 || o.DisplayOrder >= len(orders) || seenPos[o.DisplayOrder] {
			return invalidf("display orders must be a permutation of 0..%d", len(orders)-1)
		}
		seenID[o.ID] = true
		seenPos[o.DisplayOrder] = true
	}
	return nil
}

// movePosition moves the element at from to index to, clamping to the slice bounds.
func movePosition(ids []uint, from, to int) []uint {
	if from < 0 || from >= len(ids) {
		return ids
	}
	to = max(0, min(to, len(ids)-1))
	moved := ids[from]
	out := make([]uint, 0, len(ids))
	out = append(out, ids[:from]...)
	out = append(out, ids[from+1:]...)
	out = append(out[:to], append([]uint{moved}, out[to:]...)...)
	return out
}

func sequentialOrders(ids []uint) map[uint]int {
	orders := make(map[uint]int, len(ids))
	for i, id := range ids {
		orders[id] = i
	}
	return orders
}

func uniqueIDs(ids []uint) map[uint]struct{} {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// partitionDocuments splits documents from gallery photos; photos come back in display order.
func partitionDocuments(docs []model.Document, urls URLResolver) (documents, photos []DocumentResponse) {
	documents = make([]DocumentResponse, 0, len(docs))
	photos = make([]DocumentResponse, 0)
	for _, d := range docs {
		if d.IsPhoto() {
			photos = append(photos, toDocumentResponse(d, urls))
		} else {
			documents = append(documents, toDocumentResponse(d, urls))
		}
	}
	sort.SliceStable(photos, func(i, j int) bool { return photos[i].DisplayOrder < photos[j].DisplayOrder })
	return documents, photos
}

func toDocumentResponse(d model.Document, urls URLResolver) DocumentResponse {
	resp := DocumentResponse{
		ID:               d.ID,
		ProjectID:        d.ProjectID,
		RequestID:        d.RequestID,
		MilestoneID:      d.MilestoneID,
		DocumentType:     d.DocumentType,
		DocumentCategory: d.DocumentCategory,
		DocumentPath:     d.DocumentPath,
		OriginalFileName: d.OriginalFileName,
		Description:      d.Description,
		DisplayOrder:     d.DisplayOrder,
		IsProjectCover:   d.IsProjectCover,
		UserID:           d.UserID,
		CreatedAt:        d.CreatedAt.Format(time.RFC3339),
	}
	if urls != nil {
		resp.URL = urls.URL(d.DocumentPath)
	}
	return resp
}
