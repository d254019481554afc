package handler

import (
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	"pmis/internal/service"
	"pmis/pkg/response"

	"github.com/gin-gonic/gin"
)

type DocumentHandler struct {
	documentService service.DocumentService
}

func NewDocumentHandler(documentService service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

func (h *DocumentHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/projects/:id/documents", h.ListProjectDocuments)
	router.POST("/api/projects/:id/documents", h.Upload)

	docs := router.Group("/api/documents")
	{
		docs.PUT("/reorder", h.Reorder)
		docs.PUT("/:id", h.Update)
		docs.PUT("/:id/file", h.Replace)
		docs.PUT("/:id/move", h.Move)
		docs.PUT("/:id/resize", h.Resize)
		docs.PUT("/:id/cover", h.SetCover)
		docs.GET("/:id/download", h.Download)
		docs.DELETE("/:id", h.Delete)
	}
}

// ListProjectDocuments returns documents and photos of a project, photos in display order
// @Summary      List project documents
// @Tags         documents
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Project ID"
// @Success      200  {object}  response.Response{data=service.ProjectDocumentsResponse}
// @Router       /api/projects/{id}/documents [get]
func (h *DocumentHandler) ListProjectDocuments(c *gin.Context) {
	projectID, ok := paramID(c, "id")
	if !ok {
		return
	}
	docs, err := h.documentService.ListProjectDocuments(c.Request.Context(), projectID, viewerOf(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, docs))
}

// Upload stores a multipart file against a project, payment request or milestone
// @Summary      Upload a document or photo
// @Tags         documents
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        id                path      int     true   "Project ID"
// @Param        file              formData  file    true   "File"
// @Param        requestId         formData  int     false  "Payment request ID"
// @Param        milestoneId       formData  int     false  "Milestone ID"
// @Param        documentType      formData  string  false  "document, photo_payment or photo_milestone"
// @Param        documentCategory  formData  string  false  "Category"
// @Param        description       formData  string  false  "Description"
// @Success      201  {object}  response.Response{data=service.DocumentResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/projects/{id}/documents [post]
func (h *DocumentHandler) Upload(c *gin.Context) {
	projectID, ok := paramID(c, "id")
	if !ok {
		return
	}
	requestID, err := optionalFormID(c, "requestId")
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	milestoneID, err := optionalFormID(c, "milestoneId")
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "File is required")
		return
	}
	f, err := fh.Open()
	if err != nil {
		writeError(c, fmt.Errorf("failed to open upload: %w", err))
		return
	}
	defer f.Close()

	doc, err := h.documentService.Upload(c.Request.Context(), service.UploadDocumentInput{
		ProjectID:        projectID,
		RequestID:        requestID,
		MilestoneID:      milestoneID,
		DocumentType:     c.PostForm("documentType"),
		DocumentCategory: c.PostForm("documentCategory"),
		Description:      c.PostForm("description"),
		FileName:         fh.Filename,
		Size:             fh.Size,
		Content:          f,
	}, viewerOf(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, doc))
}

// Update edits the description and category of a document
// @Summary      Update document metadata
// @Tags         documents
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      int                            true  "Document ID"
// @Param        payload  body      service.UpdateDocumentRequest  true  "Fields"
// @Success      200      {object}  response.Response{data=service.DocumentResponse}
// @Router       /api/documents/{id} [put]
func (h *DocumentHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	doc, err := h.documentService.Update(c.Request.Context(), id, req, viewerOf(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// Replace swaps the stored file, keeping the document row and its position
// @Summary      Replace document file
// @Tags         documents
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        id    path      int   true  "Document ID"
// @Param        file  formData  file  true  "File"
// @Success      200   {object}  response.Response{data=service.DocumentResponse}
// @Router       /api/documents/{id}/file [put]
func (h *DocumentHandler) Replace(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "File is required")
		return
	}
	f, err := fh.Open()
	if err != nil {
		writeError(c, fmt.Errorf("failed to open upload: %w", err))
		return
	}
	defer f.Close()

	doc, err := h.documentService.Replace(c.Request.Context(), id,
		service.FileInput{FileName: fh.Filename, Size: fh.Size, Content: f}, viewerOf(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// Reorder persists a new photo order for one gallery
// @Summary      Reorder photos
// @Tags         documents
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.ReorderPhotosRequest  true  "New order"
// @Success      200      {object}  response.Response{data=[]service.DocumentResponse}
// @Router       /api/documents/reorder [put]
func (h *DocumentHandler) Reorder(c *gin.Context) {
	var req service.ReorderPhotosRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	photos, err := h.documentService.ReorderPhotos(c.Request.Context(), req.Photos, viewerOf(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, photos))
}

// Move drags one photo to a new index within its gallery
// @Summary      Move a photo
// @Tags         documents
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      int                       true  "Document ID"
// @Param        payload  body      service.MovePhotoRequest  true  "Target index"
// @Success      200      {object}  response.Response{data=[]service.DocumentResponse}
// @Router       /api/documents/{id}/move [put]
func (h *DocumentHandler) Move(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req service.MovePhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	photos, err := h.documentService.MovePhoto(c.Request.Context(), id, req.ToIndex, viewerOf(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, photos))
}

// Resize scales a photo in place
// @Summary      Resize a photo
// @Tags         documents
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      int                         true  "Document ID"
// @Param        payload  body      service.ResizePhotoRequest  true  "Target size"
// @Success      200      {object}  response.Response{data=service.DocumentResponse}
// @Router       /api/documents/{id}/resize [put]
func (h *DocumentHandler) Resize(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req service.ResizePhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	doc, err := h.documentService.Resize(c.Request.Context(), id, req, viewerOf(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// SetCover makes the photo the project's only cover
// @Summary      Set project cover photo
// @Tags         documents
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Document ID"
// @Success      200  {object}  response.Response{data=service.DocumentResponse}
// @Router       /api/documents/{id}/cover [put]
func (h *DocumentHandler) SetCover(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	doc, err := h.documentService.SetProjectCoverPhoto(c.Request.Context(), id, viewerOf(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// Download streams the stored file
// @Summary      Download a document
// @Tags         documents
// @Security     BearerAuth
// @Produce      octet-stream
// @Param        id   path  int  true  "Document ID"
// @Success      200
// @Router       /api/documents/{id}/download [get]
func (h *DocumentHandler) Download(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	rc, doc, err := h.documentService.Open(c.Request.Context(), id, viewerOf(c))
	if err != nil {
		writeError(c, err)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(filepath.Ext(doc.DocumentPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, -1, contentType, rc, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", doc.OriginalFileName),
	})
}

// Delete removes the document and its file
// @Summary      Delete a document
// @Tags         documents
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Document ID"
// @Success      200  {object}  response.Response
// @Router       /api/documents/{id} [delete]
func (h *DocumentHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.documentService.Delete(c.Request.Context(), id, viewerOf(c)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Document deleted successfully"}))
}

func optionalFormID(c *gin.Context, field string) (*uint, error) {
	raw := c.PostForm(field)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return nil, fmt.Errorf("invalid %s", field)
	}
	v := uint(id)
	return &v, nil
}
