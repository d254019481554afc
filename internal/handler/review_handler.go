package handler

import (
	"net/http"

	"pmis/internal/service"
	"pmis/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReviewHandler struct {
	reviewService service.ReviewService
}

func NewReviewHandler(reviewService service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

func (h *ReviewHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/projects/:id/review", h.GetProjectReview)
}

// GetProjectReview returns the project manager's review panel
// @Summary      Project review panel
// @Tags         projects
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Project ID"
// @Success      200  {object}  response.Response{data=service.ProjectReview}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/projects/{id}/review [get]
func (h *ReviewHandler) GetProjectReview(c *gin.Context) {
	projectID, ok := paramID(c, "id")
	if !ok {
		return
	}
	review, err := h.reviewService.GetProjectReview(c.Request.Context(), projectID, viewerOf(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, review))
}
