package handler

import (
	"net/http"

	"pmis/internal/middleware"
	"pmis/internal/service"
	"pmis/internal/workflow"
	"pmis/pkg/response"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	paymentService service.PaymentService
}

func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// RegisterRoutes expects an authenticated group. Per-request visibility and
// approver checks happen in the service.
func (h *PaymentHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/projects/:id/payment-requests", h.ListForProject)
	router.POST("/api/projects/:id/payment-requests",
		middleware.Require(workflow.PrivPaymentRequestCreate), h.CreateRequest)

	requests := router.Group("/api/payment-requests")
	{
		requests.GET("/:id", h.GetRequest)
		requests.GET("/:id/history", h.GetHistory)
		requests.GET("/:id/approval-view", h.GetApprovalView)
		requests.POST("/:id/actions", h.RecordAction)
		requests.POST("/:id/payment-details", h.CreatePaymentDetails)
		requests.PUT("/:id/status", h.UpdateStatus)
	}
}

// ListForProject returns the payment requests of a project visible to the caller
// @Summary      List payment requests
// @Tags         payment-requests
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Project ID"
// @Success      200  {object}  response.Response{data=[]service.PaymentRequestResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/projects/{id}/payment-requests [get]
func (h *PaymentHandler) ListForProject(c *gin.Context) {
	projectID, ok := paramID(c, "id")
	if !ok {
		return
	}
	requests, err := h.paymentService.GetRequestsForProject(c.Request.Context(), projectID, viewerOf(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, requests))
}

// CreateRequest submits a payment request into the approval chain
// @Summary      Submit a payment request
// @Tags         payment-requests
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      int                              true  "Project ID"
// @Param        payload  body      service.CreatePaymentRequestDTO  true  "Payment request"
// @Success      201      {object}  response.Response{data=service.PaymentRequestResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/projects/{id}/payment-requests [post]
func (h *PaymentHandler) CreateRequest(c *gin.Context) {
	projectID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req service.CreatePaymentRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	created, err := h.paymentService.CreateRequest(c.Request.Context(), projectID, req, viewerOf(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, created))
}

// GetRequest returns one payment request with its documents and photos
// @Summary      Get a payment request
// @Tags         payment-requests
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.PaymentRequestResponse}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/payment-requests/{id} [get]
func (h *PaymentHandler) GetRequest(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	req, err := h.paymentService.GetRequestByID(c.Request.Context(), id, viewerOf(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, req))
}

// GetHistory returns the approval timeline, oldest first
// @Summary      Approval history
// @Tags         payment-requests
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Request ID"
// @Success      200  {object}  response.Response{data=[]service.ApprovalHistoryResponse}
// @Router       /api/payment-requests/{id}/history [get]
func (h *PaymentHandler) GetHistory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	history, err := h.paymentService.GetPaymentApprovalHistory(c.Request.Context(), id, viewerOf(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, history))
}

// GetApprovalView returns what the approval modal needs in one call
// @Summary      Approval view
// @Tags         payment-requests
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.ApprovalView}
// @Router       /api/payment-requests/{id}/approval-view [get]
func (h *PaymentHandler) GetApprovalView(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	view, err := h.paymentService.GetApprovalView(c.Request.Context(), id, viewerOf(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, view))
}

// RecordAction applies approve, reject, return or resubmit
// @Summary      Record an approval action
// @Tags         payment-requests
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      int                            true  "Request ID"
// @Param        payload  body      service.ApprovalActionRequest  true  "Action"
// @Success      200      {object}  response.Response{data=service.ApprovalView}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/payment-requests/{id}/actions [post]
func (h *PaymentHandler) RecordAction(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req service.ApprovalActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	view, err := h.paymentService.RecordApprovalAction(c.Request.Context(), id, req, viewerOf(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, view))
}

// CreatePaymentDetails records the disbursement and marks the request paid
// @Summary      Record payment details
// @Tags         payment-requests
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      int                            true  "Request ID"
// @Param        payload  body      service.PaymentDetailsRequest  true  "Payment details"
// @Success      201      {object}  response.Response{data=service.ApprovalView}
// @Failure      409      {object}  response.Response
// @Router       /api/payment-requests/{id}/payment-details [post]
func (h *PaymentHandler) CreatePaymentDetails(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req service.PaymentDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	view, err := h.paymentService.CreatePaymentDetails(c.Request.Context(), id, req, viewerOf(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, view))
}

// UpdateStatus sets the status directly, bypassing the approval chain
// @Summary      Override status
// @Tags         payment-requests
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      int                          true  "Request ID"
// @Param        payload  body      service.UpdateStatusRequest  true  "Status"
// @Success      200      {object}  response.Response{data=service.PaymentRequestResponse}
// @Router       /api/payment-requests/{id}/status [put]
func (h *PaymentHandler) UpdateStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	updated, err := h.paymentService.UpdateStatus(c.Request.Context(), id, req, viewerOf(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, updated))
}
