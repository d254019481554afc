package handler

import (
	"net/http"
	"strconv"

	"pmis/internal/service"
	"pmis/pkg/response"

	"github.com/gin-gonic/gin"
)

// RecordHandler serves every form-backed record kind through one set of routes.
type RecordHandler struct {
	registry *service.Registry
}

func NewRecordHandler(registry *service.Registry) *RecordHandler {
	return &RecordHandler{registry: registry}
}

func (h *RecordHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/forms", h.ListKinds)

	for _, group := range []string{service.GroupKDSP, service.GroupStrategic, service.GroupLookups} {
		g := router.Group("/api/" + group)
		g.GET("/:kind", h.list(group))
		g.GET("/:kind/:id", h.get(group))
		g.POST("/:kind", h.create(group))
		g.PUT("/:kind/:id", h.update(group))
		g.DELETE("/:kind/:id", h.delete(group))
	}

	// Display-name lookups used by the dashboard dropdowns.
	router.GET("/api/approval-levels", h.lookup(service.GroupLookups, "approval-levels", ""))
	router.GET("/api/contractors", h.lookup(service.GroupLookups, "contractors", ""))
	router.GET("/api/projects", h.lookup(service.GroupLookups, "projects", ""))
	router.GET("/api/projects/:id/milestones", h.lookup(service.GroupLookups, "milestones", "id"))
}

// ListKinds returns the registered form kinds
// @Summary      List form kinds
// @Tags         records
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.FormKind}
// @Router       /api/forms [get]
func (h *RecordHandler) ListKinds(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, h.registry.Kinds()))
}

func (h *RecordHandler) recordService(c *gin.Context, group string) (service.RecordService, bool) {
	svc, ok := h.registry.Lookup(group, c.Param("kind"))
	if !ok {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Unknown record type "+group+"/"+c.Param("kind")))
		return nil, false
	}
	return svc, true
}

// list handles GET /api/{group}/{kind}?parentId=
// @Summary      List records
// @Tags         records
// @Security     BearerAuth
// @Produce      json
// @Param        group     path   string  true   "kdsp, strategic or records"
// @Param        kind      path   string  true   "Record kind"
// @Param        parentId  query  int     false  "Owner record ID"
// @Success      200  {object}  response.Response
// @Router       /api/{group}/{kind} [get]
func (h *RecordHandler) list(group string) gin.HandlerFunc {
	return func(c *gin.Context) {
		svc, ok := h.recordService(c, group)
		if !ok {
			return
		}
		var parentID *uint
		if raw := c.Query("parentId"); raw != "" {
			id, err := strconv.ParseUint(raw, 10, 64)
			if err != nil || id == 0 {
				badRequest(c, "Invalid parentId")
				return
			}
			v := uint(id)
			parentID = &v
		}
		h.respondList(c, svc, parentID)
	}
}

func (h *RecordHandler) lookup(group, kind, parentParam string) gin.HandlerFunc {
	return func(c *gin.Context) {
		svc, ok := h.registry.Lookup(group, kind)
		if !ok {
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Unknown record type "+kind))
			return
		}
		var parentID *uint
		if parentParam != "" {
			id, ok := paramID(c, parentParam)
			if !ok {
				return
			}
			parentID = &id
		}
		h.respondList(c, svc, parentID)
	}
}

func (h *RecordHandler) respondList(c *gin.Context, svc service.RecordService, parentID *uint) {
	records, err := svc.List(c.Request.Context(), parentID, viewerOf(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, records))
}

// get handles GET /api/{group}/{kind}/{id}
// @Summary      Get a record
// @Tags         records
// @Security     BearerAuth
// @Produce      json
// @Param        group  path  string  true  "kdsp, strategic or records"
// @Param        kind   path  string  true  "Record kind"
// @Param        id     path  int     true  "Record ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/{group}/{kind}/{id} [get]
func (h *RecordHandler) get(group string) gin.HandlerFunc {
	return func(c *gin.Context) {
		svc, ok := h.recordService(c, group)
		if !ok {
			return
		}
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		record, err := svc.Get(c.Request.Context(), id, viewerOf(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.Success(http.StatusOK, record))
	}
}

// create handles POST /api/{group}/{kind}
// @Summary      Create a record
// @Tags         records
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        group  path  string  true  "kdsp, strategic or records"
// @Param        kind   path  string  true  "Record kind"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/{group}/{kind} [post]
func (h *RecordHandler) create(group string) gin.HandlerFunc {
	return func(c *gin.Context) {
		svc, ok := h.recordService(c, group)
		if !ok {
			return
		}
		record, err := svc.Create(c.Request.Context(), bindJSON(c), viewerOf(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, response.Success(http.StatusCreated, record))
	}
}

// update handles PUT /api/{group}/{kind}/{id}
// @Summary      Update a record
// @Tags         records
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        group  path  string  true  "kdsp, strategic or records"
// @Param        kind   path  string  true  "Record kind"
// @Param        id     path  int     true  "Record ID"
// @Success      200  {object}  response.Response
// @Router       /api/{group}/{kind}/{id} [put]
func (h *RecordHandler) update(group string) gin.HandlerFunc {
	return func(c *gin.Context) {
		svc, ok := h.recordService(c, group)
		if !ok {
			return
		}
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		record, err := svc.Update(c.Request.Context(), id, bindJSON(c), viewerOf(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.Success(http.StatusOK, record))
	}
}

// delete handles DELETE /api/{group}/{kind}/{id}
// @Summary      Delete a record
// @Tags         records
// @Security     BearerAuth
// @Produce      json
// @Param        group  path  string  true  "kdsp, strategic or records"
// @Param        kind   path  string  true  "Record kind"
// @Param        id     path  int     true  "Record ID"
// @Success      200  {object}  response.Response
// @Router       /api/{group}/{kind}/{id} [delete]
func (h *RecordHandler) delete(group string) gin.HandlerFunc {
	return func(c *gin.Context) {
		svc, ok := h.recordService(c, group)
		if !ok {
			return
		}
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		if err := svc.Delete(c.Request.Context(), id, viewerOf(c)); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Record deleted successfully"}))
	}
}

func bindJSON(c *gin.Context) service.Binder {
	return func(dst interface{}) error { return c.ShouldBindJSON(dst) }
}
