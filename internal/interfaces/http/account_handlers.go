package http

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/expense-approval/internal/application/service"
)

// SaveDraft handles PUT /api/v1/drafts/:draftType. The body is stored as is.
func (h *Handlers) SaveDraft(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	draft, err := h.svc.Drafts.Save(c.Request.Context(), mustSession(c), c.Param("draftType"), json.RawMessage(body))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: draft})
}

// LoadDraft handles GET /api/v1/drafts/:draftType. A draft can be loaded once.
func (h *Handlers) LoadDraft(c *gin.Context) {
	draft, err := h.svc.Drafts.Load(c.Request.Context(), mustSession(c), c.Param("draftType"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: draft})
}

// Dashboard handles GET /api/v1/dashboard
func (h *Handlers) Dashboard(c *gin.Context) {
	var f service.DashboardFilter
	if err := c.ShouldBindQuery(&f); err != nil || f.Month < 0 || f.Month > 12 {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid query parameters"})
		return
	}

	dash, err := h.svc.Dashboard.Summary(c.Request.Context(), mustSession(c), f)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: dash})
}

// ListUsers handles GET /api/v1/users
func (h *Handlers) ListUsers(c *gin.Context) {
	users, err := h.svc.Users.List(c.Request.Context(), mustSession(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: users})
}

// GetUser handles GET /api/v1/users/:uid
func (h *Handlers) GetUser(c *gin.Context) {
	user, err := h.svc.Users.Get(c.Request.Context(), mustSession(c), c.Param("uid"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: user})
}

// CreateUser handles POST /api/v1/users
func (h *Handlers) CreateUser(c *gin.Context) {
	var in service.UserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	user, err := h.svc.Users.Create(c.Request.Context(), mustSession(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: user})
}

// UpdateUser handles PUT /api/v1/users/:uid
func (h *Handlers) UpdateUser(c *gin.Context) {
	var in service.UserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	user, err := h.svc.Users.Update(c.Request.Context(), mustSession(c), c.Param("uid"), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: user})
}
