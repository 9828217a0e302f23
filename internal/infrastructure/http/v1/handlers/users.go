package handlers

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"easyadmin/internal/domain/audit"
	"easyadmin/internal/domain/users"
	"easyadmin/internal/infrastructure/export"
	"easyadmin/internal/infrastructure/http/v1/dto"
)

// userColumns are the columns of the user export workbook.
var userColumns = []export.Column[users.User]{
	{Header: "ID", Width: 10, Value: func(u users.User) any { return u.ID }},
	{Header: "User Name", Width: 20, Value: func(u users.User) any { return u.UserName }},
	{Header: "Nick Name", Width: 20, Value: func(u users.User) any { return u.NickName }},
	{Header: "Email", Width: 28, Value: func(u users.User) any { return u.Email }},
	{Header: "Phone", Width: 16, Value: func(u users.User) any { return u.Phone }},
	{Header: "Status", Width: 10, Value: func(u users.User) any {
		if u.Status == users.StatusDisabled {
			return "Disabled"
		}
		return "Active"
	}},
	{Header: "Department", Width: 12, Value: func(u users.User) any { return u.OrgID }},
	{Header: "Created By", Width: 20, Value: func(u users.User) any { return u.CreatedUserName }},
	{Header: "Created Time", Width: 20, Value: func(u users.User) any {
		return u.CreatedTime.Format("2006-01-02 15:04:05")
	}},
}

// UserHandler serves the user list screen.
type UserHandler struct {
	*BaseHandler
	service *users.Service
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(base *BaseHandler, service *users.Service) *UserHandler {
	return &UserHandler{BaseHandler: base, service: service}
}

// Query handles POST /users/query.
func (h *UserHandler) Query(c *gin.Context) {
	req := dto.NewQueryRequest()
	if !h.BindOptionalJSON(c, &req) {
		return
	}

	page, err := h.service.GetUserList(c.Request.Context(), h.Identity(c), req.Options)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, page)
}

// Get handles GET /users/:id.
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}

	u, err := h.service.GetUser(c.Request.Context(), h.Identity(c), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, u)
}

// Create handles POST /users.
func (h *UserHandler) Create(c *gin.Context) {
	var req dto.SaveUserRequest
	if !h.BindJSON(c, &req) {
		return
	}

	u, err := h.service.SaveUser(c.Request.Context(), h.Identity(c), req.ToEntity(0), audit.ChangeAdd)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, u.ID)
}

// Update handles PUT /users/:id.
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	var req dto.SaveUserRequest
	if !h.BindJSON(c, &req) {
		return
	}

	u, err := h.service.SaveUser(c.Request.Context(), h.Identity(c), req.ToEntity(id), audit.ChangeUpdate)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, u)
}

// Delete handles DELETE /users/:id.
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteUser(c.Request.Context(), h.Identity(c), id); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Export handles POST /users/export. The body is the same as Query; paging
// is ignored.
func (h *UserHandler) Export(c *gin.Context) {
	req := dto.NewQueryRequest()
	if !h.BindOptionalJSON(c, &req) {
		return
	}

	var buf bytes.Buffer
	err := h.service.ExportUsers(c.Request.Context(), h.Identity(c), req.Options, func(rows []users.User) error {
		return export.WriteXLSX(&buf, "Users", userColumns, rows)
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="users.xlsx"`)
	c.Header("Content-Length", strconv.Itoa(buf.Len()))
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}
