package handlers

import (
	"github.com/gin-gonic/gin"

	"easyadmin/internal/domain/audit"
	"easyadmin/internal/domain/query"
	"easyadmin/internal/infrastructure/http/v1/dto"
)

// OperationLogHandler serves the operation log screen.
type OperationLogHandler struct {
	*BaseHandler
	list *query.Service[audit.Record]
}

// NewOperationLogHandler creates an OperationLogHandler.
func NewOperationLogHandler(base *BaseHandler, list *query.Service[audit.Record]) *OperationLogHandler {
	return &OperationLogHandler{BaseHandler: base, list: list}
}

// Query handles POST /operation-logs/query. Newest records come first unless
// the request sorts explicitly.
func (h *OperationLogHandler) Query(c *gin.Context) {
	req := dto.NewQueryRequest()
	if !h.BindOptionalJSON(c, &req) {
		return
	}

	opts := req.Options
	if len(opts.SortList) == 0 && opts.SortName == "" {
		opts.SortList = []query.Sort{{Field: "created_time", Order: query.Desc}}
	}

	page, err := h.list.Query(c.Request.Context(), h.Identity(c), opts)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, page)
}
