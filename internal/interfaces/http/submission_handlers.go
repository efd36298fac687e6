package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/application/service"
	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/domain/workflow"
	"github.com/garyjia/expense-approval/internal/export"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// SubmissionView is a submission plus what the caller may do to it now
type SubmissionView struct {
	*entity.Submission
	AvailableActions []workflow.Trigger `json:"availableActions"`
}

// ListSubmissionsRequest represents query parameters for listing submissions
type ListSubmissionsRequest struct {
	// Status is a comma separated list of states
	Status   string `form:"status"`
	Unit     string `form:"unit"`
	Category string `form:"category"`
	// From and To are inclusive dates in 2006-01-02 form
	From   string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To     string `form:"to" binding:"omitempty,datetime=2006-01-02"`
	Sort   string `form:"sort"`
	Desc   bool   `form:"desc"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

// ReasonRequest is the optional body of reject and cancel
type ReasonRequest struct {
	Reason string `json:"reason"`
}

// ExportRequest represents query parameters of the spreadsheet export
type ExportRequest struct {
	Unit  string `form:"unit"`
	Month int    `form:"month" binding:"min=0,max=12"`
	Year  int    `form:"year"`
}

// ApprovalSheetResponse names where the generated workbook was stored
type ApprovalSheetResponse struct {
	Key string `json:"key"`
}

var sortFields = map[string]port.SortField{
	"submittedAt": port.SortSubmittedAt,
	"displayId":   port.SortDisplayID,
	"totalBiaya":  port.SortTotalBiaya,
	"status":      port.SortStatus,
}

// Submit handles POST /api/v1/submissions/:docType
func (h *Handlers) Submit(c *gin.Context) {
	docType, ok := h.docType(c)
	if !ok {
		return
	}

	var in service.SubmitInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	sess := mustSession(c)
	sub, err := h.svc.Submissions.Submit(c.Request.Context(), sess, docType, in)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: h.view(c, sub)})
}

// ListSubmissions handles GET /api/v1/submissions/:docType
func (h *Handlers) ListSubmissions(c *gin.Context) {
	docType, ok := h.docType(c)
	if !ok {
		return
	}

	var req ListSubmissionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid query parameters"})
		return
	}
	q, err := h.toQuery(req)
	if err != nil {
		h.fail(c, err)
		return
	}

	subs, err := h.svc.Submissions.List(c.Request.Context(), mustSession(c), docType, q)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: h.views(c, subs)})
}

// Pending handles GET /api/v1/submissions/:docType/pending
func (h *Handlers) Pending(c *gin.Context) {
	docType, ok := h.docType(c)
	if !ok {
		return
	}

	subs, err := h.svc.Reviews.Pending(c.Request.Context(), mustSession(c), docType)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: h.views(c, subs)})
}

// GetSubmission handles GET /api/v1/submissions/:docType/:id
func (h *Handlers) GetSubmission(c *gin.Context) {
	docType, ok := h.docType(c)
	if !ok {
		return
	}

	sub, err := h.svc.Submissions.Get(c.Request.Context(), mustSession(c), docType, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: h.view(c, sub)})
}

// Approve handles POST /api/v1/submissions/:docType/:id/approve
func (h *Handlers) Approve(c *gin.Context) {
	docType, ok := h.docType(c)
	if !ok {
		return
	}

	sub, err := h.svc.Reviews.Approve(c.Request.Context(), mustSession(c), docType, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: h.view(c, sub)})
}

// Reject handles POST /api/v1/submissions/:docType/:id/reject
func (h *Handlers) Reject(c *gin.Context) {
	docType, ok := h.docType(c)
	if !ok {
		return
	}
	reason, ok := bindReason(c)
	if !ok {
		return
	}

	sub, err := h.svc.Reviews.Reject(c.Request.Context(), mustSession(c), docType, c.Param("id"), reason)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: h.view(c, sub)})
}

// Cancel handles POST /api/v1/submissions/:docType/:id/cancel
func (h *Handlers) Cancel(c *gin.Context) {
	docType, ok := h.docType(c)
	if !ok {
		return
	}
	reason, ok := bindReason(c)
	if !ok {
		return
	}

	sub, err := h.svc.Reviews.Cancel(c.Request.Context(), mustSession(c), docType, c.Param("id"), reason)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: h.view(c, sub)})
}

// UploadAttachment handles POST /api/v1/submissions/:docType/:id/attachments
// with a multipart "file" field
func (h *Handlers) UploadAttachment(c *gin.Context) {
	docType, ok := h.docType(c)
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "multipart field \"file\" is required"})
		return
	}
	if header.Size > service.MaxAttachmentBytes {
		c.JSON(http.StatusRequestEntityTooLarge, Response{Success: false, Error: "attachment is too large"})
		return
	}

	f, err := header.Open()
	if err != nil {
		h.fail(c, fmt.Errorf("open upload: %w", err))
		return
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, service.MaxAttachmentBytes+1))
	if err != nil {
		h.fail(c, fmt.Errorf("read upload: %w", err))
		return
	}

	sub, err := h.svc.Attachments.Upload(c.Request.Context(), mustSession(c), docType, c.Param("id"), header.Filename, content)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: h.view(c, sub)})
}

// ApprovalSheet handles POST /api/v1/submissions/:docType/:id/approval-sheet
func (h *Handlers) ApprovalSheet(c *gin.Context) {
	docType, ok := h.docType(c)
	if !ok {
		return
	}

	key, err := h.svc.Exports.ApprovalSheet(c.Request.Context(), mustSession(c), docType, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: ApprovalSheetResponse{Key: key}})
}

// Export handles GET /api/v1/exports/:docType and streams the workbook
func (h *Handlers) Export(c *gin.Context) {
	docType, ok := h.docType(c)
	if !ok {
		return
	}

	var req ExportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid query parameters"})
		return
	}

	name, data, err := h.svc.Exports.Spreadsheet(c.Request.Context(), mustSession(c), export.Filter{
		DocType: docType,
		Unit:    req.Unit,
		Month:   req.Month,
		Year:    req.Year,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// docType parses the :docType path segment, writing a 400 when it is unknown
func (h *Handlers) docType(c *gin.Context) (entity.DocType, bool) {
	docType, err := entity.ParseDocType(c.Param("docType"))
	if err != nil {
		h.fail(c, err)
		return "", false
	}
	return docType, true
}

func bindReason(c *gin.Context) (string, bool) {
	var req ReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return "", false
	}
	return req.Reason, true
}

func (h *Handlers) view(c *gin.Context, sub *entity.Submission) SubmissionView {
	return SubmissionView{
		Submission:       sub,
		AvailableActions: h.svc.Reviews.AvailableActions(c.Request.Context(), mustSession(c), sub),
	}
}

func (h *Handlers) views(c *gin.Context, subs []*entity.Submission) []SubmissionView {
	out := make([]SubmissionView, 0, len(subs))
	for _, sub := range subs {
		out = append(out, h.view(c, sub))
	}
	return out
}

// toQuery turns list parameters into a store query
func (h *Handlers) toQuery(req ListSubmissionsRequest) (port.SubmissionQuery, error) {
	q := port.SubmissionQuery{
		Unit:     req.Unit,
		Category: req.Category,
		SortBy:   port.SortSubmittedAt,
		SortDesc: req.Desc,
		Limit:    req.Limit,
		Offset:   req.Offset,
	}

	if req.Status != "" {
		for _, raw := range strings.Split(req.Status, ",") {
			state := workflow.State(strings.TrimSpace(raw))
			if !state.IsValid() {
				return q, fmt.Errorf("%w: unknown status %q", entity.ErrInvalidInput, raw)
			}
			q.Statuses = append(q.Statuses, state)
		}
	}

	if req.Sort != "" {
		field, ok := sortFields[req.Sort]
		if !ok {
			return q, fmt.Errorf("%w: cannot sort by %q", entity.ErrInvalidInput, req.Sort)
		}
		q.SortBy = field
	}

	if req.From != "" {
		from, err := time.ParseInLocation(time.DateOnly, req.From, h.loc)
		if err != nil {
			return q, fmt.Errorf("%w: from: %v", entity.ErrInvalidInput, err)
		}
		q.From = from
	}
	if req.To != "" {
		to, err := time.ParseInLocation(time.DateOnly, req.To, h.loc)
		if err != nil {
			return q, fmt.Errorf("%w: to: %v", entity.ErrInvalidInput, err)
		}
		q.To = to.AddDate(0, 0, 1)
	}

	if q.Limit <= 0 || q.Limit > maxPageSize {
		q.Limit = defaultPageSize
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return q, nil
}
