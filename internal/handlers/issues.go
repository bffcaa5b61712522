package handlers

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/readrack/magazine-service/internal/model"
	"github.com/readrack/magazine-service/internal/service"
)

// GetIssues handles GET /issue-service/getIssues.
func (h *Handler) GetIssues(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, _ := strconv.ParseInt(q.Get("page"), 10, 64)
	limit, _ := strconv.ParseInt(q.Get("limit"), 10, 64)

	var userID *int64
	if v := q.Get("userId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "userId must be an integer.")
			return
		}
		userID = &id
	}

	filters := map[string]string{}
	for field, values := range q {
		switch field {
		case "page", "limit", "sort", "userId":
			continue
		}
		if len(values) > 0 && values[0] != "" {
			filters[field] = values[0]
		}
	}

	listing, err := h.listing.List(r.Context(), service.ListParams{
		Filters: filters,
		Page:    page,
		Limit:   limit,
		Sort:    q.Get("sort"),
		UserID:  userID,
	})
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Successful fetch for issues with query params.",
		"items":   listing.Items,
		"total":   listing.Total,
		"pages":   listing.Pages,
	})
}

// GetTotal handles GET /issue-service/getTotal.
func (h *Handler) GetTotal(w http.ResponseWriter, r *http.Request) {
	total, err := h.issues.Total(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int64{"total": total})
}

// GetIssue handles GET /issue-service/getIssue/{issueId}.
func (h *Handler) GetIssue(w http.ResponseWriter, r *http.Request) {
	issueID, err := strconv.ParseInt(chi.URLParam(r, "issueId"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "issueId must be an integer.")
		return
	}
	issue, err := h.issues.GetByID(r.Context(), issueID)
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": fmt.Sprintf("Successful fetch for issue %d.", issueID),
		"issue":   issue,
	})
}

// CreateIssue handles POST /issue-service/createIssue (multipart).
func (h *Handler) CreateIssue(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(service.MaxUploadSize); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	in := service.CreateIssueInput{
		Title:       r.FormValue("title"),
		Author:      r.FormValue("author"),
		Description: r.FormValue("description"),
		Categories:  splitCategories(r.FormValue("categories")),
	}
	if v := r.FormValue("price"); v != "" {
		price, err := strconv.ParseFloat(v, 64)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "price must be a number.")
			return
		}
		in.Price = price
	}

	file, closeFile := h.formUpload(r, "file")
	defer closeFile()
	in.File = file
	cover, closeCover := h.formUpload(r, "coverImage")
	defer closeCover()
	in.Cover = cover

	issue, err := h.issues.Create(r.Context(), in)
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Issue uploaded with success.",
		"issue":   issue,
	})
}

// UpdateIssue handles PUT /issue-service/updateIssue (multipart, files
// optional).
func (h *Handler) UpdateIssue(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(service.MaxUploadSize); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	issueID, err := strconv.ParseInt(r.FormValue("issueId"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "issueId must be an integer.")
		return
	}
	in := service.UpdateIssueInput{
		IssueID:     issueID,
		Title:       r.FormValue("title"),
		Author:      r.FormValue("author"),
		Description: r.FormValue("description"),
		Categories:  splitCategories(r.FormValue("categories")),
	}
	if v := r.FormValue("issueOrder"); v != "" {
		order, err := strconv.Atoi(v)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "issueOrder must be an integer.")
			return
		}
		in.IssueOrder = &order
	}
	if v := r.FormValue("availableForSale"); v != "" {
		available, err := strconv.ParseBool(v)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "availableForSale must be a boolean.")
			return
		}
		in.AvailableForSale = &available
	}
	if v := r.FormValue("price"); v != "" {
		price, err := strconv.ParseFloat(v, 64)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "price must be a number.")
			return
		}
		in.Price = &price
	}

	file, closeFile := h.formUpload(r, "file")
	defer closeFile()
	in.File = file
	cover, closeCover := h.formUpload(r, "coverImage")
	defer closeCover()
	in.Cover = cover

	issue, err := h.issues.Update(r.Context(), in)
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Issue updated with success.",
		"issue":   issue,
	})
}

// UpdateViews handles PUT /issue-service/updateViews.
func (h *Handler) UpdateViews(w http.ResponseWriter, r *http.Request) {
	var req model.ViewsRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if err := h.val.Struct(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	views, err := h.issues.UpdateViews(r.Context(), req.IssueID)
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": fmt.Sprintf("Issue %d has %d views.", req.IssueID, views),
		"views":   views,
	})
}

// DeleteIssue handles DELETE /issue-service/deleteIssue/{issueId}.
func (h *Handler) DeleteIssue(w http.ResponseWriter, r *http.Request) {
	issueID, err := strconv.ParseInt(chi.URLParam(r, "issueId"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "issueId must be an integer.")
		return
	}
	if err := h.issues.Delete(r.Context(), issueID); err != nil {
		h.handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// formUpload pulls one optional file out of a parsed multipart form. The
// returned closer is safe to defer even when no file was sent.
func (h *Handler) formUpload(r *http.Request, field string) (*service.Upload, func()) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, func() {}
	}
	return &service.Upload{
		Name:        header.Filename,
		Size:        header.Size,
		ContentType: contentTypeOf(header),
		Reader:      file,
	}, func() { file.Close() }
}

func contentTypeOf(header *multipart.FileHeader) string {
	return header.Header.Get("Content-Type")
}

func splitCategories(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
