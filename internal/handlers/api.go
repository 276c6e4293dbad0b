package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/complaint-register/api/internal/complaint"
	"github.com/complaint-register/api/internal/httpx"
)

// complaintPayload is the JSON body of create and update calls. Dates may be
// sent in any accepted layout; they are stored as DD-MM-YYYY.
type complaintPayload struct {
	FarmerName          string `json:"farmerName"`
	ComplaintBrief      string `json:"complaintBrief"`
	MaterialSupplyDate  string `json:"materialSupplyDate"`
	ComplainDate        string `json:"complainDate"`
	SolveDate           string `json:"solveDate"`
	CloseDate           string `json:"closeDate"`
	CloseDays           *int   `json:"closeDays"`
	ComplainType        string `json:"complainType"`
	DealerName          string `json:"dealerName"`
	AreaManager         string `json:"areaManager"`
	Status              string `json:"status"`
	SolutionDescription string `json:"solutionDescription"`
	ReplacementReceived string `json:"replacementReceived"`
}

func (p complaintPayload) values(serial string) map[string]string {
	values := map[string]string{
		"serial":              serial,
		"farmerName":          p.FarmerName,
		"complaintBrief":      p.ComplaintBrief,
		"materialSupplyDate":  p.MaterialSupplyDate,
		"complainDate":        p.ComplainDate,
		"solveDate":           p.SolveDate,
		"closeDate":           p.CloseDate,
		"complainType":        p.ComplainType,
		"dealerName":          p.DealerName,
		"areaManager":         p.AreaManager,
		"status":              p.Status,
		"solutionDescription": p.SolutionDescription,
		"replacementReceived": p.ReplacementReceived,
	}
	if p.CloseDays != nil {
		values["closeDays"] = strconv.Itoa(*p.CloseDays)
	}
	return values
}

type complaintListResponse struct {
	Items      []complaint.Record `json:"items"`
	Total      int                `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"pageSize"`
	IsLastPage bool               `json:"isLastPage"`
}

type itemsResponse struct {
	Items []complaint.Record `json:"items"`
}

func (s *Server) ListComplaints(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page := 1
	pageSize := s.Config.DefaultPageSize
	sortBy := complaint.DefaultSortField
	order := "asc"

	for name, dest := range map[string]any{
		"page":     &page,
		"pageSize": &pageSize,
		"sortBy":   &sortBy,
		"order":    &order,
	} {
		if err := runtime.BindQueryParameter("form", true, false, name, query, dest); err != nil {
			httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "Invalid query parameter "+name, nil)
			return
		}
	}
	if !complaint.ValidSortField(sortBy) {
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "Unsupported sortBy", map[string]any{"allowed": complaint.SortFields})
		return
	}

	result, err := s.Complaints.List(r.Context(), complaint.ListQuery{
		Page:     page,
		PageSize: pageSize,
		SortBy:   sortBy,
		Desc:     order == "desc",
	})
	if err != nil {
		httpx.WriteInternal(w, r, s.Logger, "Failed to list complaints", err)
		return
	}

	items := result.Records
	if items == nil {
		items = []complaint.Record{}
	}
	httpx.WriteJSON(w, http.StatusOK, complaintListResponse{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		IsLastPage: result.IsLastPage,
	})
}

func (s *Server) GetComplaint(w http.ResponseWriter, r *http.Request) {
	rec, err := s.Complaints.Get(r.Context(), chi.URLParam(r, "serial"))
	if err != nil {
		if errors.Is(err, complaint.ErrNotFound) {
			httpx.WriteError(w, r, http.StatusNotFound, "complaint_not_found", "Complaint not found", nil)
			return
		}
		httpx.WriteInternal(w, r, s.Logger, "Failed to load complaint", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, rec)
}

func (s *Server) PostComplaint(w http.ResponseWriter, r *http.Request) {
	var req complaintPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid_body", "Malformed JSON body", nil)
		return
	}

	rec, err := s.Complaints.Create(r.Context(), s.Mapper.FromForm(req.values(""), complaint.Attachments{}))
	if err != nil {
		httpx.WriteInternal(w, r, s.Logger, "Failed to create complaint", err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, rec)
}

func (s *Server) PutComplaint(w http.ResponseWriter, r *http.Request) {
	serial := chi.URLParam(r, "serial")
	var req complaintPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid_body", "Malformed JSON body", nil)
		return
	}

	ctx := r.Context()
	if _, _, err := s.Complaints.Save(ctx, s.Mapper.FromForm(req.values(serial), complaint.Attachments{})); err != nil {
		if errors.Is(err, complaint.ErrNotFound) {
			httpx.WriteError(w, r, http.StatusNotFound, "complaint_not_found", "Complaint not found", nil)
			return
		}
		httpx.WriteInternal(w, r, s.Logger, "Failed to update complaint", err)
		return
	}

	rec, err := s.Complaints.Get(ctx, serial)
	if err != nil {
		httpx.WriteInternal(w, r, s.Logger, "Failed to load complaint", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, rec)
}

func (s *Server) DeleteComplaint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	serial := chi.URLParam(r, "serial")

	var files []string
	if rec, err := s.Complaints.Get(ctx, serial); err == nil {
		files = storedFiles(rec)
	}
	if _, err := s.Complaints.Delete(ctx, serial); err != nil {
		httpx.WriteInternal(w, r, s.Logger, "Failed to delete complaint", err)
		return
	}
	s.removeUploads(ctx, r, files)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) PostReplacementReceived(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	serial := chi.URLParam(r, "serial")

	found, err := s.Complaints.MarkReplacementReceived(ctx, serial)
	if err != nil {
		httpx.WriteInternal(w, r, s.Logger, "Failed to update replacement status", err)
		return
	}
	if !found {
		httpx.WriteError(w, r, http.StatusNotFound, "complaint_not_found", "Complaint not found", nil)
		return
	}

	rec, err := s.Complaints.Get(ctx, serial)
	if err != nil {
		httpx.WriteInternal(w, r, s.Logger, "Failed to load complaint", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, rec)
}

func (s *Server) GetPendingReplacements(w http.ResponseWriter, r *http.Request) {
	records, err := s.Complaints.PendingReplacements(r.Context())
	if err != nil {
		httpx.WriteInternal(w, r, s.Logger, "Failed to load replacement report", err)
		return
	}
	if records == nil {
		records = []complaint.Record{}
	}
	httpx.WriteJSON(w, http.StatusOK, itemsResponse{Items: records})
}
