package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/complaint-register/api/internal/complaint"
	"github.com/complaint-register/api/internal/httpx"
	"github.com/complaint-register/api/internal/importer"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// PostImport reconciles an uploaded workbook or CSV file and answers with the
// per-row report. Only whole-file problems fail the request.
func (s *Server) PostImport(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/form-data") {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid_content_type", "Content-Type must be multipart/form-data", nil)
		return
	}
	if err := r.ParseMultipartForm(formMemoryBytes); err != nil {
		if isBodyTooLarge(err) {
			httpx.WriteError(w, r, http.StatusRequestEntityTooLarge, "payload_too_large", "Uploaded file is too large", nil)
			return
		}
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid_multipart", "Failed to parse multipart form", nil)
		return
	}
	defer r.MultipartForm.RemoveAll()

	mode, err := importer.ParseMode(r.FormValue("mode"))
	if err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "missing_file", "file is required", nil)
		return
	}
	defer file.Close()

	report, err := s.Importer.ImportFile(r.Context(), file, header.Filename, mode)
	if err != nil {
		if errors.Is(err, importer.ErrInvalidFile) {
			httpx.WriteError(w, r, http.StatusBadRequest, "invalid_file", err.Error(), nil)
			return
		}
		httpx.WriteInternal(w, r, s.Logger, "Failed to import file", err)
		return
	}
	if report.Rows == nil {
		report.Rows = []importer.RowOutcome{}
	}
	httpx.WriteJSON(w, http.StatusOK, report)
}

func (s *Server) GetExportCSV(w http.ResponseWriter, r *http.Request) {
	page, err := s.Complaints.List(r.Context(), complaint.ListQuery{SortBy: complaint.DefaultSortField})
	if err != nil {
		httpx.WriteInternal(w, r, s.Logger, "Failed to generate export CSV", err)
		return
	}

	setAttachmentHeaders(w, "text/csv", exportFilename("csv"))
	if err := importer.WriteCSV(w, page.Records); err != nil {
		s.logger(r).Error("stream export csv", "error", err)
	}
}

func setAttachmentHeaders(w http.ResponseWriter, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
}

func exportFilename(ext string) string {
	return fmt.Sprintf("complaints-%s.%s", time.Now().Format("20060102"), ext)
}
