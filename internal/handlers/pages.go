package handlers

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/complaint-register/api/internal/attachments"
	"github.com/complaint-register/api/internal/complaint"
	"github.com/complaint-register/api/internal/importer"
	"github.com/complaint-register/api/internal/web"
)

const formMemoryBytes = 32 << 20

var pageSizeChoices = []string{"10", "25", "50", "100", "all"}

type listRow struct {
	DisplayNumber string
	Record        complaint.Record
}

type indexPage struct {
	Rows       []listRow
	Page       int
	PrevPage   int
	NextPage   int
	Total      int
	IsLastPage bool
	View       web.ListView
	PageSizes  []string
}

type editPage struct {
	Record        *complaint.Record
	ReferenceDays bool
	MaxPhotos     int
	MaxVideos     int
}

func (s *Server) Index(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q := complaint.ListQuery{
		Page:     positiveInt(query.Get("page"), 1),
		PageSize: s.Config.DefaultPageSize,
		SortBy:   query.Get("sortBy"),
		Desc:     strings.EqualFold(query.Get("order"), "desc"),
	}
	size := strings.TrimSpace(query.Get("pageSize"))
	if strings.EqualFold(size, "all") {
		q.PageSize = 0
	} else if n := positiveInt(size, 0); n > 0 {
		q.PageSize = n
	}
	if !complaint.ValidSortField(q.SortBy) {
		q.SortBy = complaint.DefaultSortField
	}

	result, err := s.Complaints.List(r.Context(), q)
	if err != nil {
		s.pageError(w, r, http.StatusInternalServerError, "Error loading complaints.", err)
		return
	}

	rows := make([]listRow, len(result.Records))
	for i, rec := range result.Records {
		rows[i] = listRow{DisplayNumber: complaint.FormatSerial(result.Offset + i + 1), Record: rec}
	}

	sizeLabel := "all"
	if q.PageSize > 0 {
		sizeLabel = strconv.Itoa(q.PageSize)
	}
	sizes := pageSizeChoices
	if !contains(sizes, sizeLabel) {
		sizes = append([]string{sizeLabel}, sizes...)
	}

	s.render(w, r, "index", indexPage{
		Rows:       rows,
		Page:       result.Page,
		PrevPage:   result.Page - 1,
		NextPage:   result.Page + 1,
		Total:      result.Total,
		IsLastPage: result.IsLastPage,
		View:       web.ListView{Sort: q.SortBy, Desc: q.Desc, Size: sizeLabel},
		PageSizes:  sizes,
	})
}

func (s *Server) Add(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "edit", s.editPage(nil))
}

func (s *Server) Edit(w http.ResponseWriter, r *http.Request) {
	rec, err := s.Complaints.Get(r.Context(), chi.URLParam(r, "serial"))
	if err != nil {
		if errors.Is(err, complaint.ErrNotFound) {
			s.pageError(w, r, http.StatusNotFound, "Complaint not found.", nil)
			return
		}
		s.pageError(w, r, http.StatusInternalServerError, "Error loading complaint data.", err)
		return
	}
	s.render(w, r, "edit", s.editPage(&rec))
}

func (s *Server) editPage(rec *complaint.Record) editPage {
	return editPage{
		Record:        rec,
		ReferenceDays: s.Mapper.DaysMode == complaint.DerivedReference,
		MaxPhotos:     complaint.MaxUploads["photo"],
		MaxVideos:     complaint.MaxUploads["video"],
	}
}

func (s *Server) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	serial := chi.URLParam(r, "serial")

	var files []string
	if rec, err := s.Complaints.Get(ctx, serial); err == nil {
		files = storedFiles(rec)
	}
	if _, err := s.Complaints.Delete(ctx, serial); err != nil {
		s.pageError(w, r, http.StatusInternalServerError, "Error deleting complaint.", err)
		return
	}
	s.removeUploads(ctx, r, files)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) Save(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	values, uploads, status, message := parseComplaintForm(r)
	if status != 0 {
		s.pageError(w, r, status, message, nil)
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	stored, err := s.storeUploads(ctx, uploads)
	if err != nil {
		s.removeUploads(ctx, r, stored.All())
		s.pageError(w, r, http.StatusInternalServerError, "Error saving uploaded files.", err)
		return
	}

	rec := s.Mapper.FromForm(values, stored)
	var previous *complaint.Record
	if rec.Serial != "" && !stored.Empty() {
		if prev, err := s.Complaints.Get(ctx, rec.Serial); err == nil {
			previous = &prev
		}
	}

	if _, _, err := s.Complaints.Save(ctx, rec); err != nil {
		s.removeUploads(ctx, r, stored.All())
		switch {
		case errors.Is(err, complaint.ErrNotFound):
			s.pageError(w, r, http.StatusNotFound, "Complaint not found.", nil)
		case rec.Serial != "":
			s.pageError(w, r, http.StatusInternalServerError, "Error updating complaint.", err)
		default:
			s.pageError(w, r, http.StatusInternalServerError, "Error inserting complaint.", err)
		}
		return
	}
	if previous != nil {
		s.removeUploads(ctx, r, replacedFiles(*previous, rec))
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) UploadExcel(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("excelFile")
	if err != nil {
		if isBodyTooLarge(err) {
			s.pageError(w, r, http.StatusRequestEntityTooLarge, "Uploaded file is too large.", nil)
			return
		}
		s.pageError(w, r, http.StatusBadRequest, "No file uploaded.", nil)
		return
	}
	defer file.Close()
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	report, err := s.Importer.ImportFile(r.Context(), file, header.Filename, importer.ModeApply)
	if err != nil {
		if errors.Is(err, importer.ErrInvalidFile) {
			s.pageError(w, r, http.StatusBadRequest, "Error processing Excel: "+err.Error(), nil)
			return
		}
		s.pageError(w, r, http.StatusInternalServerError, "Error processing Excel.", err)
		return
	}
	s.render(w, r, "import_report", report)
}

func (s *Server) UpdateReplacement(w http.ResponseWriter, r *http.Request) {
	if _, err := s.Complaints.MarkReplacementReceived(r.Context(), chi.URLParam(r, "serial")); err != nil {
		s.pageError(w, r, http.StatusInternalServerError, "Error updating replacement status.", err)
		return
	}
	http.Redirect(w, r, "/replacement-report", http.StatusFound)
}

func (s *Server) ReplacementReport(w http.ResponseWriter, r *http.Request) {
	records, err := s.Complaints.PendingReplacements(r.Context())
	if err != nil {
		s.pageError(w, r, http.StatusInternalServerError, "Error loading replacement report.", err)
		return
	}
	s.render(w, r, "replacement_report", records)
}

func (s *Server) DownloadSampleExcel(w http.ResponseWriter, r *http.Request) {
	f, err := importer.SampleWorkbook()
	if err != nil {
		s.pageError(w, r, http.StatusInternalServerError, "Error downloading the sample Excel file.", err)
		return
	}
	defer f.Close()

	setAttachmentHeaders(w, xlsxContentType, "sample_complaints.xlsx")
	if err := f.Write(w); err != nil {
		s.logger(r).Error("write sample workbook", "error", err)
	}
}

func (s *Server) ExportExcel(w http.ResponseWriter, r *http.Request) {
	page, err := s.Complaints.List(r.Context(), complaint.ListQuery{SortBy: complaint.DefaultSortField})
	if err != nil {
		s.pageError(w, r, http.StatusInternalServerError, "Error loading complaints.", err)
		return
	}
	f, err := importer.ExportWorkbook(page.Records)
	if err != nil {
		s.pageError(w, r, http.StatusInternalServerError, "Error generating export.", err)
		return
	}
	defer f.Close()

	setAttachmentHeaders(w, xlsxContentType, exportFilename("xlsx"))
	if err := f.Write(w); err != nil {
		s.logger(r).Error("write export workbook", "error", err)
	}
}

func (s *Server) ServeUpload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	f, modTime, err := s.Attachments.Open(r.Context(), name)
	if err != nil {
		if errors.Is(err, attachments.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		s.pageError(w, r, http.StatusInternalServerError, "Error loading file.", err)
		return
	}
	defer f.Close()
	http.ServeContent(w, r, name, modTime, f)
}

// parseComplaintForm returns the first value of every form field and the
// uploaded files per attachment field. A non-zero status reports a rejected
// submission together with the message to show.
func parseComplaintForm(r *http.Request) (map[string]string, map[string][]*multipart.FileHeader, int, string) {
	values := map[string]string{}
	uploads := map[string][]*multipart.FileHeader{}

	if strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/form-data") {
		if err := r.ParseMultipartForm(formMemoryBytes); err != nil {
			if isBodyTooLarge(err) {
				return nil, nil, http.StatusRequestEntityTooLarge, "Uploaded files are too large."
			}
			return nil, nil, http.StatusBadRequest, "Invalid form submission."
		}
		for key, vals := range r.MultipartForm.Value {
			if len(vals) > 0 {
				values[key] = vals[0]
			}
		}
		for field, limit := range complaint.MaxUploads {
			var headers []*multipart.FileHeader
			for _, fh := range r.MultipartForm.File[field] {
				if fh.Filename == "" && fh.Size == 0 {
					continue
				}
				headers = append(headers, fh)
			}
			if len(headers) > limit {
				return nil, nil, http.StatusBadRequest, fmt.Sprintf("Too many files for %s (at most %d).", field, limit)
			}
			uploads[field] = headers
		}
		return values, uploads, 0, ""
	}

	if err := r.ParseForm(); err != nil {
		if isBodyTooLarge(err) {
			return nil, nil, http.StatusRequestEntityTooLarge, "Form submission is too large."
		}
		return nil, nil, http.StatusBadRequest, "Invalid form submission."
	}
	for key, vals := range r.PostForm {
		if len(vals) > 0 {
			values[key] = vals[0]
		}
	}
	return values, uploads, 0, ""
}

func (s *Server) storeUploads(ctx context.Context, uploads map[string][]*multipart.FileHeader) (complaint.Attachments, error) {
	var stored complaint.Attachments
	targets := map[string]*[]string{
		"complainForm": &stored.ComplainForm,
		"photo":        &stored.Photo,
		"video":        &stored.Video,
	}
	for _, field := range []string{"complainForm", "photo", "video"} {
		for _, fh := range uploads[field] {
			name := attachments.StoredName(time.Now(), fh.Filename)
			if err := s.saveUpload(ctx, name, fh); err != nil {
				return stored, fmt.Errorf("store %s upload %q: %w", field, fh.Filename, err)
			}
			*targets[field] = append(*targets[field], name)
		}
	}
	return stored, nil
}

func (s *Server) saveUpload(ctx context.Context, name string, fh *multipart.FileHeader) error {
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()
	return s.Attachments.Save(ctx, name, f, fh.Size, fh.Header.Get("Content-Type"))
}

func (s *Server) removeUploads(ctx context.Context, r *http.Request, names []string) {
	for _, name := range names {
		if err := s.Attachments.Remove(ctx, name); err != nil {
			s.logger(r).Warn("remove_upload_failed", "name", name, "error", err)
		}
	}
}

func storedFiles(rec complaint.Record) []string {
	var names []string
	for _, value := range []*string{rec.ComplainForm, rec.Photo, rec.Video} {
		names = append(names, splitNames(value)...)
	}
	return names
}

// replacedFiles lists the previous attachment names superseded by new uploads.
func replacedFiles(previous, updated complaint.Record) []string {
	var names []string
	pairs := [][2]*string{
		{previous.ComplainForm, updated.ComplainForm},
		{previous.Photo, updated.Photo},
		{previous.Video, updated.Video},
	}
	for _, pair := range pairs {
		if pair[1] != nil {
			names = append(names, splitNames(pair[0])...)
		}
	}
	return names
}

func splitNames(value *string) []string {
	if value == nil || *value == "" {
		return nil
	}
	return strings.Split(*value, ",")
}

func positiveInt(value string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
