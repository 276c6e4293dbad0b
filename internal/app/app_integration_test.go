package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/complaint-register/api/internal/attachments"
	"github.com/complaint-register/api/internal/complaint"
	"github.com/complaint-register/api/internal/config"
	"github.com/complaint-register/api/internal/db"
	"github.com/complaint-register/api/internal/store"
)

type testEnv struct {
	router    http.Handler
	uploadDir string
}

func setupTestEnv(t *testing.T) testEnv {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()

	conn, err := db.OpenSQLite(ctx, filepath.Join(dir, "complaints.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	if err := db.Migrate(ctx, conn, db.DriverSQLite, logger); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	uploadDir := filepath.Join(dir, "uploads")
	files, err := attachments.NewLocal(uploadDir)
	if err != nil {
		t.Fatalf("attachments: %v", err)
	}

	cfg := config.Config{
		Env:                   "test",
		DatabaseDriver:        db.DriverSQLite,
		UploadDir:             uploadDir,
		UploadMaxBytes:        10 << 20,
		ImportMaxFileBytes:    10 << 20,
		ImportMaxRows:         100,
		APIMaxBodyBytes:       1 << 20,
		DefaultPageSize:       10,
		DerivedDaysMode:       complaint.DerivedRecompute,
		DerivedInvertedRange:  complaint.InvertedRangeAllow,
		CORSAllowedOrigins:    []string{"http://localhost:3000"},
		ImportRateLimitPerMin: 100,
		RateLimitMaxIPs:       100,
	}

	router, err := NewRouter(cfg, Dependencies{Store: store.NewSQLite(conn), Attachments: files}, logger)
	if err != nil {
		t.Fatalf("new router: %v", err)
	}
	return testEnv{router: router, uploadDir: uploadDir}
}

func TestComplaintLifecycleOverJSONAPI(t *testing.T) {
	env := setupTestEnv(t)

	status, body := request(t, env.router, http.MethodPost, "/api/complaints", jsonBody(map[string]any{
		"farmerName":   "Asha",
		"complainDate": "2024-01-05",
		"solveDate":    "10-01-2024",
	}))
	if status != http.StatusCreated {
		t.Fatalf("create expected 201, got %d (%s)", status, string(body))
	}
	created := decodeComplaint(t, body)
	if created.Serial != "C0001" {
		t.Fatalf("expected first serial C0001, got %q", created.Serial)
	}
	if created.ComplainDate == nil || *created.ComplainDate != "05-01-2024" {
		t.Fatalf("expected canonical complain date, got %v", created.ComplainDate)
	}
	if created.SolveDays == nil || *created.SolveDays != 5 {
		t.Fatalf("expected 5 solve days, got %v", created.SolveDays)
	}

	status, body = request(t, env.router, http.MethodPut, "/api/complaints/C0001", jsonBody(map[string]any{
		"farmerName":          "Asha",
		"complainDate":        "05-01-2024",
		"closeDate":           "15-01-2024",
		"status":              "Closed",
		"replacementReceived": "No",
	}))
	if status != http.StatusOK {
		t.Fatalf("update expected 200, got %d (%s)", status, string(body))
	}
	updated := decodeComplaint(t, body)
	if updated.CloseDays == nil || *updated.CloseDays != 10 {
		t.Fatalf("expected 10 close days, got %v", updated.CloseDays)
	}

	status, body = request(t, env.router, http.MethodGet, "/api/replacements/pending", nil)
	if status != http.StatusOK || !strings.Contains(string(body), `"C0001"`) {
		t.Fatalf("expected C0001 pending, got %d (%s)", status, string(body))
	}

	status, body = request(t, env.router, http.MethodPost, "/api/complaints/C0001/replacement-received", nil)
	if status != http.StatusOK {
		t.Fatalf("mark replacement expected 200, got %d (%s)", status, string(body))
	}
	if rec := decodeComplaint(t, body); rec.ReplacementReceived == nil || *rec.ReplacementReceived != complaint.ReplacementReceived {
		t.Fatalf("expected replacement received, got %v", rec.ReplacementReceived)
	}

	status, _ = request(t, env.router, http.MethodDelete, "/api/complaints/C0001", nil)
	if status != http.StatusNoContent {
		t.Fatalf("delete expected 204, got %d", status)
	}
	status, body = request(t, env.router, http.MethodGet, "/api/complaints/C0001", nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d (%s)", status, string(body))
	}
}

func TestListComplaintsPagingAndValidation(t *testing.T) {
	env := setupTestEnv(t)
	for _, name := range []string{"Asha", "Ravi", "Meena"} {
		if status, body := request(t, env.router, http.MethodPost, "/api/complaints", jsonBody(map[string]any{"farmerName": name})); status != http.StatusCreated {
			t.Fatalf("create expected 201, got %d (%s)", status, string(body))
		}
	}

	status, body := request(t, env.router, http.MethodGet, "/api/complaints?page=2&pageSize=2&sortBy=serial&order=asc", nil)
	if status != http.StatusOK {
		t.Fatalf("list expected 200, got %d (%s)", status, string(body))
	}
	var page struct {
		Items      []complaint.Record `json:"items"`
		Total      int                `json:"total"`
		IsLastPage bool               `json:"isLastPage"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		t.Fatalf("parse list: %v", err)
	}
	if page.Total != 3 || len(page.Items) != 1 || page.Items[0].Serial != "C0003" || !page.IsLastPage {
		t.Fatalf("unexpected page: %+v", page)
	}

	status, body = request(t, env.router, http.MethodGet, "/api/complaints?sortBy=password", nil)
	if status != http.StatusBadRequest || !strings.Contains(string(body), "validation_error") {
		t.Fatalf("expected validation error for unknown sort field, got %d (%s)", status, string(body))
	}

	status, body = request(t, env.router, http.MethodPost, "/api/complaints", []byte(`{"closeDays":"ten"}`))
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for mistyped body, got %d (%s)", status, string(body))
	}
}

func TestImportDryRunAndApply(t *testing.T) {
	env := setupTestEnv(t)
	csvData := "Sr. No,FARMER NAME / DEALER NAME,COMPLAIN DATE,SOLVE DATE\n" +
		",Asha,05-01-2024,10-01-2024\n" +
		"C0007,Ravi,2024-01-06,\n"

	status, body := upload(t, env.router, "/api/imports", "file", "complaints.csv", []byte(csvData), map[string]string{"mode": "dry_run"})
	if status != http.StatusOK {
		t.Fatalf("dry run expected 200, got %d (%s)", status, string(body))
	}
	if !strings.Contains(string(body), `"rowsCreated":2`) {
		t.Fatalf("expected two would-be creations, got %s", string(body))
	}
	if status, body := request(t, env.router, http.MethodGet, "/api/complaints", nil); status != http.StatusOK || !strings.Contains(string(body), `"total":0`) {
		t.Fatalf("dry run must not persist, got %d (%s)", status, string(body))
	}

	status, body = upload(t, env.router, "/api/imports", "file", "complaints.csv", []byte(csvData), map[string]string{"mode": "apply"})
	if status != http.StatusOK || !strings.Contains(string(body), `"rowsCreated":2`) {
		t.Fatalf("apply expected two creations, got %d (%s)", status, string(body))
	}

	status, body = upload(t, env.router, "/api/imports", "file", "complaints.csv", []byte(csvData), nil)
	if status != http.StatusOK || !strings.Contains(string(body), `"rowsSkipped":1`) {
		t.Fatalf("re-import expected the explicit serial skipped, got %d (%s)", status, string(body))
	}

	status, body = upload(t, env.router, "/api/imports", "file", "notes.txt", []byte("hello"), nil)
	if status != http.StatusBadRequest || !strings.Contains(string(body), "invalid_file") {
		t.Fatalf("expected invalid_file for unsupported upload, got %d (%s)", status, string(body))
	}

	entries, err := os.ReadDir(filepath.Join(env.uploadDir, ".imports"))
	if err != nil {
		t.Fatalf("read import temp dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected import temp files to be removed, found %d", len(entries))
	}

	status, body = request(t, env.router, http.MethodGet, "/api/exports/complaints.csv", nil)
	if status != http.StatusOK || !strings.Contains(string(body), "C0007,Ravi") {
		t.Fatalf("expected exported csv to contain imported row, got %d (%s)", status, string(body))
	}
}

func TestHTMLSaveStoresUploadsAndRedirects(t *testing.T) {
	env := setupTestEnv(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("farmerName", "Asha")
	_ = mw.WriteField("complainDate", "2024-01-05")
	part, _ := mw.CreateFormFile("photo", "leaf.jpg")
	_, _ = part.Write([]byte("jpeg-bytes"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/save", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/" {
		t.Fatalf("expected redirect to /, got %d %q (%s)", rec.Code, rec.Header().Get("Location"), rec.Body.String())
	}

	status, body := request(t, env.router, http.MethodGet, "/api/complaints/C0001", nil)
	if status != http.StatusOK {
		t.Fatalf("get expected 200, got %d (%s)", status, string(body))
	}
	saved := decodeComplaint(t, body)
	if saved.Photo == nil || !strings.HasSuffix(*saved.Photo, "-leaf.jpg") {
		t.Fatalf("expected stored photo name, got %v", saved.Photo)
	}

	status, body = request(t, env.router, http.MethodGet, "/uploads/"+*saved.Photo, nil)
	if status != http.StatusOK || string(body) != "jpeg-bytes" {
		t.Fatalf("expected stored upload to be served, got %d (%s)", status, string(body))
	}

	status, body = request(t, env.router, http.MethodGet, "/", nil)
	if status != http.StatusOK || !strings.Contains(string(body), "Asha") {
		t.Fatalf("expected list page to show the complaint, got %d", status)
	}

	status, _ = request(t, env.router, http.MethodGet, "/edit/C0404", nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown complaint, got %d", status)
	}

	status, _ = request(t, env.router, http.MethodGet, "/delete/C0001", nil)
	if status != http.StatusFound {
		t.Fatalf("expected delete to redirect, got %d", status)
	}
	if _, err := os.Stat(filepath.Join(env.uploadDir, *saved.Photo)); !os.IsNotExist(err) {
		t.Fatalf("expected deleted complaint's upload removed, got %v", err)
	}
}

func TestHTMLSaveKeepsSameNamedUploadsApart(t *testing.T) {
	env := setupTestEnv(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("farmerName", "Asha")
	for _, data := range []string{"first-bytes", "second-bytes"} {
		part, _ := mw.CreateFormFile("photo", "image.jpg")
		_, _ = part.Write([]byte(data))
	}
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/save", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusFound {
		t.Fatalf("expected redirect, got %d (%s)", rec.Code, rec.Body.String())
	}

	status, body := request(t, env.router, http.MethodGet, "/api/complaints/C0001", nil)
	if status != http.StatusOK {
		t.Fatalf("get expected 200, got %d (%s)", status, string(body))
	}
	saved := decodeComplaint(t, body)
	if saved.Photo == nil {
		t.Fatal("expected stored photos")
	}
	names := strings.Split(*saved.Photo, ",")
	if len(names) != 2 || names[0] == names[1] {
		t.Fatalf("expected two distinct stored names, got %q", *saved.Photo)
	}

	got := map[string]bool{}
	for _, name := range names {
		if !strings.HasSuffix(name, "-image.jpg") {
			t.Fatalf("expected stored name to keep the original, got %q", name)
		}
		data, err := os.ReadFile(filepath.Join(env.uploadDir, name))
		if err != nil {
			t.Fatalf("read stored upload %s: %v", name, err)
		}
		got[string(data)] = true
	}
	if !got["first-bytes"] || !got["second-bytes"] {
		t.Fatalf("expected both uploads on disk, got %v", got)
	}
}

func TestHTMLUploadExcelRendersReport(t *testing.T) {
	env := setupTestEnv(t)

	status, body := upload(t, env.router, "/upload-excel", "excelFile", "complaints.csv",
		[]byte("FARMER NAME / DEALER NAME,COMPLAIN DATE\nAsha,05-01-2024\n"), nil)
	if status != http.StatusOK {
		t.Fatalf("upload expected 200, got %d (%s)", status, string(body))
	}
	if !strings.Contains(string(body), "C0001") {
		t.Fatalf("expected report to name the created serial, got %s", string(body))
	}

	status, _ = upload(t, env.router, "/upload-excel", "other", "complaints.csv", []byte("x"), nil)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 without excelFile, got %d", status)
	}
}

func TestSecurityHeadersAndCORS(t *testing.T) {
	env := setupTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/complaints", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected preflight 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Fatalf("expected allowed origin echoed, got %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected request id header")
	}

	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("expected nosniff header")
	}
}

func decodeComplaint(t *testing.T, body []byte) complaint.Record {
	t.Helper()
	var rec complaint.Record
	if err := json.Unmarshal(body, &rec); err != nil {
		t.Fatalf("parse complaint body: %v (%s)", err, string(body))
	}
	return rec
}

func jsonBody(payload map[string]any) []byte {
	body, _ := json.Marshal(payload)
	return body
}

func upload(t *testing.T, router http.Handler, path, field, filename string, data []byte, fields map[string]string) (int, []byte) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := mw.WriteField(key, value); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.RemoteAddr = "127.0.0.1:12345"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	resBody, _ := io.ReadAll(rec.Result().Body)
	return rec.Code, resBody
}

func request(t *testing.T, router http.Handler, method, path string, body []byte) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.RemoteAddr = "127.0.0.1:12345"
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	resBody, _ := io.ReadAll(rec.Result().Body)
	return rec.Code, resBody
}
