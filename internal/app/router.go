package app

import (
	_ "embed"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	openapimiddleware "github.com/oapi-codegen/nethttp-middleware"

	"github.com/complaint-register/api/internal/attachments"
	"github.com/complaint-register/api/internal/complaint"
	"github.com/complaint-register/api/internal/config"
	"github.com/complaint-register/api/internal/handlers"
	"github.com/complaint-register/api/internal/httpx"
	"github.com/complaint-register/api/internal/importer"
	"github.com/complaint-register/api/internal/middleware"
	"github.com/complaint-register/api/internal/web"
)

//go:embed openapi.yaml
var openAPISpec []byte

type Dependencies struct {
	Store       complaint.Store
	Attachments attachments.Store
}

func LoadOpenAPI() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(openAPISpec)
	if err != nil {
		return nil, fmt.Errorf("load openapi spec: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("validate openapi spec: %w", err)
	}
	return doc, nil
}

func NewRouter(cfg config.Config, deps Dependencies, logger *slog.Logger) (http.Handler, error) {
	doc, err := LoadOpenAPI()
	if err != nil {
		return nil, err
	}
	pages, err := web.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	complaints := complaint.NewService(deps.Store, logger)
	reconciler := importer.NewReconciler(cfg.Mapper(), complaints, logger, importer.Options{
		MaxRows: cfg.ImportMaxRows,
		TempDir: cfg.ImportTempDir(),
	})
	h := handlers.NewServer(cfg, complaints, reconciler, deps.Attachments, pages, logger)

	importLimiter := middleware.NewIPRateLimiterWithMaxEntries(cfg.ImportRateLimitPerMin, time.Minute, cfg.RateLimitMaxIPs)
	limitImports := importLimiter.Middleware("Too many imports, try again shortly")

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.SecurityHeaders(cfg.Env))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.LimitBodyBytesWithOverrides(cfg.APIMaxBodyBytes, []middleware.BodyLimitOverride{
		{PathPrefix: "/save", MaxBytes: cfg.UploadMaxBytes},
		{PathPrefix: "/upload-excel", MaxBytes: cfg.ImportMaxFileBytes},
		{PathPrefix: "/api/imports", MaxBytes: cfg.ImportMaxFileBytes},
	}))

	r.Get("/", h.Index)
	r.Get("/add", h.Add)
	r.Get("/edit/{serial}", h.Edit)
	r.Get("/delete/{serial}", h.Delete)
	r.Post("/save", h.Save)
	r.With(limitImports).Post("/upload-excel", h.UploadExcel)
	r.Post("/update-replacement/{serial}", h.UpdateReplacement)
	r.Get("/replacement-report", h.ReplacementReport)
	r.Get("/download-sample-excel", h.DownloadSampleExcel)
	r.Get("/export-excel", h.ExportExcel)
	r.Get("/uploads/{name}", h.ServeUpload)

	api := chi.NewRouter()
	api.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	api.Group(func(validated chi.Router) {
		validated.Use(openapimiddleware.OapiRequestValidatorWithOptions(doc, &openapimiddleware.Options{
			SilenceServersWarning: true,
			ErrorHandler: func(w http.ResponseWriter, message string, statusCode int) {
				requestID := w.Header().Get("X-Request-Id")
				httpx.WriteJSON(w, statusCode, httpx.ErrorEnvelope{
					Error:     httpx.ErrorBody{Code: "validation_error", Message: message},
					RequestID: requestID,
				})
			},
		}))

		validated.Get("/health", h.GetHealth)
		validated.Get("/complaints", h.ListComplaints)
		validated.Post("/complaints", h.PostComplaint)
		validated.Get("/complaints/{serial}", h.GetComplaint)
		validated.Put("/complaints/{serial}", h.PutComplaint)
		validated.Delete("/complaints/{serial}", h.DeleteComplaint)
		validated.Post("/complaints/{serial}/replacement-received", h.PostReplacementReceived)
		validated.Get("/replacements/pending", h.GetPendingReplacements)
	})

	api.With(limitImports).Post("/imports", h.PostImport)
	api.Get("/exports/complaints.csv", h.GetExportCSV)

	r.Mount("/api", api)
	return r, nil
}
