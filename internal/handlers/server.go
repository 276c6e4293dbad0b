package handlers

import (
	"log/slog"
	"net/http"

	"github.com/complaint-register/api/internal/attachments"
	"github.com/complaint-register/api/internal/complaint"
	"github.com/complaint-register/api/internal/config"
	"github.com/complaint-register/api/internal/httpx"
	"github.com/complaint-register/api/internal/importer"
	"github.com/complaint-register/api/internal/middleware"
	"github.com/complaint-register/api/internal/web"
)

type Server struct {
	Config      config.Config
	Complaints  *complaint.Service
	Mapper      complaint.Mapper
	Importer    *importer.Reconciler
	Attachments attachments.Store
	Pages       *web.Renderer
	Logger      *slog.Logger
}

func NewServer(cfg config.Config, complaints *complaint.Service, reconciler *importer.Reconciler, files attachments.Store, pages *web.Renderer, logger *slog.Logger) *Server {
	return &Server{
		Config:      cfg,
		Complaints:  complaints,
		Mapper:      cfg.Mapper(),
		Importer:    reconciler,
		Attachments: files,
		Pages:       pages,
		Logger:      logger,
	}
}

func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) logger(r *http.Request) *slog.Logger {
	return middleware.LoggerFromContext(r.Context(), s.Logger)
}

// pageError answers a page request with a plain-text message; err, when
// present, is logged but never shown.
func (s *Server) pageError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	if err != nil {
		s.logger(r).Error(message, "error", err)
	}
	http.Error(w, message, status)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, page string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.Pages.Render(w, page, data); err != nil {
		s.pageError(w, r, http.StatusInternalServerError, "Error rendering page.", err)
	}
}
