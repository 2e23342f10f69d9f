package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/mcallison/chartline/internal/database"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var md = goldmark.New()

// Server is the HTTP server for browsing narratives and their evidence.
type Server struct {
	db    *database.DB
	pages map[string]*template.Template
	mux   *http.ServeMux
}

// New creates a new Server.
func New(db *database.DB) (*Server, error) {
	funcMap := template.FuncMap{
		"narrative":    renderNarrative,
		"formatPeriod": formatPeriod,
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
	}

	// Parse base template first
	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// For each page template, clone the base and parse the page into the clone.
	// This gives each page its own {{define "content"}} and {{define "title"}}.
	pageNames := []string{"index.html", "narrative.html", "reference.html", "notfound.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		_, err = clone.ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{db: db, pages: pages, mux: http.NewServeMux()}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	// Static files
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	// Routes
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/narrative/", s.handleNarrative)
	s.mux.HandleFunc("/reference/", s.handleReference)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.renderNotFound(w, "Page not found")
		return
	}

	narratives, err := s.db.GetAllNarratives()
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	batches, _ := s.db.GetAllBatches()
	stats, _ := s.db.GetStats()

	s.render(w, "index.html", map[string]any{
		"Narratives": narratives,
		"Batches":    batches,
		"Stats":      stats,
	})
}

func (s *Server) handleNarrative(w http.ResponseWriter, r *http.Request) {
	rawID := strings.TrimPrefix(r.URL.Path, "/narrative/")
	if rawID == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		s.renderNotFound(w, "Narrative not found")
		return
	}

	n, err := s.db.GetNarrative(id)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if n == nil {
		s.renderNotFound(w, "Narrative not found")
		return
	}

	refs, _ := s.db.GetReferencesForNarrative(id)

	s.render(w, "narrative.html", map[string]any{
		"Narrative":  n,
		"References": refs,
	})
}

// handleReference resolves a clause anchor to the entries behind it. An
// unknown id renders the not-found page rather than an error.
func (s *Server) handleReference(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/reference/")
	if id == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	ref, err := s.db.GetReference(id)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if ref == nil {
		s.renderNotFound(w, "Reference not found")
		return
	}

	s.render(w, "reference.html", map[string]any{
		"Reference": ref,
	})
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		log.Printf("Template %s not found", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		log.Printf("Error rendering template %s: %v", name, err)
	}
}

func (s *Server) renderNotFound(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	tmpl, ok := s.pages["notfound.html"]
	if !ok {
		fmt.Fprintln(w, message)
		return
	}
	if err := tmpl.ExecuteTemplate(w, "base.html", map[string]any{"Message": message}); err != nil {
		log.Printf("Error rendering not-found page: %v", err)
	}
}

// renderNarrative converts a narrative's markdown to HTML, rewriting the
// ref:// clause anchors to /reference/ links on the way.
func renderNarrative(text string) template.HTML {
	linked := strings.ReplaceAll(text, "](ref://", "](/reference/")
	var buf bytes.Buffer
	if err := md.Convert([]byte(linked), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

func formatPeriod(period string) string {
	switch period {
	case "all":
		return "All notes"
	case "1_year":
		return "Last 12 months"
	case "6_months":
		return "Last 6 months"
	case "last_admission":
		return "Last admission"
	default:
		return period
	}
}

// Serve starts the HTTP server on the given port.
func Serve(db *database.DB, port int) error {
	srv, err := New(db)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Printf("Server listening on http://%s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
