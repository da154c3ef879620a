// Package webui serves the upload form and the catalog browser.
//
// Routes:
//
//	GET  /                         → upload form
//	POST /generate                 → run an uploaded workbook, redirect to its page
//	GET  /runs/{id}                → catalog table; ?col=&val= filters, ?q= searches
//	GET  /runs/{id}/download.json  → JSON attachment
//	GET  /runs/{id}/download.csv   → CSV attachment
//	POST /api/generate?format=     → stateless API returning JSON (default) or CSV
//	GET  /metrics                  → Prometheus scrape endpoint, when configured
package webui

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"variantgen/internal/config"
	"variantgen/internal/datasource"
	"variantgen/internal/export"
	"variantgen/internal/parser"
	"variantgen/internal/pipeline"
	"variantgen/internal/view"
)

const (
	defaultMaxUpload = 32 << 20
	defaultCacheSize = 32
	formFile         = "workbook"
)

// runFn is swapped out by tests.
var runFn = pipeline.RunSource

// Config controls server startup.
type Config struct {
	Addr string

	// Job supplies generator and view settings for every upload. Its source,
	// export and storage blocks are ignored.
	Job config.Job

	// MaxUploadBytes caps request bodies; 32 MiB when zero.
	MaxUploadBytes int64

	// CacheSize is how many runs stay browsable; 32 when zero.
	CacheSize int

	// Metrics, when set, is mounted at /metrics.
	Metrics http.Handler

	Logger *zap.Logger
}

// Server holds routes, the parsed template and recent runs.
type Server struct {
	cfg    Config
	mux    *http.ServeMux
	tmpl   *template.Template
	runs   *runCache
	logger *zap.Logger
}

// NewServer constructs a Server with routes and the embedded template.
func NewServer(cfg Config) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUpload
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = defaultCacheSize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:    cfg,
		mux:    http.NewServeMux(),
		tmpl:   template.Must(template.New("index").Parse(indexHTML)),
		runs:   newRunCache(cfg.CacheSize),
		logger: logger,
	}
	s.routes()
	return s
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.mux }

// ListenAndServe listens on cfg.Addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	hs := &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- hs.Serve(ln) }()
	s.logger.Info("webui: listening", zap.String("addr", ln.Addr().String()))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("POST /generate", s.handleGenerate)
	s.mux.HandleFunc("GET /runs/{id}", s.handleRun)
	s.mux.HandleFunc("GET /runs/{id}/download.json", s.handleDownload("json"))
	s.mux.HandleFunc("GET /runs/{id}/download.csv", s.handleDownload("csv"))
	s.mux.HandleFunc("POST /api/generate", s.handleAPIGenerate)
	if s.cfg.Metrics != nil {
		s.mux.Handle("GET /metrics", s.cfg.Metrics)
	}
}

type pageData struct {
	Error      string
	Separator  string
	Precedence string
	Run        *runPage
}

type runPage struct {
	ID      string
	Source  string
	Sheets  []string
	Digest  string
	Empty   bool
	Total   int
	Shown   int
	Columns []string
	Rows    [][]string
	Col     string
	Val     string
	Query   string
	Values  []string
}

func (s *Server) page() pageData {
	return pageData{
		Separator:  s.cfg.Job.Generator.Separator(),
		Precedence: s.cfg.Job.Generator.Precedence,
	}
}

func (s *Server) render(w http.ResponseWriter, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.tmpl.Execute(w, data); err != nil {
		s.logger.Error("webui: template", zap.Error(err))
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, s.page())
}

// handleGenerate runs the uploaded workbook and redirects to its page.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	data := s.page()
	res, err := s.runUpload(w, r)
	if err != nil {
		data.Error = err.Error()
		s.render(w, statusFor(err), data)
		return
	}
	s.runs.put(res)
	http.Redirect(w, r, "/runs/"+res.RunID, http.StatusSeeOther)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	data := s.page()
	res, ok := s.runs.get(r.PathValue("id"))
	if !ok {
		data.Error = "run not found; it may have expired, upload the workbook again"
		s.render(w, http.StatusNotFound, data)
		return
	}

	q := r.URL.Query()
	p := &runPage{
		ID:      res.RunID,
		Source:  res.Source,
		Sheets:  res.Sheets,
		Digest:  res.Digest,
		Empty:   res.Empty(),
		Total:   len(res.Records),
		Columns: res.Columns,
		Col:     q.Get("col"),
		Val:     q.Get("val"),
		Query:   strings.TrimSpace(q.Get("q")),
	}

	recs := res.Records
	if p.Col != "" {
		p.Values = view.Distinct(recs, p.Col)
		if p.Val != "" {
			recs = view.Filter(recs, p.Col, p.Val)
		}
	}
	recs = view.Search(recs, p.Query)
	p.Shown = len(recs)
	p.Rows = make([][]string, len(recs))
	for i, rec := range recs {
		row := make([]string, len(res.Columns))
		for j, c := range res.Columns {
			row[j] = rec.Value(c)
		}
		p.Rows[i] = row
	}

	data.Run = p
	s.render(w, http.StatusOK, data)
}

func (s *Server) handleDownload(format string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, ok := s.runs.get(r.PathValue("id"))
		if !ok {
			http.Error(w, "run not found", http.StatusNotFound)
			return
		}
		s.writeCatalog(w, res, format, true)
	}
}

// handleAPIGenerate returns the catalog directly so scripts can curl it.
func (s *Server) handleAPIGenerate(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "csv" {
		http.Error(w, fmt.Sprintf("unknown format %q (want json or csv)", format), http.StatusBadRequest)
		return
	}
	res, err := s.runUpload(w, r)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	w.Header().Set("X-Variant-Count", fmt.Sprint(len(res.Records)))
	w.Header().Set("X-Catalog-Digest", res.Digest)
	s.writeCatalog(w, res, format, false)
}

func (s *Server) writeCatalog(w http.ResponseWriter, res *pipeline.Result, format string, attach bool) {
	var (
		body        []byte
		err         error
		contentType string
		filename    string
	)
	switch format {
	case "csv":
		body, err = export.CSV(res.Records, res.Columns, export.CSVOptions{Comma: s.cfg.Job.Export.Delimiter()})
		contentType, filename = "text/csv; charset=utf-8", export.CSVFilename
	default:
		body, err = export.JSON(res.Records, res.Columns)
		contentType, filename = "application/json", export.JSONFilename
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	if attach {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	}
	w.Write(body)
}

// runUpload reads the multipart workbook plus the optional separator and
// precedence fields, then runs the pipeline on it.
func (s *Server) runUpload(w http.ResponseWriter, r *http.Request) (*pipeline.Result, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		return nil, &requestError{fmt.Errorf("bad upload: %w", err)}
	}
	f, hdr, err := r.FormFile(formFile)
	if err != nil {
		return nil, &requestError{fmt.Errorf("choose a workbook to upload: %w", err)}
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		return nil, &requestError{fmt.Errorf("read upload: %w", err)}
	}

	job := s.cfg.Job
	job.Export = config.Export{}
	job.Storage = config.Storage{}
	if job.Job == "" {
		job.Job = "webui"
	}
	if _, ok := r.MultipartForm.Value["separator"]; ok {
		sep := r.FormValue("separator")
		job.Generator.IDSeparator = &sep
	}
	if p := r.FormValue("precedence"); p != "" {
		job.Generator.Precedence = p
	}

	res, err := runFn(r.Context(), job, datasource.Bytes{Filename: hdr.Filename, Data: b}, s.logger)
	if err != nil {
		s.logger.Warn("webui: generate failed", zap.String("file", hdr.Filename), zap.Error(err))
		return nil, err
	}
	return res, nil
}

// requestError marks errors caused by a malformed request.
type requestError struct{ err error }

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func statusFor(err error) int {
	var re *requestError
	switch {
	case errors.As(err, &re):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrLimitExceeded):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, parser.ErrUnknownKind):
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusUnprocessableEntity
	}
}

// indexHTML is the single page template: form, messages and results.
//
//go:embed index.tmpl.html
var indexHTML string
