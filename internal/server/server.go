package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/Fanchen-Meng/online-study-room/internal/result"
	"github.com/Fanchen-Meng/online-study-room/internal/store"
	"github.com/Fanchen-Meng/online-study-room/internal/task"

	"github.com/gorilla/mux"
)

//go:embed templates/*.html static/*
var assets embed.FS

var indexTmpl = template.Must(template.New("index.html").Funcs(template.FuncMap{
	"minutes": func(seconds int) int { return seconds / 60 },
}).ParseFS(assets, "templates/index.html"))

type Server struct {
	tasks    *task.Manager
	exporter *result.Exporter
}

type Option func(*Server)

// WithPDFFont makes PDF exports use the UTF-8 TrueType font at path.
func WithPDFFont(path string) Option {
	return func(s *Server) { s.exporter.FontPath = path }
}

func New(st *store.Store, opts ...Option) *Server {
	s := &Server{tasks: task.NewManager(st), exporter: result.NewExporter(st)}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler returns the routed HTTP handler with request logging attached.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(logRequests)

	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	static, _ := fs.Sub(assets, "static")
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	// kept on the root router: mux subrouters answer a method mismatch with 404
	r.HandleFunc("/api/tasks", s.handleListTasks).Methods(http.MethodGet)
	r.HandleFunc("/api/tasks", s.handleCreateTask).Methods(http.MethodPost)
	r.HandleFunc("/api/tasks/{id}", s.handleGetTask).Methods(http.MethodGet)
	r.HandleFunc("/api/tasks/{id}", s.handleUpdateTask).Methods(http.MethodPut)
	r.HandleFunc("/api/stats", s.handleStats).Methods(http.MethodGet)
	r.HandleFunc("/api/export", s.handleExport).Methods(http.MethodGet)
	return r
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()
	log.Printf("listening on %s", addr)
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.tasks.List(r.Context())
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTmpl.Execute(w, map[string]any{"Tasks": tasks}); err != nil {
		log.Printf("render index: %v", err)
	}
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.tasks.List(r.Context())
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	req, err := task.DecodeCreate(r.Body)
	if err != nil {
		writeErr(w, statusFor(err), err)
		return
	}
	t, err := s.tasks.Create(r.Context(), req)
	if err != nil {
		writeErr(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	t, err := s.tasks.Get(r.Context(), id)
	if err != nil {
		writeErr(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type updateResp struct {
	Status     string `json:"status"`
	ID         int64  `json:"id"`
	ActualTime int    `json:"actual_time"`
	Completed  bool   `json:"completed"`
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	// unknown ids are a 404 whatever the body holds
	if _, err := s.tasks.Get(r.Context(), id); err != nil {
		writeErr(w, statusFor(err), err)
		return
	}
	req, err := task.DecodeUpdate(r.Body)
	if err != nil {
		writeErr(w, statusFor(err), err)
		return
	}
	t, err := s.tasks.Update(r.Context(), id, req)
	if err != nil {
		writeErr(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, updateResp{Status: "success", ID: t.ID, ActualTime: t.ActualTime, Completed: t.Completed})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.tasks.Stats(r.Context())
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	b, err := s.exporter.Export(r.Context(), format)
	if err != nil {
		writeErr(w, statusFor(err), err)
		return
	}
	w.Header().Set("Content-Type", result.ContentType(format))
	_, _ = w.Write(b)
}

func taskID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, errStr("invalid task id")
	}
	return id, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, task.ErrMalformed), errors.Is(err, result.ErrUnknownFormat):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	if code >= http.StatusInternalServerError {
		log.Printf("internal error: %v", err)
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

type errStr string

func (e errStr) Error() string { return string(e) }
