package taskwell

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/taskwell/taskwell/runtime"
)

// Server is our HTTP server, serving the todo API for authenticated callers
type Server interface {
	Router() chi.Router

	Start() error
	Stop()
}

type server struct {
	rt          *runtime.Runtime
	store       TodoStore
	attachments AttachmentStore

	httpServer *http.Server
	router     *chi.Mux

	waitGroup *sync.WaitGroup
}

// NewServer creates a new server for the passed in runtime, store and
// attachment service. The server will have to be started afterwards.
func NewServer(rt *runtime.Runtime, store TodoStore, attachments AttachmentStore) Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.StripSlashes)
	router.Use(middleware.Timeout(time.Duration(rt.Config.RequestTimeout) * time.Second))

	s := &server{
		rt:          rt,
		store:       store,
		attachments: attachments,

		router:    router,
		waitGroup: &sync.WaitGroup{},
	}

	router.NotFound(s.handle404)
	router.MethodNotAllowed(s.handle405)
	router.Get("/", s.handleIndex)
	router.Get("/status", s.handleStatus)

	router.Route("/todos", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/", s.handleListTodos)
		r.Post("/", s.handleCreateTodo)
		r.Patch("/{todoID}", s.handleUpdateTodo)
		r.Delete("/{todoID}", s.handleDeleteTodo)
		r.Post("/{todoID}/attachment", s.handleCreateAttachment)
		r.Delete("/{todoID}/attachment", s.handleDeleteAttachment)
	})

	return s
}

// Start starts the server listening for incoming requests, returning an error
// if it can't bind its address
func (s *server) Start() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// check we can reach our attachments bucket, warn but carry on if not
	if err := s.attachments.Test(ctx); err != nil {
		slog.Warn("unable to reach attachments bucket", "error", err)
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.rt.Config.Address, s.rt.Config.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	s.waitGroup.Add(1)
	go func() {
		defer s.waitGroup.Done()

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			slog.Error("error listening", "comp", "server", "error", err)
		}
	}()

	slog.Info("server started", "comp", "server", "port", s.rt.Config.Port, "version", s.rt.Config.Version)
	return nil
}

// Stop stops the server, returning only after all requests have completed
func (s *server) Stop() {
	log := slog.With("comp", "server")
	log.Info("stopping server")

	if err := s.httpServer.Shutdown(context.Background()); err != nil {
		log.Error("error shutting down server", "error", err)
	}

	s.waitGroup.Wait()
	log.Info("server stopped")
}

func (s *server) Router() chi.Router { return s.router }

func (s *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	buf := &bytes.Buffer{}
	buf.WriteString("<title>taskwell</title><body><pre>\n")
	buf.WriteString(splash)
	buf.WriteString(s.rt.Config.Version)
	buf.WriteString("\n\n")
	buf.WriteString("GET    /todos?filter={ALL,DONE,TODO}\n")
	buf.WriteString("POST   /todos\n")
	buf.WriteString("PATCH  /todos/{todoId}\n")
	buf.WriteString("DELETE /todos/{todoId}\n")
	buf.WriteString("POST   /todos/{todoId}/attachment\n")
	buf.WriteString("DELETE /todos/{todoId}/attachment\n")
	buf.WriteString("</pre></body>")
	w.Write(buf.Bytes())
}

func (s *server) handleStatus(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListAll(r.Context())
	if err != nil {
		slog.Error("error reading status counts", "error", err)
		http.Error(w, "status unavailable", http.StatusServiceUnavailable)
		return
	}

	done := 0
	for _, item := range items {
		if item.Done {
			done++
		}
	}

	buf := &bytes.Buffer{}
	buf.WriteString("<title>taskwell</title><body><pre>\n")
	buf.WriteString(splash)
	buf.WriteString(s.rt.Config.Version)
	buf.WriteString(fmt.Sprintf("\n\n%d item(s), %d done, %d pending\n", len(items), done, len(items)-done))
	buf.WriteString("</pre></body>")
	w.Write(buf.Bytes())
}

func (s *server) handle404(w http.ResponseWriter, r *http.Request) {
	slog.Info("not found", "url", r.URL.String(), "method", r.Method, "resp_status", "404")
	WriteDataResponse(w, http.StatusNotFound, &errorResponse{[]string{fmt.Sprintf("not found: %s", r.URL.String())}})
}

func (s *server) handle405(w http.ResponseWriter, r *http.Request) {
	slog.Info("invalid method", "url", r.URL.String(), "method", r.Method, "resp_status", "405")
	WriteDataResponse(w, http.StatusMethodNotAllowed, &errorResponse{[]string{fmt.Sprintf("method not allowed: %s", r.Method)}})
}

var splash = `
 _            _                  _ _
| |_ __ _ ___| | ____      _____| | |
| __/ _` + "`" + ` / __| |/ /\ \ /\ / / _ \ | |
| || (_| \__ \   <  \ V  V /  __/ | |
 \__\__,_|___/_|\_\  \_/\_/ \___|_|_| v`
