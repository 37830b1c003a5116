package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/adranna/tasknotes/pkg/model"
	"github.com/adranna/tasknotes/pkg/notion"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// TaskService is what the API needs from the task layer.
type TaskService interface {
	AllTasks(ctx context.Context, direction notion.SortDirection) ([]model.Task, error)
	OpenTasks(ctx context.Context, direction notion.SortDirection) ([]model.Task, error)
	MarkDone(ctx context.Context, taskID string, done bool, doneAt *time.Time) error
}

// Server serves the task API.
type Server struct {
	tasks  TaskService
	secret []byte
	log    logrus.FieldLogger
	router *gin.Engine
}

// New creates a Server. secret signs and verifies session tokens.
func New(tasks TaskService, secret []byte, log logrus.FieldLogger) *Server {
	router := gin.New()

	s := &Server{
		tasks:  tasks,
		secret: secret,
		log:    log,
		router: router,
	}

	router.Use(RequestID(), RequestLogger(log), Recovery(log))

	router.GET("/healthz", s.handleHealth)

	api := router.Group("/api")
	{
		api.GET("/tasks", s.handleListTasks)
		api.POST("/tasks/:id/done", Authenticate(secret, log), s.handleMarkDone)
	}

	return s
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}
