package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/adranna/tasknotes/pkg/model"
	"github.com/adranna/tasknotes/pkg/notion"
	"github.com/gin-gonic/gin"
)

// LoaderResult is the body of a successful task listing. Failures carry
// only {"isError":true}.
type LoaderResult struct {
	IsError bool         `json:"isError"`
	Data    []model.Task `json:"data"`
}

// DoneRequest is the body of a completion update.
type DoneRequest struct {
	Done *bool `json:"done" binding:"required"`
	// DoneAt is an RFC 3339 timestamp with offset. The current time is used
	// when it is absent.
	DoneAt *string `json:"doneAt" binding:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

func failed(c *gin.Context, status int) {
	c.AbortWithStatusJSON(status, gin.H{"isError": true})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleListTasks(c *gin.Context) {
	direction := notion.SortDirection(c.DefaultQuery("sort", string(notion.Ascending)))
	if direction != notion.Ascending && direction != notion.Descending {
		failed(c, http.StatusBadRequest)
		return
	}

	var (
		list []model.Task
		err  error
	)
	switch c.DefaultQuery("status", "all") {
	case "all":
		list, err = s.tasks.AllTasks(c.Request.Context(), direction)
	case "open":
		list, err = s.tasks.OpenTasks(c.Request.Context(), direction)
	default:
		failed(c, http.StatusBadRequest)
		return
	}
	if err != nil {
		logFor(c, s.log).WithError(err).Error("failed to load tasks")
		failed(c, http.StatusBadGateway)
		return
	}
	if list == nil {
		list = []model.Task{}
	}
	c.JSON(http.StatusOK, LoaderResult{Data: list})
}

func (s *Server) handleMarkDone(c *gin.Context) {
	log := logFor(c, s.log)

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		failed(c, http.StatusBadRequest)
		return
	}

	var req DoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.WithError(err).Debug("rejected completion update")
		failed(c, http.StatusBadRequest)
		return
	}

	var doneAt *time.Time
	if req.DoneAt != nil {
		at, err := time.Parse(time.RFC3339, *req.DoneAt)
		if err != nil {
			failed(c, http.StatusBadRequest)
			return
		}
		doneAt = &at
	}

	if err := s.tasks.MarkDone(c.Request.Context(), id, *req.Done, doneAt); err != nil {
		log.WithError(err).WithField("task_id", id).Error("failed to update task")
		failed(c, http.StatusBadGateway)
		return
	}
	c.JSON(http.StatusOK, gin.H{"isError": false})
}
