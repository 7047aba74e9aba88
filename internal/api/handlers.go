package api

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/slimfile/slimfile/internal/download"
	"github.com/slimfile/slimfile/internal/model"
	"github.com/slimfile/slimfile/internal/taskmgr"
)

type APIHandler struct {
	TM       *taskmgr.TaskManager
	Registry *download.Registry
	Logger   *zap.Logger
}

func RegisterHandlers(r *gin.Engine, tm *taskmgr.TaskManager, registry *download.Registry, logger *zap.Logger) {
	h := &APIHandler{TM: tm, Registry: registry, Logger: logger}

	r.POST("/files", h.uploadFiles)
	r.GET("/tasks", h.listTasks)
	r.GET("/tasks/:id/status", h.getStatus)
	r.GET("/downloads/:id", h.serveDownload)
}

// uploadFiles accepts multipart uploads under the "files" field and
// creates one task per accepted file.
func (h *APIHandler) uploadFiles(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files provided"})
		return
	}

	accepted := make([]model.Task, 0, len(files))
	rejected := make([]gin.H, 0)

	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			rejected = append(rejected, gin.H{"filename": fh.Filename, "error": err.Error()})
			continue
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			rejected = append(rejected, gin.H{"filename": fh.Filename, "error": err.Error()})
			continue
		}

		task, err := h.TM.Submit(fh.Filename, data)
		if err != nil {
			rejected = append(rejected, gin.H{"filename": fh.Filename, "error": err.Error()})
			continue
		}
		accepted = append(accepted, *task)
	}

	if len(accepted) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files accepted", "rejected": rejected})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"tasks": accepted, "rejected": rejected})
}

func (h *APIHandler) listTasks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tasks": h.TM.ListTasks()})
}

func (h *APIHandler) getStatus(c *gin.Context) {
	task, err := h.TM.GetTask(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	c.JSON(http.StatusOK, task)
}

// serveDownload streams a result blob once; the registry schedules the
// handle's release a grace period after this first use.
func (h *APIHandler) serveDownload(c *gin.Context) {
	handle, ok := h.Registry.Open(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "download not found"})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", handle.Filename))
	c.Data(http.StatusOK, "application/octet-stream", handle.Data)
}
