package download

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handle is a one-shot downloadable resource bound to a finished
// task's result blob.
type Handle struct {
	ID        string
	Filename  string
	Data      []byte
	CreatedAt time.Time

	used bool
}

// Registry keeps download handles in memory. A handle stays valid
// until it is released: release is scheduled a grace period after the
// first download is triggered (never before first use, so the reader
// is not cut off mid-transfer), and unused handles are dropped by the
// sweep once they outlive the retention window.
type Registry struct {
	mu        sync.Mutex
	handles   map[string]*Handle
	grace     time.Duration
	retention time.Duration
	logger    *zap.Logger
}

func NewRegistry(grace, retention time.Duration, logger *zap.Logger) *Registry {
	return &Registry{
		handles:   make(map[string]*Handle),
		grace:     grace,
		retention: retention,
		logger:    logger,
	}
}

// DeriveFilename prefixes the original name and, for real compression
// results, rewrites png/webp/bmp extensions to jpg since the real
// image and PDF paths always emit JPEG-encoded raster content.
func DeriveFilename(originalName string, real bool) string {
	name := "compressed_" + originalName
	if !real {
		return name
	}
	switch strings.ToLower(filepath.Ext(originalName)) {
	case ".png", ".webp", ".bmp":
		return strings.TrimSuffix(name, filepath.Ext(name)) + ".jpg"
	}
	return name
}

func (r *Registry) Create(originalName string, data []byte, real bool) *Handle {
	h := &Handle{
		ID:        uuid.New().String(),
		Filename:  DeriveFilename(originalName, real),
		Data:      data,
		CreatedAt: time.Now(),
	}
	r.mu.Lock()
	r.handles[h.ID] = h
	r.mu.Unlock()
	return h
}

// Open returns the handle and, on first use, schedules its release
// after the grace period. Repeat opens within the grace period still
// succeed.
func (r *Registry) Open(id string) (*Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handles[id]
	if !ok {
		return nil, false
	}
	if !h.used {
		h.used = true
		time.AfterFunc(r.grace, func() { r.Release(id) })
	}
	return h, true
}

func (r *Registry) Release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.handles[id]; ok {
		delete(r.handles, id)
		if r.logger != nil {
			r.logger.Debug("download handle released", zap.String("handle_id", id))
		}
	}
}

// Sweep drops unused handles older than the retention window and
// returns how many were removed.
func (r *Registry) Sweep() int {
	cutoff := time.Now().Add(-r.retention)
	r.mu.Lock()
	defer r.mu.Unlock()
	cleaned := 0
	for id, h := range r.handles {
		if !h.used && h.CreatedAt.Before(cutoff) {
			delete(r.handles, id)
			cleaned++
		}
	}
	if cleaned > 0 && r.logger != nil {
		r.logger.Info("cleaned up stale download handles", zap.Int("count", cleaned))
	}
	return cleaned
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}
