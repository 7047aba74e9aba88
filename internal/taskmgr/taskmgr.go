package taskmgr

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/slimfile/slimfile/internal/classify"
	"github.com/slimfile/slimfile/internal/config"
	"github.com/slimfile/slimfile/internal/download"
	"github.com/slimfile/slimfile/internal/model"
	"github.com/slimfile/slimfile/internal/strategy"
)

const hwpAdvisory = "Cannot compress HWP. Please convert to PDF/Word and re-upload."

var (
	ErrExtensionNotAllowed = fmt.Errorf("file extension not allowed")
	ErrTaskNotFound        = fmt.Errorf("task not found")
)

// Listener receives task change events for the presentation layer.
type Listener func(model.Event)

// TaskManager owns every task's state transitions. It classifies each
// submitted file, dispatches it to the matching strategy on a bounded
// worker pool and normalizes all strategy outputs into the task's
// terminal state. Tasks never share mutable state with each other.
type TaskManager struct {
	mu       sync.Mutex
	tasks    map[string]*model.Task
	order    []string
	pending  []*model.Task
	active   int
	listener Listener

	pool     *ants.Pool
	wg       sync.WaitGroup
	cfg      *config.Config
	logger   *zap.Logger
	registry *download.Registry

	pdf      strategy.Strategy
	image    strategy.Strategy
	office   strategy.Strategy
	simulate strategy.Strategy
}

func New(cfg *config.Config, registry *download.Registry, logger *zap.Logger) (*TaskManager, error) {
	pool, err := ants.NewPool(cfg.Compress.MaxWorkers)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}

	images := strategy.NewImageCompressor(
		cfg.Compress.Image.MaxDimension,
		cfg.Compress.Image.JPEGQuality,
		cfg.ImageStepInterval(),
	)
	simulate := strategy.NewSimulator(
		cfg.Compress.Simulate.Seed,
		cfg.SimulateMinInterval(),
		cfg.SimulateMaxInterval(),
	)

	return &TaskManager{
		tasks:    make(map[string]*model.Task),
		pool:     pool,
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		pdf:      strategy.NewPDFRasterizer(cfg.Compress.PDF.Scale, cfg.Compress.PDF.JPEGQuality),
		image:    images,
		office:   strategy.NewOfficeRepackager(images, simulate, cfg.OfficeFallbackDelay()),
		simulate: simulate,
	}, nil
}

// SetListener installs the event callback. Call before submitting.
func (tm *TaskManager) SetListener(l Listener) {
	tm.mu.Lock()
	tm.listener = l
	tm.mu.Unlock()
}

// Submit accepts a validated file, creates its task and queues it for
// processing. Intake never blocks on the pool; unsupported kinds are
// skipped immediately without running any strategy.
func (tm *TaskManager) Submit(name string, data []byte) (*model.Task, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if !tm.cfg.AllowedExtension(ext) {
		return nil, fmt.Errorf("%w: %s", ErrExtensionNotAllowed, ext)
	}

	task := &model.Task{
		ID:           uuid.New().String(),
		OriginalName: name,
		OriginalSize: int64(len(data)),
		FormatKind:   classify.Classify(name),
		State:        model.StateQueued,
		CreatedAt:    time.Now(),
		Data:         data,
	}

	tm.mu.Lock()
	tm.tasks[task.ID] = task
	tm.order = append(tm.order, task.ID)
	tm.mu.Unlock()

	tm.logger.Info("task created",
		zap.String("task_id", task.ID),
		zap.String("name", name),
		zap.String("kind", string(task.FormatKind)),
		zap.String("size", model.FormatBytes(task.OriginalSize)),
	)

	if task.FormatKind == model.KindUnsupported {
		tm.mu.Lock()
		task.State = model.StateSkipped
		task.ErrorMessage = hwpAdvisory
		snapshot := *task
		tm.mu.Unlock()
		tm.notify(&snapshot)
		return &snapshot, nil
	}

	tm.notifyTask(task)
	tm.dispatch(task)

	return tm.snapshot(task), nil
}

// dispatch hands a task to the pool without ever blocking intake. The
// active counter is the concurrency gate: once every worker is busy
// new tasks park on the pending queue, and each worker keeps pulling
// from it before giving up its slot. Parking and the worker's
// empty-queue check share tm.mu, so a parked task is always seen by
// an active worker.
func (tm *TaskManager) dispatch(task *model.Task) {
	tm.mu.Lock()
	if tm.active >= tm.cfg.Compress.MaxWorkers {
		tm.pending = append(tm.pending, task)
		tm.mu.Unlock()
		return
	}
	tm.active++
	tm.mu.Unlock()

	tm.wg.Add(1)
	if err := tm.pool.Submit(func() { tm.work(task) }); err != nil {
		tm.wg.Done()
		tm.mu.Lock()
		tm.active--
		tm.mu.Unlock()
		tm.fail(task, fmt.Errorf("queue task: %w", err))
	}
}

func (tm *TaskManager) work(task *model.Task) {
	defer tm.wg.Done()
	for {
		tm.process(task)

		tm.mu.Lock()
		if len(tm.pending) == 0 {
			tm.active--
			tm.mu.Unlock()
			return
		}
		task = tm.pending[0]
		tm.pending = tm.pending[1:]
		tm.mu.Unlock()
	}
}

func (tm *TaskManager) process(task *model.Task) {
	strat, message := tm.route(task)

	tm.mu.Lock()
	task.State = model.StateProcessing
	task.StatusMessage = message
	tm.mu.Unlock()
	tm.logger.Debug("task processing",
		zap.String("task_id", task.ID),
		zap.String("strategy", strat.Name()),
	)
	tm.notifyTask(task)

	outcome, err := strat.Compress(context.Background(), task.OriginalName, task.Data, func(p int) {
		tm.setProgress(task, p)
	})
	if err != nil {
		tm.fail(task, err)
		return
	}
	tm.finish(task, outcome)
}

func (tm *TaskManager) route(task *model.Task) (strategy.Strategy, string) {
	switch task.FormatKind {
	case model.KindPDF:
		return tm.pdf, "Scanning and compressing PDF pages..."
	case model.KindOffice:
		if classify.Repackable(task.OriginalName) {
			return tm.office, "Analyzing document structure..."
		}
		return tm.simulate, ""
	case model.KindImage:
		return tm.image, "Optimizing image..."
	default:
		return tm.simulate, ""
	}
}

// setProgress clamps progress monotonic non-decreasing; strategies may
// report from concurrent tickers. Terminal tasks never move again.
func (tm *TaskManager) setProgress(task *model.Task, percent int) {
	tm.mu.Lock()
	if task.State.Terminal() || percent <= task.Progress {
		tm.mu.Unlock()
		return
	}
	if percent > 100 {
		percent = 100
	}
	task.Progress = percent
	tm.mu.Unlock()
	tm.notifyTask(task)
}

// finish normalizes a strategy outcome into the Done state. Savings
// are computed from byte sizes unless the strategy fabricated its own
// percentage (simulation).
func (tm *TaskManager) finish(task *model.Task, outcome *strategy.Outcome) {
	handle := tm.registry.Create(task.OriginalName, outcome.Data, outcome.Real)

	tm.mu.Lock()
	task.Result = outcome.Data
	task.RealCompression = outcome.Real
	if outcome.Savings >= 0 {
		task.SavingsPercent = outcome.Savings
		task.CompressedSize = task.OriginalSize * int64(100-outcome.Savings) / 100
	} else {
		task.CompressedSize = int64(len(outcome.Data))
		task.SavingsPercent = model.Savings(task.OriginalSize, task.CompressedSize)
	}
	if outcome.Note != "" {
		task.StatusMessage = outcome.Note
	}
	task.DownloadURL = "/downloads/" + handle.ID
	task.State = model.StateDone
	task.Progress = 100
	tm.mu.Unlock()

	tm.logger.Info("task done",
		zap.String("task_id", task.ID),
		zap.Bool("real", outcome.Real),
		zap.Int("savings_percent", task.SavingsPercent),
		zap.String("compressed_size", model.FormatBytes(task.CompressedSize)),
	)
	tm.notifyTask(task)
}

func (tm *TaskManager) fail(task *model.Task, err error) {
	tm.mu.Lock()
	task.State = model.StateFailed
	task.ErrorMessage = err.Error()
	task.Progress = 100
	tm.mu.Unlock()

	tm.logger.Warn("task failed",
		zap.String("task_id", task.ID),
		zap.String("name", task.OriginalName),
		zap.Error(err),
	)
	tm.notifyTask(task)
}

func (tm *TaskManager) notifyTask(task *model.Task) {
	tm.mu.Lock()
	snapshot := *task
	tm.mu.Unlock()
	tm.notify(&snapshot)
}

func (tm *TaskManager) notify(task *model.Task) {
	tm.mu.Lock()
	listener := tm.listener
	tm.mu.Unlock()
	if listener == nil {
		return
	}
	listener(model.Event{
		TaskID:   task.ID,
		State:    task.State,
		Progress: task.Progress,
		Savings:  task.SavingsPercent,
		Real:     task.RealCompression,
		Message:  task.StatusMessage,
		Kind:     task.FormatKind,
	})
}

func (tm *TaskManager) snapshot(task *model.Task) *model.Task {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	snapshot := *task
	return &snapshot
}

// GetTask returns a snapshot of a task's current state.
func (tm *TaskManager) GetTask(id string) (model.Task, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	task, ok := tm.tasks[id]
	if !ok {
		return model.Task{}, ErrTaskNotFound
	}
	return *task, nil
}

// ListTasks returns snapshots of all tasks in submission order.
func (tm *TaskManager) ListTasks() []model.Task {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	out := make([]model.Task, 0, len(tm.order))
	for _, id := range tm.order {
		out = append(out, *tm.tasks[id])
	}
	return out
}

// Wait blocks until every queued task has reached a terminal state.
func (tm *TaskManager) Wait() {
	tm.wg.Wait()
}

// Close waits for in-flight tasks and releases the worker pool.
func (tm *TaskManager) Close() {
	tm.wg.Wait()
	tm.pool.Release()
}
