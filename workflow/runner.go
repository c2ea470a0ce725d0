package workflow

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"bitbucket.org/mmdatafocus/cortes_backend/config"
	"bitbucket.org/mmdatafocus/cortes_backend/docref"
	"bitbucket.org/mmdatafocus/cortes_backend/models"
	"bitbucket.org/mmdatafocus/cortes_backend/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// RunState is a point-in-time snapshot of one asynchronous settlement run.
type RunState struct {
	ID         string                   `json:"id"`
	Branch     string                   `json:"branch"`
	Date       string                   `json:"date"`
	Status     RunStatus                `json:"status"`
	Phase      string                   `json:"phase,omitempty"`
	Result     *models.SettlementResult `json:"result,omitempty"`
	Error      string                   `json:"error,omitempty"`
	StartedAt  time.Time                `json:"started_at"`
	FinishedAt *time.Time               `json:"finished_at,omitempty"`
}

type runEntry struct {
	mu        sync.Mutex
	state     RunState
	cancelled atomic.Bool
}

// RunManager is the "run this whole operation off the calling thread" wrapper:
// no internal parallelism, one goroutine per run. Runs are independent (each
// opens its own table handles), so concurrent runs for different branch/date
// pairs are fine. Cancellation is cooperative, checked between scan phases; a
// cancelled run discards everything it collected and publishes no result.
type RunManager struct {
	logger *logrus.Logger
	codec  docref.Codec
	runs   sync.Map // run id -> *runEntry
}

func NewRunManager(logger *logrus.Logger, codec docref.Codec) *RunManager {
	return &RunManager{logger: logger, codec: codec}
}

// Codec returns the blob codec this manager runs settlements with.
func (m *RunManager) Codec() docref.Codec {
	return m.codec
}

// Start validates the input (the configuration-incomplete precondition is
// reported here, before any goroutine spins up) and launches the run.
func (m *RunManager) Start(in SettlementInput, branch string, date time.Time) (string, error) {
	if err := in.validate(); err != nil {
		return "", err
	}

	id := uuid.NewString()
	entry := &runEntry{
		state: RunState{
			ID:        id,
			Branch:    branch,
			Date:      utils.DisplayDate(date),
			Status:    RunStatusRunning,
			StartedAt: time.Now(),
		},
	}
	m.runs.Store(id, entry)

	go m.execute(entry, in, branch, date)
	return id, nil
}

func (m *RunManager) execute(entry *runEntry, in SettlementInput, branch string, date time.Time) {
	hooks := &runHooks{
		cancelled: entry.cancelled.Load,
		phase: func(name string) {
			entry.mu.Lock()
			entry.state.Phase = name
			entry.mu.Unlock()
		},
	}

	result, err := processSettlement(m.logger, in, m.codec, branch, date, hooks)

	now := time.Now()
	entry.mu.Lock()
	defer entry.mu.Unlock()
	entry.state.FinishedAt = &now
	entry.state.Phase = ""
	switch {
	case errors.Is(err, ErrRunCancelled):
		entry.state.Status = RunStatusCancelled
	case err != nil:
		entry.state.Status = RunStatusFailed
		entry.state.Error = err.Error()
		config.LogError(m.logger, "runner.go", "execute", "settlement run failed", entry.state.ID, err)
	default:
		entry.state.Status = RunStatusCompleted
		entry.state.Result = result
	}
}

// Progress returns a snapshot of the run's state.
func (m *RunManager) Progress(id string) (RunState, error) {
	v, ok := m.runs.Load(id)
	if !ok {
		return RunState{}, utils.ErrRunNotFound
	}
	entry := v.(*runEntry)
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.state, nil
}

// Cancel requests cooperative cancellation. A run past its last phase boundary
// finishes normally; one mid-flight stops at the next boundary.
func (m *RunManager) Cancel(id string) error {
	v, ok := m.runs.Load(id)
	if !ok {
		return utils.ErrRunNotFound
	}
	v.(*runEntry).cancelled.Store(true)
	return nil
}
