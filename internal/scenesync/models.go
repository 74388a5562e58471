// Package scenesync mirrors live streams into OBS scenes.
package scenesync

import (
	"fmt"
	"time"

	"obs-stream-sync/internal/platform/metrics"
	"obs-stream-sync/internal/status"
)

// MonitorAndOutput is the OBS audio monitor type set on every created input.
const MonitorAndOutput = "OBS_MONITORING_TYPE_MONITOR_AND_OUTPUT"

// Controller is the subset of the OBS remote-control API the reconciler uses.
type Controller interface {
	ListScenes() ([]string, error)
	CreateScene(name string) error
	RemoveScene(name string) error
	CreateInput(scene string, in Input) error
	SetInputAudioMonitorType(input, monitorType string) error
}

// Input describes a media source to create inside a scene.
type Input struct {
	Name     string
	Kind     string
	Settings map[string]any
}

// Plan is the set of changes needed to bring OBS in line with the live streams.
type Plan struct {
	Create []status.StreamRecord // streams without a scene, in live order
	Remove []string              // managed scenes without a stream, sorted
}

// Empty reports whether the plan would change nothing.
func (p Plan) Empty() bool {
	return len(p.Create) == 0 && len(p.Remove) == 0
}

// Result is the outcome of one reconciliation pass.
type Result struct {
	Created []string
	Removed []string
	Failed  []string
	// Err aggregates per-item failures; nil when every operation succeeded.
	Err error
}

// Changed reports whether the pass created or removed any scene.
func (r Result) Changed() bool {
	return len(r.Created) > 0 || len(r.Removed) > 0
}

// Item operations reported in ItemError.Op and the item failure metric.
const (
	OpListScenes  = "list_scenes"
	OpCreateScene = "create_scene"
	OpCreateInput = "create_input"
	OpSetMonitor  = "set_monitor_type"
	OpRemoveScene = "remove_scene"
	OpRollback    = "rollback"
)

// ItemError is a failed OBS operation on a single scene.
type ItemError struct {
	Scene string
	Op    string
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Scene, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }

// Cycle is the record of one poll-and-reconcile pass.
type Cycle struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  time.Time
	Streams     []status.StreamRecord
	FetchErrors map[string]string // source name -> error text
	Skipped     bool
	Result      Result
}

// Outcome summarizes the cycle for metrics and exit codes.
func (c Cycle) Outcome() string {
	switch {
	case c.Skipped:
		return metrics.OutcomeSkipped
	case c.Result.Err != nil:
		return metrics.OutcomeErrors
	default:
		return metrics.OutcomeOK
	}
}
