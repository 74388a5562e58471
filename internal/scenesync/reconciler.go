package scenesync

import (
	"log/slog"

	"github.com/hashicorp/go-multierror"

	"obs-stream-sync/internal/platform/metrics"
	"obs-stream-sync/internal/status"
)

// Reconciler creates and removes prefixed OBS scenes so that they match the
// live streams. It keeps no state between passes: OBS is re-read every time.
type Reconciler struct {
	ctl     Controller
	prefix  string
	source  SourceSpec
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewReconciler returns a Reconciler managing scenes named prefix+stream.
// Metrics may be nil to disable metric recording (e.g. in tests).
func NewReconciler(ctl Controller, prefix string, source SourceSpec, log *slog.Logger, m *metrics.Metrics) *Reconciler {
	return &Reconciler{ctl: ctl, prefix: prefix, source: source, log: log, metrics: m}
}

// Prefix is the managed scene name prefix.
func (r *Reconciler) Prefix() string { return r.prefix }

func (r *Reconciler) withLogger(log *slog.Logger) *Reconciler {
	cp := *r
	cp.log = log
	return &cp
}

// Plan reads the scene list and returns the changes Reconcile would make.
func (r *Reconciler) Plan(live []status.StreamRecord) (Plan, error) {
	existing, err := r.ctl.ListScenes()
	if err != nil {
		return Plan{}, &ItemError{Op: OpListScenes, Err: err}
	}
	return BuildPlan(existing, live, r.prefix), nil
}

// Reconcile applies one pass: the creation pass runs first, then removals.
// Per-item failures are logged, collected in Result.Err, and never stop the pass.
func (r *Reconciler) Reconcile(live []status.StreamRecord) Result {
	var res Result

	plan, err := r.Plan(live)
	if err != nil {
		r.log.Error("list scenes failed", slog.String("error", err.Error()))
		r.fail(OpListScenes)
		res.Err = err
		return res
	}

	var errs *multierror.Error

	for _, stream := range plan.Create {
		scene := SceneName(r.prefix, stream.Name)
		if err := r.createScene(scene, stream); err != nil {
			errs = multierror.Append(errs, err)
			res.Failed = append(res.Failed, scene)
			continue
		}
		res.Created = append(res.Created, scene)
	}

	for _, scene := range plan.Remove {
		r.log.Info("removing scene for ended stream", slog.String("scene", scene))
		if err := r.ctl.RemoveScene(scene); err != nil {
			r.log.Error("remove scene failed", slog.String("scene", scene), slog.String("error", err.Error()))
			r.fail(OpRemoveScene)
			errs = multierror.Append(errs, &ItemError{Scene: scene, Op: OpRemoveScene, Err: err})
			res.Failed = append(res.Failed, scene)
			continue
		}
		res.Removed = append(res.Removed, scene)
	}

	if r.metrics != nil {
		r.metrics.AddScenesCreated(len(res.Created))
		r.metrics.AddScenesRemoved(len(res.Removed))
	}
	res.Err = errs.ErrorOrNil()
	return res
}

// createScene creates the scene and its single input. If the input cannot be
// set up the scene is removed again so no empty scene outlives the pass.
func (r *Reconciler) createScene(scene string, stream status.StreamRecord) error {
	r.log.Info("creating scene for stream",
		slog.String("scene", scene),
		slog.String("stream", stream.Name),
		slog.String("url", stream.URL))

	if err := r.ctl.CreateScene(scene); err != nil {
		r.log.Error("create scene failed", slog.String("scene", scene), slog.String("error", err.Error()))
		r.fail(OpCreateScene)
		return &ItemError{Scene: scene, Op: OpCreateScene, Err: err}
	}

	in := r.source.InputFor(stream)
	op := OpCreateInput
	err := r.ctl.CreateInput(scene, in)
	if err == nil {
		op = OpSetMonitor
		err = r.ctl.SetInputAudioMonitorType(in.Name, MonitorAndOutput)
	}
	if err == nil {
		r.log.Info("source attached",
			slog.String("scene", scene),
			slog.String("input", in.Name),
			slog.String("kind", in.Kind))
		return nil
	}

	r.log.Error("attach source failed, removing scene",
		slog.String("scene", scene),
		slog.String("input", in.Name),
		slog.String("op", op),
		slog.String("error", err.Error()))
	r.fail(op)
	itemErr := &ItemError{Scene: scene, Op: op, Err: err}

	if rbErr := r.ctl.RemoveScene(scene); rbErr != nil {
		r.log.Error("rollback failed, scene left without source",
			slog.String("scene", scene),
			slog.String("error", rbErr.Error()))
		r.fail(OpRollback)
		return multierror.Append(itemErr, &ItemError{Scene: scene, Op: OpRollback, Err: rbErr})
	}
	return itemErr
}

func (r *Reconciler) fail(op string) {
	if r.metrics != nil {
		r.metrics.IncItemFailures(op)
	}
}
