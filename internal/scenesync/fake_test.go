package scenesync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"testing"

	"obs-stream-sync/internal/status"
)

// fakeOBS is an in-memory Controller that records every mutating call.
type fakeOBS struct {
	scenes map[string][]Input

	calls []string

	listErr         error
	createSceneErr  map[string]error
	createInputErr  map[string]error
	setMonitorErr   map[string]error
	removeSceneErr  map[string]error
	monitorSettings map[string]string
}

func newFakeOBS(scenes ...string) *fakeOBS {
	f := &fakeOBS{
		scenes:          make(map[string][]Input),
		createSceneErr:  make(map[string]error),
		createInputErr:  make(map[string]error),
		setMonitorErr:   make(map[string]error),
		removeSceneErr:  make(map[string]error),
		monitorSettings: make(map[string]string),
	}
	for _, s := range scenes {
		f.scenes[s] = nil
	}
	return f
}

func (f *fakeOBS) ListScenes() ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	names := make([]string, 0, len(f.scenes))
	for name := range f.scenes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (f *fakeOBS) CreateScene(name string) error {
	f.calls = append(f.calls, "create_scene:"+name)
	if err := f.createSceneErr[name]; err != nil {
		return err
	}
	if _, ok := f.scenes[name]; ok {
		return fmt.Errorf("scene %q already exists", name)
	}
	f.scenes[name] = nil
	return nil
}

func (f *fakeOBS) RemoveScene(name string) error {
	f.calls = append(f.calls, "remove_scene:"+name)
	if err := f.removeSceneErr[name]; err != nil {
		return err
	}
	if _, ok := f.scenes[name]; !ok {
		return fmt.Errorf("no scene %q", name)
	}
	delete(f.scenes, name)
	return nil
}

func (f *fakeOBS) CreateInput(scene string, in Input) error {
	f.calls = append(f.calls, "create_input:"+in.Name)
	if err := f.createInputErr[in.Name]; err != nil {
		return err
	}
	if _, ok := f.scenes[scene]; !ok {
		return fmt.Errorf("no scene %q", scene)
	}
	f.scenes[scene] = append(f.scenes[scene], in)
	return nil
}

func (f *fakeOBS) SetInputAudioMonitorType(input, monitorType string) error {
	f.calls = append(f.calls, "set_monitor:"+input)
	if err := f.setMonitorErr[input]; err != nil {
		return err
	}
	f.monitorSettings[input] = monitorType
	return nil
}

func (f *fakeOBS) resetCalls() { f.calls = nil }

// mutations counts create/remove scene calls.
func (f *fakeOBS) mutations() int {
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, "create_scene:") || strings.HasPrefix(c, "remove_scene:") {
			n++
		}
	}
	return n
}

func (f *fakeOBS) sceneNames() []string {
	names, _ := f.ListScenes()
	return names
}

// fakeFetcher returns canned results.
type fakeFetcher struct {
	name    string
	records []status.StreamRecord
	err     error
	calls   int
}

func (f *fakeFetcher) Name() string { return f.name }

func (f *fakeFetcher) Fetch(ctx context.Context) ([]status.StreamRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

var errBoom = errors.New("boom")

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func newTestReconciler(t *testing.T, ctl Controller) *Reconciler {
	t.Helper()
	return NewReconciler(ctl, "stream_", SourceSpec{Kind: "ffmpeg", BufferMB: 2}, testLogger(), nil)
}

func rtmp(names ...string) []status.StreamRecord {
	out := make([]status.StreamRecord, 0, len(names))
	for _, n := range names {
		out = append(out, status.StreamRecord{Name: n, URL: "rtmp://rtmp.example.com/" + n})
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
