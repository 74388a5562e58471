package scenesync

import (
	"testing"

	"obs-stream-sync/internal/status"
)

func TestBuildPlan(t *testing.T) {
	existing := []string{"Main", "stream_a", "stream_gone", "stream_old"}
	live := rtmp("a", "b")

	plan := BuildPlan(existing, live, "stream_")

	if len(plan.Create) != 1 || plan.Create[0].Name != "b" {
		t.Errorf("Create = %v, want [b]", plan.Create)
	}
	if !equalStrings(plan.Remove, []string{"stream_gone", "stream_old"}) {
		t.Errorf("Remove = %v", plan.Remove)
	}
}

func TestBuildPlan_unprefixed_scenes_untouched(t *testing.T) {
	plan := BuildPlan([]string{"Main", "Intermission"}, nil, "stream_")
	if !plan.Empty() {
		t.Errorf("expected empty plan, got %+v", plan)
	}
}

func TestBuildPlan_preserves_live_order(t *testing.T) {
	plan := BuildPlan(nil, rtmp("z", "a", "m"), "p_")
	got := []string{plan.Create[0].Name, plan.Create[1].Name, plan.Create[2].Name}
	if !equalStrings(got, []string{"z", "a", "m"}) {
		t.Errorf("Create order = %v", got)
	}
}

func TestBuildPlan_duplicate_live_names(t *testing.T) {
	live := []status.StreamRecord{
		{Name: "a", URL: "rtmp://one/a"},
		{Name: "a", URL: "srt://two/a"},
	}
	plan := BuildPlan(nil, live, "stream_")
	if len(plan.Create) != 1 || plan.Create[0].URL != "rtmp://one/a" {
		t.Errorf("expected a single create keeping the first record, got %v", plan.Create)
	}
}

func TestBuildPlan_scene_equal_to_prefix_is_removed(t *testing.T) {
	plan := BuildPlan([]string{"stream_"}, rtmp("a"), "stream_")
	if !equalStrings(plan.Remove, []string{"stream_"}) {
		t.Errorf("Remove = %v", plan.Remove)
	}
}
