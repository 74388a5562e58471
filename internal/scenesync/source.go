package scenesync

import (
	"obs-stream-sync/internal/platform/config"
	"obs-stream-sync/internal/status"
)

// OBS input kinds.
const (
	KindFFmpeg = "ffmpeg_source"
	KindVLC    = "vlc_source"
)

// SourceSpec decides which OBS input is attached to a new scene.
type SourceSpec struct {
	Kind     string // config.SourceKindFFmpeg or config.SourceKindVLC
	BufferMB int    // ffmpeg network buffering
}

// InputFor builds the input that plays stream.
func (s SourceSpec) InputFor(stream status.StreamRecord) Input {
	if s.Kind == config.SourceKindVLC {
		return Input{
			Name: "VLC_" + stream.Name,
			Kind: KindVLC,
			Settings: map[string]any{
				"playlist": []map[string]any{
					{"value": stream.URL, "hidden": false},
				},
				"loop":              true,
				"playback_behavior": "always_play",
			},
		}
	}

	return Input{
		Name: "FFmpeg_" + stream.Name,
		Kind: KindFFmpeg,
		Settings: map[string]any{
			"input":               stream.URL,
			"is_local_file":       false,
			"restart_on_activate": false,
			"buffering_mb":        s.BufferMB,
		},
	}
}
