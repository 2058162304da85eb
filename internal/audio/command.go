package audio

import (
	"log/slog"
	"os/exec"
	"path/filepath"
)

// CommandPlayer plays cues by starting an external program (aplay, afplay,
// paplay, ...) with the cue's file path as its last argument.
//
// Each Play starts the process and returns at once; the process is reaped
// in a goroutine. A missing binary or file is logged and otherwise ignored.
type CommandPlayer struct {
	Command string   // program to run
	Args    []string // arguments placed before the file path
	Dir     string   // directory holding one file per SoundID
	Ext     string   // file extension including the dot, e.g. ".wav"
}

// Path returns the file a cue maps to.
func (p CommandPlayer) Path(id SoundID) string {
	return filepath.Join(p.Dir, string(id)+p.Ext)
}

// Play starts the player process for id.
func (p CommandPlayer) Play(id SoundID) {
	if p.Command == "" {
		return
	}
	args := append(append([]string(nil), p.Args...), p.Path(id))
	cmd := exec.Command(p.Command, args...)
	if err := cmd.Start(); err != nil {
		slog.Warn("sound playback failed to start",
			"sound", string(id),
			"command", p.Command,
			"error", err,
		)
		return
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			slog.Debug("sound playback exited with error",
				"sound", string(id),
				"error", err,
			)
		}
	}()
}
