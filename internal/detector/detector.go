// Package detector wraps the external object detector. The contract is
// file-based: given a directory of fixed-size tile images, the detector
// produces one label file per tile with detections. Everything about the
// model itself (weights, runtime, hardware) lives outside this process.
package detector

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// Detector runs object detection over a directory of tile images,
// producing label files in labelsDir.
type Detector interface {
	Detect(ctx context.Context, tilesDir, labelsDir string) error
}

// Exec invokes the detector as a subprocess. Command is an argv template;
// the placeholders {tiles} and {labels} are substituted with the input and
// output directories on each run.
type Exec struct {
	Command []string
	Logger  *slog.Logger
}

// Detect substitutes the directories into the command template and runs
// it, waiting for completion. Cancellation of ctx kills the subprocess.
func (e *Exec) Detect(ctx context.Context, tilesDir, labelsDir string) error {
	argv := buildArgs(e.Command, tilesDir, labelsDir)
	if len(argv) == 0 {
		return fmt.Errorf("detector command is empty")
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stderr = &stderr
	if e.Logger != nil {
		e.Logger.Info("invoking detector", "command", argv[0], "tiles_dir", tilesDir)
	}
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("detector: %w: %s", err, msg)
		}
		return fmt.Errorf("detector: %w", err)
	}
	return nil
}

func buildArgs(template []string, tilesDir, labelsDir string) []string {
	out := make([]string, len(template))
	for i, arg := range template {
		arg = strings.ReplaceAll(arg, "{tiles}", tilesDir)
		arg = strings.ReplaceAll(arg, "{labels}", labelsDir)
		out[i] = arg
	}
	return out
}
