// Package mmdc writes diagrams to disk. Image and PDF output goes through
// the Mermaid CLI (@mermaid-js/mermaid-cli).
package mmdc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/l3aro/go-sclass/internal/config"
)

// ErrNotInstalled is returned when the renderer command cannot be found.
var ErrNotInstalled = errors.New("mermaid cli not available")

// Renderer invokes mmdc with the diagram on stdin.
type Renderer struct {
	// Command and Args start the CLI; the input, output and theme flags
	// are appended.
	Command string
	Args    []string
	Timeout time.Duration
}

// New returns a Renderer running "npx mmdc".
func New(timeout time.Duration) *Renderer {
	return &Renderer{Command: "npx", Args: []string{"mmdc"}, Timeout: timeout}
}

// Available returns the resolved path of the renderer command.
func (r *Renderer) Available() (string, error) {
	path, err := exec.LookPath(r.Command)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrNotInstalled, r.Command, err)
	}
	return path, nil
}

// Render rasterizes diagram into outPath. The format follows the output
// extension, as mmdc decides it.
func (r *Renderer) Render(ctx context.Context, diagram, outPath string, theme config.Theme) error {
	if _, err := r.Available(); err != nil {
		return err
	}
	if err := ensureDir(outPath); err != nil {
		return err
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	args := append(append([]string(nil), r.Args...),
		"--input", "-",
		"--output", outPath,
		"--theme", string(theme),
	)
	cmd := exec.CommandContext(ctx, r.Command, args...)
	cmd.Stdin = strings.NewReader(diagram)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("mmdc timed out after %s: %w", r.Timeout, ctx.Err())
		}
		return fmt.Errorf("mmdc failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// OutputPath resolves where a diagram for input is written. An empty result
// means stdout. Without an explicit output, mmd goes to stdout and other
// formats to <input name>.<format> in the working directory. A missing
// extension is appended.
func OutputPath(input, output string, format config.Format) string {
	if output == "" {
		if format == config.FormatMermaid {
			return ""
		}
		name := filepath.Base(input)
		if i := strings.Index(name, "."); i > 0 {
			name = name[:i]
		}
		return name + "." + string(format)
	}
	if filepath.Ext(output) == "" {
		return output + "." + string(format)
	}
	return output
}

// Markdown wraps a diagram in a fenced mermaid block.
func Markdown(diagram string) string {
	if !strings.HasSuffix(diagram, "\n") {
		diagram += "\n"
	}
	return "```mermaid\n" + diagram + "```\n"
}

// WriteFile writes Mermaid text to path, creating parent directories.
func WriteFile(path, diagram string) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(diagram), 0644); err != nil {
		return fmt.Errorf("failed to write diagram %s: %w", path, err)
	}
	return nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}
