// Package artifact files approved stage outputs to durable storage so
// each pipeline run leaves a browsable document trail.
package artifact

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Filer stores one approved artifact and returns where it went.
type Filer interface {
	File(ctx context.Context, project string, seq int, artifactType, content string) (string, error)
}

// Nop discards artifacts.
type Nop struct{}

func (Nop) File(context.Context, string, int, string, string) (string, error) {
	return "", nil
}

// DirFiler writes artifacts under <base>/<project>/<NN-artifact-type>.md.
// The project directory is derived from the project name; the sequence
// number keeps files in pipeline order.
type DirFiler struct {
	baseDir string
}

// NewDirFiler creates the base directory if missing.
func NewDirFiler(baseDir string) (*DirFiler, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}
	return &DirFiler{baseDir: baseDir}, nil
}

// File writes the artifact and returns its path.
func (f *DirFiler) File(ctx context.Context, project string, seq int, artifactType, content string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir := filepath.Join(f.baseDir, SanitizeName(project))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create project directory: %w", err)
	}

	name := fmt.Sprintf("%02d-%s.md", seq, slug(artifactType))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}

	log.Printf("filed %s artifact at %s", artifactType, path)
	return path, nil
}

var (
	specialChars = regexp.MustCompile(`[^\w\s-]`)
	separators   = regexp.MustCompile(`[\s_-]+`)
)

// SanitizeName turns a free-form project name into a directory name.
// Multi-line names use the first line, with any markdown heading marker
// stripped.
func SanitizeName(name string) string {
	if i := strings.IndexByte(name, '\n'); i >= 0 {
		name = name[:i]
	}
	name = strings.TrimLeft(name, "# ")

	name = specialChars.ReplaceAllString(name, "")
	name = separators.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")
	if name == "" {
		name = "project"
	}
	return strings.ToLower(name)
}

func slug(s string) string {
	s = specialChars.ReplaceAllString(s, "")
	s = separators.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		s = "artifact"
	}
	return strings.ToLower(s)
}
