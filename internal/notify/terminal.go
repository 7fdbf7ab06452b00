package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Terminal prints notifications to stderr for operators running the
// pipeline interactively.
type Terminal struct {
	mu  sync.Mutex // Serializes whole notifications
	out io.Writer
}

// NewTerminal creates a terminal notifier writing to stderr.
func NewTerminal() *Terminal {
	return &Terminal{out: os.Stderr}
}

// NewTerminalWithWriter creates a terminal notifier with a custom writer.
func NewTerminalWithWriter(out io.Writer) *Terminal {
	return &Terminal{out: out}
}

// Notify renders and writes the notification in one locked write.
func (t *Terminal) Notify(ctx context.Context, n Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n%s[%s] %s\n", glyph(n.Kind), n.Kind, n.Title)
	if n.Stage != "" {
		fmt.Fprintf(&b, "   Stage: %s\n", n.Stage)
	}
	if n.Producer != "" {
		fmt.Fprintf(&b, "   Producer: %s\n", n.Producer)
	}
	if n.Message != "" {
		fmt.Fprintf(&b, "   %s\n", n.Message)
	}
	for k, v := range n.Context {
		fmt.Fprintf(&b, "   %s: %s\n", k, v)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := io.WriteString(t.out, b.String())
	return err
}

func glyph(k Kind) string {
	switch k {
	case KindReviewPending:
		return "👀 "
	case KindAutoApproved:
		return "⚠️  "
	case KindStageFailed:
		return "🚨 "
	case KindPipelineComplete:
		return "🏁 "
	default:
		return "ℹ️  "
	}
}

// Name returns "terminal"
func (t *Terminal) Name() string {
	return "terminal"
}
