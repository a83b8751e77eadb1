package cli

import (
	"fmt"
	"io"

	"github.com/alnah/go-vidblog/internal/blog"
)

// progressPrinter returns an emit callback that writes one line per
// pipeline event to w. Terminal events are reported by the caller.
func progressPrinter(w io.Writer) func(blog.Event) {
	return func(ev blog.Event) {
		switch ev.Step {
		case blog.StepComplete, blog.StepError:
			return
		}
		if ev.Details != "" {
			_, _ = fmt.Fprintf(w, "  [%3d%%] %s: %s\n", ev.Progress, ev.Step, ev.Details)
			return
		}
		_, _ = fmt.Fprintf(w, "  [%3d%%] %s\n", ev.Progress, ev.Step)
	}
}
