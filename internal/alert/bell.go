package alert

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Bell rings the terminal bell. It is useful over SSH or when no
// notification daemon is running.
type Bell struct {
	mu sync.Mutex
	w  io.Writer
}

// NewBell writes the bell character to w.
func NewBell(w io.Writer) *Bell {
	return &Bell{w: w}
}

func (b *Bell) Notify(context.Context, string, string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := io.WriteString(b.w, "\a"); err != nil {
		return fmt.Errorf("ringing bell: %w", err)
	}
	return nil
}
