// Package memory is an in-process RowAppender used in tests and local runs
// without Google credentials.
package memory

import (
	"context"
	"fmt"
	"sync"

	"outgo/internal/core"
	ports "outgo/internal/sheets"
)

type Appender struct {
	mu   sync.Mutex
	rows []core.Expense
}

var _ ports.RowAppender = (*Appender)(nil)

func New() *Appender {
	return &Appender{}
}

func (a *Appender) Append(_ context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rows = append(a.rows, e)
	return fmt.Sprintf("row-%d", len(a.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (a *Appender) Rows() []core.Expense {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]core.Expense, len(a.rows))
	copy(out, a.rows)
	return out
}
