// Package memory records appended rows for tests and AMQP-less local runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"fondi/internal/export"
)

type Appender struct {
	mu   sync.Mutex
	rows []export.OperationRow
}

var _ export.RowAppender = (*Appender)(nil)

func New() *Appender {
	return &Appender{}
}

func (a *Appender) AppendRow(_ context.Context, row export.OperationRow) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rows = append(a.rows, row)
	return fmt.Sprintf("mem:%d", len(a.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (a *Appender) Rows() []export.OperationRow {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]export.OperationRow(nil), a.rows...)
}
