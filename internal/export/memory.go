package export

import (
	"context"
	"fmt"
	"sync"
)

// MemoryAppender collects exported rows in memory. Used in tests and when the
// worker runs without Sheets credentials.
type MemoryAppender struct {
	mu   sync.Mutex
	rows []Row
}

var _ Appender = (*MemoryAppender)(nil)

func NewMemoryAppender() *MemoryAppender {
	return &MemoryAppender{}
}

func (m *MemoryAppender) AppendExpense(_ context.Context, row Row) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, row)
	return fmt.Sprintf("mem:%d", len(m.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (m *MemoryAppender) Rows() []Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Row(nil), m.rows...)
}
