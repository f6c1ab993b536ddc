package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"sheets-catalog-connector/internal/models"
	"sheets-catalog-connector/internal/sheet"
)

// ResultWriter buffers per-row import outcomes and flushes them to the
// status/message columns in fixed-size blocks, so one big sheet never needs
// one big write. A failed flush is logged as unresolved and the pass keeps
// going; later blocks still land in their own ranges.
type ResultWriter struct {
	store     sheet.Store
	tenant    models.Tenant
	fileID    string
	statusCol string
	msgCol    string
	blockSize int
	logger    *logrus.Logger

	buffer [][]interface{}
	filled int
	offset int
}

// NewResultWriter creates a writer flushing blockSize outcomes at a time to
// the given status and message column letters.
func NewResultWriter(store sheet.Store, tenant models.Tenant, fileID, statusCol, msgCol string, blockSize int, logger *logrus.Logger) *ResultWriter {
	return &ResultWriter{
		store:     store,
		tenant:    tenant,
		fileID:    fileID,
		statusCol: statusCol,
		msgCol:    msgCol,
		blockSize: blockSize,
		logger:    logger,
		buffer:    make([][]interface{}, blockSize),
	}
}

// Append queues one row's outcome. Rows that were skipped queue two empty
// cells via AppendSkip instead. A full buffer flushes immediately.
func (w *ResultWriter) Append(ctx context.Context, status, message string) {
	w.append(ctx, []interface{}{status, message})
}

// AppendSkip queues the two-empty-cell marker for an untouched row.
func (w *ResultWriter) AppendSkip(ctx context.Context) {
	w.append(ctx, []interface{}{nil, nil})
}

func (w *ResultWriter) append(ctx context.Context, cells []interface{}) {
	w.buffer[w.filled] = cells
	w.filled++
	if w.filled == w.blockSize {
		w.flush(ctx)
	}
}

// Flush writes any buffered outcomes. Call once after the last row.
func (w *ResultWriter) Flush(ctx context.Context) {
	if w.filled == 0 {
		return
	}
	w.flush(ctx)
}

// flush writes the whole block range; unfilled trailing rows are nil and
// leave their cells untouched. The block advances whether or not the write
// landed, so one bad range cannot wedge the rest of the sheet.
func (w *ResultWriter) flush(ctx context.Context) {
	a1Range := fmt.Sprintf("%s%d:%s%d", w.statusCol, w.offset+2, w.msgCol, w.offset+w.blockSize+1)
	if err := w.store.WriteRange(ctx, w.tenant, w.fileID, a1Range, w.buffer); err != nil {
		w.logger.WithError(err).WithFields(logrus.Fields{
			"tenant_id": w.tenant.ID,
			"file_id":   w.fileID,
			"range":     a1Range,
		}).Error("Failed to write results, continuing")
	}
	w.offset += w.blockSize
	w.buffer = make([][]interface{}, w.blockSize)
	w.filled = 0
}
