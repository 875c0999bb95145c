// Package worker contains the background consumers that mirror expense rows
// to the external spreadsheet.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"bilancio/internal/amqp"
	"bilancio/internal/export"
	"bilancio/internal/records"
)

// ExportWorker consumes expense sync messages and mirrors the referenced
// rows to the configured sheet.
type ExportWorker struct {
	store    records.Store
	appender export.Appender
}

func NewExportWorker(store records.Store, appender export.Appender) *ExportWorker {
	return &ExportWorker{
		store:    store,
		appender: appender,
	}
}

// HandleSyncMessage processes one message. The message carries only the
// expense ID; the row itself is loaded from storage so the export always
// reflects the stored state.
func (w *ExportWorker) HandleSyncMessage(ctx context.Context, msg *amqp.ExpenseSyncMessage) error {
	slog.InfoContext(ctx, "Processing export message",
		"expense_id", msg.ExpenseID,
		"enqueued_at", msg.Timestamp)

	expense, err := w.store.GetExpense(ctx, msg.ExpenseID)
	if err != nil {
		return fmt.Errorf("get expense: %w", err)
	}

	row := export.Row{
		Date:  expense.CreatedAt,
		Cents: expense.Amount.Cents,
		Note:  expense.Note,
	}

	// Names are denormalized into the sheet; a missing user or category is
	// tolerated with an empty cell rather than a stalled queue.
	if user, err := w.store.GetUser(ctx, expense.UserID); err == nil {
		row.User = user.Name
	} else {
		slog.WarnContext(ctx, "User lookup failed for export", "expense_id", msg.ExpenseID, "error", err)
	}
	if category, err := w.store.GetCategory(ctx, expense.CategoryID); err == nil {
		row.Category = category.Name
	} else {
		slog.WarnContext(ctx, "Category lookup failed for export", "expense_id", msg.ExpenseID, "error", err)
	}

	ref, err := w.appender.AppendExpense(ctx, row)
	if err != nil {
		return fmt.Errorf("append to sheet: %w", err)
	}

	slog.InfoContext(ctx, "Expense exported",
		"expense_id", msg.ExpenseID,
		"sheet_ref", ref,
		"amount_cents", expense.Amount.Cents)

	return nil
}
