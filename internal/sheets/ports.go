package sheets

import (
	"context"

	"outgo/internal/core"
)

// RowAppender journals expenses into an external sheet.
type RowAppender interface {
	Append(ctx context.Context, e core.Expense) (rowRef string, err error)
}
