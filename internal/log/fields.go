package log

// Standard field names used across components so logs stay queryable.
const (
	FieldComponent = "component"
	FieldOperation = "operation"
	FieldRequestID = "request_id"
	FieldError     = "error"
	FieldDuration  = "duration_ms"

	FieldExpenseID = "expense_id"
	FieldCurrency  = "currency"
	FieldWindow    = "window"
	FieldFormat    = "format"
	FieldCount     = "count"
	FieldSkipped   = "skipped"
	FieldEvent     = "event"
	FieldSheetID   = "sheet_id"
)

// Component names.
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentStorage  = "storage"
	ComponentCurrency = "currency"
	ComponentCodec    = "codec"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentSheets   = "sheets"
)

// Operation names.
const (
	OpCreateExpense  = "create_expense"
	OpUpdateExpense  = "update_expense"
	OpDeleteExpense  = "delete_expense"
	OpImportExpenses = "import_expenses"
	OpExportExpenses = "export_expenses"
	OpSummary        = "summary"
	OpRefreshRates   = "refresh_rates"
	OpSetCurrency    = "set_currency"
	OpAppendSheetRow = "append_sheet_row"
	OpConsumeEvent   = "consume_event"
	OpPublishEvent   = "publish_event"
)
