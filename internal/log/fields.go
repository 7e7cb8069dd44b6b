// Package log provides component-tagged structured logging over slog.
package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldKey        = "key"
	FieldBackend    = "backend"

	FieldTransactionID = "transaction_id"
	FieldCategoryID    = "category_id"
	FieldAmountCents   = "amount_cents"
	FieldType          = "type"
)

// Components defines standard component names
const (
	ComponentApp          = "app"
	ComponentHTTP         = "http"
	ComponentStore        = "store"
	ComponentTransactions = "transactions"
	ComponentCategories   = "categories"
	ComponentKV           = "kv"
	ComponentEvent        = "event"
	ComponentCache        = "cache"
)

// Operations defines standard operation names
const (
	OpLoad     = "load"
	OpSeed     = "seed"
	OpAdd      = "add"
	OpUpdate   = "update"
	OpPersist  = "persist"
	OpPublish  = "publish"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
