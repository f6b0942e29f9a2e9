package log

// Common field names for structured logging
const (
	FieldComponent      = "component"
	FieldRequestID      = "request_id"
	FieldClientIP       = "client_ip"
	FieldMethod         = "method"
	FieldPath           = "path"
	FieldQuery          = "query"
	FieldStatusCode     = "status_code"
	FieldDuration       = "duration_ms"
	FieldUserAgent      = "user_agent"
	FieldSuccess        = "success"
	FieldError          = "error"
	FieldOperation      = "operation"
	FieldKey            = "key"
	FieldVersion        = "version"
	FieldBatchID        = "batch_id"
	FieldImportSource   = "import_source"
	FieldCategory       = "category"
	FieldSubcategory    = "subcategory"
	FieldPeriod         = "period"
	FieldGranularity    = "granularity"
	FieldGeneratorName  = "generator"
	FieldTransactionIDs = "transaction_ids"
	FieldCount          = "count"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentImport    = "import"
	ComponentLedger    = "ledger"
	ComponentRules     = "rules"
	ComponentReport    = "report"
	ComponentGenerator = "generator"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentBackend   = "backend"
	ComponentCache     = "cache"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentTrace     = "trace"
)

// Operations defines standard operation names
const (
	OpImport   = "import"
	OpPreview  = "preview"
	OpList     = "list"
	OpDelete   = "delete"
	OpReassign = "reassign"
	OpNegate   = "negate"
	OpReport   = "report"
	OpSync     = "sync"
	OpRun      = "run"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)
