package logging

// Standardized field names for structured logging.
const (
	FieldUserID      = "user_id"
	FieldImportID    = "import_id"
	FieldFile        = "file_name"
	FieldProfile     = "profile"
	FieldParser      = "parser"
	FieldStatus      = "status"
	FieldRule        = "rule"
	FieldCategory    = "category"
	FieldFingerprint = "fingerprint"
	FieldCount       = "count"
	FieldSkipped     = "skipped"
	FieldRow         = "row"
	FieldJobID       = "job_id"
	FieldJobType     = "job_type"
	FieldOperation   = "operation"
	FieldReason      = "reason"
	FieldDuration    = "duration_ms"
	FieldPath        = "storage_path"
	FieldTransaction = "transaction_id"
	FieldKeptID      = "kept_id"
)
