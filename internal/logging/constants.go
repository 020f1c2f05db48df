package logging

// Standardized field names for structured logging.
const (
	FieldRunID       = "run_id"
	FieldOwnerID     = "owner_id"
	FieldAccountID   = "account_id"
	FieldProvider    = "provider"
	FieldFile        = "file_path"
	FieldCount       = "count"
	FieldRow         = "row"
	FieldDestination = "destination"
	FieldCursor      = "cursor"
	FieldMode        = "mode"
	FieldStore       = "store"
	FieldSource      = "source"
	FieldDuration    = "duration_ms"
	FieldOutputFile  = "output_file"
)
