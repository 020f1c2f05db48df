package models

// Transaction sources
const (
	SourceImport = "IMPORT"
	SourceManual = "MANUAL"
)

// File permissions
const (
	PermissionConfigFile = 0600
	PermissionDirectory  = 0750
	PermissionExportFile = 0644
)

// DateLayout is the date-only layout used in exports and persisted cursors.
const DateLayout = "2006-01-02"
