package logger

// ErrorEntry exports errorEntry for testing.
type ErrorEntry = errorEntry

// Exported error formatting functions for testing.
var (
	CollectErrorEntriesExported = collectErrorEntries
	FormatErrorEntriesExported  = formatErrorEntries
)
