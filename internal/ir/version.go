package ir

// Version constants for the converter.
const (
	// FormatVersion identifies the output grammar. Bump only if the rendered
	// bytes for identical input change.
	FormatVersion = "1"

	// ConverterVersion is the converter release recorded in run history.
	ConverterVersion = "0.1.0"
)
