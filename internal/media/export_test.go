package media

// Export internal functions for testing.

// ParseSilences exports parseSilences for testing.
var ParseSilences = parseSilences

// ParseDuration exports parseDuration for testing.
var ParseDuration = parseDuration

// FormatSeconds exports formatSeconds for testing.
var FormatSeconds = formatSeconds

// Runner exports the runner interface for testing.
type Runner = runner
