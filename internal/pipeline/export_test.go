package pipeline

// WithIDGenerator exposes withIDGenerator.
var WithIDGenerator = withIDGenerator
