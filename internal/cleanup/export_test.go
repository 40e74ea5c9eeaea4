package cleanup

// ChatCompleter exposes the client interface for mocks.
type ChatCompleter = chatCompleter

// WithClient exposes withClient.
var WithClient = withClient
