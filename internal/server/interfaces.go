package server

// Server is the lifecycle contract of the control API listener.
//
// Implementations block in [Server.RunServer] until a shutdown signal
// arrives or serving fails, and drain in-flight connections in
// [Server.Shutdown].
type Server interface {
	// RunServer starts serving requests and blocks until the server stops.
	RunServer()

	// Shutdown gracefully stops the server and frees associated resources.
	Shutdown()
}
