// Package http implements the HTTP control plane of the sync engine.
//
// It exposes route wiring, request handlers, and middleware used by the
// control API. Cross-cutting concerns such as request tracing, access
// logging, and panic recovery are handled in this package before requests
// are delegated to the engine facade.
package http
