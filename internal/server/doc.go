// Package server hosts the Fiber HTTP front: request-context middleware, access
// logging gated by the log mask, the error boundary that turns handler errors and
// panics into responses, the shared upstream http.Client, Prometheus counters and
// the optional /-/ diagnostics routes. Request resolution itself lives in the
// resolver package and is injected through AppOptions.Handler, so keep exports
// narrow and accept explicit dependencies.
package server
