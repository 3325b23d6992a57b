// Package transport implements single-instance coordination between pino
// processes. The first process of a session binds the session endpoint and
// becomes the visible popup; later processes reach it and forward their
// update instead of drawing.
//
// Two transports exist: a unix socket (the default) and a polled shared file
// guarded by a lock file. Both deliver decoded updates to a Sink.
package transport
