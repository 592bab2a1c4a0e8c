// Package server holds the HTTP server configuration.
//
// The start command builds the fiber application; this package only defines the
// listen port, the optional API key and the graceful shutdown bound.
package server
