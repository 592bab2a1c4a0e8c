// Package middleware contains HTTP middleware for the Fiber application.
//
//   - auth: API key validation through the X-API-Key header.
//   - rayid: a request id for every request, stored in the context and echoed
//     in the X-Ray-ID response header so logs can be correlated.
package middleware
