// Package server is the HTTP front of `pipegraph serve`: a Gin engine behind
// an h2c handler so browsers can hold many SSE streams over one HTTP/2
// connection, plus the middleware and response helpers its routes share.
package server
