// Package routes wires the HTTP surface of the search service.
//
// api.go holds the /v1 routes, health and metrics endpoints; web.go holds
// the landing and docs pages.
package routes
