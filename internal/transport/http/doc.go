// Package http contains the chi HTTP handlers for the market insight API:
// report building and CSV export, health checks and the Prometheus metrics
// endpoint.
package http
