// Package services contains the application service layer between HTTP
// transport and the market engine. InsightService owns the transaction
// snapshot and report building; HealthService reports component health.
package services
