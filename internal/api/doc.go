// Package api hosts the optional status server. Routes:
//   - GET /healthz and /readyz for probes.
//   - GET /metrics for Prometheus scraping.
//   - GET /v1/run for the current or last run summary.
//   - POST /v1/run to start a run when a trigger is configured.
package api
