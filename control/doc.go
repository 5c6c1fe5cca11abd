// Package control
// Author: momentics <momentics@gmail.com>
//
// Observability and runtime control for the TCP server core:
//   - Prometheus counters and gauges (Metrics)
//   - Named debug probes exported as JSON
//   - Reload hooks for settings that may change at runtime
package control
