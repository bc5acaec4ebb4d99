// Package infra contains technical adapters: the gonum simplex solver,
// Prometheus and InfluxDB metrics sinks, the MQTT plan publisher and the
// zerolog logger. These packages depend only on the interfaces defined in
// the core packages.
package infra
