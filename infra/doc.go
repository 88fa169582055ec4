// Package infra contains technical adapters: MQTT transport, metrics
// exporters, event log stores and the channel simulator. They implement
// the interfaces defined in the core packages.
package infra
