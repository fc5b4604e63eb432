// Package driving defines the driving ports (use-case interfaces) through
// which the outer layers (CLI, watcher) invoke the application core.
//
// Adapters in internal/adapters/driving depend on these interfaces, never on
// the concrete services in internal/core/services.
package driving
