// Package remote talks to the tracking endpoint and turns its data into
// subscriber notifications.
//
// The main components are:
//
//   - [Client]: JSON POST client for the endpoint's get-tracking-updates
//     and get-configuration methods
//   - [Engine]: one fetch-diff-notify cycle and the configuration reload
//   - [Scheduler]: the start/stop-able periodic task driving the Engine
//
// Failure handling follows a strict taxonomy. Transport errors and
// endpoint-reported failures are soft: the cycle aborts without touching
// state and the next cycle retries from the same cursor. An unreachable
// message recipient permanently loses their subscription. Anything
// unexpected trips the circuit breaker: the operator is alerted and the
// schedule stops.
package remote
