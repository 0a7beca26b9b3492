/*
Package metrics emits guest instrumentation through the Tarmac host metrics
capability.

Counter, Gauge and Histogram handles are created from a Client and send
protobuf payloads over waPC host calls. Emission is best effort: Inc, Dec and
Observe never return errors, and marshal or host call failures are dropped.

A Client built with Config.Disabled hands out handles that do nothing, so
instrumented code never needs to check whether metrics are on.
*/
package metrics
