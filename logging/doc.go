/*
Package logging sends log entries from the guest to the Tarmac host runtime.

Entries are plain text: the message followed by any key/value fields rendered
as key=value pairs. Emission is best effort. Host call failures are dropped so
logging never changes the control flow of a map operation.

A Logger only forwards entries at or above its configured Level, which keeps
per-operation Trace output off the host unless it is asked for.
*/
package logging
