/*
Package hostmock provides a scripted stand-in for the waPC host.

Tests inject Mock.HostCall wherever a component accepts a HostCall override.
The mock records every call so tests can assert the exact routing and payloads
a component produced, and answers each call from a handler registered for its
capability and function.

	m := hostmock.New(hostmock.Config{
	  Namespace: "tarmac",
	  Handlers: map[hostmock.Route]hostmock.Handler{
	    {Capability: "metrics", Function: "counter"}: hostmock.Reply(nil),
	  },
	})

	g, _ := guest.New(guest.Config{HostCall: m.HostCall})
	...
	calls := m.CallsTo("metrics", "counter")

Behavior

  - If Fail is set, every call is recorded and then answers with that error.
  - If Namespace is set, calls from any other namespace fail with
    ErrUnexpectedNamespace.
  - Calls without a registered handler answer nil, nil unless Strict is set,
    in which case they fail with ErrUnexpectedRoute.

Mock is safe for concurrent use.
*/
package hostmock
