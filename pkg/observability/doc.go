/*
Package observability provides Prometheus instrumentation for the session store.

All recorder methods are safe to call on a nil *Metrics, so instrumentation
stays optional for library users.
*/
package observability
