/*
Package ports defines the driven ports (interfaces) of the session store.

These interfaces decouple the store from concrete storage and transport
implementations, allowing the same store to run over process memory, a
shared directory, or Redis.

# Key Interfaces

  - Tier: A key/value persistence area (tab-scoped or cross-tab).
  - Broadcaster: Publish/subscribe of cross-context signals.
*/
package ports
