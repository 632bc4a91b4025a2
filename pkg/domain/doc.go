/*
Package domain contains the core models of the UniMarket session store.

It defines the authenticated identity held by one execution context, the
storage key surface shared by every persistence tier, and the broadcast
signals exchanged between sibling contexts. This package is kept pure and
free of I/O, following Hexagonal Architecture principles.

# Key Entities

  - Session: The authenticated identity and profile fields of the user.
  - Patch: A partial update to a Session (only present fields apply).
  - LegacyFields: The individual per-field keys kept for backward-compatible recovery.
  - Signal: A cross-context pulse (logout or UI reset).
*/
package domain
