/*
Package authctx is the client-side session store of UniMarket.

It holds the authenticated identity (Session) and bearer credential (Token)
of one execution context, mirrors every change into two persistence tiers,
and keeps sibling contexts consistent on logout.

# Concept

Each context (a browser tab, a CLI process, a worker) owns one Store built
over two Tiers:

  - Tab-scoped tier: private to the context, read first on restore.
  - Cross-tab tier: shared by every context of the origin; seeds new contexts.

Every successful Session or Token write lands in both tiers before the call
returns. A read that misses the tab tier falls back to the cross-tab tier and
back-fills the tab tier (read-repair).

Logout is broadcast through a ports.Broadcaster. Receiving contexts clear
themselves locally and never re-broadcast, so signals cannot loop.

# Usage

	shared := redis.New("localhost:6379", "", 0)
	store := authctx.New(memory.NewTier(), shared,
		authctx.WithBroadcaster(redis.NewBroadcaster(shared.Client())),
	)
	store.Initialize(ctx)
	go store.Listen(ctx)

	store.SetUser(ctx, &domain.Session{ID: "42", Email: "a@b.com", Token: "tok-1"})
	req.Header.Set("Authorization", store.AuthorizationHeader())

Storage failures (quota, disabled storage, corrupt data) are never returned
to callers: the store logs them and behaves as if the data were absent.
*/
package authctx
