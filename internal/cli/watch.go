package cli

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/unimarket/authctx"
)

// RunWatch initializes the store, then prints every in-context event raised
// by signals from sibling contexts until ctx is done.
func RunWatch(ctx context.Context, store *authctx.Store, w io.Writer) error {
	store.Initialize(ctx)
	printSystemMessage(w, "Watching signals as tab %s.", store.TabID())

	events := make(chan authctx.Event, 8)
	for _, ev := range []authctx.Event{authctx.EventRemoteLogout, authctx.EventClearSearchHistory} {
		ev := ev
		unsubscribe := store.On(ev, func() {
			select {
			case events <- ev:
			default:
			}
		})
		defer unsubscribe()
	}

	errCh := make(chan error, 1)
	go func() { errCh <- store.Listen(ctx) }()

	for {
		select {
		case ev := <-events:
			printSystemMessage(w, "%s %s", time.Now().Format(time.RFC3339), ev)
		case err := <-errCh:
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		}
	}
}
