package middleware

import "github.com/unimarket/authctx/pkg/ports"

// Middleware allows wrapping a Tier to add behavior.
type Middleware func(ports.Tier) ports.Tier

// Chain applies middlewares so that the first one is the outermost.
func Chain(tier ports.Tier, mws ...Middleware) ports.Tier {
	for i := len(mws) - 1; i >= 0; i-- {
		tier = mws[i](tier)
	}
	return tier
}
