// Package requestctx carries request-scoped identity through context.
package requestctx

import "context"

// playerContextKey is the context key for the authenticated player.
type playerContextKey struct{}

// Player identifies the authenticated seller bound to a request. GameID
// is the game the grant was issued for, when it names one.
type Player struct {
	Name   string
	GameID string
}

// WithPlayer stores the authenticated player in context.
func WithPlayer(ctx context.Context, player Player) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, playerContextKey{}, player)
}

// PlayerFromContext returns the player stored in context. The second
// return is false when no player with a name is present.
func PlayerFromContext(ctx context.Context) (Player, bool) {
	if ctx == nil {
		return Player{}, false
	}
	player, ok := ctx.Value(playerContextKey{}).(Player)
	if !ok || player.Name == "" {
		return Player{}, false
	}
	return player, true
}
