package auth

import "context"

// Actor is the opaque identity issued by the external auth service.
type Actor struct {
	ID          string `json:"id" bson:"id"`
	DisplayName string `json:"display_name" bson:"display_name"`
	Role        string `json:"role" bson:"role"`
}

// System is recorded for changes no staff member triggered.
var System = Actor{ID: "system", DisplayName: "System", Role: "system"}

// Anonymous is used when tokens are not configured.
var Anonymous = Actor{ID: "anonymous", DisplayName: "Anonymous", Role: "staff"}

type actorKey struct{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFrom returns the request actor, or System when none was attached.
func ActorFrom(ctx context.Context) Actor {
	if a, ok := ctx.Value(actorKey{}).(Actor); ok {
		return a
	}
	return System
}
