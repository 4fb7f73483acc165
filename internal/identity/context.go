package identity

import "context"

type ctxKey string

const ContextCallerKey ctxKey = "caller"

func ContextWithCaller(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, ContextCallerKey, caller)
}

func CallerFromContext(ctx context.Context) (Caller, bool) {
	caller, ok := ctx.Value(ContextCallerKey).(Caller)
	return caller, ok
}
