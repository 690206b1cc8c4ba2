package session

import "context"

type infoCtxKey struct{}

func WithInfo(ctx context.Context, info *Info) context.Context {
	return context.WithValue(ctx, infoCtxKey{}, info)
}

func InfoFromContext(ctx context.Context) (*Info, bool) {
	info, ok := ctx.Value(infoCtxKey{}).(*Info)
	return info, ok && info != nil
}
