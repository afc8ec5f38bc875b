// Package obslog is paperlake's common spot for context-scoped
// structured logging, following the pattern used across
// github.com/quay/claircore's toolkit/log and toolkit/events packages:
// a [slog.Handler] (or a set of attributes) is attached to a
// [context.Context] and retrieved at the point a log record is
// emitted, so code several calls deep logs with the same attributes a
// caller attached to the context higher up.
package obslog

import (
	"context"
	"log/slog"
	"slices"
	"sync"
)

type ctxkey int

const (
	_ ctxkey = iota
	handlerKey
	attrsKey
)

var discard = sync.OnceValue(func() *slog.Logger {
	return slog.New(slog.DiscardHandler)
})

// WithHandler attaches a [slog.Handler] to ctx for use by [FromContext].
func WithHandler(ctx context.Context, h slog.Handler) context.Context {
	return context.WithValue(ctx, handlerKey, h)
}

// FromContext returns a [slog.Logger] built from the handler attached
// by [WithHandler] (or a discarding logger if none was attached) with
// any attributes attached by [With] already bound.
func FromContext(ctx context.Context) *slog.Logger {
	h, _ := ctx.Value(handlerKey).(slog.Handler)
	var l *slog.Logger
	if h == nil {
		l = discard()
	} else {
		l = slog.New(h)
	}
	if v, ok := ctx.Value(attrsKey).(slog.Value); ok {
		l = slog.New(l.Handler().WithAttrs(v.Group()))
	}
	return l
}

// With returns a context carrying args (in the same key-value or
// [slog.Attr] form [slog.Logger.With] accepts) for every subsequent
// [FromContext] call, accumulating over nested calls and de-duplicating
// by key so the innermost value for a repeated key wins.
func With(ctx context.Context, args ...any) context.Context {
	attrs := argsToAttrs(args)
	if v, ok := ctx.Value(attrsKey).(slog.Value); ok {
		attrs = append(v.Group(), attrs...)
	}
	seen := make(map[string]struct{}, len(attrs))
	del := func(a slog.Attr) bool {
		_, dup := seen[a.Key]
		seen[a.Key] = struct{}{}
		return dup
	}
	slices.Reverse(attrs)
	attrs = slices.DeleteFunc(attrs, del)
	slices.Reverse(attrs)
	return context.WithValue(ctx, attrsKey, slog.GroupValue(attrs...))
}

func argsToAttrs(args []any) []slog.Attr {
	var attrs []slog.Attr
	for len(args) > 0 {
		var a slog.Attr
		a, args = argsToAttr(args)
		attrs = append(attrs, a)
	}
	return attrs
}

func argsToAttr(args []any) (slog.Attr, []any) {
	const badKey = "!BADKEY"
	switch x := args[0].(type) {
	case string:
		if len(args) == 1 {
			return slog.String(badKey, x), nil
		}
		return slog.Any(x, args[1]), args[2:]
	case slog.Attr:
		return x, args[1:]
	default:
		return slog.Any(badKey, x), args[1:]
	}
}
