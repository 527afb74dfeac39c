package tracing

import (
	"context"
	"reflect"
	"runtime"
	"strings"
)

type WrapOption func(*wrapConfig)

type wrapConfig struct {
	name string
}

func WithName(name string) WrapOption {
	return func(c *wrapConfig) {
		c.name = name
	}
}

// Wrap returns fn traced under its qualified name, e.g. "store.Client.Get".
func Wrap[T any](s *Session, fn func(ctx context.Context) (T, error), opts ...WrapOption) func(ctx context.Context) (T, error) {
	name := wrapName(fn, opts)
	return func(ctx context.Context) (T, error) {
		return Trace(ctx, s, name, fn)
	}
}

func Wrap1[A, T any](s *Session, fn func(ctx context.Context, a A) (T, error), opts ...WrapOption) func(ctx context.Context, a A) (T, error) {
	name := wrapName(fn, opts)
	return func(ctx context.Context, a A) (T, error) {
		return Trace(ctx, s, name, func(ctx context.Context) (T, error) {
			return fn(ctx, a)
		})
	}
}

func Wrap2[A, B, T any](s *Session, fn func(ctx context.Context, a A, b B) (T, error), opts ...WrapOption) func(ctx context.Context, a A, b B) (T, error) {
	name := wrapName(fn, opts)
	return func(ctx context.Context, a A, b B) (T, error) {
		return Trace(ctx, s, name, func(ctx context.Context) (T, error) {
			return fn(ctx, a, b)
		})
	}
}

func WrapErr(s *Session, fn func(ctx context.Context) error, opts ...WrapOption) func(ctx context.Context) error {
	name := wrapName(fn, opts)
	return func(ctx context.Context) error {
		return s.Run(ctx, name, fn)
	}
}

func wrapName(fn any, opts []WrapOption) string {
	cfg := wrapConfig{}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.name != "" {
		return cfg.name
	}
	return FuncName(fn)
}

// FuncName returns the package-qualified name of fn with the import path and
// method value decorations removed.
func FuncName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return anonymousName
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return anonymousName
	}
	return simplifyFuncName(f.Name())
}

func simplifyFuncName(full string) string {
	name := full
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, "-fm")
	name = strings.ReplaceAll(name, "(*", "")
	name = strings.ReplaceAll(name, ")", "")
	if name == "" {
		return anonymousName
	}
	return name
}
