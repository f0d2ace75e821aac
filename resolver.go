package ioc

import (
	"context"

	"go.uber.org/zap"
)

// argQueue is the caller's argument list being consumed during one
// resolution. Each entry is used at most once.
type argQueue struct {
	items Arguments
}

func newArgQueue(args Arguments) *argQueue {
	return &argQueue{items: append(Arguments(nil), args...)}
}

// take consumes the first argument with the given name.
func (q *argQueue) take(name string) (any, bool) {
	if name == "" {
		return nil, false
	}
	for i, a := range q.items {
		if a.Name == name {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return a.Value, true
		}
	}
	return nil, false
}

// takeType consumes the first argument whose dynamic type has the given id.
func (q *argQueue) takeType(id string) (any, bool) {
	for i, a := range q.items {
		if a.Value != nil && TypeIDOf(a.Value) == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return a.Value, true
		}
	}
	return nil, false
}

// drain consumes every remaining argument, in order, regardless of name.
func (q *argQueue) drain() []any {
	values := make([]any, len(q.items))
	for i, a := range q.items {
		values[i] = a.Value
	}
	q.items = nil
	return values
}

// resolveArguments produces one value per parameter, in declaration order,
// except that a variadic parameter without a named value expands to every
// argument still unused.
//
// A parameter is satisfied by the first of:
//   - a supplied argument with the parameter's name, coerced when the
//     parameter is builtin. A list given for a variadic parameter is spread
//     as is;
//   - for parameters that cannot be auto-wired (untyped, builtin, union or
//     callable): the remaining arguments when variadic, the default when
//     optional, otherwise ErrMissingArgument;
//   - a supplied argument whose dynamic type is the parameter's type;
//   - Make of the parameter's type. A failure falls back to the default when
//     the parameter is optional and is returned unchanged otherwise.
func (c *Container) resolveArguments(ctx context.Context, owner string, params []Parameter, supplied Arguments) ([]any, error) {
	queue := newArgQueue(supplied)
	values := make([]any, 0, len(params))

	for _, p := range params {
		if v, ok := queue.take(p.Name); ok {
			if p.Builtin && !(p.Variadic && isList(v)) {
				v = coerce(v, p.Type)
			}
			values = append(values, v)
			continue
		}

		if !p.autowirable() {
			switch {
			case p.Variadic:
				return append(values, queue.drain()...), nil
			case p.Optional:
				values = append(values, p.Default)
				continue
			default:
				return nil, &ContainerError{Kind: ErrMissingArgument, ID: owner, Param: p.Name}
			}
		}

		if v, ok := queue.takeType(p.Type); ok {
			values = append(values, v)
			continue
		}

		v, err := c.MakeContext(ctx, p.Type)
		if err != nil {
			if !p.Optional {
				return nil, err
			}
			c.logger.Debug("using default for optional parameter",
				zap.String("param", p.Name), zap.String("type", p.Type), zap.Error(err))
			v = p.Default
		}
		values = append(values, v)
	}
	return values, nil
}
