package ioc

import (
	"context"
	"fmt"
	"reflect"
)

// Target is something Call can invoke. Build one with Function, Method or
// TypeMethod.
type Target interface {
	prepare(ctx context.Context, c *Container) (*callable, error)
}

// callable is a target that is ready to run once its arguments are resolved.
type callable struct {
	owner  string
	params []Parameter
	invoke func(args []any) ([]any, error)
}

type functionTarget struct {
	fn   any
	opts []RegisterOption
}

// Function targets a plain function or closure. Since Go does not record
// parameter names, pass WithParams for any parameter that should be matched
// by name; WithDefault makes a parameter optional.
func Function(fn any, opts ...RegisterOption) Target {
	return &functionTarget{fn: fn, opts: opts}
}

func (t *functionTarget) prepare(_ context.Context, _ *Container) (*callable, error) {
	fnType := reflect.TypeOf(t.fn)
	if fnType == nil || fnType.Kind() != reflect.Func {
		return nil, &ContainerError{Kind: ErrInvalidTarget, ID: fmt.Sprintf("%T", t.fn), Message: "not a function"}
	}
	info, err := getFuncInfo(fnType)
	if err != nil {
		return nil, &ContainerError{Kind: ErrInvalidTarget, ID: fnType.String(), SourceError: err}
	}
	owner := fnType.String()
	reg := applyRegisterOptions(t.opts)
	fn := reflect.ValueOf(t.fn)
	return &callable{
		owner:  owner,
		params: buildParams(info.params, info.variadic, reg.spec),
		invoke: func(args []any) ([]any, error) {
			return callFunc(owner, fn, info, args)
		},
	}, nil
}

type methodTarget struct {
	receiver any
	name     string
}

// Method targets a method of an existing object.
func Method(receiver any, name string) Target {
	return &methodTarget{receiver: receiver, name: name}
}

func (t *methodTarget) prepare(_ context.Context, c *Container) (*callable, error) {
	m, err := c.types.DescribeValueMethod(t.receiver, t.name)
	if err != nil {
		return nil, err
	}
	return c.methodCallable(m, t.receiver)
}

type typeMethodTarget struct {
	typeID string
	name   string
}

// TypeMethod targets a method by type identifier. A static function
// registered against the type is called without a receiver; an instance
// method is called on the type's instance from Make. Methods of an interface
// type have no body to call and fail with ErrUncallableMethod.
func TypeMethod(typeID, name string) Target {
	return &typeMethodTarget{typeID: typeID, name: name}
}

func (t *typeMethodTarget) prepare(ctx context.Context, c *Container) (*callable, error) {
	m, err := c.types.DescribeMethod(c.Resolve(t.typeID), t.name)
	if err != nil {
		return nil, err
	}
	if m.Abstract {
		return nil, &ContainerError{Kind: ErrUncallableMethod, ID: m.Owner + "." + m.Name}
	}
	var receiver any
	if !m.Static {
		receiver, err = c.MakeContext(ctx, t.typeID)
		if err != nil {
			return nil, err
		}
	}
	return c.methodCallable(m, receiver)
}

func (c *Container) methodCallable(m *MethodInfo, receiver any) (*callable, error) {
	if m.Abstract {
		return nil, &ContainerError{Kind: ErrUncallableMethod, ID: m.Owner + "." + m.Name}
	}
	return &callable{
		owner:  m.Owner + "." + m.Name,
		params: m.Params,
		invoke: func(args []any) ([]any, error) {
			return c.types.Invoke(m, receiver, args)
		},
	}, nil
}

// Call behaves like CallContext with a background context.
func (c *Container) Call(target Target, args ...Arg) (any, error) {
	return c.CallContext(context.Background(), target, args...)
}

// CallContext invokes target with its parameters resolved the same way as
// constructor parameters in MakeContext.
//
// A target without non-error results yields nil, one result is returned as
// is, and several are returned as a []any. When the target's last result is a
// non-nil error, that error is returned unchanged.
func (c *Container) CallContext(ctx context.Context, target Target, args ...Arg) (any, error) {
	if target == nil {
		return nil, &ContainerError{Kind: ErrInvalidTarget, ID: "<nil>"}
	}
	fn, err := target.prepare(ctx, c)
	if err != nil {
		return nil, err
	}
	values, err := c.resolveArguments(ctx, fn.owner, fn.params, args)
	if err != nil {
		return nil, err
	}
	results, err := fn.invoke(values)
	if err != nil {
		return nil, err
	}
	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		return results[0], nil
	default:
		return results, nil
	}
}
