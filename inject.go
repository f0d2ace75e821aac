package ioc

import (
	"context"
	"reflect"
)

// Inject assigns every exported field of obj tagged `inject`, resolving each
// through c.Make. obj must be a non-nil pointer to a struct.
//
//	type Handler struct {
//	    Log  Logger `inject:""`
//	    Repo any    `inject:"example.com/app.UserRepository"`
//	}
//
// A field with a nominal type is resolved by that type's id. The tag value is
// only used for untyped or builtin fields. Any failure is reported as
// ErrPropertyAssignment wrapping the cause.
func Inject(c *Container, obj any) error {
	return InjectContext(context.Background(), c, obj)
}

// InjectContext is Inject with a context for the underlying Make calls.
func InjectContext(ctx context.Context, c *Container, obj any) error {
	target, props, err := injectionTarget(obj)
	if err != nil {
		return err
	}
	for _, p := range props {
		if p.Inject == nil {
			continue
		}
		if err := assignProperty(ctx, c, target, p); err != nil {
			return err
		}
	}
	return nil
}

// InjectProperty resolves and assigns a single field of obj, whether or not
// it carries an `inject` tag.
func InjectProperty(c *Container, obj any, property string) error {
	target, props, err := injectionTarget(obj)
	if err != nil {
		return err
	}
	for _, p := range props {
		if p.Name == property {
			return assignProperty(context.Background(), c, target, p)
		}
	}
	return &ContainerError{
		Kind:        ErrPropertyAssignment,
		ID:          TypeIDOf(obj) + "." + property,
		SourceError: &ContainerError{Kind: ErrUnknownType, ID: TypeIDOf(obj) + "." + property, Message: "unknown property"},
	}
}

func injectionTarget(obj any) (reflect.Value, []Property, error) {
	rv := reflect.ValueOf(obj)
	if !rv.IsValid() || rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, nil, &ContainerError{
			Kind:    ErrPropertyAssignment,
			ID:      TypeIDOf(obj),
			Message: "injection target must be a non-nil struct pointer",
		}
	}
	props, err := describeProperties(rv.Type())
	if err != nil {
		return reflect.Value{}, nil, &ContainerError{Kind: ErrPropertyAssignment, ID: TypeIDOf(obj), SourceError: err}
	}
	return rv.Elem(), props, nil
}

func assignProperty(ctx context.Context, c *Container, target reflect.Value, p Property) error {
	owner := typeID(target.Type()) + "." + p.Name
	id := p.Type
	if id == "" || p.Builtin {
		id = ""
		if p.Inject != nil {
			id = p.Inject.ID
		}
	}
	if id == "" {
		return nil
	}

	value, err := c.MakeContext(ctx, id)
	if err != nil {
		return &ContainerError{Kind: ErrPropertyAssignment, ID: owner, SourceError: err}
	}
	field := target.FieldByIndex(p.index)
	rv, err := convertValue(value, field.Type())
	if err != nil {
		return &ContainerError{Kind: ErrPropertyAssignment, ID: owner, SourceError: err}
	}
	field.Set(rv)
	return nil
}
