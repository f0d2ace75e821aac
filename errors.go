package ioc

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an identifier has no stored instance.
	ErrNotFound = errors.New("instance not found")

	// ErrNoImplementation is returned when an interface identifier is made
	// without a concrete binding.
	ErrNoImplementation = errors.New("no implementation bound")

	// ErrMissingArgument is returned when a parameter can be neither supplied,
	// auto-wired, nor defaulted.
	ErrMissingArgument = errors.New("missing argument")

	// ErrUnknownType is returned when the introspector has no description of
	// the requested type or member.
	ErrUnknownType = errors.New("unknown type")

	// ErrUncallableMethod is returned when Call targets a method that has no
	// concrete body, such as a method of an unbound interface.
	ErrUncallableMethod = errors.New("method cannot be called")

	// ErrPropertyAssignment is returned by the property injector for any
	// failure while resolving or assigning a field.
	ErrPropertyAssignment = errors.New("property assignment failed")

	// ErrCyclicDependency is returned when a type's construction requires
	// itself somewhere along its own resolution chain.
	ErrCyclicDependency = errors.New("cyclic dependency")

	// ErrInvalidArgument is returned when a resolved value cannot be used as
	// the declared Go type of the parameter it was resolved for.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidTarget is returned for malformed registrations and call targets.
	ErrInvalidTarget = errors.New("invalid target")
)

// ContainerError is the single error type produced by the container. Kind is
// one of the sentinel errors above so callers can use errors.Is, while
// SourceError carries the underlying cause, if any.
type ContainerError struct {
	Kind        error
	ID          string
	Param       string
	Message     string
	SourceError error
}

func (e *ContainerError) Error() string {
	msg := e.Message
	if msg == "" && e.Kind != nil {
		msg = e.Kind.Error()
	}
	result := fmt.Sprintf("%s: %s", msg, e.ID)
	if e.Param != "" {
		result += fmt.Sprintf(" (parameter %s)", e.Param)
	}
	if e.SourceError != nil {
		result += fmt.Sprintf(" (%v)", e.SourceError)
	}
	return result
}

func (e *ContainerError) Is(target error) bool {
	return e.Kind != nil && e.Kind == target
}

func (e *ContainerError) Unwrap() error {
	return e.SourceError
}
