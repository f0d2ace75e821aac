// Package ioc provides a runtime dependency injection container keyed by
// string identifiers. Identifiers name abstract contracts (interfaces) or
// concrete types; a binding maps the former onto the latter.
//
// Types are described to the container through an Introspector. The
// TypeRegistry implementation learns them from constructor functions:
//
//	types := ioc.NewTypeRegistry()
//	types.Register(NewUserService, ioc.WithParams("repo", "pageSize"), ioc.WithDefault("pageSize", 50))
//	types.Register(NewSQLRepository, ioc.WithParams("dsn"))
//	repoID := ioc.RegisterInterface[UserRepository](types)
//
//	c := ioc.New(types)
//	c.Bind(repoID, ioc.TypeID[SQLRepository]())
//	_, err := c.Make(repoID, ioc.Named("dsn", "postgres://..."))
//	svc, err := c.Make(ioc.TypeID[UserService](), ioc.Named("pageSize", 20))
//
// Make constructs each identifier at most once and keeps the instance for
// the life of the container. Parameters are resolved from caller supplied
// arguments by name first, then by type through the container. Call resolves
// the parameters of functions and methods the same way.
//
// The Container documentation describes the resolution rules in detail.
// There are also helper global functions operating on a process-wide
// container for code that cannot be handed one explicitly.
package ioc
