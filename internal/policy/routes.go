package policy

// RouteResolver answers whether a route with the given name exists.
type RouteResolver interface {
	Exists(name string) bool
}

// RouteResolverFunc adapts a function to RouteResolver.
type RouteResolverFunc func(name string) bool

func (f RouteResolverFunc) Exists(name string) bool { return f(name) }

// StaticRoutes is a RouteResolver over a fixed set of route names.
type StaticRoutes map[string]struct{}

// NewStaticRoutes returns a resolver knowing exactly the given names.
func NewStaticRoutes(names ...string) StaticRoutes {
	s := make(StaticRoutes, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s StaticRoutes) Exists(name string) bool {
	_, ok := s[name]
	return ok
}
