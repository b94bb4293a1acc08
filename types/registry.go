package types

import "sync"

// Registry caches parsed TypeDefs and built Descriptors by canonical type
// name, and holds the per-Kind BuilderFunc table the codec package
// populates at init() time. Mirrors the driver-registration split
// database/sql uses between its own package and database drivers: types
// never imports codec, so codec registers itself into types instead.
type Registry struct {
	mu sync.RWMutex

	builders map[string]BuilderFunc // keyed by TypeDef.Name ("Array", "Enum8", ...)

	typedefCache    map[string]*TypeDef
	descriptorCache map[string]*Descriptor
}

// NewRegistry returns an empty Registry. Most callers use the package-level
// Default registry instead; a fresh Registry is useful in tests that need
// isolation from builders registered by other packages' init() functions.
func NewRegistry() *Registry {
	return &Registry{
		builders:        make(map[string]BuilderFunc),
		typedefCache:    make(map[string]*TypeDef),
		descriptorCache: make(map[string]*Descriptor),
	}
}

// Default is the process-wide registry the codec package registers its
// builders into and client code resolves type names against.
var Default = NewRegistry()

// RegisterBuilder installs the BuilderFunc for the given TypeDef.Name.
// Re-registering the same name overwrites the previous builder silently
// (mirrors sql.Register's driver-name overwrite behavior is NOT followed
// here: registering twice is only ever an init-order accident within this
// module, never a multi-party situation, so panicking would be noise).
func (r *Registry) RegisterBuilder(name string, fn BuilderFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builders[name] = fn
}

// RegisterBuilder installs fn into the Default registry.
func RegisterBuilder(name string, fn BuilderFunc) {
	Default.RegisterBuilder(name, fn)
}

// ParseTypeDef parses name into a TypeDef, serving a cached value when an
// equal string has been parsed before.
func (r *Registry) ParseTypeDef(name string) (*TypeDef, error) {
	r.mu.RLock()
	if td, ok := r.typedefCache[name]; ok {
		r.mu.RUnlock()
		return td, nil
	}
	r.mu.RUnlock()

	td, err := ParseTypeName(name)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.typedefCache[name] = td
	r.mu.Unlock()
	return td, nil
}

// Get resolves a type name to a built Descriptor, parsing and building it
// on first use and serving a cached Descriptor on every subsequent call
// with the same canonical name (spec section 4.1: "descriptor equality is
// structural on typedef", which the canonical-name cache key gives for
// free since CanonicalName is a pure function of the TypeDef's structure).
func (r *Registry) Get(name string) (*Descriptor, error) {
	td, err := r.ParseTypeDef(name)
	if err != nil {
		return nil, err
	}
	return r.BuildFromTypeDef(td)
}

// BuildFromTypeDef builds (or serves cached) a Descriptor for an
// already-parsed TypeDef. Used by builders that need to resolve a child
// type directly from a Value.Type without re-rendering and re-parsing its
// canonical name.
func (r *Registry) BuildFromTypeDef(td *TypeDef) (*Descriptor, error) {
	key := td.CanonicalName()

	r.mu.RLock()
	if d, ok := r.descriptorCache[key]; ok {
		r.mu.RUnlock()
		return d, nil
	}
	r.mu.RUnlock()

	inner := td.WithoutWrappers()
	r.mu.RLock()
	builder, ok := r.builders[inner.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, &UnknownTypeError{Name: inner.Name}
	}

	d, err := builder(r, inner)
	if err != nil {
		return nil, err
	}
	d.Def = td

	for _, w := range td.Wrappers {
		switch w {
		case WrapperNullable:
			d.Nullable = true
		case WrapperLowCardinality:
			d.LowCard = true
		}
	}

	r.mu.Lock()
	r.descriptorCache[key] = d
	r.mu.Unlock()
	return d, nil
}

// Get resolves name against the Default registry.
func Get(name string) (*Descriptor, error) { return Default.Get(name) }

// ParseTypeDef parses name against the Default registry's cache.
func ParseTypeDef(name string) (*TypeDef, error) { return Default.ParseTypeDef(name) }
