package scene

// AttrSceneID is the attribute that ties bound targets to exported CSS.
const AttrSceneID = "data-scene-id"

// ClassStartAnimation is added to targets by PlayCSS.
const ClassStartAnimation = "startAnimation"

// Target is something an Item renders into, usually a document element.
type Target interface {
	// AppendStyle appends CSS declarations to the target's inline style.
	AppendStyle(cssText string)
	// SetAttribute tags the target so selectors can match it.
	SetAttribute(name, value string)
}

// StyleReader is implemented by targets that can report computed styles.
type StyleReader interface {
	ComputedStyle(name string) (string, bool)
}

// ClassTarget is implemented by targets that carry class names.
type ClassTarget interface {
	AddClass(name string)
}

// Resolver turns a selector into the targets it matches.
type Resolver interface {
	Resolve(selector string) ([]Target, error)
}

// ResolverFunc adapts a function to a Resolver.
type ResolverFunc func(selector string) ([]Target, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(selector string) ([]Target, error) {
	return f(selector)
}

// StyleRegistry stores named blocks of CSS text, for example a style sheet.
type StyleRegistry interface {
	// Upsert creates the block named key or replaces its text.
	Upsert(key, cssText string) error
}
