package conf

// FlatEntry is one path/value pair of a flattened tree.
type FlatEntry struct {
	Path  string
	Value any
}

// Flatten walks the tree in insertion order and returns every leaf as
// a dotted-path entry. Sequences and scalars are leaves. Keys listed
// in exclude are skipped, matched against the key itself or the full
// dotted path.
func Flatten(n Node, exclude ...string) []FlatEntry {
	skip := make(map[string]bool, len(exclude))
	for _, e := range exclude {
		skip[e] = true
	}
	var out []FlatEntry
	flattenInto(n, "", skip, &out)
	return out
}

func flattenInto(n Node, prefix string, skip map[string]bool, out *[]FlatEntry) {
	m, ok := n.(*Mapping)
	if !ok {
		*out = append(*out, FlatEntry{Path: prefix, Value: ToAny(n)})
		return
	}
	for _, key := range m.Keys() {
		path := JoinPath(prefix, key)
		if skip[key] || skip[path] {
			continue
		}
		child, _ := m.Get(key)
		flattenInto(child, path, skip, out)
	}
}

// Config is a view over a fully resolved tree.
type Config struct {
	root *Mapping
}

// NewConfig wraps a resolved tree.
func NewConfig(root *Mapping) *Config {
	if root == nil {
		root = NewMapping()
	}
	return &Config{root: root}
}

// Tree returns the underlying mapping.
func (c *Config) Tree() *Mapping {
	return c.root
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	return &Config{root: c.root.Clone().(*Mapping)}
}

// Get returns the plain Go value at the dotted path.
func (c *Config) Get(path string) (any, error) {
	n, err := Get(c.root, path)
	if err != nil {
		return nil, err
	}
	return ToAny(n), nil
}

// Node returns the tree node at the dotted path.
func (c *Config) Node(path string) (Node, error) {
	return Get(c.root, path)
}

// Set assigns the plain Go value at the dotted path, creating
// intermediate mappings as needed.
func (c *Config) Set(path string, value any) error {
	return Set(c.root, path, FromAny(value))
}

// Delete removes the dotted path. A missing path is an error.
func (c *Config) Delete(path string) error {
	return Delete(c.root, path)
}

// Has reports whether the dotted path exists.
func (c *Config) Has(path string) bool {
	return Has(c.root, path)
}

// Kwargs returns the top-level children as plain Go values, without
// the reserved TYPE and self keys.
func (c *Config) Kwargs() map[string]any {
	out := make(map[string]any, c.root.Len())
	for _, key := range c.root.Keys() {
		if key == TypeKey || key == SelfKey {
			continue
		}
		child, _ := c.root.Get(key)
		out[key] = ToAny(child)
	}
	return out
}

// Flatten returns the leaves of the tree as dotted-path entries.
func (c *Config) Flatten(exclude ...string) []FlatEntry {
	return Flatten(c.root, exclude...)
}

// YAML renders the configuration as YAML with keys in tree order.
func (c *Config) YAML() ([]byte, error) {
	return EncodeYAML(c.root)
}
