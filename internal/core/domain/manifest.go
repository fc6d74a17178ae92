package domain

import (
	"bytes"
	"encoding/json"
	"maps"
	"slices"

	"go.trai.ch/zerr"
)

const (
	fieldName            = "name"
	fieldVersion         = "version"
	fieldDependencies    = "dependencies"
	fieldDevDependencies = "devDependencies"
	fieldScripts         = "scripts"
)

// Manifest is a package.json document. Fields the package manager does not
// interpret are kept verbatim so a rewrite never drops them.
type Manifest struct {
	fields map[string]json.RawMessage
}

// NewManifest returns an empty manifest, rendered as "{}".
func NewManifest() *Manifest {
	return &Manifest{fields: map[string]json.RawMessage{}}
}

// ParseManifest decodes a package.json document. Anything but a JSON object
// is rejected with ErrManifestNotObject.
func ParseManifest(data []byte) (*Manifest, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrManifestNotObject
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, zerr.With(zerr.Wrap(ErrManifestNotObject, "invalid JSON"), "cause", err.Error())
	}
	return &Manifest{fields: fields}, nil
}

// Marshal renders the manifest with two-space indentation and a trailing newline.
func (m *Manifest) Marshal() ([]byte, error) {
	return marshalDocument(m.fields)
}

// Clone returns a deep copy of the manifest.
func (m *Manifest) Clone() *Manifest {
	fields := make(map[string]json.RawMessage, len(m.fields))
	for k, v := range m.fields {
		fields[k] = slices.Clone(v)
	}
	return &Manifest{fields: fields}
}

// Name returns the "name" field, or "" when absent.
func (m *Manifest) Name() string {
	return m.stringField(fieldName)
}

// Version returns the "version" field, or "" when absent.
func (m *Manifest) Version() string {
	return m.stringField(fieldVersion)
}

// Dependencies returns a copy of the "dependencies" map.
func (m *Manifest) Dependencies() map[string]string {
	return m.stringMap(fieldDependencies)
}

// DevDependencies returns a copy of the "devDependencies" map.
func (m *Manifest) DevDependencies() map[string]string {
	return m.stringMap(fieldDevDependencies)
}

// Scripts returns a copy of the "scripts" map.
func (m *Manifest) Scripts() map[string]string {
	return m.stringMap(fieldScripts)
}

// DeclaredDependencies returns the sorted union of dependencies and
// devDependencies. A name present in both keeps its dependencies selector.
func (m *Manifest) DeclaredDependencies() []Dependency {
	all := m.DevDependencies()
	maps.Copy(all, m.Dependencies())
	out := make([]Dependency, 0, len(all))
	for _, name := range slices.Sorted(maps.Keys(all)) {
		out = append(out, Dependency{Name: name, Selector: all[name]})
	}
	return out
}

// SetDependency inserts or overwrites name in "dependencies", creating the map if needed.
func (m *Manifest) SetDependency(name, version string) error {
	deps, err := m.objectField(fieldDependencies)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(version)
	if err != nil {
		return err
	}
	deps[name] = raw
	return m.setObjectField(fieldDependencies, deps)
}

// RemoveDependency deletes name from "dependencies" and "devDependencies".
// It reports whether the name was present in either.
func (m *Manifest) RemoveDependency(name string) (bool, error) {
	removed := false
	for _, key := range []string{fieldDependencies, fieldDevDependencies} {
		if _, ok := m.fields[key]; !ok {
			continue
		}
		obj, err := m.objectField(key)
		if err != nil {
			return removed, err
		}
		if _, ok := obj[name]; !ok {
			continue
		}
		delete(obj, name)
		removed = true
		if err := m.setObjectField(key, obj); err != nil {
			return removed, err
		}
	}
	return removed, nil
}

// SetField replaces a top-level field with the JSON encoding of value.
func (m *Manifest) SetField(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.fields[key] = raw
	return nil
}

func (m *Manifest) stringField(key string) string {
	raw, ok := m.fields[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// stringMap decodes an object of strings, skipping non-string values.
func (m *Manifest) stringMap(key string) map[string]string {
	out := map[string]string{}
	raw, ok := m.fields[key]
	if !ok {
		return out
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return out
	}
	for k, v := range obj {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			out[k] = s
		}
	}
	return out
}

func (m *Manifest) objectField(key string) (map[string]json.RawMessage, error) {
	obj := map[string]json.RawMessage{}
	raw, ok := m.fields[key]
	if !ok || string(raw) == "null" {
		return obj, nil
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "field is not an object"), "field", key)
	}
	return obj, nil
}

func (m *Manifest) setObjectField(key string, obj map[string]json.RawMessage) error {
	raw, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	m.fields[key] = raw
	return nil
}

// Dependency is a declared dependency of a manifest.
type Dependency struct {
	Name     string
	Selector string
}

func marshalDocument(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
