package models

import (
	"maps"
	"slices"
)

// Key names a material property.
type Key string

// Material property keys. Colors are RGBA, shininess values are floats and
// the render-state flags are bools.
const (
	KeyDiffuse           Key = "diffuse"
	KeySpecular          Key = "specular"
	KeyAmbient           Key = "ambient"
	KeyEmissive          Key = "emissive"
	KeyShininess         Key = "shininess"
	KeyShininessStrength Key = "shininess_strength"
	KeyWireframe         Key = "wireframe"
	KeyTwoSided          Key = "two_sided"
)

// Material is a named property bag. Importers set only the properties the
// source file defines; consumers fall back to their own defaults for
// anything absent. Getters are safe on a nil Material.
type Material struct {
	Name  string
	props map[Key]any
}

// NewMaterial creates an empty material.
func NewMaterial(name string) *Material {
	return &Material{
		Name:  name,
		props: make(map[Key]any),
	}
}

func (m *Material) set(k Key, v any) {
	if m.props == nil {
		m.props = make(map[Key]any)
	}
	m.props[k] = v
}

// SetColor stores an RGBA color property.
func (m *Material) SetColor(k Key, c [4]float64) {
	m.set(k, c)
}

// SetFloat stores a scalar property.
func (m *Material) SetFloat(k Key, v float64) {
	m.set(k, v)
}

// SetBool stores a flag property.
func (m *Material) SetBool(k Key, v bool) {
	m.set(k, v)
}

// Color returns the color stored under k.
func (m *Material) Color(k Key) ([4]float64, bool) {
	if m == nil {
		return [4]float64{}, false
	}
	c, ok := m.props[k].([4]float64)
	return c, ok
}

// Float returns the scalar stored under k.
func (m *Material) Float(k Key) (float64, bool) {
	if m == nil {
		return 0, false
	}
	v, ok := m.props[k].(float64)
	return v, ok
}

// Bool returns the flag stored under k.
func (m *Material) Bool(k Key) (bool, bool) {
	if m == nil {
		return false, false
	}
	v, ok := m.props[k].(bool)
	return v, ok
}

// Has reports whether any value is stored under k.
func (m *Material) Has(k Key) bool {
	if m == nil {
		return false
	}
	_, ok := m.props[k]
	return ok
}

// Keys returns the stored property keys in sorted order.
func (m *Material) Keys() []Key {
	if m == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(m.props))
}

// Len returns the number of stored properties.
func (m *Material) Len() int {
	if m == nil {
		return 0
	}
	return len(m.props)
}
