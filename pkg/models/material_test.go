package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaterialPropertyBag(t *testing.T) {
	m := NewMaterial("test")
	m.SetColor(KeyDiffuse, [4]float64{1, 0, 0, 1})
	m.SetFloat(KeyShininess, 8)
	m.SetBool(KeyWireframe, true)

	c, ok := m.Color(KeyDiffuse)
	assert.True(t, ok)
	assert.Equal(t, [4]float64{1, 0, 0, 1}, c)

	_, ok = m.Color(KeyShininess)
	assert.False(t, ok, "typed getters reject values of another type")

	_, ok = m.Float(KeySpecular)
	assert.False(t, ok)

	assert.Equal(t, []Key{KeyDiffuse, KeyShininess, KeyWireframe}, m.Keys())
}

func TestNilMaterialGetters(t *testing.T) {
	var m *Material
	_, ok := m.Color(KeyDiffuse)
	assert.False(t, ok)
	_, ok = m.Bool(KeyTwoSided)
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}
