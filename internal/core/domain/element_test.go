package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsEligible(t *testing.T) {
	assert.True(t, IsEligible(KindPoint))
	assert.True(t, IsEligible(KindPath))
	assert.False(t, IsEligible("relation"))
	assert.False(t, IsEligible(ChildTag))
	assert.False(t, IsEligible(""))
}

func TestElement_Attr(t *testing.T) {
	e := Element{
		Name:  KindPoint,
		Attrs: []Attr{{Name: "id", Value: "1"}, {Name: "visible", Value: ""}},
	}

	v, ok := e.Attr("id")
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	v, ok = e.Attr("visible")
	assert.True(t, ok, "present but empty attribute is still present")
	assert.Empty(t, v)

	_, ok = e.Attr("lat")
	assert.False(t, ok)
}

func TestElement_Release(t *testing.T) {
	e := Element{
		Name:     KindPath,
		Attrs:    []Attr{{Name: "id", Value: "7"}},
		Children: []Element{{Name: ChildRef}},
	}
	e.Release()
	assert.Equal(t, KindPath, e.Name)
	assert.Nil(t, e.Attrs)
	assert.Nil(t, e.Children)
}
