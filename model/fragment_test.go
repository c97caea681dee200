// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/cirrus/core"
)

func TestFragmentsSetGet(t *testing.T) {
	f := Fragments{}
	require.NoError(t, f.Set("position.lat", 52.52))
	require.NoError(t, f.Set("position.lng", 13.405))
	require.NoError(t, f.Set("cirrus_IsDevice", map[string]any{}))

	lat, err := f.Get("position.lat")
	require.NoError(t, err)
	assert.Equal(t, 52.52, lat)

	// intermediate objects are returned as-is
	position, err := f.Get("position")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"lat": 52.52, "lng": 13.405}, position)
}

func TestFragmentsAbsentVersusNull(t *testing.T) {
	f := Fragments{"present": nil}

	value, err := f.Get("present")
	require.NoError(t, err)
	assert.Nil(t, value)

	_, err = f.Get("absent")
	assert.True(t, errors.Is(err, core.ErrNotFound))

	_, err = f.Get("present.deeper")
	assert.True(t, errors.Is(err, core.ErrTypeConflict))
}

func TestFragmentsTypeConflict(t *testing.T) {
	f := Fragments{}
	require.NoError(t, f.Set("a.b", "scalar"))

	_, err := f.Get("a.b.c")
	assert.True(t, errors.Is(err, core.ErrTypeConflict))

	err = f.Set("a.b.c", 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrTypeConflict))
	var e *core.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "a.b", e.Path)

	// the leaf itself may be overwritten with any shape
	require.NoError(t, f.Set("a.b", map[string]any{"c": 1}))
	value, err := f.Get("a.b.c")
	require.NoError(t, err)
	assert.Equal(t, 1, value)
}

func TestFragmentsKeysSorted(t *testing.T) {
	f := Fragments{"zeta": 1, "alpha": 2, "mid": 3}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, f.Keys())
	assert.True(t, f.Has("mid"))
	assert.False(t, f.Has("other"))
}

func TestFragmentsJSONRoundTrip(t *testing.T) {
	f := Fragments{}
	require.NoError(t, f.Set("cirrus_Position.lat", 52.52))
	require.NoError(t, f.Set("cirrus_Position.alt", nil))
	require.NoError(t, f.Set("tags", []any{"a", "b"}))

	data, err := f.JSON()
	require.NoError(t, err)

	parsed, err := ParseFragments(data)
	require.NoError(t, err)

	lat, err := parsed.Get("cirrus_Position.lat")
	require.NoError(t, err)
	assert.Equal(t, 52.52, lat)
	alt, err := parsed.Get("cirrus_Position.alt")
	require.NoError(t, err)
	assert.Nil(t, alt)
	tags, err := parsed.Get("tags")
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, tags)
}

func TestParseFragmentsRejectsMalformedJSON(t *testing.T) {
	_, err := ParseFragments([]byte(`{"broken":`))
	assert.True(t, errors.Is(err, core.ErrValidation))
}
