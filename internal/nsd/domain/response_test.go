package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResponseAccessors(t *testing.T) {
	r := Response{
		Success: true,
		Fields: []Field{
			{Key: "version", Value: "4.3.9"},
			{Key: "verbosity", Value: "2"},
		},
	}

	assert.True(t, r.IsSuccess())
	assert.Equal(t, 2, r.Len())

	v, ok := r.Get("version")
	assert.True(t, ok)
	assert.Equal(t, "4.3.9", v)

	_, ok = r.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, "", r.Value("missing"))
	assert.Equal(t, "2", r.Value("verbosity"))
}

func TestResponseMap(t *testing.T) {
	r := Response{
		Success: true,
		Fields: []Field{
			{Key: "num_zones", Value: "4"},
			{Key: "num_query", Value: "100"},
		},
	}
	assert.Equal(t, map[string]string{
		"num_zones": "4",
		"num_query": "100",
	}, r.Map())
}

func TestResponseZeroValue(t *testing.T) {
	var r Response
	assert.False(t, r.IsSuccess())
	assert.Empty(t, r.Message)
	assert.Zero(t, r.Len())
	assert.Empty(t, r.Map())
}
