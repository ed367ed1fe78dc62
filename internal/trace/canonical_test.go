package trace

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_SortedKeys(t *testing.T) {
	got, err := MarshalCanonical(map[string]any{
		"zebra": 1,
		"alpha": 2,
		"mid":   3,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"mid":3,"zebra":1}`, string(got))
}

func TestMarshalCanonical_Floats(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{80, "80"},
		{2.5, "2.5"},
		{8.113, "8.113"},
		{-0.5, "-0.5"},
	}
	for _, tt := range tests {
		got, err := MarshalCanonical(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, string(got))
	}
}

func TestMarshalCanonical_RejectsNonFinite(t *testing.T) {
	_, err := MarshalCanonical(math.NaN())
	assert.Error(t, err)
	_, err = MarshalCanonical(math.Inf(-1))
	assert.Error(t, err)
	_, err = MarshalCanonical(nil)
	assert.Error(t, err)
}

func TestMarshalCanonical_NestedDeterminism(t *testing.T) {
	v := map[string]any{
		"ticks": []any{
			map[string]any{"seq": int64(1), "state": int64(1), "going_on": true},
			map[string]any{"seq": int64(2), "state": int64(3)},
		},
		"name": "drive",
	}

	first, err := MarshalCanonical(v)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := MarshalCanonical(v)
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
	assert.Equal(t,
		`{"name":"drive","ticks":[{"going_on":true,"seq":1,"state":1},{"seq":2,"state":3}]}`,
		string(first))
}

func TestMarshalCanonical_StringEscapes(t *testing.T) {
	got, err := MarshalCanonical("a\"b\\c\nd")
	require.NoError(t, err)
	assert.Equal(t, `"a\"b\\c\nd"`, string(got))

	// No HTML escaping.
	got, err = MarshalCanonical("<&>")
	require.NoError(t, err)
	assert.Equal(t, `"<&>"`, string(got))
}

func TestMarshalCanonical_NFCNormalization(t *testing.T) {
	// U+0065 U+0301 (e + combining acute) normalizes to U+00E9.
	composed, err := MarshalCanonical("café")
	require.NoError(t, err)
	decomposed, err := MarshalCanonical("café")
	require.NoError(t, err)
	assert.Equal(t, string(composed), string(decomposed))
}
