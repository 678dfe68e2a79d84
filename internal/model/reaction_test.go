package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserIDSet_Toggle(t *testing.T) {
	var s UserIDSet

	s = s.Toggle("u1")
	assert.Equal(t, UserIDSet{"u1"}, s)
	assert.True(t, s.Has("u1"))

	s = s.Toggle("u2")
	assert.Equal(t, UserIDSet{"u1", "u2"}, s)

	s = s.Toggle("u1")
	assert.Equal(t, UserIDSet{"u2"}, s)
	assert.False(t, s.Has("u1"))
}

func TestUserIDSet_UnmarshalJSON(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  UserIDSet
	}{
		{"array", `["a","b"]`, UserIDSet{"a", "b"}},
		{"empty array", `[]`, UserIDSet{}},
		{"legacy counter", `3`, UserIDSet{}},
		{"legacy null", `null`, UserIDSet(nil)},
		{"legacy string", `"12"`, UserIDSet{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var s UserIDSet
			require.NoError(t, json.Unmarshal([]byte(tc.input), &s))
			assert.Equal(t, tc.want, s)
		})
	}
}

func TestUserIDSet_Scan(t *testing.T) {
	t.Run("bytes", func(t *testing.T) {
		var s UserIDSet
		require.NoError(t, s.Scan([]byte(`["a"]`)))
		assert.Equal(t, UserIDSet{"a"}, s)
	})

	t.Run("legacy counter column", func(t *testing.T) {
		var s UserIDSet
		require.NoError(t, s.Scan("7"))
		assert.Empty(t, s)
	})

	t.Run("nil column", func(t *testing.T) {
		var s UserIDSet
		require.NoError(t, s.Scan(nil))
		assert.Equal(t, UserIDSet{}, s)
	})
}

func TestReactionKind_Valid(t *testing.T) {
	assert.True(t, ReactionLiked.Valid())
	assert.True(t, ReactionLaughed.Valid())
	assert.False(t, ReactionKind("angry").Valid())
	assert.False(t, ReactionKind("").Valid())
}
