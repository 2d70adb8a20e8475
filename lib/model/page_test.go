package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPageZero(t *testing.T) {
	require.True(t, Page{}.IsZero())
	require.False(t, NumberPage(1).IsZero())
	require.False(t, CursorPage("abc").IsZero())
	require.False(t, CompoundPage("stories", "url", 0).IsZero())
}

func TestPageComparable(t *testing.T) {
	// drain bookkeeping uses tokens as map keys, so equal tokens must
	// collide and distinct ones must not
	visited := map[Page]bool{}
	visited[CursorPage("a")] = true
	require.True(t, visited[CursorPage("a")])
	require.False(t, visited[CursorPage("b")])
	require.False(t, visited[CompoundPage("", "a", 0)])
}

func TestUserIdentitySlugIdempotent(t *testing.T) {
	user := UserPartial{Name: "Some User_Name"}
	identity := user.Identity()
	require.Equal(t, identity, UserPartial{Name: identity}.Identity())
}
