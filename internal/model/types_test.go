package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChakra(t *testing.T) {
	for _, c := range Chakras {
		got, err := ParseChakra(string(c))
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	for _, bad := range []string{"", "Heart", "third-eye", "unknown_chakra", " root"} {
		_, err := ParseChakra(bad)
		assert.ErrorIs(t, err, ErrInvalidChakraCategory, bad)
	}
}

func TestParsePostType(t *testing.T) {
	p, err := ParsePostType("")
	require.NoError(t, err)
	assert.Equal(t, PostTypePost, p)

	p, err = ParsePostType("Vision")
	require.NoError(t, err)
	assert.Equal(t, PostTypeVision, p)

	_, err = ParsePostType("essay")
	assert.ErrorIs(t, err, ErrInvalidPostType)
}

func TestEngagementTypes(t *testing.T) {
	for _, typ := range EngagementTypes {
		got, err := ParseEngagementType(" " + string(typ) + " ")
		require.NoError(t, err)
		assert.Equal(t, typ, got)
	}
	_, err := ParseEngagementType("boost")
	assert.ErrorIs(t, err, ErrInvalidEngagementType)
	assert.False(t, EngagementNone.Valid())

	assert.True(t, EngagementUpvote.IsVote())
	assert.True(t, EngagementDownvote.IsVote())
	assert.False(t, EngagementLike.IsVote())
	assert.False(t, EngagementEnergy.IsVote())

	assert.Equal(t, EngagementDownvote, EngagementUpvote.Opposite())
	assert.Equal(t, EngagementUpvote, EngagementDownvote.Opposite())
	assert.Equal(t, EngagementNone, EngagementLike.Opposite())
	assert.Equal(t, EngagementNone, EngagementEnergy.Opposite())
}

func TestParseElement(t *testing.T) {
	e, err := ParseElement("WATER")
	require.NoError(t, err)
	assert.Equal(t, ElementWater, e)
	_, err = ParseElement("aether")
	assert.Error(t, err)
}
