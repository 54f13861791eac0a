package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestParseIDRoundTrip(t *testing.T) {
	for i := 0; i < 20; i++ {
		id := bson.NewObjectID()
		got, err := ParseID(FormatID(id))
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}
}

func TestParseIDAcceptsUppercaseHex(t *testing.T) {
	id, err := ParseID("65A1B2C3D4E5F6789ABCDEF0")
	require.NoError(t, err)
	assert.Equal(t, "65a1b2c3d4e5f6789abcdef0", FormatID(id))
}

func TestParseIDRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"empty":      "",
		"short":      "65a1b2c3d4e5f6789abcdef",
		"long":       "65a1b2c3d4e5f6789abcdef00",
		"non hex":    "65a1b2c3d4e5f6789abcdefg",
		"whitespace": " 65a1b2c3d4e5f6789abcdef",
		"12 bytes":   "abcdefghijkl",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseID(in)
			require.Error(t, err)
			assert.Equal(t, CodeInvalidID, CodeOf(err))
		})
	}
}

func TestParseRefNamesTheEntity(t *testing.T) {
	_, err := ParseRef("lead", "nope")
	require.Error(t, err)
	assert.Equal(t, "Invalid lead ID", err.Error())
}

func TestParseOptionalRef(t *testing.T) {
	id, err := ParseOptionalRef("lead", "")
	require.NoError(t, err)
	assert.Nil(t, id)

	id, err = ParseOptionalRef("lead", "65a1b2c3d4e5f6789abcdef3")
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, "65a1b2c3d4e5f6789abcdef3", FormatID(*id))
}

func TestObjectIDRendersAsCanonicalHexInJSON(t *testing.T) {
	id := bson.NewObjectID()
	out, err := json.Marshal(Lead{ID: id, AssignedAgentID: &id})
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(out, &doc))
	assert.Equal(t, FormatID(id), doc["id"])
	assert.Equal(t, FormatID(id), doc["assigned_agent_id"])
}
