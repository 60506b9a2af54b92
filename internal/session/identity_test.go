package session

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityIDPreservesWireForm(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"number", `{"id":7}`},
		{"numeric string", `{"id":"7"}`},
		{"opaque string", `{"id":"usr_abc"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var v struct {
				ID EntityID `json:"id"`
			}
			require.NoError(t, json.Unmarshal([]byte(tc.in), &v))

			out, err := json.Marshal(v)
			require.NoError(t, err)
			assert.JSONEq(t, tc.in, string(out))
		})
	}
}

func TestEntityIDCanonical(t *testing.T) {
	assert.Equal(t, "5", NumericID(5).Canonical())
	assert.Equal(t, "5", ID("5").Canonical())
	assert.Equal(t, "usr_abc", ID("usr_abc").Canonical())

	var fromFloat EntityID
	require.NoError(t, json.Unmarshal([]byte(`5.0`), &fromFloat))
	assert.Equal(t, "5", fromFloat.Canonical())
}

func TestEntityIDEqual(t *testing.T) {
	assert.True(t, NumericID(5).Equal(ID("5")))
	assert.True(t, ID("5").Equal(NumericID(5)))
	assert.False(t, NumericID(5).Equal(NumericID(9)))

	// Absent ids never match, not even each other.
	var absent EntityID
	assert.False(t, absent.Equal(absent))
	assert.False(t, absent.Equal(NumericID(5)))
}

func TestEntityIDRejectsNonScalar(t *testing.T) {
	var id EntityID
	assert.Error(t, json.Unmarshal([]byte(`{"nested":true}`), &id))
}

func TestEntityIDNull(t *testing.T) {
	var id EntityID
	require.NoError(t, json.Unmarshal([]byte(`null`), &id))
	assert.True(t, id.IsZero())
}
