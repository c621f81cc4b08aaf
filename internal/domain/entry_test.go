package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEntry_RoundTripKinds(t *testing.T) {
	ids := NewIDsEntry("upcoming_ids_v1", []MovieID{3, 1, 2}, 86400)
	raw, err := ids.Encode()
	require.NoError(t, err)
	got, err := DecodeEntry("upcoming_ids_v1", raw)
	require.NoError(t, err)
	assert.Equal(t, []MovieID{3, 1, 2}, got.IDs)
	assert.Equal(t, 86400, got.TTLSeconds)

	empty, err := NewIDsEntry("x_ids_v1", nil, 1).Encode()
	require.NoError(t, err)
	got, err = DecodeEntry("x_ids_v1", empty)
	require.NoError(t, err)
	assert.Equal(t, []MovieID{}, got.IDs)

	cnt, err := NewCountEntry("x_count_v1", 0, 300).Encode()
	require.NoError(t, err)
	got, err = DecodeEntry("x_count_v1", cnt)
	require.NoError(t, err)
	require.NotNil(t, got.Count)
	assert.Equal(t, 0, *got.Count)

	st, err := NewStructEntry(CacheKeyCountries, CountryIndex{Countries: []CountryCount{{Code: "BR", Count: 2}}}, 10)
	require.NoError(t, err)
	raw, err = st.Encode()
	require.NoError(t, err)
	got, err = DecodeEntry(CacheKeyCountries, raw)
	require.NoError(t, err)
	var idx CountryIndex
	require.NoError(t, got.DecodeStruct(&idx))
	assert.Equal(t, "BR", idx.Countries[0].Code)
}

func TestDecodeEntry_RejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":      `nope`,
		"foreign key":   `{"key":"other","kind":"ids","ids":[1]}`,
		"unknown kind":  `{"key":"k","kind":"blob"}`,
		"missing count": `{"key":"k","kind":"count"}`,
		"neg count":     `{"key":"k","kind":"count","count":-1}`,
		"empty struct":  `{"key":"k","kind":"struct"}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeEntry("k", []byte(raw))
			assert.ErrorIs(t, err, ErrCorruptEntry)
		})
	}
}

func TestEncode_IsDeterministic(t *testing.T) {
	a, err := NewIDsEntry("k", []MovieID{1, 2}, 5).Encode()
	require.NoError(t, err)
	b, err := NewIDsEntry("k", []MovieID{1, 2}, 5).Encode()
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestStagedEntryKeepsFinalKey(t *testing.T) {
	raw, err := NewIDsEntry("upcoming_ids_v1", []MovieID{1}, 5).Encode()
	require.NoError(t, err)

	_, err = DecodeEntry("upcoming_ids_v1", raw)
	require.NoError(t, err)
	_, err = DecodeEntry(StagingKey("upcoming_ids_v1"), raw)
	assert.ErrorIs(t, err, ErrCorruptEntry)
}
