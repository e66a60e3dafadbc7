package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tradecal/internal/date"
)

func TestMarshalCanonical_SortedAndCompact(t *testing.T) {
	out, err := MarshalCanonical([]Rule{
		EasterOffset{Offset: -2, Last: Year(2030)},
		WeekDay{Weekday: date.Sunday},
	})
	require.NoError(t, err)
	assert.Equal(t,
		`[{"EasterOffset":{"first":null,"last":2030,"offset":-2}},{"WeekDay":"Sun"}]`,
		string(out))
}

func TestHash_Deterministic(t *testing.T) {
	h1, err := Hash(sampleRules())
	require.NoError(t, err)
	h2, err := Hash(sampleRules())
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64, "SHA-256 hex is 64 characters")
}

func TestHash_ChangesWithContent(t *testing.T) {
	base := MustHash(sampleRules())

	reordered := sampleRules()
	reordered[0], reordered[1] = reordered[1], reordered[0]
	assert.NotEqual(t, base, MustHash(reordered), "order is significant")

	changed := sampleRules()
	changed[4] = EasterOffset{Offset: 1}
	assert.NotEqual(t, base, MustHash(changed))

	assert.NotEqual(t, base, MustHash(nil))
}

func TestHash_IndependentOfDecodedForm(t *testing.T) {
	decoded, err := DecodeList([]byte(sampleRulesPretty))
	require.NoError(t, err)
	assert.Equal(t, MustHash(sampleRules()), MustHash(decoded))
}

func TestHashWithDomain_Separation(t *testing.T) {
	data := []byte("[]")
	assert.NotEqual(t, hashWithDomain("a", data), hashWithDomain("b", data))
}
