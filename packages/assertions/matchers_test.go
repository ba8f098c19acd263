package assertions

import (
	"testing"

	"github.com/abdul-hamid-achik/apiflow/packages/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRegex(t *testing.T) {
	tests := []struct {
		input    value.Value
		expected bool
	}{
		{value.NewString("/abc/"), true},
		{value.NewString("/abc/gi"), true},
		{value.NewString("//"), true},
		{value.NewString("/a/b/"), true},
		{value.NewString("/abc/x"), false},
		{value.NewString("abc"), false},
		{value.NewString("/abc"), false},
		{value.NewString("/users/1"), false},
		{value.NewNumber(1), false},
		{value.Null, false},
	}

	for _, tt := range tests {
		t.Run(tt.input.String(), func(t *testing.T) {
			assert.Equal(t, tt.expected, IsRegex(tt.input))
		})
	}
}

func TestMatchRegex(t *testing.T) {
	tests := []struct {
		name    string
		literal string
		actual  string
		matches bool
	}{
		{"anchored", "/^ok.*$/", "ok-ready", true},
		{"unanchored substring", "/ready/", "ok-ready", true},
		{"case sensitive", "/^OK/", "ok", false},
		{"ignore case", "/^OK/i", "ok", true},
		{"multiline", "/^second$/m", "first\nsecond", true},
		{"without multiline", "/^second$/", "first\nsecond", false},
		{"dot all", "/a.b/s", "a\nb", true},
		{"dot without s", "/a.b/", "a\nb", false},
		{"global flag ignored", "/\\d+/g", "abc 42", true},
		{"lookahead", "/^(?=.*\\d)[a-z0-9]+$/", "abc1", true},
		{"uuid", "/^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$/", "3f2504e0-4f89-11d3-9a0c-0305e82c3301", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := MatchRegex(tt.literal, value.NewString(tt.actual))
			require.NoError(t, err)
			assert.Equal(t, tt.matches, ok)
		})
	}
}

func TestMatchRegex_NonString(t *testing.T) {
	ok, err := MatchRegex("/1/", value.NewNumber(1))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = MatchRegex("/x/", value.Undefined)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestToRegexp_Invalid(t *testing.T) {
	_, err := ToRegexp("/([a-z]/")
	assert.Error(t, err)

	_, err = ToRegexp("not a literal")
	assert.Error(t, err)

	res := DeepCompare(value.NewString("abc"), value.NewString("/([a-z]/"), []string{"body"})
	assert.False(t, res.Passed)
	assert.Equal(t, []string{"body"}, res.Path)
}

func TestToRegexp_ECMAScriptDigits(t *testing.T) {
	arabicThree := "\u0663"

	re, err := ToRegexp(`/^\d$/i`)
	require.NoError(t, err)
	assert.Equal(t, matchTimeout, re.MatchTimeout)
	ok, err := re.MatchString(arabicThree)
	require.NoError(t, err)
	assert.False(t, ok)

	// s drops ECMAScript mode, so \d is unicode-aware again
	re, err = ToRegexp(`/^\d$/s`)
	require.NoError(t, err)
	ok, err = re.MatchString(arabicThree)
	require.NoError(t, err)
	assert.True(t, ok)
}
