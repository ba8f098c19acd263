package builtin

import (
	"regexp"
	"strconv"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var alnum = regexp.MustCompile(`^[a-zA-Z0-9]*$`)

func TestRegistry_RandomString(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name   string
		expr   string
		length int
	}{
		{"explicit length", "random.string(5)", 5},
		{"padded length", "random.string( 8 )", 8},
		{"zero length", "random.string(0)", 0},
		{"no args", "random.string", DefaultStringLength},
		{"unparseable length", "random.string(abc)", DefaultStringLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Call(tt.expr)
			require.True(t, ok)
			assert.Len(t, got, tt.length)
			assert.Regexp(t, alnum, got)
		})
	}
}

func TestRegistry_RandomNumber(t *testing.T) {
	r := NewRegistry()

	for i := 0; i < 200; i++ {
		got, ok := r.Call("random.number(3,7)")
		require.True(t, ok)
		n, err := strconv.Atoi(got)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 3)
		assert.LessOrEqual(t, n, 7)
	}

	got, ok := r.Call("random.number(5,5)")
	require.True(t, ok)
	assert.Equal(t, "5", got)
}

func TestRegistry_RandomNumberBadArgs(t *testing.T) {
	r := NewRegistry()

	_, ok := r.Call("random.number(a,b)")
	assert.False(t, ok)

	_, ok = r.Call("random.number")
	assert.False(t, ok)
}

func TestRegistry_UUID(t *testing.T) {
	r := NewRegistry()

	got, ok := r.Call("random.uuid()")
	require.True(t, ok)
	_, err := uuid.Parse(got)
	assert.NoError(t, err)
}

func TestRegistry_UnknownExpression(t *testing.T) {
	r := NewRegistry()

	for _, expr := range []string{"userId", "random", "random.stringy", "random.other(1)"} {
		_, ok := r.Call(expr)
		assert.False(t, ok, expr)
	}
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	r.Register("fixed.value", func(string) (string, bool) { return "42", true })

	got, ok := r.Call("fixed.value()")
	require.True(t, ok)
	assert.Equal(t, "42", got)
}

func TestRandomInt_SwappedBounds(t *testing.T) {
	n := RandomInt(10, 1)
	assert.GreaterOrEqual(t, n, 1)
	assert.LessOrEqual(t, n, 10)
}

func TestRegistry_RandomStringLengthCapped(t *testing.T) {
	r := NewRegistry()

	got, ok := r.Call("random.string(999999999999999)")
	require.True(t, ok)
	assert.Len(t, got, MaxStringLength)
	assert.Regexp(t, alnum, got)
}

func TestRegistry_RandomNumberExtremeBounds(t *testing.T) {
	r := NewRegistry()

	for _, expr := range []string{
		"random.number(0,9223372036854775807)",
		"random.number(-9223372036854775808,9223372036854775807)",
		"random.number(-9223372036854775808,0)",
	} {
		got, ok := r.Call(expr)
		require.True(t, ok, expr)
		_, err := strconv.ParseInt(got, 10, 64)
		assert.NoError(t, err, expr)
	}

	got, ok := r.Call("random.number(-9223372036854775808,0)")
	require.True(t, ok)
	n, err := strconv.ParseInt(got, 10, 64)
	require.NoError(t, err)
	assert.LessOrEqual(t, n, int64(0))
}

func TestRegistry_RandomNumberOutOfRange(t *testing.T) {
	r := NewRegistry()

	_, ok := r.Call("random.number(0,99999999999999999999)")
	assert.False(t, ok)
}

func TestRandomInt_NegativeRange(t *testing.T) {
	for i := 0; i < 100; i++ {
		n := RandomInt(-5, -2)
		assert.GreaterOrEqual(t, n, -5)
		assert.LessOrEqual(t, n, -2)
	}
}
