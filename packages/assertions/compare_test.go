package assertions

import (
	"testing"

	"github.com/abdul-hamid-achik/apiflow/packages/value"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestDeepCompare(t *testing.T) {
	tests := []struct {
		name     string
		actual   value.Value
		expected value.Value
		passed   bool
		path     []string
		message  string
	}{
		{
			name:     "extra actual keys are ignored",
			actual:   value.Object("a", 1, "b", 2),
			expected: value.Object("a", 1),
			passed:   true,
			path:     []string{},
			message:  "Object match",
		},
		{
			name:     "missing actual key fails at that key",
			actual:   value.Object("a", 1),
			expected: value.Object("a", 1, "b", 2),
			path:     []string{"b"},
			message:  "Value mismatch at b",
		},
		{
			name:     "array stops at first mismatch",
			actual:   value.Array(1, 2, 3),
			expected: value.Array(1, 9, 8),
			path:     []string{"1"},
			message:  "Value mismatch at 1",
		},
		{
			name:     "array length mismatch",
			actual:   value.Array(1, 2),
			expected: value.Array(1, 2, 3),
			path:     []string{},
			message:  "Array length mismatch at ",
		},
		{
			name:     "array expected but object given",
			actual:   value.Object("0", 1),
			expected: value.Array(1),
			path:     []string{},
			message:  "Array length mismatch at ",
		},
		{
			name:     "regex match",
			actual:   value.NewString("abc123"),
			expected: value.NewString("/^[a-z]+[0-9]+$/"),
			passed:   true,
			path:     []string{},
			message:  "Regex match",
		},
		{
			name:     "regex mismatch",
			actual:   value.NewString("ABC"),
			expected: value.NewString("/^[a-z]+$/"),
			path:     []string{},
			message:  "Value at  does not match regex",
		},
		{
			name:     "regex with i flag",
			actual:   value.NewString("ABC"),
			expected: value.NewString("/^[a-z]+$/i"),
			passed:   true,
			path:     []string{},
			message:  "Regex match",
		},
		{
			name:     "regex against number fails",
			actual:   value.NewNumber(123),
			expected: value.NewString("/^\\d+$/"),
			path:     []string{},
			message:  "Value at  does not match regex",
		},
		{
			name:     "object expected but string given",
			actual:   value.NewString("x"),
			expected: value.Object("a", 1),
			path:     []string{},
			message:  "Expected object at ",
		},
		{
			name:     "object expected but null given",
			actual:   value.Null,
			expected: value.Object("a", 1),
			path:     []string{},
			message:  "Expected object at ",
		},
		{
			name:     "strict equality between kinds",
			actual:   value.NewString("1"),
			expected: value.NewNumber(1),
			path:     []string{},
			message:  "Value mismatch at ",
		},
		{
			name:     "null equals null",
			actual:   value.Null,
			expected: value.Null,
			passed:   true,
			path:     []string{},
			message:  "Value match",
		},
		{
			name:     "nested path",
			actual:   value.Object("data", value.Object("items", value.Array(value.Object("id", 1), value.Object("id", 2)))),
			expected: value.Object("data", value.Object("items", value.Array(value.Object("id", 1), value.Object("id", 3)))),
			path:     []string{"data", "items", "1", "id"},
			message:  "Value mismatch at data.items.1.id",
		},
		{
			name:     "key order decides the first failure",
			actual:   value.Object("a", 0, "b", 0),
			expected: value.Object("b", 1, "a", 1),
			path:     []string{"b"},
			message:  "Value mismatch at b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := DeepCompare(tt.actual, tt.expected, nil)
			assert.Equal(t, tt.passed, res.Passed)
			assert.Equal(t, tt.path, res.Path)
			assert.Equal(t, tt.message, res.Message)
		})
	}
}

func TestDeepCompare_FailureCarriesValues(t *testing.T) {
	res := DeepCompare(value.Array(1, 2, 3), value.Array(1, 9, 3), []string{"body"})

	assert.False(t, res.Passed)
	assert.Equal(t, []string{"body", "1"}, res.Path)
	assert.Equal(t, value.NewNumber(9), res.Expected)
	assert.Equal(t, value.NewNumber(2), res.Actual)
}

func TestDeepCompare_DoesNotMutatePath(t *testing.T) {
	base := make([]string, 1, 4)
	base[0] = "body"

	DeepCompare(value.Object("a", 1, "b", 2), value.Object("a", 1, "b", 3), base)
	assert.Equal(t, []string{"body"}, base)
}

func TestDeepCompare_UndefinedPositionsPass(t *testing.T) {
	actual := value.NewSequence(value.Undefined, value.NewNumber(2))
	expected := value.NewSequence(value.Undefined, value.NewNumber(2))

	assert.True(t, DeepCompare(actual, expected, nil).Passed)
}

func genValue(depth int) *rapid.Generator[value.Value] {
	scalars := []*rapid.Generator[value.Value]{
		rapid.Just(value.Null),
		rapid.Map(rapid.Bool(), value.NewBool),
		rapid.Map(rapid.IntRange(-1000, 1000), value.NewInt),
		rapid.Map(rapid.StringMatching(`[a-z0-9 ]{0,8}`), value.NewString),
	}
	if depth == 0 {
		return rapid.OneOf(scalars...)
	}

	seq := rapid.Custom(func(t *rapid.T) value.Value {
		return value.NewSequence(rapid.SliceOfN(genValue(depth-1), 0, 4).Draw(t, "items")...)
	})
	obj := rapid.Custom(func(t *rapid.T) value.Value {
		keys := rapid.SliceOfNDistinct(rapid.StringMatching(`[a-z]{1,4}`), 0, 4, rapid.ID[string]).Draw(t, "keys")
		m := value.NewMap()
		for _, k := range keys {
			m.Set(k, genValue(depth-1).Draw(t, k))
		}
		return value.NewMapping(m)
	})
	return rapid.OneOf(append(scalars, seq, obj)...)
}

func TestDeepCompare_Reflexive(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v := genValue(3).Draw(t, "v")
		if res := DeepCompare(v, v, nil); !res.Passed {
			t.Fatalf("DeepCompare(%s, %s) failed at %v: %s", v, v, res.Path, res.Message)
		}
	})
}

func TestDeepCompare_ExtraKeysIgnored(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		expected := genValue(0).Draw(t, "expected")
		extra := genValue(2).Draw(t, "extra")

		actual := value.Object("want", expected, "zzextra", extra)
		if res := DeepCompare(actual, value.Object("want", expected), nil); !res.Passed {
			t.Fatalf("extra key caused failure: %s", res.Message)
		}
	})
}
