package assertions

import (
	"testing"

	"github.com/abdul-hamid-achik/apiflow/packages/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssertJSONPath(t *testing.T) {
	body := value.Object(
		"user", value.Object("name", "Ada", "age", 36),
		"items", value.Array(value.Object("id", 1), value.Object("id", 2)),
		"tags", value.Array("a", "b"),
	)

	paths := value.MapOf(
		"$.user.name", "Ada",
		"$.user.age", 36,
		"$.items[1].id", 2,
		"$.items[*].id", 1,
		"$.tags", value.Array("a", "b"),
		"$.missing", "x",
		"$[", "x",
	)

	results := AssertJSONPath(body, paths)
	require.Len(t, results, paths.Len())

	byPath := make(map[string]*Result)
	for _, r := range results {
		byPath[r.Path[0]] = r
	}

	assert.True(t, byPath["$.user.name"].Passed)
	assert.Equal(t, "JSONPath $.user.name matched", byPath["$.user.name"].Message)
	assert.True(t, byPath["$.user.age"].Passed)
	assert.True(t, byPath["$.items[1].id"].Passed)
	assert.True(t, byPath["$.items[*].id"].Passed, "first match is used")
	assert.True(t, byPath["$.tags"].Passed)

	missing := byPath["$.missing"]
	assert.False(t, missing.Passed)
	assert.Equal(t, "JSONPath $.missing not found in response", missing.Message)
	assert.True(t, missing.Actual.IsUndefined())

	invalid := byPath["$["]
	assert.False(t, invalid.Passed)
	assert.Equal(t, "Invalid JSONPath: $[", invalid.Message)
}

func TestAssertJSONPath_Mismatch(t *testing.T) {
	body := value.Object("count", 3, "label", "3")

	results := AssertJSONPath(body, value.MapOf("$.count", 4, "$.label", 3))
	require.Len(t, results, 2)

	assert.False(t, results[0].Passed)
	assert.Equal(t, "JSONPath $.count expected 4 but got 3", results[0].Message)
	assert.Equal(t, value.NewNumber(4), results[0].Expected)
	assert.Equal(t, value.NewNumber(3), results[0].Actual)

	// the string "3" is not the number 3
	assert.False(t, results[1].Passed)
}

func TestAssertJSONPath_KeepsDeclaredOrder(t *testing.T) {
	body := value.Object("a", 1, "b", 2)

	results := AssertJSONPath(body, value.MapOf("$.b", 2, "$.a", 1))
	require.Len(t, results, 2)
	assert.Equal(t, []string{"$.b"}, results[0].Path)
	assert.Equal(t, []string{"$.a"}, results[1].Path)
}

func TestAssertJSONPath_Empty(t *testing.T) {
	assert.Empty(t, AssertJSONPath(value.Object(), nil))
}

func TestAssertJSONPath_WildcardFollowsKeyOrder(t *testing.T) {
	body := value.Object("a", 1, "b", 2, "c", 3, "d", 4, "e", 5, "f", 6, "g", 7, "h", 8)
	nested := value.Object(
		"first", value.Object("id", "x"),
		"second", value.Object("id", "y"),
		"third", value.Object("id", "z"),
	)

	for i := 0; i < 50; i++ {
		results := AssertJSONPath(body, value.MapOf("$.*", 1))
		require.Len(t, results, 1)
		require.True(t, results[0].Passed, results[0].Message)

		results = AssertJSONPath(nested, value.MapOf("$.*.id", "x"))
		require.Len(t, results, 1)
		require.True(t, results[0].Passed, results[0].Message)
	}
}

func TestAssertJSONPath_ObjectMatchKeepsOrder(t *testing.T) {
	body := value.Object("user", value.Object("name", "Ada", "age", 36, "tags", value.Array("x")))

	results := AssertJSONPath(body, value.MapOf("$.user", value.Object("age", 36, "tags", value.Array("x"), "name", "Ada")))
	require.Len(t, results, 1)
	require.True(t, results[0].Passed, results[0].Message)
	assert.Equal(t, []string{"name", "age", "tags"}, results[0].Actual.Map().Keys())
}
