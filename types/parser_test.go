package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseTypeNameSimple(t *testing.T) {
	td, err := ParseTypeName("String")
	require.NoError(t, err)
	require.Equal(t, "String", td.Name)
	require.Empty(t, td.Wrappers)
	require.Equal(t, "String", td.CanonicalName())
}

func TestParseTypeNameWrappers(t *testing.T) {
	td, err := ParseTypeName("LowCardinality(Nullable(String))")
	require.NoError(t, err)
	require.Equal(t, "String", td.Name)
	require.Equal(t, []WrapperKind{WrapperLowCardinality, WrapperNullable}, td.Wrappers)
	require.True(t, td.HasWrapper(WrapperNullable))
	require.True(t, td.HasWrapper(WrapperLowCardinality))
	require.Equal(t, "LowCardinality(Nullable(String))", td.CanonicalName())
}

func TestParseTypeNameNestedContainer(t *testing.T) {
	td, err := ParseTypeName("Array(Nullable(Int32))")
	require.NoError(t, err)
	require.Equal(t, "Array", td.Name)
	require.Len(t, td.Values, 1)
	require.Equal(t, ValueTypeExpr, td.Values[0].Kind)
	require.Equal(t, "Int32", td.Values[0].Type.Name)
	require.True(t, td.Values[0].Type.HasWrapper(WrapperNullable))
	require.Equal(t, "Array(Nullable(Int32))", td.CanonicalName())
}

func TestParseTypeNameNamedTuple(t *testing.T) {
	td, err := ParseTypeName("Tuple(a UInt8, b String)")
	require.NoError(t, err)
	require.Equal(t, "Tuple", td.Name)
	require.Empty(t, td.Values)
	require.Len(t, td.Keys, 2)
	require.Equal(t, "a", td.Keys[0].Key)
	require.Equal(t, "UInt8", td.Keys[0].Value.Type.Name)
	require.Equal(t, "b", td.Keys[1].Key)
	require.Equal(t, "String", td.Keys[1].Value.Type.Name)
}

func TestParseTypeNamePositionalTuple(t *testing.T) {
	td, err := ParseTypeName("Tuple(UInt8, String)")
	require.NoError(t, err)
	require.Len(t, td.Values, 2)
	require.Empty(t, td.Keys)
}

func TestParseTypeNameMap(t *testing.T) {
	td, err := ParseTypeName("Map(String, UInt32)")
	require.NoError(t, err)
	require.Equal(t, "Map", td.Name)
	require.Len(t, td.Values, 2)
	require.Equal(t, "String", td.Values[0].Type.Name)
	require.Equal(t, "UInt32", td.Values[1].Type.Name)
}

func TestParseTypeNameDecimal(t *testing.T) {
	td, err := ParseTypeName("Decimal(18, 4)")
	require.NoError(t, err)
	require.Equal(t, "Decimal", td.Name)
	require.Equal(t, []Value{{Kind: ValueInt, Int: 18}, {Kind: ValueInt, Int: 4}}, td.Values)
}

func TestParseTypeNameDateTime64WithZone(t *testing.T) {
	td, err := ParseTypeName("DateTime64(3, 'UTC')")
	require.NoError(t, err)
	require.Equal(t, "DateTime64", td.Name)
	require.Equal(t, int64(3), td.Values[0].Int)
	require.Equal(t, "UTC", td.Values[1].Str)
	require.Equal(t, "DateTime64(3, 'UTC')", td.CanonicalName())
}

func TestParseTypeNameEnum(t *testing.T) {
	td, err := ParseTypeName("Enum8('a' = 1, 'b' = 2)")
	require.NoError(t, err)
	require.Equal(t, "Enum8", td.Name)
	require.Len(t, td.Keys, 2)
	require.Equal(t, "a", td.Keys[0].Key)
	require.Equal(t, int64(1), td.Keys[0].Value.Int)
	require.Equal(t, "b", td.Keys[1].Key)
	require.Equal(t, int64(2), td.Keys[1].Value.Int)
}

func TestParseTypeNameEnumEscapedQuote(t *testing.T) {
	td, err := ParseTypeName(`Enum8('a\'b' = 1)`)
	require.NoError(t, err)
	require.Equal(t, `a'b`, td.Keys[0].Key)
}

func TestParseTypeNameJSONBare(t *testing.T) {
	td, err := ParseTypeName("JSON")
	require.NoError(t, err)
	require.Equal(t, "JSON", td.Name)
	require.NotNil(t, td.JSON)
	require.Equal(t, -1, td.JSON.MaxDynamicPaths)
}

func TestParseTypeNameJSONFull(t *testing.T) {
	td, err := ParseTypeName("JSON(max_dynamic_paths=10, max_dynamic_types=5, SKIP a.b, SKIP REGEXP '^x', a.b.c Int32)")
	require.NoError(t, err)
	require.Equal(t, 10, td.JSON.MaxDynamicPaths)
	require.Equal(t, 5, td.JSON.MaxDynamicTypes)
	require.Len(t, td.JSON.Skips, 2)
	require.False(t, td.JSON.Skips[0].Regexp)
	require.Equal(t, "a.b", td.JSON.Skips[0].Pattern)
	require.True(t, td.JSON.Skips[1].Regexp)
	require.Equal(t, "^x", td.JSON.Skips[1].Pattern)
	require.Len(t, td.JSON.TypedPaths, 1)
	require.Equal(t, "a.b.c", td.JSON.TypedPaths[0].Path)
	require.Equal(t, "Int32", td.JSON.TypedPaths[0].Type.Name)
}

func TestParseTypeNameTrailingGarbage(t *testing.T) {
	_, err := ParseTypeName("String garbage")
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
}

func TestParseTypeNameUnterminatedParen(t *testing.T) {
	_, err := ParseTypeName("Array(String")
	require.Error(t, err)
}
