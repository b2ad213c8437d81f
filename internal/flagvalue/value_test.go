package flagvalue

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferNativeTypes(t *testing.T) {
	assert.Equal(t, Boolean(true), Infer(true))
	assert.Equal(t, Boolean(false), Infer(false))
	assert.Equal(t, Integer(21), Infer(21))
	assert.Equal(t, Integer(-3), Infer(int64(-3)))
	assert.Equal(t, String("pro"), Infer("pro"))
	assert.Equal(t, Null(), Infer(nil))
}

func TestInferNumericStringStaysString(t *testing.T) {
	// Legacy behavior: a numeric string is never coerced to an integer.
	assert.Equal(t, String("42"), Infer("42"))
	assert.Equal(t, String("true"), Infer("true"))
}

func TestInferJSONNumbers(t *testing.T) {
	// JSON numbers decode to float64; integral ones keep the integer tag.
	assert.Equal(t, Integer(7), Infer(float64(7)))
	assert.Equal(t, String("7.5"), Infer(7.5))
	assert.Equal(t, Integer(12), Infer(json.Number("12")))
	assert.Equal(t, String("12.25"), Infer(json.Number("12.25")))
}

func TestParseAs(t *testing.T) {
	v, err := ParseAs(TypeInteger, "10")
	require.NoError(t, err)
	assert.Equal(t, Integer(10), v)

	v, err = ParseAs(TypeBoolean, "true")
	require.NoError(t, err)
	assert.Equal(t, Boolean(true), v)

	_, err = ParseAs(TypeInteger, "ten")
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = ParseAs(TypeBoolean, "yes please")
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestEqual(t *testing.T) {
	assert.True(t, Integer(5).Equal(Integer(5)))
	assert.False(t, Integer(5).Equal(Integer(6)))
	assert.True(t, String("a").Equal(String("a")))
	assert.True(t, Boolean(false).Equal(Boolean(false)))
	assert.True(t, Null().Equal(Null()))

	// Cross-tag equality is false, never an error.
	assert.False(t, Integer(1).Equal(String("1")))
	assert.False(t, Boolean(true).Equal(String("true")))
}

func TestCompareRequiresIntegers(t *testing.T) {
	cmp, err := Integer(3).Compare(Integer(5))
	require.NoError(t, err)
	assert.Equal(t, -1, cmp)

	cmp, err = Integer(5).Compare(Integer(5))
	require.NoError(t, err)
	assert.Equal(t, 0, cmp)

	_, err = String("b").Compare(String("a"))
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = Integer(1).Compare(String("2"))
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestInterfaceRoundTrip(t *testing.T) {
	assert.Equal(t, int64(9), Integer(9).Interface())
	assert.Equal(t, "x", String("x").Interface())
	assert.Equal(t, true, Boolean(true).Interface())
	assert.Nil(t, Null().Interface())
}
