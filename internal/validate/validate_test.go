package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCEP(t *testing.T) {
	got, ok := CEP(" 01310-100 ")
	assert.True(t, ok)
	assert.Equal(t, "01310100", got)

	got, ok = CEP("01310100")
	assert.True(t, ok)
	assert.Equal(t, "01310100", got)

	for _, bad := range []string{"", "1310-100", "01310-1000", "abcde-fgh", "01310_100"} {
		_, ok := CEP(bad)
		assert.False(t, ok, bad)
	}
}

func TestQAndQty(t *testing.T) {
	q, ok := Q("  tênis casual ")
	assert.True(t, ok)
	assert.Equal(t, "tênis casual", q)

	_, ok = Q("<script>")
	assert.False(t, ok)
	_, ok = Q("   ")
	assert.False(t, ok)

	assert.Equal(t, 1, Qty("abc"))
	assert.Equal(t, 1, Qty("-2"))
	assert.Equal(t, 7, Qty(" 7 "))
	assert.Equal(t, 50, Qty("9999"))
}

func TestIDPhoneName(t *testing.T) {
	_, ok := ID("fone-bt-01")
	assert.True(t, ok)
	_, ok = ID("../etc/passwd")
	assert.False(t, ok)

	_, ok = Phone("(11) 98888-7777")
	assert.True(t, ok)
	_, ok = Phone("call me")
	assert.False(t, ok)

	_, ok = Name("")
	assert.False(t, ok)
	n, ok := Name(" Ana ")
	assert.True(t, ok)
	assert.Equal(t, "Ana", n)
}

func TestPassword(t *testing.T) {
	assert.True(t, Password("Passw0rd!"))
	assert.False(t, Password("password"), "no upper, digit or symbol")
	assert.False(t, Password("Sh0rt!"))
	assert.False(t, Password("NoSymbol123"))
}

type sample struct {
	Name  string `json:"name" validate:"required"`
	Zip   string `json:"zip_code" validate:"omitempty,cep"`
	Phone string `json:"phone" validate:"omitempty,phone"`
	Slug  string `json:"category_id" validate:"omitempty,slug"`
}

func TestStruct_ReportsJSONFieldName(t *testing.T) {
	require.NoError(t, Struct(sample{Name: "x", Zip: "01310-100", Phone: "+55 11 3333-4444", Slug: "casa"}))

	err := Struct(sample{Name: "x", Zip: "123"})
	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "zip_code", fe.Field)
	assert.Equal(t, "cep", fe.Tag)

	err = Struct(sample{})
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "name", fe.Field)
	assert.Equal(t, "required", fe.Tag)

	err = Struct(sample{Name: "x", Slug: "a b"})
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "category_id", fe.Field)
}
