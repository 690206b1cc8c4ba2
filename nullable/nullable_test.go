package nullable

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	Logo  String  `json:"logo"`
	Price Float64 `json:"price"`
}

func TestNullInsideStruct(t *testing.T) {
	b, err := json.Marshal(row{Logo: StringOf("/uploads/logo.png")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"logo":"/uploads/logo.png","price":null}`, string(b))

	var back row
	require.NoError(t, json.Unmarshal([]byte(`{"logo":null,"price":12.5}`), &back))
	assert.True(t, back.Logo.IsNil())
	require.NotNil(t, back.Price.Ptr())
	assert.Equal(t, 12.5, *back.Price.Ptr())
}

func TestStringOrNil(t *testing.T) {
	assert.True(t, StringOrNil("").IsNil())
	assert.Equal(t, "x", StringOrNil("x").ForceValue())
}
