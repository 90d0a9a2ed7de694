package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderPatch_UnmarshalPresence(t *testing.T) {
	var p OrderPatch
	err := json.Unmarshal([]byte(`{"customer_name":"Anna","customer_email":null}`), &p)
	require.NoError(t, err)

	assert.True(t, p.CustomerName.Set)
	assert.False(t, p.CustomerName.Null)
	assert.Equal(t, "Anna", p.CustomerName.Value)

	assert.True(t, p.CustomerEmail.Set)
	assert.True(t, p.CustomerEmail.Null)

	assert.False(t, p.CustomerPhone.Set)
	assert.False(t, p.CustomerNotes.Set)
	assert.False(t, p.DeliveryMethod.Set)
	assert.False(t, p.Empty())
}

func TestOrderPatch_Empty(t *testing.T) {
	var p OrderPatch
	require.NoError(t, json.Unmarshal([]byte(`{}`), &p))
	assert.True(t, p.Empty())
}

func TestField_RejectsWrongType(t *testing.T) {
	var p OrderPatch
	err := json.Unmarshal([]byte(`{"customer_name":42}`), &p)
	assert.Error(t, err)
}

func TestField_Marshal(t *testing.T) {
	out, err := json.Marshal(struct {
		A Field[string] `json:"a"`
		B Field[string] `json:"b"`
		C Field[string] `json:"c"`
	}{A: Value("x"), B: Null[string]()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"x","b":null,"c":null}`, string(out))
}
