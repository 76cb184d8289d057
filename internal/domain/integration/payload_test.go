package integration

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, s string) RawPayload {
	t.Helper()
	var p RawPayload
	require.NoError(t, json.Unmarshal([]byte(s), &p))
	return p
}

func TestRawPayload_CaseInsensitive(t *testing.T) {
	p := decode(t, `{"number":"P-1","NAME":" Tower ","Qty":3,"Flag":true,"Obj":{"a":1},"Items":[{"x":1},2]}`)

	assert.Equal(t, "P-1", p.String("Number"))
	assert.Equal(t, "Tower", p.String("name"))
	assert.Equal(t, "3", p.String("qty"))
	assert.Equal(t, "true", p.String("flag"))
	assert.Equal(t, "", p.String("obj"))
	assert.Equal(t, "", p.String("missing"))
	assert.NotNil(t, p.Object("OBJ"))
	assert.Len(t, p.List("items"), 1)
	assert.Nil(t, p.List("number"))
}

func TestRawPayload_FirstKeyWins(t *testing.T) {
	p := decode(t, `{"ProjectNumber":"B","Number":null}`)
	assert.Equal(t, "B", p.String("Number", "ProjectNumber"))
}

func TestAddressFromPayload(t *testing.T) {
	t.Run("object", func(t *testing.T) {
		p := decode(t, `{"Address":{"Address1":"1 Main","City":"Austin","Zip":"78701"}}`)
		assert.Equal(t, "1 Main, Austin, 78701", AddressFromPayload(p).Flatten())
	})
	t.Run("string", func(t *testing.T) {
		p := decode(t, `{"Address":"1 Main St"}`)
		assert.Equal(t, "1 Main St", AddressFromPayload(p).Flatten())
	})
	t.Run("missing", func(t *testing.T) {
		assert.True(t, AddressFromPayload(RawPayload{}).IsZero())
	})
}

func TestRemoteProjectFromPayload(t *testing.T) {
	p := decode(t, `{"Id":1234,"Number":"P-100","Name":"Tower","Status":"Active","Address":{"Address1":"1 Main"}}`)

	rp := RemoteProjectFromPayload(p)
	assert.Equal(t, "1234", rp.ID)
	assert.Equal(t, "P-100", rp.Number)
	assert.Equal(t, "1 Main", rp.SummaryDescription())
	assert.True(t, IsActive(rp.Status))
}
