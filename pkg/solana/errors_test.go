package solana

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ybbus/jsonrpc"
)

func TestParse(t *testing.T) {
	d := json.NewDecoder(bytes.NewBufferString(`{"InstructionError":[2,{"Custom":3}]}`))

	var raw interface{}
	assert.NoError(t, d.Decode(&raw))

	e, err := ParseTransactionError(raw)
	assert.NoError(t, err)

	assert.Equal(t, TransactionErrorInstructionError, e.ErrorKey())
	assert.NotNil(t, e.InstructionError())
	assert.Equal(t, 2, e.InstructionError().Index)
	assert.Equal(t, InstructionErrorCustom, e.InstructionError().ErrorKey())
	assert.NotNil(t, e.InstructionError().CustomError())
	assert.Equal(t, CustomError(3), *e.InstructionError().CustomError())

	d = json.NewDecoder(bytes.NewBufferString(`{"InstructionError":[0,"InvalidArgument"]}`))
	assert.NoError(t, d.Decode(&raw))

	e, err = ParseTransactionError(raw)
	assert.NoError(t, err)

	assert.Equal(t, TransactionErrorInstructionError, e.ErrorKey())
	assert.NotNil(t, e.InstructionError())
	assert.Equal(t, 0, e.InstructionError().Index)
	assert.Equal(t, InstructionErrorInvalidArgument, e.InstructionError().ErrorKey())

	d = json.NewDecoder(bytes.NewBufferString(`"BlockhashNotFound"`))
	assert.NoError(t, d.Decode(&raw))

	e, err = ParseTransactionError(raw)
	assert.NoError(t, err)

	assert.Equal(t, TransactionErrorBlockhashNotFound, e.ErrorKey())
	assert.Nil(t, e.InstructionError())
}

func TestNew(t *testing.T) {
	d := json.NewDecoder(bytes.NewBufferString(`"BlockhashNotFound"`))
	var expected interface{}
	assert.NoError(t, d.Decode(&expected))

	e := NewTransactionError(TransactionErrorBlockhashNotFound)
	assert.Equal(t, expected, e.raw)
}

func TestParseJSONNumber(t *testing.T) {
	tc := []interface{}{
		"1",
		1.0,
		json.Number("1"),
	}
	for i, c := range tc {
		v, err := parseJSONNumber(c)
		assert.NoError(t, err)
		assert.Equal(t, 1, v, i)
	}
}

func TestParseRPCError_Preflight(t *testing.T) {
	var data interface{}
	d := json.NewDecoder(bytes.NewBufferString(`{"err":{"InstructionError":[0,{"Custom":1}]},"logs":["Program log: stake period not elapsed"]}`))
	d.UseNumber()
	require.NoError(t, d.Decode(&data))

	e, err := ParseRPCError(&jsonrpc.RPCError{Code: -32002, Message: "preflight failure", Data: data})
	require.NoError(t, err)
	require.NotNil(t, e)

	assert.Equal(t, TransactionErrorInstructionError, e.ErrorKey())
	assert.Equal(t, CustomError(1), *e.InstructionError().CustomError())
	assert.Equal(t, []string{"Program log: stake period not elapsed"}, e.Logs())
	assert.Equal(t, "Error processing Instruction 0: custom program error: 0x1", e.Error())
}

func TestParseRPCError_NoTransactionError(t *testing.T) {
	e, err := ParseRPCError(nil)
	assert.NoError(t, err)
	assert.Nil(t, e)

	e, err = ParseRPCError(&jsonrpc.RPCError{Code: -32005, Message: "node is behind", Data: map[string]interface{}{}})
	assert.NoError(t, err)
	assert.Nil(t, e)

	_, err = ParseRPCError(&jsonrpc.RPCError{Code: -32600, Message: "invalid request"})
	assert.Error(t, err)
}
