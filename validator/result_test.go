package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResultCodes(t *testing.T) {
	expected := map[ResultCode][2]string{
		Valid:                {"Valid", "Token is valid"},
		UnspecifiedKey:       {"UnspecifiedKey", "Token does not specify key ID"},
		UnspecifiedAlgorithm: {"UnspecifiedAlgorithm", "Token does not specify algorithm"},
		UnknownKey:           {"UnknownKey", "Unable to find public key at JWK endpoint"},
		Invalid:              {"Invalid", "Token signature is invalid"},
		UnableToFetchKeys:    {"UnableToFetchKeys", "Unable to fetch keys from the endpoint"},
		UnparsableToken:      {"UnparsableToken", "Unable to parse token"},
		UnableToDecodeKeys:   {"UnableToDecodeKeys", "Unable to decode public keys"},
	}

	codes := ResultCodes()
	assert.Len(t, codes, len(expected))

	for _, code := range codes {
		want, ok := expected[code]
		if !assert.True(t, ok, "unexpected code %d", int(code)) {
			continue
		}
		assert.Equal(t, want[0], code.String())
		assert.Equal(t, want[1], Interpret(code, nil))
		assert.Equal(t, want[1], code.Interpret(nil))
	}
}

func TestInterpret(t *testing.T) {
	t.Run("it prefixes the underlying error", func(t *testing.T) {
		err := errors.New("connection refused")
		assert.Equal(t, "connection refused. Unable to fetch keys from the endpoint", Interpret(UnableToFetchKeys, err))
	})

	t.Run("it names codes outside the set", func(t *testing.T) {
		assert.Equal(t, "ResultCode(42)", ResultCode(42).String())
		assert.Equal(t, "Unknown result ResultCode(42)", Interpret(ResultCode(42), nil))
	})

	t.Run("only Valid is valid", func(t *testing.T) {
		for _, code := range ResultCodes() {
			assert.Equal(t, code == Valid, Outcome{Code: code}.Valid(), code.String())
		}
	})
}
