package validator

import (
	"fmt"
)

// ResultCode is the outcome of validating a token. The set is closed:
// callers should branch exhaustively and treat anything other than Valid
// as "do not grant access".
type ResultCode int

// Result codes. The numeric values are not part of the contract; use
// String for a stable identifier.
const (
	Valid ResultCode = iota + 1
	UnspecifiedKey
	UnspecifiedAlgorithm
	UnknownKey
	Invalid
	UnableToFetchKeys
	UnparsableToken
	UnableToDecodeKeys
)

var resultCodeNames = map[ResultCode]string{
	Valid:                "Valid",
	UnspecifiedKey:       "UnspecifiedKey",
	UnspecifiedAlgorithm: "UnspecifiedAlgorithm",
	UnknownKey:           "UnknownKey",
	Invalid:              "Invalid",
	UnableToFetchKeys:    "UnableToFetchKeys",
	UnparsableToken:      "UnparsableToken",
	UnableToDecodeKeys:   "UnableToDecodeKeys",
}

var interpretations = map[ResultCode]string{
	Valid:                "Token is valid",
	UnspecifiedKey:       "Token does not specify key ID",
	UnspecifiedAlgorithm: "Token does not specify algorithm",
	UnknownKey:           "Unable to find public key at JWK endpoint",
	Invalid:              "Token signature is invalid",
	UnableToFetchKeys:    "Unable to fetch keys from the endpoint",
	UnparsableToken:      "Unable to parse token",
	UnableToDecodeKeys:   "Unable to decode public keys",
}

// ResultCodes lists every result code.
func ResultCodes() []ResultCode {
	return []ResultCode{
		Valid,
		UnspecifiedKey,
		UnspecifiedAlgorithm,
		UnknownKey,
		Invalid,
		UnableToFetchKeys,
		UnparsableToken,
		UnableToDecodeKeys,
	}
}

// String returns the stable identifier of the code, e.g. "UnknownKey".
func (c ResultCode) String() string {
	if name, ok := resultCodeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ResultCode(%d)", int(c))
}

// Interpret returns the human-readable message for code. When err is not
// nil the message is prefixed with the error text and ". ".
func Interpret(code ResultCode, err error) string {
	message, ok := interpretations[code]
	if !ok {
		message = "Unknown result " + code.String()
	}
	if err == nil {
		return message
	}
	return err.Error() + ". " + message
}

// Interpret is shorthand for Interpret(c, err).
func (c ResultCode) Interpret(err error) string {
	return Interpret(c, err)
}

// Outcome is the result of a single Validate call. Err is only set for
// codes caused by a lower-layer failure (fetch, decode, parse or
// verification errors).
type Outcome struct {
	Code ResultCode
	Err  error
}

// Valid reports whether the token may be trusted.
func (o Outcome) Valid() bool {
	return o.Code == Valid
}

// Message returns the caller-facing interpretation of the outcome.
func (o Outcome) Message() string {
	return Interpret(o.Code, o.Err)
}

func (o Outcome) String() string {
	return o.Code.String() + ": " + o.Message()
}
