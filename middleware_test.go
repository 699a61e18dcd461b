package jwtmiddleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabric-testbed/system-service-utils/validator"
)

func Test_CheckJWT(t *testing.T) {
	tokens := newTestTokens(t)
	jwtValidator := newTestValidator(t, tokens)
	validToken := "Bearer " + tokens.sign(t)
	unknownKeyToken := "Bearer " + newTestTokensWithKeyID(t, "rsa-2").sign(t)

	testCases := []struct {
		name           string
		validateToken  ValidateToken
		options        []Option
		method         string
		path           string
		token          string
		wantClaims     any
		wantStatusCode int
		wantBody       string
	}{
		{
			name:           "it can successfully validate a token",
			token:          validToken,
			method:         http.MethodGet,
			wantClaims:     tokens.expectedClaims(),
			wantStatusCode: http.StatusOK,
			wantBody:       `{"message":"Authenticated."}`,
		},
		{
			name:           "it can validate on options",
			method:         http.MethodOptions,
			token:          validToken,
			wantClaims:     tokens.expectedClaims(),
			wantStatusCode: http.StatusOK,
			wantBody:       `{"message":"Authenticated."}`,
		},
		{
			name:           "it fails to validate a token with a bad format",
			token:          "bad",
			method:         http.MethodGet,
			wantStatusCode: http.StatusInternalServerError,
			wantBody:       `{"message":"Something went wrong while checking the JWT."}`,
		},
		{
			name:           "it fails to validate if token is missing and credentials are not optional",
			method:         http.MethodGet,
			wantStatusCode: http.StatusBadRequest,
			wantBody:       `{"message":"JWT is missing."}`,
		},
		{
			name:           "it fails to validate a token signed with an unknown key",
			token:          unknownKeyToken,
			method:         http.MethodGet,
			wantStatusCode: http.StatusUnauthorized,
			wantBody:       `{"message":"JWT is invalid.","code":"UnknownKey"}`,
		},
		{
			name:           "it fails to validate an unparsable token",
			token:          "Bearer not-a-jwt",
			method:         http.MethodGet,
			wantStatusCode: http.StatusUnauthorized,
			wantBody:       `{"message":"JWT is invalid.","code":"UnparsableToken"}`,
		},
		{
			name:           "it reports unavailable signing keys",
			validateToken:  newUnavailableValidator(t).ValidateToken,
			token:          validToken,
			method:         http.MethodGet,
			wantStatusCode: http.StatusServiceUnavailable,
			wantBody:       `{"message":"Signing keys are unavailable.","code":"UnableToFetchKeys"}`,
		},
		{
			name:           "it skips validation on OPTIONS if validateOnOptions is set to false",
			options:        []Option{WithValidateOnOptions(false)},
			method:         http.MethodOptions,
			token:          "Bearer not-a-jwt",
			wantStatusCode: http.StatusOK,
			wantBody:       `{"message":"Authenticated."}`,
		},
		{
			name: "it fails validation if there are errors with the token extractor",
			options: []Option{
				WithTokenExtractor(func(*http.Request) (string, error) {
					return "", errors.New("token extractor error")
				}),
			},
			method:         http.MethodGet,
			wantStatusCode: http.StatusInternalServerError,
			wantBody:       `{"message":"Something went wrong while checking the JWT."}`,
		},
		{
			name:           "credentialsOptional true",
			options:        []Option{WithCredentialsOptional(true)},
			method:         http.MethodGet,
			wantStatusCode: http.StatusOK,
			wantBody:       `{"message":"Authenticated."}`,
		},
		{
			name:           "credentialsOptional does not skip a present token",
			options:        []Option{WithCredentialsOptional(true)},
			token:          unknownKeyToken,
			method:         http.MethodGet,
			wantStatusCode: http.StatusUnauthorized,
			wantBody:       `{"message":"JWT is invalid.","code":"UnknownKey"}`,
		},
		{
			name:           "it skips excluded paths",
			options:        []Option{WithExclusionUrls([]string{"/health"})},
			method:         http.MethodGet,
			path:           "/health",
			wantStatusCode: http.StatusOK,
			wantBody:       `{"message":"Authenticated."}`,
		},
		{
			name:           "it validates paths that are not excluded",
			options:        []Option{WithExclusionUrls([]string{"/health"})},
			method:         http.MethodGet,
			path:           "/secure",
			wantStatusCode: http.StatusBadRequest,
			wantBody:       `{"message":"JWT is missing."}`,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			validateToken := testCase.validateToken
			if validateToken == nil {
				validateToken = jwtValidator.ValidateToken
			}

			middleware, err := New(append([]Option{WithValidateToken(validateToken)}, testCase.options...)...)
			require.NoError(t, err)

			var actualClaims any
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				actualClaims, _ = GetClaims[*validator.ValidatedClaims](r.Context())
				if !HasClaims(r.Context()) {
					actualClaims = nil
				}
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(map[string]string{"message": "Authenticated."})
			})

			testServer := httptest.NewServer(middleware.CheckJWT(handler))
			defer testServer.Close()

			request, err := http.NewRequest(testCase.method, testServer.URL+testCase.path, nil)
			require.NoError(t, err)
			if testCase.token != "" {
				request.Header.Add("Authorization", testCase.token)
			}

			response, err := testServer.Client().Do(request)
			require.NoError(t, err)
			defer response.Body.Close()

			body, err := io.ReadAll(response.Body)
			require.NoError(t, err)

			assert.Equal(t, testCase.wantStatusCode, response.StatusCode)
			assert.Equal(t, "application/json", response.Header.Get("Content-Type"))
			assert.JSONEq(t, testCase.wantBody, string(body))

			if testCase.wantClaims == nil {
				assert.Nil(t, actualClaims)
			} else if diff := cmp.Diff(testCase.wantClaims, actualClaims); diff != "" {
				t.Fatal(diff)
			}
		})
	}
}

func Test_New(t *testing.T) {
	tokens := newTestTokens(t)
	v := newTestValidator(t, tokens)

	t.Run("it accepts a validator", func(t *testing.T) {
		m, err := New(WithValidator(v))
		require.NoError(t, err)
		assert.True(t, m.validateOnOptions)
	})

	testCases := []struct {
		name    string
		options []Option
		wantErr error
	}{
		{name: "no validator", wantErr: ErrValidateTokenNil},
		{name: "nil validator", options: []Option{WithValidator(nil)}, wantErr: ErrValidateTokenNil},
		{name: "nil validate token", options: []Option{WithValidateToken(nil)}, wantErr: ErrValidateTokenNil},
		{name: "nil error handler", options: []Option{WithValidator(v), WithErrorHandler(nil)}, wantErr: ErrErrorHandlerNil},
		{name: "nil token extractor", options: []Option{WithValidator(v), WithTokenExtractor(nil)}, wantErr: ErrTokenExtractorNil},
		{name: "empty exclusions", options: []Option{WithValidator(v), WithExclusionUrls(nil)}, wantErr: ErrExclusionUrlsEmpty},
		{name: "nil logger", options: []Option{WithValidator(v), WithLogger(nil)}, wantErr: ErrLoggerNil},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := New(testCase.options...)
			assert.ErrorIs(t, err, testCase.wantErr)
		})
	}
}

func Test_MustGetClaims(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Panics(t, func() {
		MustGetClaims[*validator.ValidatedClaims](r.Context())
	})
}
