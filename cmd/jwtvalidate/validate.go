package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fabric-testbed/system-service-utils/validator"
)

// errTokenNotValid makes the command exit with status 1 without printing
// an error; the outcome has already been written.
var errTokenNotValid = errors.New("token is not valid")

func newValidateCmd(configPath *string) *cobra.Command {
	var (
		token      string
		showClaims bool
	)

	cmd := &cobra.Command{
		Use:   "validate [token]",
		Short: "Validate a token and print the result code",
		Long: `Validate a token read from --token, the first argument or stdin.

The result code and its message are printed to stdout. The exit status
is 0 only when the token is valid.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" && len(args) == 1 {
				token = args[0]
			}
			if token == "" {
				raw, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read token from stdin: %w", err)
				}
				token = strings.TrimSpace(string(raw))
			}
			if token == "" {
				return errors.New("no token given")
			}

			v, logger, err := setup(cmd, *configPath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			claims, err := v.ValidateToken(cmd.Context(), token)
			if err != nil {
				var validationErr *validator.ValidationError
				if !errors.As(err, &validationErr) {
					return err
				}
				logger.Debugf("validation failed: %v", err)
				fmt.Fprintln(out, validationErr.Outcome())
				return errTokenNotValid
			}

			fmt.Fprintln(out, validator.Outcome{Code: validator.Valid})
			if showClaims {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(claims)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&token, "token", "t", "", "token to validate")
	cmd.Flags().BoolVar(&showClaims, "claims", false, "print the claims of a valid token as JSON")

	return cmd
}
