package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tacc.org/internal/auth"
	"tacc.org/internal/config"
)

type tokenOptions struct {
	user   string
	roles  []string
	ttl    time.Duration
	secret string
}

type tokenOutput struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	Roles     []string  `json:"roles"`
	ExpiresAt time.Time `json:"expires_at"`
}

func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &tokenOptions{}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API bearer token",
		Long: `Sign a bearer token for the tacc API.

The secret comes from --secret or TACC_AUTH_SECRET (environment or .env).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToken(rootOpts, opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&opts.user, "user", "", "subject of the token (required)")
	cmd.Flags().StringSliceVar(&opts.roles, "role", []string{auth.RoleReader}, "roles: reader, writer, admin")
	cmd.Flags().DurationVar(&opts.ttl, "ttl", time.Hour, "token lifetime")
	cmd.Flags().StringVar(&opts.secret, "secret", "", "signing secret (overrides TACC_AUTH_SECRET)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func runToken(rootOpts *RootOptions, opts *tokenOptions, w io.Writer) error {
	secret := opts.secret
	if secret == "" {
		cfg, err := config.Load(rootOpts.EnvFile)
		if err != nil {
			return err
		}
		secret = cfg.AuthSecret
	}
	if strings.TrimSpace(secret) == "" {
		return errors.New("no signing secret: set TACC_AUTH_SECRET or pass --secret")
	}
	for _, role := range opts.roles {
		switch strings.ToLower(strings.TrimSpace(role)) {
		case auth.RoleReader, auth.RoleWriter, auth.RoleAdmin:
		default:
			return fmt.Errorf("unknown role %q", role)
		}
	}

	iss, err := auth.NewIssuer(secret)
	if err != nil {
		return err
	}
	expires := time.Now().UTC().Add(opts.ttl).Truncate(time.Second)
	token, err := iss.GenerateToken(opts.user, opts.roles, opts.ttl)
	if err != nil {
		return err
	}

	if rootOpts.Format == "json" {
		return writeJSON(w, tokenOutput{Token: token, UserID: opts.user, Roles: opts.roles, ExpiresAt: expires})
	}
	_, err = fmt.Fprintln(w, token)
	return err
}
