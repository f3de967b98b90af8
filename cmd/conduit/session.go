package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"conduit/cmd/internal/app"
	"conduit/cmd/internal/auth/session"
	"conduit/cmd/internal/kvstore"
	"conduit/cmd/security/token"

	"github.com/spf13/cobra"
)

func buildSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Administer live sessions in the session store",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show <user-id>",
			Short: "Print the fingerprint of the user's live token, if any",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withRegistry(cmd.Context(), func(ctx context.Context, reg *session.Registry) error {
					tok, ok, err := reg.Lookup(ctx, args[0])
					if err != nil {
						return err
					}
					if !ok {
						_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: no live session\n", args[0])
						return err
					}
					_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: live token %s\n", args[0], token.Fingerprint(tok))
					return err
				})
			},
		},
		&cobra.Command{
			Use:   "revoke <user-id>",
			Short: "Delete the user's session record so no token of theirs is live",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withRegistry(cmd.Context(), func(ctx context.Context, reg *session.Registry) error {
					if err := reg.Revoke(ctx, args[0]); err != nil {
						return err
					}
					_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s: session revoked\n", args[0])
					return err
				})
			},
		},
	)
	return cmd
}

// withRegistry opens the configured session store. Only Redis makes sense here;
// the in-process store belongs to a running server.
func withRegistry(ctx context.Context, fn func(context.Context, *session.Registry) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	storeCfg, err := kvstore.LoadConfigFromEnv()
	if err != nil {
		return err
	}
	if !storeCfg.Enabled() {
		return fmt.Errorf("%w: set CONDUIT_REDIS_URL or CONDUIT_REDIS_ADDR", kvstore.ErrConfig)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	kv, err := app.OpenSessionStore(ctx, storeCfg, log, nil)
	if err != nil {
		return err
	}
	defer func() { _ = kv.Close() }()

	reg, err := session.NewRegistry(kv, session.KeyPrefixFromEnv())
	if err != nil {
		return err
	}
	return fn(ctx, reg)
}
