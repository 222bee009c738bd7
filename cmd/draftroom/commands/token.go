package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/DoyleJ11/draftroom/internal/config"
	"github.com/DoyleJ11/draftroom/internal/session"
)

func newTokenCmd() *cobra.Command {
	var (
		participant string
		admin       bool
		ttl         time.Duration
		secret      string
		envFile     string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a session token",
		Long: `Mint a session token for a participant or an admin.

The token is signed with SESSION_SECRET unless --secret is given. Pass it
to the websocket as ?token=... or to admin routes as a bearer token.

Examples:
  draftroom token --participant 2
  draftroom token --admin --ttl 12h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if participant == "" && !admin {
				return errors.New("need --participant or --admin")
			}
			if secret == "" {
				cfg, err := config.Load(envFile)
				if err != nil {
					return err
				}
				secret = cfg.SessionSecret
			}
			if secret == "" {
				return errors.New("no secret: set SESSION_SECRET or pass --secret")
			}

			token, err := session.NewTokenResolver(secret).Issue(session.Identity{
				ParticipantID: participant,
				Admin:         admin,
			}, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVarP(&participant, "participant", "p", "", "Participant id (token subject)")
	cmd.Flags().BoolVar(&admin, "admin", false, "Grant admin rights (undo, pause)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime, 0 for no expiry")
	cmd.Flags().StringVar(&secret, "secret", "", "Signing secret (defaults to SESSION_SECRET)")
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "Optional dotenv file")
	return cmd
}
