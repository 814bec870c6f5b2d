package main

import (
	"fmt"
	"os"
	"time"

	"scf-community/governor/internal/common"
	"scf-community/governor/internal/config"
	"scf-community/governor/internal/db"
	"scf-community/governor/internal/db/repositories"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:          "api_key_gen",
		Short:        "Issue credentials for the governor admin API",
		SilenceUsage: true,
	}

	var label string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an admin API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := db.InitPostgres(cfg.PostgresDSN()); err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.DB.Close()

			key, err := repositories.NewApiKeysRepo(db.DB).Create(cmd.Context(), label)
			if err != nil {
				return err
			}
			fmt.Println("New API Key:", key.ApiKey)
			return nil
		},
	}
	create.Flags().StringVar(&label, "label", "", "who the key is for")
	_ = create.MarkFlagRequired("label")

	revoke := &cobra.Command{
		Use:   "revoke <key>",
		Short: "Deactivate an admin API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := db.InitPostgres(cfg.PostgresDSN()); err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.DB.Close()

			if err := repositories.NewApiKeysRepo(db.DB).Revoke(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("Revoked:", args[0])
			return nil
		},
	}

	var subject string
	var ttl time.Duration
	token := &cobra.Command{
		Use:   "token",
		Short: "Sign a single-use admin token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.AdminTokenKey == "" {
				return fmt.Errorf("ADMIN_TOKEN_KEY is not set")
			}

			// issuing never touches the burn list
			signer := common.NewAdminTokenSigner([]byte(cfg.AdminTokenKey), nil)
			signed, tok, err := signer.Issue(subject, ttl)
			if err != nil {
				return err
			}
			fmt.Println("Token:", signed)
			fmt.Println("Expires:", tok.ExpiresAt.Format(time.RFC3339))
			return nil
		},
	}
	token.Flags().StringVar(&subject, "subject", "", "who the token is for")
	token.Flags().DurationVar(&ttl, "ttl", 15*time.Minute, "how long the token stays valid")
	_ = token.MarkFlagRequired("subject")

	root.AddCommand(create, revoke, token)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
