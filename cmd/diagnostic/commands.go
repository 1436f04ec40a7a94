// File: cmd/diagnostic/commands.go
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mudly/realtime/internal/auth"
	"github.com/mudly/realtime/internal/domain"
	"github.com/mudly/realtime/internal/services"
	"github.com/mudly/realtime/internal/services/moderation"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "diagnostic",
		Short:        "Operator checks for the realtime backend",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			envFile, _ := cmd.Flags().GetString("env-file")
			if err := godotenv.Load(envFile); err != nil {
				log.Printf("Warning: Could not load %s: %v", envFile, err)
			}
		},
	}
	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file to load before running")

	rootCmd.AddCommand(newModerateCmd(), newTokenCmd())
	return rootCmd
}

func newModerateCmd() *cobra.Command {
	var provider string
	cmd := &cobra.Command{
		Use:   "moderate <text>",
		Short: "Run the configured toxicity classifier against a text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := moderation.DefaultConfig()
			cfg.Provider = provider
			if terms := os.Getenv("BANNED_TERMS"); terms != "" {
				cfg.BannedTerms = strings.Split(terms, ",")
			}
			cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
			cfg.OpenAI.BaseURL = os.Getenv("OPENAI_BASE_URL")
			cfg.OpenAI.Model = os.Getenv("OPENAI_MODERATION_MODEL")

			classifier, err := moderation.NewClassifier(cfg)
			if err != nil {
				return err
			}
			gate := moderation.NewGate(classifier, cfg, services.NewLogger("diagnostic", os.Getenv("ENV"), "WARN"))

			verdict, err := gate.ReviewChat(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("classify: %w", err)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(verdict)
		},
	}
	cmd.Flags().StringVar(&provider, "provider", moderation.ProviderKeyword, "classifier provider (keyword or openai)")
	return cmd
}

func newTokenCmd() *cobra.Command {
	var (
		userID string
		email  string
		role   string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token signed with JWT_SECRET_KEY",
		RunE: func(cmd *cobra.Command, _ []string) error {
			issuer, err := auth.NewIssuer(os.Getenv("JWT_SECRET_KEY"))
			if err != nil {
				return err
			}
			token, err := issuer.Issue(domain.Principal{UserID: userID, Email: email, Role: role}, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id placed in the subject claim")
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().StringVar(&role, "role", "USER", "role claim (ADMIN grants admin routes)")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
