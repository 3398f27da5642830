package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/agentgrant/internal/auth/app"
	"github.com/aussiebroadwan/agentgrant/internal/auth/domain"
	"github.com/aussiebroadwan/agentgrant/internal/auth/service"
	"github.com/aussiebroadwan/agentgrant/pkg/authsdk"
	"github.com/aussiebroadwan/agentgrant/pkg/cryptox"
)

var (
	configFile string
	cfg        app.Config
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "agentgrant",
		Short:   "AgentGrant authorization control plane",
		Long:    "Issues, delegates, verifies and revokes scoped grants that let AI agents act for a principal.",
		Version: app.BuildVersion,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = app.LoadConfigFile(configFile)
			return err
		},
		// Without a subcommand the server starts, so the container needs no args.
		RunE:          runServe,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file; environment variables take precedence")

	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(auditCmd())
	root.AddCommand(developersCmd())
	root.AddCommand(keysCmd())
	return root
}

// --- serve ---

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return application.Run(ctx)
}

// --- migrate ---

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := app.MigrateStore(cmd.Context(), cfg, app.NewLogger(cfg))
			if err != nil {
				return err
			}
			return st.Close()
		},
	}
}

// --- audit ---

func auditCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "audit", Short: "Audit log maintenance"}

	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a developer's audit hash chain against the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			developerID, _ := cmd.Flags().GetString("developer")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, err := app.MigrateStore(ctx, cfg, app.NewLogger(cfg))
			if err != nil {
				return err
			}
			defer st.Close()

			audit := &service.AuditService{Runtime: service.Runtime{Store: st, StoreTimeout: cfg.StoreTimeout}}
			res, err := audit.Verify(ctx, developerID)
			if err != nil {
				return err
			}
			if err := printJSON(cmd, authsdk.ChainVerificationResponse{
				Valid:          res.Valid,
				CheckedEntries: res.Checked,
				FirstBrokenAt:  res.FirstBrokenAt,
			}); err != nil {
				return err
			}
			if !res.Valid {
				return errors.New("audit chain is broken")
			}
			return nil
		},
	}
	verifyCmd.Flags().String("developer", "", "Developer ID whose chain to verify")
	_ = verifyCmd.MarkFlagRequired("developer")

	cmd.AddCommand(verifyCmd)
	return cmd
}

// --- developers ---

func developersCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "developers", Short: "Manage developer tenants"}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a developer and print its API key",
		Long:  "Creates a developer directly in the store. The API key is printed once and cannot be recovered.",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			email, _ := cmd.Flags().GetString("email")
			mode, _ := cmd.Flags().GetString("mode")
			plan, _ := cmd.Flags().GetString("plan")

			cryptox.SetPepperPath(cfg.PepperFile)

			st, err := app.MigrateStore(cmd.Context(), cfg, app.NewLogger(cfg))
			if err != nil {
				return err
			}
			defer st.Close()

			devs := &service.DeveloperService{Runtime: service.Runtime{Store: st, StoreTimeout: cfg.StoreTimeout}}
			creds, err := devs.Create(context.WithoutCancel(cmd.Context()), service.CreateDeveloperInput{
				Name:  name,
				Email: email,
				Mode:  domain.DeveloperMode(mode),
				Plan:  domain.Plan(plan),
			})
			if err != nil {
				return err
			}

			return printJSON(cmd, map[string]any{
				"developerId": creds.Developer.ID,
				"name":        creds.Developer.Name,
				"mode":        creds.Developer.Mode,
				"plan":        creds.Developer.Plan,
				"apiKey":      creds.APIKey,
			})
		},
	}
	createCmd.Flags().String("name", "", "Developer name")
	createCmd.Flags().String("email", "", "Contact email")
	createCmd.Flags().String("mode", string(domain.ModeLive), "live or sandbox")
	createCmd.Flags().String("plan", string(domain.PlanFree), "free, pro or enterprise")
	_ = createCmd.MarkFlagRequired("name")
	_ = createCmd.MarkFlagRequired("email")

	cmd.AddCommand(createCmd)
	return cmd
}

// --- keys ---

func keysCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "keys", Short: "Signing key tooling"}

	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a PEM signing key for AUTH_KEY_MODE=file",
		// Key generation needs no config.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			alg, _ := cmd.Flags().GetString("alg")
			out, _ := cmd.Flags().GetString("out")
			bits, _ := cmd.Flags().GetInt("rsa-bits")

			if out == "" {
				pemKey, err := app.GenerateSigningKey(alg, bits)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(pemKey)
				return err
			}

			if err := app.WriteSigningKey(out, alg, bits); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s key to %s\n", alg, out)
			return nil
		},
	}
	generateCmd.Flags().String("alg", "EdDSA", "RS256, ES256 or EdDSA")
	generateCmd.Flags().String("out", "", "File to write (0600); stdout when empty")
	generateCmd.Flags().Int("rsa-bits", 2048, "RSA key size for RS256")

	cmd.AddCommand(generateCmd)
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
