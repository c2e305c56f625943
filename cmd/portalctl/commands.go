package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/amirphl/civic-portal/app/dto"
	"github.com/amirphl/civic-portal/app/handlers"
	"github.com/amirphl/civic-portal/app/services"
	businessflow "github.com/amirphl/civic-portal/business_flow"
	"github.com/amirphl/civic-portal/config"
)

const commandTimeout = 2 * time.Minute

func newRootCmd(env *environment) *cobra.Command {
	root := &cobra.Command{
		Use:           "portalctl",
		Short:         "Administer the civic portal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	counters := &cobra.Command{
		Use:   "counters",
		Short: "Inspect and migrate sequence counters",
	}
	counters.AddCommand(newCountersExportCmd(env), newCountersImportCmd(env))

	token := &cobra.Command{
		Use:   "token",
		Short: "Manage admin tokens",
	}
	token.AddCommand(newTokenIssueCmd(env))

	root.AddCommand(newMigrateCmd(env), counters, token)
	return root
}

// withConfig loads configuration and a logger and hands them to run
func (env *environment) withConfig(run func(ctx context.Context, cfg *config.ProductionConfig, logger *zap.Logger) error) error {
	cfg, err := env.loadConfig()
	if err != nil {
		return err
	}
	logger, syncLogger, err := env.newLogger(cfg)
	if err != nil {
		return err
	}
	defer syncLogger()

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	return run(ctx, cfg, logger)
}

func newMigrateCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return env.withConfig(func(_ context.Context, cfg *config.ProductionConfig, logger *zap.Logger) error {
				if err := env.migrate(cfg, logger); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
				return nil
			})
		},
	}
}

func newCountersExportCmd(env *environment) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print every counter",
		Long: `Print every sequence counter.

The yaml format can be fed back to "portalctl counters import".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != "yaml" && format != "table" {
				return fmt.Errorf("unsupported format %q (use yaml or table)", format)
			}
			return env.withConfig(func(ctx context.Context, cfg *config.ProductionConfig, logger *zap.Logger) error {
				flow, closeFlow, err := env.openAdminFlow(cfg, logger)
				if err != nil {
					return err
				}
				defer closeFlow()

				list, err := flow.ListCounters(ctx)
				if err != nil {
					return err
				}
				if format == "table" {
					return writeCounterTable(cmd.OutOrStdout(), list.Items)
				}
				return writeCounterYAML(cmd.OutOrStdout(), list.Items)
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "yaml", "output format: yaml or table")
	return cmd
}

func writeCounterYAML(w io.Writer, items []dto.SequenceCounterDTO) error {
	doc := dto.ImportSequenceCountersRequest{Items: make([]dto.SequenceCounterImportItem, 0, len(items))}
	for _, item := range items {
		doc.Items = append(doc.Items, dto.SequenceCounterImportItem{
			JurisdictionIdentifier: item.JurisdictionIdentifier,
			RecordType:             item.RecordType,
			LastIssued:             item.LastIssued,
		})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("encode counters: %w", err)
	}
	return enc.Close()
}

func writeCounterTable(w io.Writer, items []dto.SequenceCounterDTO) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "JURISDICTION\tRECORD TYPE\tLAST ISSUED\tLAST CODE\tREMAINING")
	for _, item := range items {
		lastCode := item.LastCode
		if lastCode == "" {
			lastCode = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%d\n", item.JurisdictionIdentifier, item.RecordType, item.LastIssued, lastCode, item.Remaining)
	}
	return tw.Flush()
}

func newCountersImportCmd(env *environment) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Raise counters from a YAML file",
		Long: `Raise sequence counters from a YAML file, typically to continue numbering
carried over from a previous system. Counters are never lowered.

  counters:
    - jurisdiction: RDC4
      record_type: project
      last_issued: 1200`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := readImportFile(file)
			if err != nil {
				return err
			}
			return env.withConfig(func(ctx context.Context, cfg *config.ProductionConfig, logger *zap.Logger) error {
				flow, closeFlow, err := env.openAdminFlow(cfg, logger)
				if err != nil {
					return err
				}
				defer closeFlow()

				result, err := flow.ImportCounters(ctx, req, businessflow.NewClientMetadata("", "portalctl"))
				if err != nil {
					return err
				}
				for _, r := range result.Results {
					state := "unchanged"
					if r.Raised {
						state = "raised"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s/%s: %s (last issued %d)\n", r.JurisdictionIdentifier, r.RecordType, state, r.LastIssued)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d raised, %d unchanged\n", result.Raised, result.Unchanged)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML file with counters to import")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readImportFile(path string) (*dto.ImportSequenceCountersRequest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var req dto.ImportSequenceCountersRequest
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: no counters found", path)
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if err := handlers.NewValidator().Struct(&req); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &req, nil
}

func newTokenIssueCmd(env *environment) *cobra.Command {
	var adminID uint
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a bearer token for the admin API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if adminID == 0 {
				return errors.New("--admin-id must be positive")
			}
			cfg, err := env.loadConfig()
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = cfg.JWT.AdminTokenTTL
			}
			tokens, err := services.NewTokenService(cfg.JWT.SecretKey, ttl, cfg.JWT.Issuer, cfg.JWT.Audience)
			if err != nil {
				return err
			}
			token, claims, err := tokens.GenerateAdminToken(adminID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "token %s for admin %d expires at %s\n",
				claims.TokenID, claims.AdminID, claims.ExpiresAt.UTC().Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().UintVar(&adminID, "admin-id", 0, "admin the token is issued for")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to JWT_ADMIN_TOKEN_TTL)")
	_ = cmd.MarkFlagRequired("admin-id")
	return cmd
}
