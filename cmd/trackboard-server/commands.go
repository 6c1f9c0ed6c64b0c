package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/carepoint/trackboard/internal/config"
	"github.com/carepoint/trackboard/internal/domain/trackboard"
	"github.com/carepoint/trackboard/internal/platform/auth"
	"github.com/carepoint/trackboard/internal/platform/clock"
	"github.com/carepoint/trackboard/internal/platform/db"
	"github.com/carepoint/trackboard/migrations"
)

func openPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	return db.NewPool(ctx, db.PoolConfig{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	}, bootstrapLogger())
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the tracking board schema",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			schema, _ := cmd.Flags().GetString("schema")
			if schema == "" {
				schema = cfg.DBSchema
			}

			ctx := context.Background()
			pool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator, err := db.NewMigrator(pool, migrations.FS, schema)
			if err != nil {
				return err
			}
			fmt.Printf("Running migrations on schema: %s\n", schema)

			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("schema", "", "Target schema (defaults to DB_SCHEMA)")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			schema, _ := cmd.Flags().GetString("schema")
			if schema == "" {
				schema = cfg.DBSchema
			}

			ctx := context.Background()
			pool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator, err := db.NewMigrator(pool, migrations.FS, schema)
			if err != nil {
				return err
			}
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			fmt.Printf("Migration status for schema: %s\n", schema)
			printMigrationStatus(os.Stdout, statuses)
			return nil
		},
	}
	statusCmd.Flags().String("schema", "", "Target schema (defaults to DB_SCHEMA)")
	cmd.AddCommand(statusCmd)

	return cmd
}

func printMigrationStatus(w io.Writer, statuses []db.MigrationStatus) {
	fmt.Fprintf(w, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	fmt.Fprintln(w, "---------- ---------------------------------------- ---------- --------------------")
	for _, s := range statuses {
		status := "pending"
		appliedAt := ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(w, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}

func boardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Print the current tracking board",
		RunE: func(cmd *cobra.Command, args []string) error {
			sectionName, _ := cmd.Flags().GetString("section")
			asJSON, _ := cmd.Flags().GetBool("json")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx := context.Background()
			clk := clock.New()
			repo, _, pool, err := loadRepository(ctx, cfg, clk, zerolog.Nop())
			if err != nil {
				return err
			}
			if pool != nil {
				defer pool.Close()
			}

			board, err := trackboard.NewService(repo, clk, bootstrapLogger()).Board(ctx)
			if err != nil {
				return err
			}
			if sectionName != "" {
				section, err := trackboard.ParseSection(sectionName)
				if err != nil {
					return err
				}
				sv, _ := board.Section(section)
				board.Sections = []trackboard.SectionView{*sv}
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(board)
			}
			return printBoard(cmd.OutOrStdout(), board)
		},
	}
	cmd.Flags().String("section", "", "Only print one section")
	cmd.Flags().Bool("json", false, "Print the board as JSON")
	return cmd
}

// printBoard renders board as one table per section.
func printBoard(w io.Writer, board *trackboard.Board) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Tracking board as of %s\n", board.LastUpdate.Format(time.RFC3339))
	for _, sv := range board.Sections {
		fmt.Fprintln(tw)
		header := fmt.Sprintf("%s (%d", sv.Title, sv.Total)
		if sv.NeedsAttention > 0 {
			header += fmt.Sprintf(", %d need attention", sv.NeedsAttention)
		}
		header += ")"
		if sv.SLATarget != "" {
			header += " target " + sv.SLATarget
		}
		fmt.Fprintln(tw, header)
		if sv.Total == 0 {
			fmt.Fprintln(tw, "  no patients")
			continue
		}
		fmt.Fprintln(tw, "  \tID\tNAME\tROOM\tACUITY\tWAIT\tVITALS\tCOMPLAINT")
		for _, v := range sv.Patients {
			flag := ""
			if v.Wait.Urgent {
				flag = "!"
			}
			acuity := "-"
			if v.Acuity != nil {
				acuity = fmt.Sprintf("%d", *v.Acuity)
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				flag, v.ID, v.Name, v.Room, acuity, v.Wait.Label, v.VitalStatus.Worst(), v.Complaint)
		}
	}
	if len(board.Dropped) > 0 {
		fmt.Fprintf(tw, "\nUnknown section, not shown: %s\n", strings.Join(board.Dropped, ", "))
	}
	return tw.Flush()
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed bearer token for the API",
		RunE: func(cmd *cobra.Command, args []string) error {
			subject, _ := cmd.Flags().GetString("sub")
			roles, _ := cmd.Flags().GetStringSlice("role")
			ttl, _ := cmd.Flags().GetDuration("ttl")
			if subject == "" {
				return fmt.Errorf("--sub is required")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			token, err := auth.IssueToken(auth.JWTConfig{
				Issuer:     cfg.AuthIssuer,
				Audience:   cfg.AuthAudience,
				SigningKey: []byte(cfg.AuthSigningKey),
			}, subject, roles, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().String("sub", "", "Token subject (user id)")
	cmd.Flags().StringSlice("role", []string{auth.RolePhysician}, "Role to grant, repeatable")
	cmd.Flags().Duration("ttl", 12*time.Hour, "Token lifetime")
	return cmd
}
