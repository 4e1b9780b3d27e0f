// Package cli implements the aftermarket command-line tool.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"aftermarket/internal/app/config"
	"aftermarket/internal/app/di"
	"aftermarket/internal/feature/aftermarket/domain/entity"
	"aftermarket/internal/feature/aftermarket/usecase"
	"aftermarket/internal/platform/calendar"
	"aftermarket/internal/platform/db"
	jwtmw "aftermarket/internal/platform/jwt"
	platformredis "aftermarket/internal/platform/redis"
	"aftermarket/internal/platform/schema"
)

const connectTimeout = 30 * time.Second

// state is shared by the subcommands. The configuration is loaded lazily
// so that commands which need no database (token) work without one.
type state struct {
	configPath string
	sqlitePath string
	cfg        *config.Config
}

func (s *state) config() (*config.Config, error) {
	if s.cfg != nil {
		return s.cfg, nil
	}
	cfg, err := config.Load(s.configPath, s.sqlitePath)
	if err != nil {
		return nil, err
	}
	s.cfg = cfg
	return cfg, nil
}

// offlineConfig loads the configuration for a run that does not touch the database.
func (s *state) offlineConfig() (*config.Config, error) {
	if s.cfg != nil {
		return s.cfg, nil
	}
	return config.LoadWithoutDatabase(s.configPath)
}

func (s *state) openDB() (*gorm.DB, error) {
	cfg, err := s.config()
	if err != nil {
		return nil, err
	}
	if cfg.Database.SQLite != "" {
		return db.OpenSQLite(cfg.Database.SQLite)
	}
	return db.ConnectWithRetry(db.BuildDSN(cfg.DB()), connectTimeout, db.OpenPostgres)
}

// dialect reports which DDL applies without requiring a reachable database.
func (s *state) dialect() (string, error) {
	if s.sqlitePath != "" {
		return schema.DialectSQLite, nil
	}
	if s.configPath == "" {
		return schema.DialectPostgres, nil
	}
	cfg, err := s.config()
	if err != nil {
		return "", err
	}
	if cfg.Database.SQLite != "" {
		return schema.DialectSQLite, nil
	}
	return schema.DialectPostgres, nil
}

// openRedis connects to the cache when one is configured. A failure only disables caching.
func (s *state) openRedis(ctx context.Context) *redis.Client {
	cfg, err := s.config()
	if err != nil || cfg.Redis.Host == "" {
		return nil
	}
	rdb, err := platformredis.NewRedisClient(ctx, cfg.RedisClientConfig())
	if err != nil {
		log.Println("[WARN] Redis unavailable. Cache will not be invalidated.")
		return nil
	}
	return rdb
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	st := &state{}

	rootCmd := &cobra.Command{
		Use:   "aftermarket",
		Short: "Track after-hours gainers and losers",
		Long: `aftermarket scrapes the after-hours Gainers & Losers page together with the
S&P 500 futures move and keeps the history in the after_market table.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&st.configPath, "config", "", "Configuration file path (YAML)")
	rootCmd.PersistentFlags().StringVar(&st.sqlitePath, "sqlite", "", "Use a local SQLite database at PATH instead of Postgres")

	// Add subcommands
	rootCmd.AddCommand(newMigrateCmd(st))
	rootCmd.AddCommand(newScrapeCmd(st))
	rootCmd.AddCommand(newListCmd(st))
	rootCmd.AddCommand(newTokenCmd())

	return rootCmd
}

// newMigrateCmd creates the migrate command
func newMigrateCmd(st *state) *cobra.Command {
	var dryRun, verify bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the after_market table and its indexes",
		Long: `Create the after_market table and its three indexes if they do not exist.
Running it again is safe. --dry-run prints the DDL, --verify only checks that it is applied.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if dryRun {
				dialect, err := st.dialect()
				if err != nil {
					return err
				}
				stmts, err := schema.Statements(dialect)
				if err != nil {
					return err
				}
				for _, s := range stmts {
					fmt.Fprintf(out, "%s;\n", s)
				}
				return nil
			}

			gdb, err := st.openDB()
			if err != nil {
				return err
			}
			if verify {
				if err := schema.Verify(cmd.Context(), gdb); err != nil {
					return err
				}
				fmt.Fprintln(out, successStyle.Render("schema ok: "+schema.TableName+" and 3 indexes present"))
				return nil
			}
			if err := schema.Apply(cmd.Context(), gdb); err != nil {
				return err
			}
			fmt.Fprintln(out, successStyle.Render("schema applied: "+schema.TableName))
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the DDL without connecting")
	cmd.Flags().BoolVar(&verify, "verify", false, "Check that the table and indexes exist")
	cmd.MarkFlagsMutuallyExclusive("dry-run", "verify")

	return cmd
}

// newScrapeCmd creates the scrape command
func newScrapeCmd(st *state) *cobra.Command {
	var dryRun, force bool

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape the after-hours movers and store them",
		Long: `Scrape the after-hours movers page once and store every row with one observation time.
Non-trading days are skipped unless --force is given. --dry-run prints the rows without writing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			load := st.config
			if dryRun {
				load = st.offlineConfig
			}
			cfg, err := load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			var repo usecase.RecordRepository
			if !dryRun {
				gdb, err := st.openDB()
				if err != nil {
					return err
				}
				rdb := st.openRedis(ctx)
				if rdb != nil {
					defer func() { _ = rdb.Close() }()
				}
				repo = di.NewRecordRepository(rdb, gdb, nil)
			}

			source := di.NewScraper(cfg.CNN())
			uc := usecase.NewIngestUsecase(source, repo, calendar.New(cfg.Calendar.MIC))

			res, err := uc.Run(ctx, usecase.IngestOptions{Force: force, DryRun: dryRun})
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), renderIngestResult(res, dryRun))
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Scrape and validate without writing")
	cmd.Flags().BoolVar(&force, "force", false, "Ingest even on non-trading days")

	return cmd
}

// newListCmd creates the list command
func newListCmd(st *state) *cobra.Command {
	var (
		symbol string
		limit  int
		latest bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show stored after-market moves",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gdb, err := st.openDB()
			if err != nil {
				return err
			}
			uc := usecase.NewQueryUsecase(di.NewRecordRepository(nil, gdb, nil))

			var records []entity.Record
			if latest {
				records, err = uc.Latest(cmd.Context())
			} else {
				records, err = uc.Find(cmd.Context(), entity.Filter{Symbol: symbol, Limit: limit})
			}
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), renderRecords(records))
			return nil
		},
	}

	cmd.Flags().StringVar(&symbol, "symbol", "", "Only show this symbol")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of rows")
	cmd.Flags().BoolVar(&latest, "latest", false, "Show the most recent snapshot")
	cmd.MarkFlagsMutuallyExclusive("latest", "symbol")

	return cmd
}

// newTokenCmd creates the token command
func newTokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an API token signed with JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := os.Getenv(jwtmw.EnvKeyJWTSecret)
			if secret == "" {
				return errors.New("JWT_SECRET is not set")
			}
			if ttl <= 0 {
				return fmt.Errorf("ttl must be positive, got %s", ttl)
			}
			token, err := jwtmw.NewGenerator(secret, ttl).GenerateToken(subject)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "Client the token is issued to")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("subject")

	return cmd
}
