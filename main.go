package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"regexp"
	"strconv"

	_ "github.com/jackc/pgx/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
	"gopkg.in/reform.v1"
	"gopkg.in/reform.v1/dialects/postgresql"

	"feature-rollout/config"
	"feature-rollout/entity"
	_ "feature-rollout/migrations"
	mycache "feature-rollout/repository/cache"
	mydb "feature-rollout/repository/db"
	"feature-rollout/service"
	"feature-rollout/utils"
)

var ErrMainUnknownMigrationAction = errors.New("unknown migration action")

var (
	envPath string

	cfg    *config.Config
	logger *slog.Logger

	rootCmd = &cobra.Command{
		Use:           "rollout",
		Short:         "Feature rollout engine maintenance",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if cfg, err = config.NewConfig(envPath); err != nil {
				return err
			}
			logger, err = utils.NewLogger(cfg.Log.Level, cfg.Log.Format, os.Stderr)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			return nil
		},
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations: up, down, up-to, down-to, status",
		RunE:  runMigrate,
	}

	featuresCmd = &cobra.Command{
		Use:   "features",
		Short: "List persisted features and the source lines referencing them",
		RunE:  runFeatures,
	}

	checkCmd = &cobra.Command{
		Use:   "check <feature> <record-type> <record-id>",
		Short: "Tell whether a feature is on for a record",
		Args:  cobra.ExactArgs(3),
		RunE:  runCheck,
	}

	countersCmd = &cobra.Command{
		Use:   "counters <feature>",
		Short: "Show flag-in, opt-out and failure counters of a feature",
		Args:  cobra.ExactArgs(1),
		RunE:  runCounters,
	}

	groupsCmd = &cobra.Command{
		Use:   "groups",
		Short: "Manage database groups",
	}

	groupsListCmd = &cobra.Command{
		Use:   "list [record-type]",
		Short: "List database groups, optionally of one record type",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runGroupsList,
	}

	groupsCreateCmd = &cobra.Command{
		Use:   "create <name> <record-type>",
		Short: "Create a database group for one of ROLLOUT_FLAGGABLE_TYPES",
		Args:  cobra.ExactArgs(2),
		RunE:  runGroupsCreate,
	}

	migrationAction  string
	migrationVersion int64
)

func init() {
	rootCmd.PersistentFlags().StringVar(&envPath, "env", ".env", "path to .env file")
	migrateCmd.Flags().StringVar(&migrationAction, "action", "", "up, down, up-to, down-to, status (default MIGRATION_ACTION)")
	migrateCmd.Flags().Int64Var(&migrationVersion, "version", 0, "target version for up-to and down-to (default MIGRATION_VERSION)")

	groupsCmd.AddCommand(groupsListCmd, groupsCreateCmd)
	rootCmd.AddCommand(migrateCmd, featuresCmd, checkCmd, countersCmd, groupsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("main: %v", err)
	}
}

func openDB() (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.DB.URL)
	if err != nil {
		return nil, fmt.Errorf("main: sql.Open error - {%w}", err)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("main: db.Ping error - {%w}", err)
	}
	return db, nil
}

func newStore(db *sql.DB) *mydb.RepoRolloutDB {
	reformDB := reform.NewDB(db, postgresql.Dialect, reform.NewPrintfLogger(func(format string, args ...any) {
		logger.Debug(fmt.Sprintf(format, args...), slog.String("component", "reform"))
	}))
	repoCache := mycache.NewRepoCacheFeature(mycache.NewLRU(cfg.Cache.SizeLRU, cfg.Cache.TTLLRU))
	return mydb.NewRepoRolloutDB(reformDB, repoCache)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	action := cfg.Migrations.Action
	if migrationAction != "" {
		action = migrationAction
	}
	version := cfg.Migrations.Version
	if migrationVersion != 0 {
		version = migrationVersion
	}
	dir := cfg.Migrations.PathToMigrations

	goose.SetLogger(gooseLogger{log: logger})
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	logger.Info("migrate", slog.String("action", action), slog.Int64("version", version))

	switch action {
	case "up":
		err = goose.UpContext(ctx, db, dir)
	case "down":
		err = goose.DownContext(ctx, db, dir)
	case "up-to", "down-to":
		if version == 0 {
			return fmt.Errorf("main: %s requires a version", action)
		}
		if action == "up-to" {
			err = goose.UpToContext(ctx, db, dir, version)
		} else {
			err = goose.DownToContext(ctx, db, dir, version)
		}
	case "status":
		err = goose.StatusContext(ctx, db, dir)
	default:
		return fmt.Errorf("%w: {%s}", ErrMainUnknownMigrationAction, action)
	}
	if err != nil {
		return fmt.Errorf("main: goose %s err - {%w}", action, err)
	}
	return nil
}

func runFeatures(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	opts := []service.DiscoveryOption{service.WithDiscoveryLogger(logger)}
	if cfg.Rollout.CallPattern != "" {
		re, err := regexp.Compile(cfg.Rollout.CallPattern)
		if err != nil {
			return fmt.Errorf("main: ROLLOUT_CALL_PATTERN - {%w}", err)
		}
		opts = append(opts, service.WithCallPattern(re))
	}

	discovery := service.NewServiceDiscovery(newStore(db), cfg.Rollout.GrepDirs, opts...)
	features, err := discovery.DiscoverFeatures(cmd.Context())
	if err != nil {
		return err
	}
	return printJSON(cmd, features)
}

func runCheck(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil {
		return fmt.Errorf("main: record id {%s} - {%w}", args[2], err)
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	// code groups live in the calling application, only flags and database groups apply here
	rollout := service.NewServiceRollout(newStore(db), service.NewGroupRegistry(), service.WithRolloutLogger(logger))
	record := entity.NewRecord(args[1], id)
	on, err := rollout.For(record).HasFeature(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return printJSON(cmd, map[string]any{"feature": args[0], "record": record.String(), "on": on})
}

func runCounters(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	rollout := service.NewServiceRollout(newStore(db), nil, service.WithRolloutLogger(logger))
	counters, err := rollout.Counters(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return printJSON(cmd, counters)
}

func newAdmin(db *sql.DB) *service.ServiceAdmin {
	return service.NewServiceAdmin(newStore(db),
		service.WithFlaggableTypes(cfg.Rollout.FlaggableTypes...),
		service.WithAdminLogger(logger))
}

func runGroupsList(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	recordType := ""
	if len(args) == 1 {
		recordType = args[0]
	}
	groups, err := newAdmin(db).ListGroups(cmd.Context(), recordType)
	if err != nil {
		return err
	}
	return printJSON(cmd, groups)
}

func runGroupsCreate(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	group, err := newAdmin(db).CreateGroup(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}
	return printJSON(cmd, group)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// gooseLogger пишет логи goose через slog
type gooseLogger struct {
	log *slog.Logger
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.log.Info(fmt.Sprintf(format, v...), slog.String("component", "goose"))
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.log.Error(fmt.Sprintf(format, v...), slog.String("component", "goose"))
	os.Exit(1)
}

var _ goose.Logger = gooseLogger{}
