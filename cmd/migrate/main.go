package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/wmsexpress/backend/internal/domain/warehouse"
	"github.com/wmsexpress/backend/internal/infrastructure/config"
	"github.com/wmsexpress/backend/internal/infrastructure/logger"
	"github.com/wmsexpress/backend/internal/infrastructure/migration"
	"github.com/wmsexpress/backend/internal/infrastructure/persistence"
	"github.com/wmsexpress/backend/internal/infrastructure/seed"
)

const defaultMigrationsPath = "migrations"

var errUsage = errors.New("invalid usage")

// session is the state shared by every command
type session struct {
	cfg  *config.Config
	log  *zap.Logger
	dir  string // -path flag, empty for the embedded migrations
	args []string
	out  io.Writer
}

type command struct {
	usage string
	nargs int
	// schema commands run against a golang-migrate Migrator on postgres
	schema func(s *session, m *migration.Migrator) error
	run    func(s *session) error
}

var commands = map[string]command{
	"up":      {usage: "up", schema: func(_ *session, m *migration.Migrator) error { return m.Up() }},
	"down":    {usage: "down", schema: func(_ *session, m *migration.Migrator) error { return m.Down() }},
	"step":    {usage: "step <n>", nargs: 1, schema: stepCmd},
	"goto":    {usage: "goto <version>", nargs: 1, schema: gotoCmd},
	"version": {usage: "version", schema: versionCmd},
	"force":   {usage: "force <version>", nargs: 1, schema: forceCmd},
	"drop":    {usage: "drop -confirm", schema: dropCmd},
	"create":  {usage: "create <name> [description]", nargs: 1, run: createCmd},
	"list":    {usage: "list", run: listCmd},
	"seed":    {usage: "seed [file]", run: seedCmd},
	"export":  {usage: "export [file]", run: exportCmd},
}

func main() {
	var migrationsPath, logLevel string
	flag.StringVar(&migrationsPath, "path", "", "Path to a migrations directory (default: migrations compiled into the binary)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() == 0 {
		printUsage()
		os.Exit(2)
	}

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stderr", // export writes the catalog to stdout
		TimeFormat: logger.DefaultTimeFormat,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync(log) }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	name := flag.Arg(0)
	s := &session{cfg: cfg, log: log, dir: migrationsPath, args: flag.Args()[1:], out: os.Stdout}
	log.Debug("Migration CLI started", zap.String("command", name), zap.String("migrations_path", migrationsPath))

	if err := s.dispatch(name); err != nil {
		if errors.Is(err, errUsage) {
			log.Error(err.Error())
			printUsage()
			os.Exit(2)
		}
		log.Fatal("Command failed", zap.String("command", name), zap.Error(err))
	}
}

func (s *session) dispatch(name string) error {
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, name)
	}
	if len(s.args) < cmd.nargs {
		return fmt.Errorf("%w: migrate %s", errUsage, cmd.usage)
	}
	if cmd.run != nil {
		return cmd.run(s)
	}

	m, closeDB, err := s.openMigrator()
	if err != nil {
		return err
	}
	defer closeDB()
	return cmd.schema(s, m)
}

// openMigrator connects to postgres. SQLite catalogs have no versioned
// schema; 'migrate seed' creates their tables.
func (s *session) openMigrator() (*migration.Migrator, func(), error) {
	if s.cfg.Database.Driver != config.DriverPostgres {
		return nil, nil, fmt.Errorf("schema migrations require the postgres driver, got %q; sqlite databases are created by 'migrate seed'", s.cfg.Database.Driver)
	}
	db, err := sql.Open("postgres", s.cfg.Database.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	var m *migration.Migrator
	if s.dir == "" {
		m, err = migration.New(db, s.log)
	} else {
		var dir string
		if dir, err = migrationsDir(s.dir); err == nil {
			m, err = migration.NewFromPath(db, dir, s.log)
		}
	}
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return m, func() {
		if err := m.Close(); err != nil {
			s.log.Warn("Failed to close migrator", zap.Error(err))
		}
	}, nil
}

func stepCmd(s *session, m *migration.Migrator) error {
	n, err := strconv.Atoi(s.args[0])
	if err != nil || n == 0 {
		return fmt.Errorf("%w: step count must be a non-zero integer, got %q", errUsage, s.args[0])
	}
	return m.Steps(n)
}

func gotoCmd(s *session, m *migration.Migrator) error {
	v, err := strconv.ParseUint(s.args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("%w: invalid version %q", errUsage, s.args[0])
	}
	return m.GoTo(uint(v))
}

func versionCmd(s *session, m *migration.Migrator) error {
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	if version == 0 {
		s.log.Info("No migrations applied")
		return nil
	}
	s.log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

func forceCmd(s *session, m *migration.Migrator) error {
	v, err := strconv.Atoi(s.args[0])
	if err != nil {
		return fmt.Errorf("%w: invalid version %q", errUsage, s.args[0])
	}
	s.log.Warn("Forcing migration version", zap.Int("version", v))
	return m.Force(v)
}

func dropCmd(s *session, m *migration.Migrator) error {
	if !slices.Contains(s.args, "-confirm") && !slices.Contains(s.args, "--confirm") {
		return fmt.Errorf("%w: drop removes every database object, rerun as 'migrate drop -confirm'", errUsage)
	}
	return m.Drop()
}

func createCmd(s *session) error {
	dir, err := migrationsDir(s.dir)
	if err != nil {
		return err
	}
	description := ""
	if len(s.args) > 1 {
		description = s.args[1]
	}
	mf, err := migration.CreateMigration(dir, s.args[0], description)
	if err != nil {
		return err
	}
	s.log.Info("Migration created",
		zap.String("version", mf.Version),
		zap.String("up_file", mf.UpPath),
		zap.String("down_file", mf.DownPath),
	)
	return nil
}

func listCmd(s *session) error {
	var names []string
	var err error
	if s.dir == "" {
		names, err = migration.EmbeddedMigrations()
	} else {
		names, err = migration.ListMigrations(s.dir)
	}
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintln(s.out, name)
	}
	s.log.Info("Migrations listed", zap.Int("count", len(names)))
	return nil
}

// seedCmd replaces the stored catalog with the embedded seed or a YAML file.
// SQLite tables are created on the fly; postgres expects 'migrate up' first.
func seedCmd(s *session) error {
	path := argOr(s.args, 0, "")
	ds, err := loadSeed(path)
	if err != nil {
		return err
	}
	if _, err := warehouse.NewCatalog(ds); err != nil {
		return err
	}

	db, repo, err := s.openCatalog()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	if s.cfg.Database.Driver == config.DriverSQLite {
		if err := repo.AutoMigrate(ctx); err != nil {
			return err
		}
	}
	if err := repo.Replace(ctx, ds); err != nil {
		return err
	}

	s.log.Info("Catalog seeded",
		zap.String("source", argOr(s.args, 0, "builtin")),
		zap.Int("clients", len(ds.Clients)),
		zap.Int("receipts", receiptCount(ds)),
	)
	return nil
}

// exportCmd writes the stored catalog as seed YAML to a file or stdout.
func exportCmd(s *session) error {
	db, repo, err := s.openCatalog()
	if err != nil {
		return err
	}
	defer db.Close()

	ds, err := repo.Load(context.Background())
	if err != nil {
		return err
	}
	out, err := seed.Marshal(ds)
	if err != nil {
		return err
	}

	path := argOr(s.args, 0, "")
	if path == "" {
		_, err = s.out.Write(out)
		return err
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	s.log.Info("Catalog exported", zap.String("file", path), zap.Int("clients", len(ds.Clients)))
	return nil
}

func (s *session) openCatalog() (*persistence.Database, *persistence.CatalogRepository, error) {
	gormLog := logger.NewGormLogger(s.log, logger.MapGormLogLevel(s.cfg.Log.Level))
	db, err := persistence.NewDatabase(&s.cfg.Database, nil, persistence.WithLogger(gormLog))
	if err != nil {
		return nil, nil, err
	}
	return db, persistence.NewCatalogRepository(db.DB), nil
}

func loadSeed(path string) (warehouse.Dataset, error) {
	if path == "" {
		return seed.Builtin()
	}
	return seed.LoadFile(path)
}

// migrationsDir resolves the directory the file-writing commands use.
func migrationsDir(path string) (string, error) {
	if path == "" {
		path = defaultMigrationsPath
	}
	return filepath.Abs(path)
}

func argOr(args []string, i int, fallback string) string {
	if len(args) > i {
		return args[i]
	}
	return fallback
}

func receiptCount(ds warehouse.Dataset) int {
	n := 0
	for _, c := range ds.Clients {
		n += len(c.Receipts)
	}
	return n
}

func printUsage() {
	fmt.Fprint(os.Stderr, `WMS catalog database tool

Usage:
  migrate [flags] <command> [arguments]

Schema commands (postgres):
  up                    Apply all pending migrations
  down                  Roll back all migrations
  step <n>              Apply n migrations (positive=up, negative=down)
  goto <version>        Migrate to a specific version
  version               Show current migration version
  force <version>       Force set migration version (use with caution)
  drop -confirm         Drop all database objects

Catalog commands (sqlite or postgres):
  seed [file]           Replace the catalog with the built-in seed or a YAML file
  export [file]         Write the stored catalog as seed YAML (default: stdout)

Migration files:
  create <name> [desc]  Create a new migration file pair
  list                  List available migrations

Flags:
  -path string          Path to a migrations directory (default: embedded migrations)
  -log-level string     Log level: debug, info, warn, error (default: info)

Connection settings come from config.toml and WMS_DATABASE_* variables.
`)
}
