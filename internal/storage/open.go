package storage

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"planboard/internal/domain"
)

type Driver string

const (
	DriverMemory   Driver = "memory"
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
	DriverMySQL    Driver = "mysql"
	DriverMongoDB  Driver = "mongodb"
)

// Options describes where layouts live. DSN wins over the discrete
// connection fields when both are set. For SQLite, Path (or DSN) is the
// database file.
type Options struct {
	Driver     Driver
	DSN        string
	Path       string
	Host       string
	Port       int
	Username   string
	Password   string
	Database   string
	SSLMode    string
	Collection string
}

// Open returns the LayoutStore for opts.Driver.
func Open(ctx context.Context, opts Options, log *slog.Logger) (domain.LayoutStore, error) {
	if log == nil {
		log = slog.Default()
	}
	switch opts.Driver {
	case DriverMemory, "":
		return NewMemoryLayoutStore(), nil
	case DriverSQLite:
		path := opts.Path
		if path == "" {
			path = opts.DSN
		}
		db, err := OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		return newSQLStore(ctx, db, DialectSQLite, log)
	case DriverPostgres:
		dsn, err := postgresDSN(opts)
		if err != nil {
			return nil, err
		}
		db, err := sqlx.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return newSQLStore(ctx, db, DialectPostgres, log)
	case DriverMySQL:
		dsn, err := mysqlDSN(opts)
		if err != nil {
			return nil, err
		}
		db, err := sqlx.Open("mysql", dsn)
		if err != nil {
			return nil, fmt.Errorf("open mysql: %w", err)
		}
		db.SetConnMaxLifetime(5 * time.Minute)
		return newSQLStore(ctx, db, DialectMySQL, log)
	case DriverMongoDB:
		uri := opts.DSN
		if uri == "" {
			uri = mongoURI(opts)
		}
		return NewMongoLayoutStore(ctx, uri, opts.Database, opts.Collection, log)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", opts.Driver)
	}
}

func newSQLStore(ctx context.Context, db *sqlx.DB, dialect Dialect, log *slog.Logger) (*SQLLayoutStore, error) {
	s, err := NewSQLLayoutStore(ctx, db, dialect, log)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// postgresDSN accepts either a postgres:// URL, a key=value DSN, or the
// discrete fields.
func postgresDSN(opts Options) (string, error) {
	raw := opts.DSN
	if raw == "" {
		port := opts.Port
		if port == 0 {
			port = 5432
		}
		sslMode := opts.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		u := url.URL{
			Scheme:   "postgres",
			Host:     net.JoinHostPort(opts.Host, strconv.Itoa(port)),
			Path:     "/" + opts.Database,
			RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
		}
		if opts.Username != "" {
			u.User = url.UserPassword(opts.Username, opts.Password)
		}
		raw = u.String()
	}
	if !strings.HasPrefix(raw, "postgres://") && !strings.HasPrefix(raw, "postgresql://") {
		return raw, nil
	}
	// pq quotes and escapes every value, so passwords may hold spaces,
	// quotes or backslashes.
	dsn, err := pq.ParseURL(raw)
	if err != nil {
		return "", fmt.Errorf("parse postgres url: %w", err)
	}
	return dsn, nil
}

// mysqlDSN always forces parseTime.
func mysqlDSN(opts Options) (string, error) {
	var cfg *mysql.Config
	if opts.DSN != "" {
		parsed, err := mysql.ParseDSN(opts.DSN)
		if err != nil {
			return "", fmt.Errorf("parse mysql dsn: %w", err)
		}
		cfg = parsed
	} else {
		port := opts.Port
		if port == 0 {
			port = 3306
		}
		cfg = mysql.NewConfig()
		cfg.User = opts.Username
		cfg.Passwd = opts.Password
		cfg.Net = "tcp"
		cfg.Addr = fmt.Sprintf("%s:%d", opts.Host, port)
		cfg.DBName = opts.Database
		if opts.SSLMode == "require" {
			cfg.TLSConfig = "true"
		}
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

func mongoURI(opts Options) string {
	port := opts.Port
	if port == 0 {
		port = 27017
	}
	if opts.Username != "" {
		return fmt.Sprintf("mongodb://%s:%s@%s:%d", opts.Username, opts.Password, opts.Host, port)
	}
	return fmt.Sprintf("mongodb://%s:%d", opts.Host, port)
}
