// -----------------------------------------------------------------------------
// Database Package
// -----------------------------------------------------------------------------
// Uygulamanın ilişkisel veritabanına bağlanmasını sağlayan merkezi bağlantı
// fonksiyonu. Production'da MySQL, lokal geliştirme ve testlerde SQLite
// kullanılır; dialect farkları Grammar katmanında tutulur.
// -----------------------------------------------------------------------------

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/biyonik/ticket-purchase-api/pkg/logger"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Options, bağlantı ve havuz ayarları.
type Options struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultOptions, MySQL için önerilen havuz değerleri.
func DefaultOptions(driver, dsn string) Options {
	return Options{
		Driver:          driver,
		DSN:             dsn,
		MaxOpenConns:    25,
		MaxIdleConns:    25,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// Connect, veritabanına bağlanır ve *sql.DB döndürür.
//
//  1. sql.Open ile driver ve DSN kullanılarak havuz oluşturulur.
//  2. Havuz ayarları uygulanır. SQLite tek bağlantıya sabitlenir; böylece
//     transaction'lar sıraya girer ve "database is locked" hataları oluşmaz.
//  3. PingContext ile erişilebilirlik kontrol edilir, hata varsa havuz kapatılır.
func Connect(ctx context.Context, opts Options, log *logger.Logger) (*sql.DB, error) {
	if opts.Driver != DriverMySQL && opts.Driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}

	db, err := sql.Open(opts.Driver, opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", opts.Driver, err)
	}

	if opts.Driver == DriverSQLite {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(opts.MaxOpenConns)
		db.SetMaxIdleConns(opts.MaxIdleConns)
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	log.Debug("connecting to database", "driver", opts.Driver)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", opts.Driver, err)
	}

	log.Info("database connection established", "driver", opts.Driver)
	return db, nil
}
