// -----------------------------------------------------------------------------
// Config Package
// -----------------------------------------------------------------------------
// Uygulamanın merkezi konfigürasyonu. Ayarlar viper ile ortam
// değişkenlerinden okunur; .env dosyası varsa önce godotenv ile yüklenir
// (mevcut değişkenleri ezmez). Eksik değişkenlerde varsayılan değer
// kullanılır ve bir uyarı loglanır.
// -----------------------------------------------------------------------------

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/biyonik/ticket-purchase-api/pkg/logger"
)

// Default değerler. Production'da seed şifresi mutlaka değiştirilmelidir.
const (
	defaultMySQLDSN     = "root:password@tcp(127.0.0.1:3306)/tickets?parseTime=true"
	defaultSeedPassword = "Superadmin1#"
)

// Config, uygulamanın yapılandırma nesnesi.
//
// Gruplar:
//   - App: uygulama genel ayarları
//   - DB: veritabanı (mysql | sqlite)
//   - Redis: cache driver'ı ve event kanalı için bağlantı
//   - Cache: MyTicket cache ayarları
//   - Events: purchase event'lerinin yayınlanacağı Redis kanalı
//   - Metrics: bilet kontrol metriklerinin gönderileceği Pushgateway
//   - Seed: ilk superadmin kullanıcısı ve varsayılan çekim ücreti
//   - Log: zap modu ve seviyesi
type Config struct {
	App struct {
		Name string
		Env  string // development, production, test
	}

	DB struct {
		Driver          string // mysql, sqlite
		DSN             string
		MaxOpenConns    int
		MaxIdleConns    int
		ConnMaxLifetime time.Duration
	}

	Redis struct {
		Host     string
		Port     int
		Password string
		DB       int
	}

	Cache struct {
		Driver string // memory, redis
		Prefix string
		TTL    time.Duration
	}

	Events struct {
		RedisChannel string // boş ise yayın yapılmaz
	}

	Metrics struct {
		PushgatewayURL string // boş ise metrik gönderilmez
		Job            string
	}

	Seed struct {
		AdminUsername     string
		AdminPassword     string
		AdminEmail        string
		AdminFullname     string
		WithdrawFeeAmount string
	}

	Log struct {
		Mode  string // development, production
		Level string
	}
}

// LoadEnvFile, verilen .env dosyalarını (varsayılan ".env") ortama yükler.
// Olmayan dosya hata değildir.
func LoadEnvFile(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// defaults, config anahtarları ve varsayılanları. Anahtarlar viper
// formatındadır; ortam değişkeni adı noktaların "_" ile değiştirilip büyük
// harfe çevrilmesiyle elde edilir ("db.max_open_conns" → DB_MAX_OPEN_CONNS).
var defaults = []struct {
	key   string
	value interface{}
}{
	{"app.name", "ticket-purchase-api"},
	{"app.env", "development"},

	{"db.driver", "mysql"},
	{"db.max_open_conns", 25},
	{"db.max_idle_conns", 25},
	{"db.conn_max_lifetime", 5 * time.Minute},

	{"redis.host", "127.0.0.1"},
	{"redis.port", 6379},
	{"redis.password", ""},
	{"redis.db", 0},

	{"cache.driver", "memory"},
	{"cache.prefix", "tickets:"},
	{"cache.ttl", time.Minute},

	{"events.redis_channel", ""},

	{"metrics.pushgateway_url", ""},
	{"metrics.job", "ticketctl"},

	{"seed.admin_username", "superadmin"},
	{"seed.admin_password", defaultSeedPassword},
	{"seed.admin_email", "superadmin@email.com"},
	{"seed.admin_fullname", "Super Admin"},
	{"seed.withdraw_fee_amount", "2500"},

	{"log.mode", "development"},
	{"log.level", "info"},
}

var envKeyReplacer = strings.NewReplacer(".", "_")

// envName, viper anahtarının okunduğu ortam değişkeni.
func envName(key string) string {
	return strings.ToUpper(envKeyReplacer.Replace(key))
}

// Load, ortam değişkenlerinden Config üretir. Eksik değişkenler için
// varsayılan kullanılır ve log'a uyarı yazılır; geçersiz sayı ve
// süreler de uyarıyla varsayılana düşer.
//
//	cfg := config.Load(log)
//	if err := cfg.Validate(); err != nil { ... }
func Load(log *logger.Logger) *Config {
	v := viper.New()
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()
	for _, d := range defaults {
		v.SetDefault(d.key, d.value)
		if _, ok := os.LookupEnv(envName(d.key)); !ok {
			log.Warn("env variable not set, using default", "key", envName(d.key), "default", d.value)
		}
	}

	getInt := func(key string) int {
		n, err := cast.ToIntE(v.Get(key))
		if err != nil {
			def := cast.ToInt(defaultOf(key))
			log.Warn("invalid integer env variable, using default", "key", envName(key), "value", v.GetString(key), "default", def)
			return def
		}
		return n
	}

	// Süreler Go duration formatında ("90s", "5m") ya da saniye olarak verilebilir.
	getDuration := func(key string) time.Duration {
		raw := v.Get(key)
		if s, ok := raw.(string); ok {
			if seconds, err := cast.ToIntE(s); err == nil {
				return time.Duration(seconds) * time.Second
			}
		}
		d, err := cast.ToDurationE(raw)
		if err != nil {
			def := cast.ToDuration(defaultOf(key))
			log.Warn("invalid duration env variable, using default", "key", envName(key), "value", v.GetString(key), "default", def)
			return def
		}
		return d
	}

	cfg := &Config{}

	cfg.App.Name = v.GetString("app.name")
	cfg.App.Env = v.GetString("app.env")

	cfg.DB.Driver = strings.ToLower(v.GetString("db.driver"))
	defaultDSN := defaultMySQLDSN
	if cfg.DB.Driver == "sqlite" {
		defaultDSN = "tickets.db"
	}
	v.SetDefault("db.dsn", defaultDSN)
	if _, ok := os.LookupEnv(envName("db.dsn")); !ok {
		log.Warn("env variable not set, using default", "key", envName("db.dsn"), "default", defaultDSN)
	}
	cfg.DB.DSN = v.GetString("db.dsn")
	cfg.DB.MaxOpenConns = getInt("db.max_open_conns")
	cfg.DB.MaxIdleConns = getInt("db.max_idle_conns")
	cfg.DB.ConnMaxLifetime = getDuration("db.conn_max_lifetime")

	cfg.Redis.Host = v.GetString("redis.host")
	cfg.Redis.Port = getInt("redis.port")
	cfg.Redis.Password = v.GetString("redis.password")
	cfg.Redis.DB = getInt("redis.db")

	cfg.Cache.Driver = strings.ToLower(v.GetString("cache.driver"))
	cfg.Cache.Prefix = v.GetString("cache.prefix")
	cfg.Cache.TTL = getDuration("cache.ttl")

	cfg.Events.RedisChannel = v.GetString("events.redis_channel")

	cfg.Metrics.PushgatewayURL = v.GetString("metrics.pushgateway_url")
	cfg.Metrics.Job = v.GetString("metrics.job")

	cfg.Seed.AdminUsername = v.GetString("seed.admin_username")
	cfg.Seed.AdminPassword = v.GetString("seed.admin_password")
	cfg.Seed.AdminEmail = v.GetString("seed.admin_email")
	cfg.Seed.AdminFullname = v.GetString("seed.admin_fullname")
	cfg.Seed.WithdrawFeeAmount = v.GetString("seed.withdraw_fee_amount")

	cfg.Log.Mode = v.GetString("log.mode")
	cfg.Log.Level = v.GetString("log.level")

	return cfg
}

func defaultOf(key string) interface{} {
	for _, d := range defaults {
		if d.key == key {
			return d.value
		}
	}
	return nil
}

// Validate, değerlerin tutarlılığını kontrol eder. Production'da varsayılan
// seed şifresi ve memory cache kabul edilmez.
func (c *Config) Validate() error {
	switch c.DB.Driver {
	case "mysql":
		if !strings.Contains(c.DB.DSN, "parseTime=true") {
			return fmt.Errorf("DB_DSN must enable parseTime=true for mysql")
		}
	case "sqlite":
	default:
		return fmt.Errorf("invalid DB_DRIVER: %s (mysql or sqlite)", c.DB.Driver)
	}
	if c.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is empty")
	}

	switch c.Cache.Driver {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid CACHE_DRIVER: %s (memory or redis)", c.Cache.Driver)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}

	if c.Metrics.PushgatewayURL != "" {
		u, err := url.Parse(c.Metrics.PushgatewayURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid METRICS_PUSHGATEWAY_URL: %s", c.Metrics.PushgatewayURL)
		}
		if c.Metrics.Job == "" {
			return fmt.Errorf("METRICS_JOB is required when METRICS_PUSHGATEWAY_URL is set")
		}
	}

	if c.Seed.AdminUsername == "" || c.Seed.AdminPassword == "" {
		return fmt.Errorf("SEED_ADMIN_USERNAME and SEED_ADMIN_PASSWORD are required")
	}

	if c.IsProduction() {
		if c.Seed.AdminPassword == defaultSeedPassword {
			return fmt.Errorf("SEED_ADMIN_PASSWORD must be changed in production")
		}
		if c.Cache.Driver == "memory" {
			return fmt.Errorf("memory cache is not shared between instances; use CACHE_DRIVER=redis in production")
		}
	}
	return nil
}

// UsesRedis, Redis bağlantısına ihtiyaç olup olmadığını söyler.
func (c *Config) UsesRedis() bool {
	return c.Cache.Driver == "redis" || c.Events.RedisChannel != ""
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
