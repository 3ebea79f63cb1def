package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App       AppConfig
	DB        DBConfig
	JWT       JWTConfig
	HTTP      HTTPConfig
	Auth      AuthConfig
	Redis     RedisConfig
	Inventory InventoryConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env           string // development, staging, production
	Name          string
	LogLevel      string
	StorageDriver string // postgres | memory
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// JWTConfig configuración de JWT.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// AuthConfig credenciales del administrador (hash bcrypt).
type AuthConfig struct {
	AdminEmail        string
	AdminPasswordHash string
}

// RedisConfig caché del dashboard. Addr vacío = sin caché.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// InventoryConfig políticas del motor de inventario.
type InventoryConfig struct {
	LowStockThreshold int
	// ReversalCost: "recompute" recalcula el costo promedio al reversar una recepción;
	// "keep" lo deja igual (comportamiento anterior).
	ReversalCost string
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, DB_PORT, JWT_SECRET, etc.
func Load() (*Config, error) {
	v := viper.New()

	// Opcional: archivo .env en el directorio actual
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:           getString(v, "APP_ENV", "development"),
			Name:          getString(v, "APP_NAME", "inventario-ledger"),
			LogLevel:      getString(v, "LOG_LEVEL", "info"),
			StorageDriver: getString(v, "STORAGE_DRIVER", "postgres"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "inventario"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
			MaxConns:    getInt(v, "DB_MAX_CONNS", 10),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "inventario-ledger"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		Auth: AuthConfig{
			AdminEmail:        getString(v, "ADMIN_EMAIL", "admin@localhost"),
			AdminPasswordHash: getString(v, "ADMIN_PASSWORD_HASH", ""),
		},
		Redis: RedisConfig{
			Addr:     getString(v, "REDIS_ADDR", ""),
			Password: getString(v, "REDIS_PASSWORD", ""),
			DB:       getInt(v, "REDIS_DB", 0),
			TTL:      time.Duration(getInt(v, "DASHBOARD_CACHE_TTL_SECONDS", 60)) * time.Second,
		},
		Inventory: InventoryConfig{
			LowStockThreshold: getInt(v, "INVENTORY_LOW_STOCK_THRESHOLD", 5),
			ReversalCost:      getString(v, "INVENTORY_REVERSAL_COST", "recompute"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.App.StorageDriver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("config: STORAGE_DRIVER inválido %q (postgres|memory)", c.App.StorageDriver)
	}
	switch c.Inventory.ReversalCost {
	case "recompute", "keep":
	default:
		return fmt.Errorf("config: INVENTORY_REVERSAL_COST inválido %q (recompute|keep)", c.Inventory.ReversalCost)
	}
	if c.Inventory.LowStockThreshold < 0 {
		return fmt.Errorf("config: INVENTORY_LOW_STOCK_THRESHOLD no puede ser negativo")
	}
	return nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(v.GetString(key))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}
