package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Estrategias de escritura soportadas.
const (
	StrategyBulk      = "bulk"
	StrategyProcedure = "procedure"
)

// MaxChunkSize tope de filas por INSERT multi-fila.
const MaxChunkSize = 1000

// Config agrupa la configuración del job (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App     AppConfig
	DB      DBConfig
	Ingest  IngestConfig
	Metrics MetricsConfig
}

// AppConfig configuración general.
type AppConfig struct {
	Env      string // development -> consola legible; production -> JSON
	Name     string
	LogLevel string
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL    string
	Host           string
	Port           int
	User           string
	Password       string
	DBName         string
	SSLMode        string
	ConnectTimeout time.Duration // timeout de conexión del driver
	QueryTimeout   time.Duration // statement_timeout de la sesión (0 = sin límite)
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

// IngestConfig parámetros de la corrida de ingesta.
type IngestConfig struct {
	RootPath        string // carpeta raíz con los ZIP/XML del proveedor
	VendorID        int    // proveedor fijo de esta corrida
	StationID       int    // estación fija de esta corrida
	Strategy        string // bulk | procedure
	ChunkSize       int
	TargetTable     string
	LedgerTable     string
	Procedure       string
	SpillDir        string
	IncludeLooseXML bool
}

// MetricsConfig exportación de métricas al terminar la corrida.
type MetricsConfig struct {
	Textfile string // ruta del archivo para el textfile collector; vacío = deshabilitado
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, INGEST_ROOT_PATH, etc.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // opcional

	v.SetConfigName("config")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig() // opcional

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "ncingest"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		DB: DBConfig{
			DatabaseURL:    getString(v, "DATABASE_URL", ""),
			Host:           getString(v, "DB_HOST", "localhost"),
			Port:           getInt(v, "DB_PORT", 5432),
			User:           getString(v, "DB_USER", "postgres"),
			Password:       getString(v, "DB_PASSWORD", ""),
			DBName:         getString(v, "DB_NAME", "sinergia"),
			SSLMode:        getString(v, "DB_SSLMODE", "disable"),
			ConnectTimeout: time.Duration(getInt(v, "DB_CONNECT_TIMEOUT_SECONDS", 10)) * time.Second,
			QueryTimeout:   time.Duration(getInt(v, "DB_QUERY_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		Ingest: IngestConfig{
			RootPath:        getString(v, "INGEST_ROOT_PATH", "."),
			VendorID:        getInt(v, "INGEST_VENDOR_ID", 1),
			StationID:       getInt(v, "INGEST_STATION_ID", 44),
			Strategy:        strings.ToLower(getString(v, "INGEST_STRATEGY", StrategyBulk)),
			ChunkSize:       getInt(v, "INGEST_CHUNK_SIZE", MaxChunkSize),
			TargetTable:     getString(v, "INGEST_TARGET_TABLE", "credit_note_vendor"),
			LedgerTable:     getString(v, "INGEST_LEDGER_TABLE", "opr_fuelpurchase"),
			Procedure:       getString(v, "INGEST_PROCEDURE", "sp_insert_credit_note_vendor"),
			SpillDir:        getString(v, "INGEST_SPILL_DIR", "./spill"),
			IncludeLooseXML: getBool(v, "INGEST_INCLUDE_LOOSE_XML", true),
		},
		Metrics: MetricsConfig{
			Textfile: getString(v, "METRICS_TEXTFILE", ""),
		},
	}
	if cfg.Ingest.ChunkSize < 1 || cfg.Ingest.ChunkSize > MaxChunkSize {
		cfg.Ingest.ChunkSize = MaxChunkSize
	}
	if err := cfg.Ingest.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate revisa los valores que no tienen un default seguro.
func (c IngestConfig) Validate() error {
	switch c.Strategy {
	case StrategyBulk, StrategyProcedure:
	default:
		return fmt.Errorf("config: INGEST_STRATEGY %q inválida (bulk|procedure)", c.Strategy)
	}
	if strings.TrimSpace(c.RootPath) == "" {
		return fmt.Errorf("config: INGEST_ROOT_PATH vacío")
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
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
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

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		return v.GetBool(key)
	}
	return def
}
