package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"
)

// Drivers de store aceitos em STORE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// Destinos de pedidos de reposição aceitos em REORDER_SINKS.
const (
	SinkCSV      = "csv"
	SinkPostgres = "postgres"
	SinkSheets   = "sheets"
	SinkWebhook  = "webhook"
)

// Config armazena todas as configurações do StockManager.
type Config struct {
	// Geral
	Port        string
	Environment string
	LogLevel    string

	// Store
	StoreDriver string

	// Banco de Dados (PostgreSQL)
	DatabaseURL string
	DBTimeout   time.Duration

	// MongoDB
	MongoURI      string
	MongoDBName   string
	MongoTestMode bool

	// Cache (Redis)
	RedisAddr    string
	CacheTimeout time.Duration
	CacheTTL     time.Duration

	// Segurança (JWT e contas do balcão)
	JWTSecretKey         string
	TokenExpiry          time.Duration
	OperatorUsername     string
	OperatorPasswordHash string
	AdminUsername        string
	AdminPasswordHash    string

	// Rate Limiting
	RateLimitMaxRequests int
	RateLimitPeriod      time.Duration

	// Reposição
	ReorderSinks          []string
	ReorderCSVPath        string
	ReorderWebhookURL     string
	ReorderWebhookTimeout time.Duration
	SheetsCredentialsPath string
	SheetID               string

	// Relatório agendado
	ReportCronSchedule string
	ReportDir          string
}

// LoadConfig carrega as configurações a partir das variáveis de ambiente.
func LoadConfig() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", DriverPostgres)),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		DBTimeout:   getDurationEnv("DB_TIMEOUT_SEC", 5) * time.Second,

		MongoURI:      getEnv("MONGODB_URI", ""),
		MongoDBName:   getEnv("MONGODB_DB_NAME", "stockmanager"),
		MongoTestMode: getBoolEnv("MONGODB_TEST_MODE", false),

		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		CacheTimeout: getDurationEnv("CACHE_TIMEOUT_SEC", 10) * time.Second,
		CacheTTL:     getDurationEnv("CACHE_TTL_SEC", 300) * time.Second,

		// mustGetEnv garante que a API não suba sem chave de assinatura
		JWTSecretKey:         mustGetEnv("JWT_SECRET_KEY"),
		TokenExpiry:          getDurationEnv("JWT_EXPIRY_MIN", 60) * time.Minute,
		OperatorUsername:     getEnv("OPERATOR_USERNAME", "operador"),
		OperatorPasswordHash: getEnv("OPERATOR_PASSWORD_HASH", ""),
		AdminUsername:        getEnv("ADMIN_USERNAME", "admin"),
		AdminPasswordHash:    getEnv("ADMIN_PASSWORD_HASH", ""),

		RateLimitMaxRequests: getIntEnv("RATE_LIMIT_MAX_REQUESTS", 100),
		RateLimitPeriod:      getDurationEnv("RATE_LIMIT_PERIOD_MIN", 1) * time.Minute,

		ReorderSinks:          getListEnv("REORDER_SINKS", []string{SinkCSV}),
		ReorderCSVPath:        getEnv("REORDER_CSV_PATH", "StockOrder.csv"),
		ReorderWebhookURL:     getEnv("REORDER_WEBHOOK_URL", ""),
		ReorderWebhookTimeout: getDurationEnv("REORDER_WEBHOOK_TIMEOUT_SEC", 15) * time.Second,
		SheetsCredentialsPath: getEnv("GOOGLE_SHEETS_CREDENTIALS_PATH", ""),
		SheetID:               getEnv("GOOGLE_SHEET_ID", ""),

		ReportCronSchedule: getEnv("REPORT_CRON_SCHEDULE", ""),
		ReportDir:          getEnv("REPORT_DIR", "reports"),
	}
}

// Validate confere as variáveis exigidas pelo driver e pelos destinos escolhidos.
// Todos os problemas são devolvidos juntos.
func (c *Config) Validate() error {
	var err error

	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			err = multierr.Append(err, fmt.Errorf("DATABASE_URL é obrigatória com STORE_DRIVER=postgres"))
		}
	case DriverMongo:
		if c.MongoURI == "" {
			err = multierr.Append(err, fmt.Errorf("MONGODB_URI é obrigatória com STORE_DRIVER=mongo"))
		}
	case DriverMemory:
	default:
		err = multierr.Append(err, fmt.Errorf("STORE_DRIVER desconhecido: %q", c.StoreDriver))
	}

	for _, sink := range c.ReorderSinks {
		switch sink {
		case SinkCSV:
			if c.ReorderCSVPath == "" {
				err = multierr.Append(err, fmt.Errorf("REORDER_CSV_PATH é obrigatória para o destino csv"))
			}
		case SinkPostgres:
			if c.DatabaseURL == "" {
				err = multierr.Append(err, fmt.Errorf("DATABASE_URL é obrigatória para o destino postgres"))
			}
		case SinkWebhook:
			if c.ReorderWebhookURL == "" {
				err = multierr.Append(err, fmt.Errorf("REORDER_WEBHOOK_URL é obrigatória para o destino webhook"))
			}
		case SinkSheets:
			if c.SheetID == "" || c.SheetsCredentialsPath == "" {
				err = multierr.Append(err, fmt.Errorf("GOOGLE_SHEET_ID e GOOGLE_SHEETS_CREDENTIALS_PATH são obrigatórias para o destino sheets"))
			}
		default:
			err = multierr.Append(err, fmt.Errorf("destino de reposição desconhecido: %q", sink))
		}
	}

	return err
}

// NeedsPostgres informa se o driver ou algum destino usa o PostgreSQL.
func (c *Config) NeedsPostgres() bool {
	if c.StoreDriver == DriverPostgres {
		return true
	}
	for _, sink := range c.ReorderSinks {
		if sink == SinkPostgres {
			return true
		}
	}
	return false
}

// Funções Helpers (Auxiliares)

// getEnv lê a variável de ambiente ou retorna um valor padrão.
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// mustGetEnv lê a variável de ambiente, fatal se não estiver presente.
func mustGetEnv(key string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Fatalf("❌ Erro de Configuração: A variável de ambiente %s deve ser definida.", key)
	return ""
}

// getDurationEnv lê uma variável de ambiente numérica e retorna-a como time.Duration.
func getDurationEnv(key string, defaultValue int) time.Duration {
	return time.Duration(getIntEnv(key, defaultValue))
}

// getIntEnv lê uma variável de ambiente numérica e retorna-a como int.
func getIntEnv(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("⚠️ Aviso: Valor de %s ('%s') não é um número inteiro válido. Usando padrão (%d).", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

func getBoolEnv(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("⚠️ Aviso: Valor de %s ('%s') não é booleano. Usando padrão (%t).", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

// getListEnv lê uma lista separada por vírgulas. Definida e vazia vira lista vazia.
func getListEnv(key string, defaultValue []string) []string {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	out := []string{}
	for _, item := range strings.Split(valueStr, ",") {
		if item = strings.ToLower(strings.TrimSpace(item)); item != "" {
			out = append(out, item)
		}
	}
	return out
}
