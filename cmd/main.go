package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"

	// Nossos pacotes de infraestrutura e utilitários
	"stockmanager/config"
	"stockmanager/internal/domain"
	"stockmanager/internal/pkg/cache"
	"stockmanager/internal/pkg/database"
	"stockmanager/internal/pkg/keylock"
	"stockmanager/internal/pkg/logger"
	"stockmanager/internal/pkg/mongodb"
	"stockmanager/internal/pkg/token"
	"stockmanager/internal/scheduler"

	// Camadas do Estoque para Injeção de Dependências
	"stockmanager/internal/api/auth"
	"stockmanager/internal/api/router"
	"stockmanager/internal/api/stock"
	"stockmanager/internal/repository/reorderrepo"
	"stockmanager/internal/repository/stockrepo"
	"stockmanager/internal/service/authservice"
	"stockmanager/internal/service/stockservice"
)

func main() {
	// 1. Configuração e Inicialização
	log.Println("⚡ Inicializando serviço StockManager...")
	// Sem .env seguimos com o ambiente do sistema (ex: Docker).
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ Aviso: Arquivo .env não encontrado ou erro de leitura. Carregando configs apenas do ambiente do sistema.")
	}

	cfg := config.LoadConfig()
	appLog := logger.NewLogger(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		appLog.Fatal("Configuração inválida.", err)
	}
	appLog.Info("Configurações carregadas.", map[string]interface{}{
		"env":           cfg.Environment,
		"store_driver":  cfg.StoreDriver,
		"reorder_sinks": cfg.ReorderSinks,
	})

	ctx := context.Background()

	// 2. Conexão com Recursos de Infraestrutura

	// A. Banco de Dados (PostgreSQL), quando o driver ou algum destino o usa
	var db *sql.DB
	if cfg.NeedsPostgres() {
		var err error
		db, err = database.NewPostgresDB(cfg.DatabaseURL)
		if err != nil {
			appLog.Fatal("Falha ao conectar ao banco de dados.", err)
		}
		defer db.Close()
		appLog.Info("Conexão PostgreSQL estabelecida.", nil)
	}

	// B. Cache (Redis). Sem Redis a API sobe sem cache e sem rate limiting.
	var cacheClient cache.Client
	if cfg.RedisAddr != "" {
		c, err := cache.NewRedisClient(cfg.RedisAddr, cfg.CacheTimeout)
		if err != nil {
			appLog.Warn("Redis indisponível; seguindo sem cache e sem rate limiting.", map[string]interface{}{"addr": cfg.RedisAddr, "error": err.Error()})
			if closer, ok := c.(io.Closer); ok {
				_ = closer.Close()
			}
		} else {
			cacheClient = c
			if closer, ok := c.(io.Closer); ok {
				defer closer.Close()
			}
			appLog.Info("Conexão Redis estabelecida.", nil)
		}
	}

	// 3. INJEÇÃO DE DEPENDÊNCIAS
	// Ordem: Repository -> Service -> Handler

	// A. Store de estoque
	stockRepo, mongoClient, err := buildStockStore(ctx, cfg, db, cacheClient, appLog)
	if err != nil {
		appLog.Fatal("Falha ao inicializar o store de estoque.", err)
	}
	if mongoClient != nil {
		defer func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = mongoClient.Disconnect(dctx)
		}()
	}

	// B. Destinos de pedidos de reposição
	fanout, err := buildReorderSinks(ctx, cfg, db, appLog)
	if err != nil {
		appLog.Fatal("Falha ao inicializar os destinos de reposição.", err)
	}
	var sink stockservice.ReorderSink
	if fanout.Len() > 0 {
		sink = fanout
	}

	// C. Serviços
	stockSvc := stockservice.NewService(stockRepo, sink, appLog.Named("stockservice"), stockservice.WithKeyLock(keylock.New()))
	appLog.Debug("Serviço de Estoque inicializado.", nil)

	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)
	authSvc := authservice.NewService([]authservice.Account{
		{Username: cfg.AdminUsername, PasswordHash: cfg.AdminPasswordHash, Role: domain.RoleAdmin},
		{Username: cfg.OperatorUsername, PasswordHash: cfg.OperatorPasswordHash, Role: domain.RoleOperator},
	}, tokenSvc, appLog.Named("authservice"))
	appLog.Debug("Serviço de Autenticação inicializado.", nil)

	// D. Handlers
	stockHandler := stock.NewHandler(stockSvc, appLog.Named("api.stock"))
	authHandler := auth.NewHandler(authSvc, appLog.Named("api.auth"))

	// 4. Relatório agendado
	sched := scheduler.NewScheduler(stockSvc, cfg.ReportCronSchedule, cfg.ReportDir, appLog)
	if err := sched.Start(); err != nil {
		appLog.Fatal("Falha ao iniciar o agendador.", err)
	}
	defer sched.Stop()

	// 5. Configuração e Início do Roteador/Servidor
	r := router.NewRouter(router.Deps{
		StockHandler:    stockHandler,
		AuthHandler:     authHandler,
		TokenValidator:  tokenSvc,
		RateLimitCache:  cacheClient,
		RateLimitMax:    cfg.RateLimitMaxRequests,
		RateLimitPeriod: cfg.RateLimitPeriod,
		Logger:          appLog.Named("http"),
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 6. Execução e Graceful Shutdown
	go func() {
		appLog.Info("Servidor StockManager ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal("Servidor falhou.", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	appLog.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLog.Error("Desligamento do servidor forçado.", err)
	}

	appLog.Info("Servidor encerrado com sucesso.", nil)
}

// buildStockStore escolhe o store pelo STORE_DRIVER. O cliente Mongo é devolvido para ser fechado no main.
func buildStockStore(ctx context.Context, cfg *config.Config, db *sql.DB, cacheClient cache.Client, log logger.Logger) (stockservice.StockRepository, *mongo.Client, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		log.Info("Store de estoque: PostgreSQL.", nil)
		return stockrepo.NewPostgresStore(db, cacheClient, cfg.DBTimeout, cfg.CacheTTL, log.Named("stockrepo")), nil, nil

	case config.DriverMongo:
		connectCtx, cancel := context.WithTimeout(ctx, cfg.DBTimeout)
		defer cancel()

		client, err := mongodb.NewClient(connectCtx, cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		store := stockrepo.NewMongoStore(client, cfg.MongoDBName, cfg.MongoTestMode, cfg.DBTimeout, log.Named("stockrepo"))
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, nil, err
		}
		log.Info("Store de estoque: MongoDB.", map[string]interface{}{"db": cfg.MongoDBName, "test_mode": cfg.MongoTestMode})
		return store, client, nil

	case config.DriverMemory:
		log.Warn("Store de estoque em memória: os dados não sobrevivem ao reinício.", nil)
		return stockrepo.NewMemoryStore(), nil, nil
	}
	return nil, nil, fmt.Errorf("driver desconhecido: %q", cfg.StoreDriver)
}

// buildReorderSinks monta o fanout com os destinos listados em REORDER_SINKS.
func buildReorderSinks(ctx context.Context, cfg *config.Config, db *sql.DB, log logger.Logger) (*reorderrepo.Fanout, error) {
	fanout := reorderrepo.NewFanout()
	for _, name := range cfg.ReorderSinks {
		switch name {
		case config.SinkCSV:
			fanout.Add(name, reorderrepo.NewCSVSink(cfg.ReorderCSVPath))
		case config.SinkPostgres:
			fanout.Add(name, reorderrepo.NewPostgresSink(db, cfg.DBTimeout, log.Named("reorder.postgres")))
		case config.SinkWebhook:
			fanout.Add(name, reorderrepo.NewWebhookSink(cfg.ReorderWebhookURL, cfg.ReorderWebhookTimeout))
		case config.SinkSheets:
			sheets, err := reorderrepo.NewSheetsSink(ctx, cfg.SheetsCredentialsPath, cfg.SheetID, log.Named("reorder.sheets"))
			if err != nil {
				return nil, err
			}
			fanout.Add(name, sheets)
		default:
			return nil, fmt.Errorf("destino de reposição desconhecido: %q", name)
		}
		log.Info("Destino de reposição ativo.", map[string]interface{}{"sink": name})
	}
	return fanout, nil
}
