package server

import (
	"context"
	"fmt"

	kratoslog "github.com/go-kratos/kratos/v2/log"

	"tripfeed/pkg/config"
	"tripfeed/pkg/database"
	"tripfeed/pkg/lifecycle"
	"tripfeed/pkg/logger"
	"tripfeed/pkg/middleware"
	"tripfeed/pkg/redis"
	"tripfeed/pkg/telemetry"
)

// 生命周期优先级
const (
	PriorityTelemetry      = 0
	PriorityInfrastructure = 10
	PriorityServer         = 100
	PriorityConsumer       = 200
)

// Application 应用程序框架
type Application struct {
	serviceName  string
	config       *config.Config
	logger       logger.Logger
	kratosLogger kratoslog.Logger
	lifecycle    *lifecycle.Manager
	httpServer   *HTTPServer

	// 基础设施组件
	postgreSQL    *database.PostgreSQL
	mongoDB       *database.MongoDB
	elasticSearch *database.ElasticSearch
	redisClient   *redis.RedisClient
}

// NewApplication 加载配置并初始化基础设施
func NewApplication(serviceName string) (*Application, error) {
	cfg, err := config.LoadConfig(serviceName)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.NewLogger(cfg.Logger.Level)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	kratosLogger := kratoslog.With(logger.NewKratosLogger(log),
		"service", cfg.App.Name,
		"version", cfg.App.Version)

	app := &Application{
		serviceName:  serviceName,
		config:       cfg,
		logger:       log,
		kratosLogger: kratosLogger,
		lifecycle:    lifecycle.NewManager(kratosLogger),
		httpServer:   NewHTTPServer(cfg.Server.HTTP, kratosLogger),
	}

	if err := app.initTelemetry(); err != nil {
		return nil, err
	}
	if err := app.initInfrastructure(); err != nil {
		app.closeInfrastructure(context.Background())
		return nil, err
	}
	app.initHTTP()
	return app, nil
}

// initTelemetry 初始化链路追踪
func (app *Application) initTelemetry() error {
	err := telemetry.InitGlobal(&telemetry.Config{
		ServiceName:    app.config.App.Name,
		ServiceVersion: app.config.App.Version,
		Environment:    app.config.App.Environment,
		ExporterType:   app.config.Telemetry.Exporter,
		SampleRate:     app.config.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}

	app.lifecycle.AddHook(lifecycle.Hook{
		Name:     "telemetry",
		Priority: PriorityTelemetry,
		OnStop:   telemetry.ShutdownGlobal,
	})
	return nil
}

// initInfrastructure 初始化基础设施组件
func (app *Application) initInfrastructure() error {
	ctx := context.Background()

	postgreSQL, err := database.NewPostgreSQL(app.config.Database.PostgreSQL)
	if err != nil {
		return fmt.Errorf("connect postgresql: %w", err)
	}
	app.postgreSQL = postgreSQL

	mongoDB, err := database.NewMongoDB(app.config.Database.MongoDB)
	if err != nil {
		return fmt.Errorf("connect mongodb: %w", err)
	}
	app.mongoDB = mongoDB

	elasticSearch, err := database.NewElasticSearch(app.config.Elasticsearch, app.logger)
	if err != nil {
		return fmt.Errorf("connect elasticsearch: %w", err)
	}
	app.elasticSearch = elasticSearch

	app.redisClient = redis.NewRedisClient(app.config.Redis.Addr, app.config.Redis.Password, app.config.Redis.DB)
	if err := app.redisClient.Ping(ctx); err != nil {
		// 关系缓存不可用时读路径回落到关系库
		app.logger.Warn(ctx, "Redis unavailable at startup", logger.F("error", err.Error()))
	}

	app.lifecycle.AddHook(lifecycle.Hook{
		Name:     "infrastructure",
		Priority: PriorityInfrastructure,
		OnStop: func(ctx context.Context) error {
			app.closeInfrastructure(ctx)
			return nil
		},
	})

	app.httpServer.AddHealthCheck("postgresql", app.postgreSQL.Health)
	app.httpServer.AddHealthCheck("mongodb", app.mongoDB.Health)
	app.httpServer.AddHealthCheck("elasticsearch", app.elasticSearch.Ping)
	app.httpServer.AddHealthCheck("redis", app.redisClient.Ping)
	return nil
}

// initHTTP 注册通用中间件和服务器钩子
func (app *Application) initHTTP() {
	engine := app.httpServer.Engine()
	engine.Use(middleware.NewOTelMiddleware(app.config.App.Name).Handlers()...)
	engine.Use(middleware.Recovery(app.logger))
	engine.Use(middleware.Logging(app.logger))
	engine.Use(middleware.Identity(app.logger))

	app.lifecycle.AddHook(lifecycle.Hook{
		Name:     "http",
		Priority: PriorityServer,
		OnStart:  app.httpServer.Start,
		OnStop:   app.httpServer.Stop,
	})
}

func (app *Application) closeInfrastructure(ctx context.Context) {
	if app.redisClient != nil {
		if err := app.redisClient.Close(); err != nil {
			app.logger.Error(ctx, "Failed to close Redis", logger.F("error", err.Error()))
		}
	}
	if app.mongoDB != nil {
		if err := app.mongoDB.Close(); err != nil {
			app.logger.Error(ctx, "Failed to close MongoDB", logger.F("error", err.Error()))
		}
	}
	if app.postgreSQL != nil {
		if err := app.postgreSQL.Close(); err != nil {
			app.logger.Error(ctx, "Failed to close PostgreSQL", logger.F("error", err.Error()))
		}
	}
}

// AddHook 注册业务生命周期钩子
func (app *Application) AddHook(hook lifecycle.Hook) {
	app.lifecycle.AddHook(hook)
}

// HTTPServer 获取HTTP服务器
func (app *Application) HTTPServer() *HTTPServer {
	return app.httpServer
}

// GetPostgreSQL 获取PostgreSQL连接
func (app *Application) GetPostgreSQL() *database.PostgreSQL {
	return app.postgreSQL
}

// GetMongoDB 获取MongoDB连接
func (app *Application) GetMongoDB() *database.MongoDB {
	return app.mongoDB
}

// GetElasticSearch 获取ElasticSearch客户端
func (app *Application) GetElasticSearch() *database.ElasticSearch {
	return app.elasticSearch
}

// GetRedisClient 获取Redis客户端
func (app *Application) GetRedisClient() *redis.RedisClient {
	return app.redisClient
}

// GetLogger 获取日志器
func (app *Application) GetLogger() logger.Logger {
	return app.logger
}

// GetConfig 获取配置
func (app *Application) GetConfig() *config.Config {
	return app.config
}

// Run 启动所有钩子并等待退出信号
func (app *Application) Run() error {
	if err := app.lifecycle.Start(); err != nil {
		return fmt.Errorf("start lifecycle: %w", err)
	}
	app.logger.Info(context.Background(), "Service started",
		logger.F("service", app.serviceName),
		logger.F("addr", app.httpServer.Addr().String()))
	return app.lifecycle.Wait()
}
