package main

import (
	"context"

	"tripfeed/apps/feed-service/internal/consumer"
	"tripfeed/apps/feed-service/internal/dao"
	"tripfeed/apps/feed-service/internal/enrich"
	"tripfeed/apps/feed-service/internal/handler"
	"tripfeed/apps/feed-service/internal/service"
	"tripfeed/pkg/lifecycle"
	"tripfeed/pkg/logger"
	"tripfeed/pkg/server"
)

func main() {
	// 创建应用程序
	app, err := server.NewApplication("feed-service")
	if err != nil {
		panic(err)
	}
	cfg := app.GetConfig()
	log := app.GetLogger()

	postgreSQL := app.GetPostgreSQL()

	// 初始化DAO层
	postDAO := dao.NewPostDAO(postgreSQL)
	relationDAO := dao.NewCachedRelationDAO(
		dao.NewRelationDAO(postgreSQL),
		app.GetRedisClient(),
		cfg.Feed.RelationCacheTTL,
		log,
	)
	searchDAO := dao.NewElasticsearchDAO(app.GetElasticSearch().GetClient(), cfg.Feed.SearchIndex, log)

	// 初始化富化管线
	pipeline := enrich.NewPipeline(enrich.Dependencies{
		Relations:  relationDAO,
		Posts:      postDAO,
		Locations:  dao.NewLocationViewDAO(app.GetMongoDB().GetDatabase()),
		Activities: dao.NewActivityDAO(postgreSQL),
		Plans:      dao.NewPlanDAO(postgreSQL),
		Reactions:  dao.NewReactionDAO(postgreSQL),
		Maps:       dao.NewMapDAO(postgreSQL),
	}, cfg.Feed.EnrichConcurrency, log)

	// 初始化Service层
	svc := service.NewFeedService(postDAO, searchDAO, relationDAO, pipeline, &service.ServiceConfig{
		DefaultPageSize: cfg.Feed.DefaultPageSize,
		MaxPageSize:     cfg.Feed.MaxPageSize,
	}, log)

	// 注册HTTP路由
	handler.NewHTTPHandler(svc, log).RegisterRoutes(app.HTTPServer().Engine())

	// 关系变更事件，清除关系缓存
	if cfg.Kafka.Enabled {
		relationConsumer := consumer.NewRelationEventConsumer(relationDAO, log)
		app.AddHook(lifecycle.Hook{
			Name:     "relation-consumer",
			Priority: server.PriorityConsumer,
			OnStart: func(ctx context.Context) error {
				return relationConsumer.Start(ctx, cfg.Kafka.Brokers, cfg.Kafka.GroupID)
			},
			OnStop: func(ctx context.Context) error {
				return relationConsumer.Stop()
			},
		})
	} else {
		log.Warn(context.Background(), "Kafka disabled, relation cache relies on TTL expiry",
			logger.F("ttl", cfg.Feed.RelationCacheTTL.String()))
	}

	// 运行应用程序
	if err := app.Run(); err != nil {
		log.Fatal(context.Background(), "Application exited with error", logger.F("error", err.Error()))
	}
}
