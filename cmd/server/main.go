package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ashwood-health/scr-backend/internal/assistant"
	"github.com/ashwood-health/scr-backend/internal/conf"
	"github.com/ashwood-health/scr-backend/internal/data"
	"github.com/ashwood-health/scr-backend/internal/docai"
	"github.com/ashwood-health/scr-backend/internal/pkg/logger"
	"github.com/ashwood-health/scr-backend/internal/server"

	docaiservice "github.com/ashwood-health/scr-backend/internal/docai/service"
	modelbiz "github.com/ashwood-health/scr-backend/internal/model/biz"
	modeldata "github.com/ashwood-health/scr-backend/internal/model/data"
	modelservice "github.com/ashwood-health/scr-backend/internal/model/service"
	templatebiz "github.com/ashwood-health/scr-backend/internal/template/biz"
	templatedata "github.com/ashwood-health/scr-backend/internal/template/data"
	templateservice "github.com/ashwood-health/scr-backend/internal/template/service"
	userbiz "github.com/ashwood-health/scr-backend/internal/user/biz"
	userdata "github.com/ashwood-health/scr-backend/internal/user/data"
	userservice "github.com/ashwood-health/scr-backend/internal/user/service"

	"go.uber.org/zap"
)

var (
	configFile = flag.String("config", "config.yaml", "config file path")
)

func main() {
	flag.Parse()

	config, err := conf.LoadConfig(*configFile)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logConfig := &logger.Config{
		Level:            config.Log.Level,
		Format:           config.Log.Format,
		Output:           config.Log.Output,
		EnableCaller:     config.Log.EnableCaller,
		EnableStacktrace: config.Log.EnableStacktrace,
		File: logger.FileConfig{
			Filename:   config.Log.File.Filename,
			MaxSize:    config.Log.File.MaxSize,
			MaxAge:     config.Log.File.MaxAge,
			MaxBackups: config.Log.File.MaxBackups,
			Compress:   config.Log.File.Compress,
		},
	}

	log, err := logger.New(logConfig)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	log.Info("config loaded successfully")

	d, cleanup, err := data.NewData(config, log.Logger)
	if err != nil {
		log.Fatal("failed to initialize data layer", zap.Error(err))
	}
	defer cleanup()

	// Provider client
	openaiClient := assistant.NewClient(&config.OpenAI)
	provider := assistant.NewOpenAIProvider(openaiClient, log.Named("assistant"))

	// Repositories
	templateRepo := templatedata.NewTemplateRepo(d.DB)
	assistantTypeRepo := templatedata.NewAssistantTypeRepo(d.DB)
	modelRefRepo := templatedata.NewModelRefRepo(d.DB)
	selectionRepo := templatedata.NewSelectionRepo(d.DB)
	modelRepo := modeldata.NewModelRepo(d.DB)
	userRepo := userdata.NewUserRepo(d.DB)

	// Use cases
	templateUseCase := templatebiz.NewTemplateUseCase(templateRepo, assistantTypeRepo, modelRefRepo, provider, log)
	selectionUseCase := templatebiz.NewSelectionUseCase(templateRepo, selectionRepo, assistantTypeRepo, log)
	modelUseCase := modelbiz.NewModelUseCase(
		modelRepo,
		modeldata.NewOpenAICatalog(openaiClient),
		modeldata.NewRedisSyncState(d.RedisClient),
		log,
	)
	userUseCase := userbiz.NewUserUseCase(userRepo, templateUseCase, log)

	// Document pipeline
	fileStore := docai.NewFileStore(openaiClient, d.MinIOClient, config.MinIO.Bucket, log)
	runner := docai.NewRunner(openaiClient, templateUseCase, selectionUseCase, log)

	// Services
	services := &server.Services{
		Template: templateservice.NewTemplateService(templateUseCase, selectionUseCase, userUseCase, log),
		Model:    modelservice.NewModelService(modelUseCase, log),
		User:     userservice.NewUserService(userUseCase, log),
		DocAI:    docaiservice.NewDocAIService(fileStore, runner, userUseCase, log),
	}

	httpServer := server.NewHTTPServer(config, log.Named("http"), d.RedisClient, services)

	go func() {
		if err := httpServer.Start(); err != nil {
			log.Fatal("failed to start HTTP server", zap.Error(err))
		}
	}()

	log.Info("server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Stop(ctx); err != nil {
		log.Error("HTTP server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}
