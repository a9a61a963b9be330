// Command sync-models refreshes the model registry from the provider
// catalog. Intended for cron or manual runs next to the server.
package main

import (
	"context"
	"flag"
	"fmt"
	stdlog "log"

	"github.com/ashwood-health/scr-backend/internal/assistant"
	"github.com/ashwood-health/scr-backend/internal/conf"
	"github.com/ashwood-health/scr-backend/internal/data"
	"github.com/ashwood-health/scr-backend/internal/pkg/logger"

	modelbiz "github.com/ashwood-health/scr-backend/internal/model/biz"
	modeldata "github.com/ashwood-health/scr-backend/internal/model/data"
)

var (
	configFile = flag.String("config", "config.yaml", "config file path")
)

func main() {
	flag.Parse()

	config, err := conf.LoadConfig(*configFile)
	if err != nil {
		stdlog.Fatalf("failed to load config: %v", err)
	}

	log, err := logger.New(&logger.Config{
		Level:  "info",
		Format: "console",
		Output: "console",
	})
	if err != nil {
		stdlog.Fatalf("failed to initialize logger: %v", err)
	}
	defer log.Sync()

	d, cleanup, err := data.NewData(config, log.Logger)
	if err != nil {
		stdlog.Fatalf("failed to initialize data layer: %v", err)
	}
	defer cleanup()

	openaiClient := assistant.NewClient(&config.OpenAI)

	modelUseCase := modelbiz.NewModelUseCase(
		modeldata.NewModelRepo(d.DB),
		modeldata.NewOpenAICatalog(openaiClient),
		modeldata.NewRedisSyncState(d.RedisClient),
		log,
	)

	count, err := modelUseCase.SyncModels(context.Background())
	if err != nil {
		stdlog.Fatalf("model sync failed: %v", err)
	}

	fmt.Printf("model sync complete: %d models in registry\n", count)
}
