// cmd/notify-worker/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/druids/gonotify/internal/common/aws"
	"github.com/druids/gonotify/internal/common/config"
	"github.com/druids/gonotify/internal/common/database"
	httpclient "github.com/druids/gonotify/internal/common/http"
	"github.com/druids/gonotify/internal/common/logger"
	"github.com/druids/gonotify/internal/common/observability"
	"github.com/druids/gonotify/internal/notify"
	"github.com/druids/gonotify/internal/notify/dispatch"
	"github.com/druids/gonotify/internal/notify/handler"
	"github.com/druids/gonotify/internal/notify/objects"
	"github.com/druids/gonotify/internal/notify/registry"
	"github.com/druids/gonotify/internal/notify/render"
	signalpkg "github.com/druids/gonotify/internal/notify/signal"
	"github.com/druids/gonotify/internal/notify/storage"
	"github.com/druids/gonotify/internal/notify/task"
	"github.com/druids/gonotify/internal/notify/template"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("starting notify worker",
		zap.String("receiver", cfg.Notify.Receiver),
		zap.String("queue", cfg.Notify.TaskQueue),
	)

	obs := observability.New("notify-worker")
	defer obs.Shutdown()

	// --- Postgres with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return pg.Ping(pingCtx)
	}, 10, 2*time.Second, zapLog, "postgres initialization")
	if err != nil {
		zapLog.Fatal("postgres init failed", zap.Error(err))
	}
	defer pg.Close()

	// --- Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		return err
	}, 10, 2*time.Second, zapLog, "redis initialization")
	if err != nil {
		zapLog.Fatal("redis init failed", zap.Error(err))
	}
	defer rdb.Close()

	// --- Pipeline assembly ---
	catalog, err := render.LoadCatalog(cfg.Notify.Template.TranslationCatalog)
	if err != nil {
		zapLog.Fatal("translation catalog load failed", zap.Error(err))
	}

	loaders, err := signalpkg.NewLoaders(objectLoaders(pg)...)
	if err != nil {
		zapLog.Fatal("loader registry build failed", zap.Error(err))
	}

	sandbox := render.NewSandbox(loaders, cfg.Notify.RelatedObjects.AllowedAttributes, log)
	renderer := render.NewRenderer(render.Options{
		Check:     cfg.Notify.Template.Check,
		Translate: cfg.Notify.Template.Translate,
		Prefix:    cfg.Notify.Template.Prefix,
		StripHTML: cfg.Notify.Template.StripHTML,
	}, catalog)

	templateStore := template.NewPostgresStore(pg.DB)
	notificationStore := storage.NewPostgresStore(pg.DB)
	pipeline := handler.NewPipeline(
		template.NewResolver(templateStore, log),
		notificationStore,
		sandbox,
		renderer,
		log,
	)

	dispatchers, err := buildDispatchers(cfg, pg, log)
	if err != nil {
		zapLog.Fatal("dispatcher setup failed", zap.Error(err))
	}

	reg, err := registry.Build(handlerProviders(dispatchers), cfg.Notify.AutoloadHandlers)
	if err != nil {
		zapLog.Fatal("handler registry build failed", zap.Error(err))
	}

	queue := task.NewQueue(rdb.Client, cfg.Notify.TaskQueue, log)
	worker := task.NewWorker(queue, reg, pipeline, loaders, log).
		WithAfterTask(func(status string, d time.Duration) {
			obs.RecordTaskProcessed(context.Background(), status)
			obs.RecordTaskDuration(context.Background(), d, status)
		})

	// --- Metrics endpoint ---
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(":9090", nil); err != nil {
			zapLog.Error("metrics server stopped", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
		zapLog.Fatal("worker stopped", zap.Error(err))
	}
	zapLog.Info("notify worker shut down")
}

// handlerProviders lists the compiled-in handler providers; the
// notify.autoload_handlers setting selects which of them activate.
func handlerProviders(dispatchers []dispatch.Dispatcher) []registry.Provider {
	return []registry.Provider{
		notify.NotifyProvider(dispatchers...),
	}
}

// buildDispatchers assembles the delivery channels enabled in configuration.
func buildDispatchers(cfg *config.Config, pg *database.PostgresClient, log logger.Logger) ([]dispatch.Dispatcher, error) {
	var out []dispatch.Dispatcher
	contacts := dispatch.NewPostgresContactProvider(pg.DB)

	if cfg.Dispatch.Email.Enabled {
		ses, err := aws.NewSESClient(context.Background(), cfg.AWS.Region)
		if err != nil {
			return nil, fmt.Errorf("ses client: %w", err)
		}
		out = append(out, dispatch.NewEmailDispatcher(ses, contacts, cfg.Dispatch.Email.FromEmail, log))
	}
	if cfg.Dispatch.SMS.Enabled {
		sns, err := aws.NewSNSClient(context.Background(), cfg.AWS.Region)
		if err != nil {
			return nil, fmt.Errorf("sns client: %w", err)
		}
		out = append(out, dispatch.NewSMSDispatcher(sns, contacts, cfg.Dispatch.SMS.SenderID, log))
	}
	if cfg.Dispatch.Push.Enabled {
		client := httpclient.NewClient(time.Duration(cfg.Dispatch.Push.Timeout) * time.Millisecond)
		out = append(out, dispatch.NewPushDispatcher(client, cfg.Dispatch.Push.Endpoint, log))
	}
	return out, nil
}

// objectLoaders lists the compiled-in related-object loaders.
func objectLoaders(pg *database.PostgresClient) []signalpkg.Loader {
	return []signalpkg.Loader{
		objects.NewUserLoader(pg.DB),
	}
}
