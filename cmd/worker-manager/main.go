// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/analysis"
	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/booking"
	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/common/aws"
	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/common/camunda"
	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/common/config"
	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/common/database"
	apperrors "github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/common/errors"
	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/common/logger"
	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/common/metrics"
	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/common/observability"
	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/geo"
	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/matching"
	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/messaging"
	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/repository"
	"github.com/paruuuu0310/tattoo-journey-v1-sub002/pkg/registry"

	// Matching Workers (1)
	fm "github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/workers/matching/find-matches"

	// Booking Workers (5)
	cab "github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/workers/booking/cancel-booking"
	cob "github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/workers/booking/complete-booking"
	cfb "github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/workers/booking/confirm-booking"
	crb "github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/workers/booking/create-booking"
	rsb "github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/workers/booking/respond-booking"

	// Portfolio Workers (1)
	ap "github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/workers/portfolio/analyze-portfolio"
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
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Load Activity Registry ---
	reg, err := registry.LoadRegistry(cfg.Registry.Path)
	if err != nil {
		zapLog.Fatal("activity registry load failed", zap.Error(err), zap.String("path", cfg.Registry.Path))
	}
	zapLog.Info("Activity registry loaded",
		zap.String("version", reg.Version),
		zap.Int("activities", len(reg.Activities)),
	)

	// --- Init Zeebe Client with retry ---
	var camundaClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		camundaClient, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         time.Duration(cfg.Camunda.RequestTimeout) * time.Millisecond,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zeebeClient := camundaClient.Raw()
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		// Test the connection with context
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		// Test the connection with context
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		// Test the connection
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Stores & Services ---
	geoIndex := geo.NewIndex(rdb.Client)
	artistStore := repository.NewArtistStore(
		pg.DB, rdb.Client,
		time.Duration(cfg.Matching.ProfileCacheTTL)*time.Second,
		log,
	)
	bookingStore := repository.NewBookingStore(rdb.Client, log)
	scheduleStore := repository.NewScheduleStore(
		rdb.Client,
		cfg.Booking.DayStartHour, cfg.Booking.DayEndHour,
		log,
	)

	var auditor matching.QueryAuditor
	if cfg.Matching.AuditEnabled {
		auditor = repository.NewAuditSink(esClient.Client, cfg.Matching.AuditIndex, log)
	}

	ranker := matching.NewRanker(
		geoIndex, artistStore, auditor,
		matching.RankerConfig{
			MinScore:            cfg.Matching.MinScore,
			MaxResults:          cfg.Matching.MaxResults,
			DefaultSessionHours: cfg.Booking.DefaultSessionHours,
		},
		log,
	)

	var notifier booking.Notifier
	if cfg.Notifications.Enabled {
		snsClient, err := aws.NewSNSClient(ctx, cfg.Notifications.AWSRegion)
		if err != nil {
			zapLog.Fatal("sns client failed", zap.Error(err))
		}
		var sesClient messaging.SESSender
		if cfg.Notifications.Email.Enabled {
			sesClient, err = aws.NewSESClient(ctx, cfg.Notifications.AWSRegion)
			if err != nil {
				zapLog.Fatal("ses client failed", zap.Error(err))
			}
		}
		notifier = messaging.NewNotifier(snsClient, sesClient, messaging.Config{
			TopicARN:     cfg.Notifications.SNSTopic,
			EmailEnabled: cfg.Notifications.Email.Enabled,
			FromEmail:    cfg.Notifications.Email.FromEmail,
		}, log)
		zapLog.Info("Notifier enabled", zap.String("topic", cfg.Notifications.SNSTopic))
	}

	coordinator := booking.NewCoordinator(
		bookingStore, scheduleStore, artistStore, notifier,
		cfg.Booking.DefaultSessionHours,
		log,
	)

	analysisClient := analysis.NewClient(
		cfg.Analysis.BaseURL,
		cfg.Analysis.APIKey,
		time.Duration(cfg.Analysis.Timeout)*time.Millisecond,
		log,
	)

	zapLog.Info("All stores and services initialized")

	// --- START: Register ALL 7 Workers ---

	// --- 1. Matching Workers (1) ---
	if cfg.Workers[fm.TaskType].Enabled {
		handler := fm.NewHandler(
			&fm.Config{
				Timeout:         time.Duration(cfg.Workers[fm.TaskType].Timeout) * time.Millisecond,
				DefaultRadiusKm: 10,
				MaxRadiusKm:     100,
			},
			ranker, log,
		)
		startWorker(zeebeClient, fm.TaskType, cfg.Workers[fm.TaskType], handler.Handle, reg, zapLog)
	}

	// --- 2. Booking Workers (5) ---
	if cfg.Workers[crb.TaskType].Enabled {
		handler := crb.NewHandler(
			&crb.Config{
				Timeout: time.Duration(cfg.Workers[crb.TaskType].Timeout) * time.Millisecond,
			},
			coordinator, log,
		)
		startWorker(zeebeClient, crb.TaskType, cfg.Workers[crb.TaskType], handler.Handle, reg, zapLog)
	}

	if cfg.Workers[rsb.TaskType].Enabled {
		handler := rsb.NewHandler(
			&rsb.Config{
				Timeout: time.Duration(cfg.Workers[rsb.TaskType].Timeout) * time.Millisecond,
			},
			coordinator, log,
		)
		startWorker(zeebeClient, rsb.TaskType, cfg.Workers[rsb.TaskType], handler.Handle, reg, zapLog)
	}

	if cfg.Workers[cfb.TaskType].Enabled {
		handler := cfb.NewHandler(
			&cfb.Config{
				Timeout: time.Duration(cfg.Workers[cfb.TaskType].Timeout) * time.Millisecond,
			},
			coordinator, log,
		)
		startWorker(zeebeClient, cfb.TaskType, cfg.Workers[cfb.TaskType], handler.Handle, reg, zapLog)
	}

	if cfg.Workers[cab.TaskType].Enabled {
		handler := cab.NewHandler(
			&cab.Config{
				Timeout: time.Duration(cfg.Workers[cab.TaskType].Timeout) * time.Millisecond,
			},
			coordinator, log,
		)
		startWorker(zeebeClient, cab.TaskType, cfg.Workers[cab.TaskType], handler.Handle, reg, zapLog)
	}

	if cfg.Workers[cob.TaskType].Enabled {
		handler := cob.NewHandler(
			&cob.Config{
				Timeout: time.Duration(cfg.Workers[cob.TaskType].Timeout) * time.Millisecond,
			},
			coordinator, log,
		)
		startWorker(zeebeClient, cob.TaskType, cfg.Workers[cob.TaskType], handler.Handle, reg, zapLog)
	}

	// --- 3. Portfolio Workers (1) ---
	if cfg.Workers[ap.TaskType].Enabled {
		handler := ap.NewHandler(
			&ap.Config{
				Timeout: time.Duration(cfg.Workers[ap.TaskType].Timeout) * time.Millisecond,
			},
			analysisClient, artistStore, log,
		)
		startWorker(zeebeClient, ap.TaskType, cfg.Workers[ap.TaskType], handler.Handle, reg, zapLog)
	}

	zapLog.Info("All 7 workers registered successfully")

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range jobWorkers {
		w.Stop(shutdownCtx)
	}

	if err := camundaClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// jobWorkers collects every opened worker so shutdown can close them
// before the gRPC connection goes away.
var jobWorkers []*camunda.Worker

func startWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handlerFunc func(worker.JobClient, entities.Job), reg *registry.ActivityRegistry, log *zap.Logger) {
	if !wcfg.Enabled {
		log.Info("worker disabled", zap.String("taskType", taskType))
		return
	}

	if activity, ok := reg.FindByTaskType(taskType); ok {
		handlerFunc = schemaGuard(activity, handlerFunc, log)
	} else {
		log.Warn("task type missing from activity registry, input schema not enforced", zap.String("taskType", taskType))
	}

	w := camunda.NewWorker(
		client, taskType,
		wcfg.MaxJobsActive,
		time.Duration(wcfg.Timeout)*time.Millisecond,
		handlerFunc, log,
	)
	jobWorkers = append(jobWorkers, w)
}

// schemaGuard rejects a job whose variables fail the activity's published
// input schema before the handler runs, throwing the same BPMN validation
// error the handlers throw.
func schemaGuard(activity *registry.Activity, next func(worker.JobClient, entities.Job), log *zap.Logger) func(worker.JobClient, entities.Job) {
	return func(client worker.JobClient, job entities.Job) {
		if err := activity.ValidateVariables([]byte(job.Variables)); err != nil {
			stdErr := apperrors.NewValidationFailedError(err.Error())
			metrics.WorkerJobsFailed.WithLabelValues(activity.TaskType, string(stdErr.Code)).Inc()
			log.Warn("job rejected by input schema",
				zap.String("taskType", activity.TaskType),
				zap.Int64("jobKey", job.Key),
				zap.Error(err),
			)

			bpmnErr := apperrors.ConvertToBPMNError(stdErr)
			_, terr := client.NewThrowErrorCommand().
				JobKey(job.Key).
				ErrorCode(bpmnErr.Code).
				ErrorMessage(bpmnErr.Message).
				Send(context.Background())
			if terr != nil {
				log.Error("failed to throw validation error", zap.Error(terr))
			}
			return
		}
		next(client, job)
	}
}
