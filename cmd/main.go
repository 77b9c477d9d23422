package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/chenBenjamin97/pitch-analyzer/pkg/api"
	"github.com/chenBenjamin97/pitch-analyzer/pkg/baseline"
	"github.com/chenBenjamin97/pitch-analyzer/pkg/config"
	"github.com/chenBenjamin97/pitch-analyzer/pkg/detect"
	"github.com/chenBenjamin97/pitch-analyzer/pkg/features"
	"github.com/chenBenjamin97/pitch-analyzer/pkg/formation"
	"github.com/chenBenjamin97/pitch-analyzer/pkg/logging"
	"github.com/chenBenjamin97/pitch-analyzer/pkg/metrics"
	"github.com/chenBenjamin97/pitch-analyzer/pkg/pipeline"
	"github.com/chenBenjamin97/pitch-analyzer/pkg/render"
	"github.com/chenBenjamin97/pitch-analyzer/pkg/risk"
	"github.com/chenBenjamin97/pitch-analyzer/pkg/utils"
	"github.com/chenBenjamin97/pitch-analyzer/pkg/video"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stdout)
	log := logrus.NewEntry(logger).WithField("service", "pitch-analyzer")
	if logger.GetLevel() < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	//first - create project's data directories
	if err := utils.EnsureDirs(cfg.Directory.All()...); err != nil {
		log.Fatalf("Error: %v", err)
	}

	repo, closeRepo, err := openRepository(cfg.Store, log)
	if err != nil {
		log.Fatalf("Error: could not open baseline store, got '%v'", err)
	}
	defer closeRepo()

	trainer, err := baseline.NewTrainer(cfg.Risk.Features, cfg.Baseline.Params())
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	store := baseline.NewModelStore(repo, trainer, log)

	classifier, err := formation.NewClassifier(cfg.Formation.ClassifierRules(), cfg.Formation.CompactnessNorm)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	analyzer, err := risk.NewAnalyzer(store, cfg.Risk.Levels())
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	segmenter, err := detect.NewColorSegmenter(
		detect.WithMinArea(cfg.Detect.MinArea),
		detect.WithTeamRanges(cfg.Detect.TeamRanges()...),
		detect.WithOpenKernel(cfg.Detect.OpenKernel),
	)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	m := metrics.New()
	opts := []pipeline.Option{
		pipeline.WithLogger(log),
		pipeline.WithMetrics(m),
		pipeline.WithMaxConcurrent(cfg.Analysis.MaxConcurrent),
		pipeline.WithExtractor(features.NewExtractor()),
	}

	if cfg.Pose.Model != "" {
		pose, err := detect.NewPoseEstimator(cfg.Pose.Model, detect.WithPoseInputSize(cfg.Pose.InputSize), detect.WithPoseThreshold(cfg.Pose.Threshold))
		if err != nil {
			log.Fatalf("Error: %v", err)
		}
		defer pose.Close()
		opts = append(opts, pipeline.WithPoseLocalizer(pose))
	} else {
		log.Warn("pose.model not set, risk analysis and baseline training are disabled")
	}

	if cfg.Video.Render {
		opts = append(opts, pipeline.WithAnnotator(annotatorFactory(cfg, log)))
	}

	p, err := pipeline.New(pipeline.Components{
		Open:       pipeline.VideoOpener(cfg.Analysis.MaxFrames),
		Players:    segmenter,
		Classifier: classifier,
		Analyzer:   analyzer,
		Store:      store,
	}, opts...)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	r := api.SetRouter(p, api.Settings{
		UploadsDir:     cfg.Directory.Uploads,
		ProcessedDir:   cfg.Directory.Processed,
		RateLimit:      cfg.HTTP.RateLimit,
		RateBurst:      cfg.HTTP.RateBurst,
		MaxUploadBytes: cfg.HTTP.MaxUploadMB << 20,
		Metrics:        m.Handler(),
	}, log)

	serve(r, cfg.HTTP, log)
}

//openRepository builds the baseline repository for the configured driver, and its cleanup
func openRepository(cfg config.StoreConfig, log *logrus.Entry) (baseline.Repository, func(), error) {
	switch cfg.Driver {
	case "memory":
		return baseline.NewMemoryRepository(), func() {}, nil

	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("redis ping '%s': %w", cfg.RedisAddr, err)
		}
		return baseline.NewRedisRepository(client, log), func() { client.Close() }, nil

	default:
		db, err := baseline.OpenDB(cfg.Driver, cfg.DSN, cfg.Verbose)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		return baseline.NewSQLRepository(db), func() { sqlDB.Close() }, nil
	}
}

//annotatorFactory writes annotated videos to the processed directory, named after the upload
func annotatorFactory(cfg *config.Config, log *logrus.Entry) pipeline.AnnotatorFactory {
	return func(sourcePath string, props video.Properties) (pipeline.Annotator, error) {
		name := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath)) + utils.ProcessedVideoExtension
		return render.New(filepath.Join(cfg.Directory.Processed, name), props,
			render.WithCodec(cfg.Video.Codec),
			render.WithQueueSize(cfg.Video.Queue),
			render.WithTranscode(cfg.Video.Transcode),
			render.WithLogger(log),
		)
	}
}

//serve runs the web server until SIGINT/SIGTERM, then lets in-flight requests finish within the grace period
func serve(handler http.Handler, cfg config.HTTPConfig, log *logrus.Entry) {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("Starting web server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Error: Got '%v'", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down web server")
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownGrace)*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("forced shutdown")
	}
}
