package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"photo-vault/api"
	"photo-vault/backfill"
	"photo-vault/config"
	"photo-vault/geocode"
	"photo-vault/metadata"
	"photo-vault/storage"
	"photo-vault/youtube"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.LogDev)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to create logger:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command := "serve"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "serve":
		err = serve(ctx, cfg, logger)
	case "backfill":
		err = runBackfill(ctx, cfg, logger)
	default:
		err = fmt.Errorf("unknown command %q (want serve or backfill)", command)
	}
	if err != nil {
		logger.Error("command failed", zap.String("command", command), zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

type services struct {
	mongo     *storage.Mongo
	photos    *storage.MongoPhotoDB
	files     *storage.LocalPhotoStorage
	extractor *metadata.Extractor
}

func openServices(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*services, error) {
	mongodb, err := storage.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, logger)
	if err != nil {
		return nil, err
	}
	photos := mongodb.Photos()
	if err := photos.EnsureIndexes(ctx); err != nil {
		_ = mongodb.Close(context.Background())
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}

	geocoder, err := geocode.New(cfg.NominatimURL,
		geocode.WithUserAgent(cfg.NominatimUserAgent),
		geocode.WithLanguage(cfg.NominatimLanguage),
		geocode.WithTimeout(cfg.GeocodeTimeout),
		geocode.WithInterval(cfg.GeocodeInterval),
		geocode.WithLogger(logger),
	)
	if err != nil {
		_ = mongodb.Close(context.Background())
		return nil, err
	}

	return &services{
		mongo:  mongodb,
		photos: photos,
		files: &storage.LocalPhotoStorage{
			Directory: cfg.UploadDir,
			Log:       logger,
		},
		extractor: metadata.NewExtractor(metadata.ExifParser{}, geocoder,
			metadata.WithLocation(cfg.ExifZone),
			metadata.WithLogger(logger),
		),
	}, nil
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if err := cfg.ValidateServe(); err != nil {
		return err
	}
	svc, err := openServices(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = svc.mongo.Close(context.Background()) }()

	handlers := &api.Handlers{
		Photos:         svc.photos,
		Songs:          svc.mongo.Soundtracks(),
		Files:          svc.files,
		Extractor:      svc.extractor,
		Videos:         youtube.NewClient(cfg.OEmbedURL, nil),
		UploadDir:      cfg.UploadDir,
		MaxUploadBytes: cfg.MaxUploadBytes(),
		DailyZone:      cfg.DailyZone,
		SecretKey:      cfg.JWTSecret,
		PasswordHash:   cfg.PasswordHash,
		Log:            logger,
	}

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handlers.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", cfg.ListenAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func runBackfill(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	svc, err := openServices(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = svc.mongo.Close(context.Background()) }()

	runner := &backfill.Runner{
		Store:     svc.photos,
		Files:     svc.files,
		Extractor: svc.extractor,
		Log:       logger,
	}
	res, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	logger.Info("backfill finished",
		zap.Int("total", res.Total),
		zap.Int("updated", res.Updated),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed),
	)
	return nil
}
