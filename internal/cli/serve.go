package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/infra/cache"
	"storefront/internal/infra/db"
	"storefront/internal/infra/event"
	infrarepo "storefront/internal/infra/repository"
	"storefront/internal/logger"
	"storefront/internal/metrics"
	"storefront/internal/server"
	"storefront/internal/usecase"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, rootOpts)
		},
	}
}

func runServe(ctx context.Context, rootOpts *RootOptions) error {
	cfg, err := config.Load(rootOpts.EnvFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	l, err := logger.New(cfg.LogLevel, cfg.IsProd())
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Install(l)()
	defer func() { _ = l.Sync() }()

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() { _ = db.Close(gormDB) }()

	if err := db.Migrate(gormDB); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	m := metrics.New()

	//Repository（GORM実装）生成
	wishlistRepo := infrarepo.NewWishlistGormRepository(gormDB)
	userRepo := infrarepo.NewUserGormRepository(gormDB)
	productRepo := infrarepo.NewProductGormRepository(gormDB)

	//商品キャッシュ（任意）
	var productCache usecase.ProductCache
	if cfg.RedisAddr != "" {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		rdb, err := cache.Connect(pingCtx, cfg.RedisAddr)
		cancel()
		if err != nil {
			l.Warn("redis unavailable, product cache disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		} else {
			defer func() { _ = rdb.Close() }()
			productCache = cache.NewProductRedisCache(rdb, cfg.ProductCacheTTL)
		}
	}

	//イベント発行（任意）
	wishlistOpts := []usecase.WishlistOption{usecase.WithMetrics(m), usecase.WithLogger(l.Named("wishlist.usecase"))}
	if len(cfg.KafkaBrokers) > 0 {
		pub := event.NewKafkaWishlistPublisher(cfg.KafkaBrokers, cfg.KafkaWishlistTopic)
		defer func() { _ = pub.Close() }()
		wishlistOpts = append(wishlistOpts, usecase.WithEventPublisher(pub))
	}

	//Usecase生成
	wishlistUC := usecase.NewWishlistUsecase(wishlistRepo, wishlistOpts...)
	userUC := usecase.NewUserUsecase(userRepo)
	productUC := usecase.NewProductUsecase(productRepo, productCache)

	//Handler生成
	e := server.New(server.Deps{
		Wishlist:      handler.NewWishlistHandler(wishlistUC),
		Products:      handler.NewProductHandler(productUC),
		Users:         handler.NewUserHandler(userUC),
		Health:        handler.NewHealthHandler(func(ctx context.Context) error { return db.Ping(ctx, gormDB) }),
		Metrics:       m,
		Logger:        l.Named("http"),
		SessionSecret: cfg.SessionSecret,
	})

	//Server起動
	l.Info("server starting", zap.String("addr", cfg.Addr()), zap.String("db_driver", cfg.DBDriver))
	if err := server.Start(ctx, e, cfg.Addr()); err != nil {
		return err
	}
	l.Info("server stopped")
	return nil
}
