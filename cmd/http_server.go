package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/frahmantamala/access-management/internal"
	"github.com/frahmantamala/access-management/internal/auth"
	authpg "github.com/frahmantamala/access-management/internal/auth/postgres"
	"github.com/frahmantamala/access-management/internal/menu"
	menupg "github.com/frahmantamala/access-management/internal/menu/postgres"
	"github.com/frahmantamala/access-management/internal/permission"
	permissionpg "github.com/frahmantamala/access-management/internal/permission/postgres"
	"github.com/frahmantamala/access-management/internal/role"
	rolepg "github.com/frahmantamala/access-management/internal/role/postgres"
	"github.com/frahmantamala/access-management/internal/sessioncache"
	"github.com/frahmantamala/access-management/internal/transport"
	"github.com/frahmantamala/access-management/internal/transport/rest"
	"github.com/frahmantamala/access-management/internal/user"
	userpg "github.com/frahmantamala/access-management/internal/user/postgres"
	"github.com/frahmantamala/access-management/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	Redis  *goredis.Client
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		if err := deps.Redis.Close(); err != nil {
			deps.Logger.Error("redis close error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	cfg, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(cfg.Observability.Logging.Format, cfg.Observability.Logging.Level)
	lg := logger.LoggerWrapper()

	db, err := initDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// gorm shares the sqlx-owned pool instead of opening a second one.
	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	ctx, cancel := internal.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	redisClient, err := sessioncache.Connect(ctx, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	base := transport.NewBaseHandler(lg)
	cache := sessioncache.NewRedisCache(redisClient, lg)

	tokenService := auth.NewJWTTokenService(
		cfg.Security.JWTSecret,
		cfg.Security.JWTRefreshSecret,
		cfg.Security.AccessTokenTTL(),
		cfg.Security.RefreshTokenTTL(),
	)

	authRepo := authpg.NewAuthRepository(gormDB)
	authService := auth.NewService(
		authRepo,
		tokenService,
		cache,
		cfg.Security.AccessTokenTTL(),
		cfg.Security.RefreshTokenTTL(),
		cfg.Security.BCryptCost,
		lg,
	)

	permissionRepo := permissionpg.NewPermissionRepository(gormDB)
	permissionService := permission.NewService(permissionRepo, lg)
	engine := permission.NewEngine(permissionRepo, lg)

	userService := user.NewService(userpg.NewUserRepository(gormDB), lg)
	roleService := role.NewService(rolepg.NewRoleRepository(gormDB), lg)
	menuService := menu.NewService(menupg.NewMenuRepository(gormDB), lg)

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, rest.Deps{
		Base:        base,
		DB:          db.DB,
		Redis:       redisClient,
		Engine:      engine,
		AuthService: authService,

		AuthHandler:       auth.NewHandler(base, authService),
		UserHandler:       user.NewHandler(base, userService),
		RoleHandler:       role.NewHandler(base, roleService),
		PermissionHandler: permission.NewHandler(base, permissionService),
		MenuHandler:       menu.NewHandler(base, menuService),

		Logger: lg,
	})

	return &Dependencies{
		Config: cfg,
		DB:     db,
		Redis:  redisClient,
		Router: router,
		Logger: lg,
	}, nil
}

func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
