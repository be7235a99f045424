package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/Rareminds-eym/skillpassport-sub044/services/provisioning-service/internal/config"
	"github.com/Rareminds-eym/skillpassport-sub044/services/provisioning-service/internal/handler"
	"github.com/Rareminds-eym/skillpassport-sub044/services/provisioning-service/internal/identity"
	"github.com/Rareminds-eym/skillpassport-sub044/services/provisioning-service/internal/metrics"
	"github.com/Rareminds-eym/skillpassport-sub044/services/provisioning-service/internal/notification"
	"github.com/Rareminds-eym/skillpassport-sub044/services/provisioning-service/internal/repository"
	"github.com/Rareminds-eym/skillpassport-sub044/services/provisioning-service/internal/usecase"
	"github.com/Rareminds-eym/skillpassport-sub044/shared/auth"
	"github.com/Rareminds-eym/skillpassport-sub044/shared/discovery"
	"github.com/Rareminds-eym/skillpassport-sub044/shared/interceptor"
	"github.com/Rareminds-eym/skillpassport-sub044/shared/logger"
	"github.com/Rareminds-eym/skillpassport-sub044/shared/mailer"
	"github.com/Rareminds-eym/skillpassport-sub044/shared/utilities"
	"github.com/Rareminds-eym/skillpassport-sub044/shared/validation"
)

const shutdownTimeout = 15 * time.Second

func main() {
	_ = godotenv.Load()

	bootLogger := logger.New(config.ServiceName, logger.Config{})
	cfg := config.NewProvisioningServiceConfig(bootLogger)
	log := logger.New(config.ServiceName, cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("provisioning service stopped with error")
	}
}

func run(ctx context.Context, cfg *config.ProvisioningServiceConfig, log *zerolog.Logger) error {
	metrics.MustRegister(config.ServiceName)

	db, err := repository.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repository.Migrate(ctx, db); err != nil {
		return err
	}

	identitySvc, closeIdentity, err := newIdentityService(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeIdentity()

	notifier, err := newDispatcher(cfg, log)
	if err != nil {
		return err
	}

	accounts := repository.NewAccountPostgresRepository(db)
	orgs := repository.NewOrganizationPostgresRepository(db)
	members := repository.NewMemberPostgresRepository(db)
	tokens := repository.NewPasswordResetTokenPostgresRepository(db)

	provisioningUsecase := usecase.NewProvisioningUsecase(identitySvc, accounts, orgs, members, notifier, cfg, log)
	passwordResetUsecase := usecase.NewPasswordResetUsecase(identitySvc, tokens, notifier, cfg, log)

	v, err := validation.New()
	if err != nil {
		return fmt.Errorf("create validator: %w", err)
	}

	jwtAuth := auth.NewJWTAuthenticator(cfg.Token.Audience, cfg.Token.Issuer)

	router := handler.NewRouter(handler.Dependencies{
		ProvisioningUsecase:  provisioningUsecase,
		PasswordResetUsecase: passwordResetUsecase,
		Prechecker:           usecase.NewUniquenessPrechecker(identitySvc, accounts, orgs),
		Accounts:             accounts,
		Validator:            v,
		Authenticate:         interceptor.NewJWTMiddleware(jwtAuth, cfg.Token.AccessTokenSecret, log, handler.WriteUnauthorized),
		HTTP:                 cfg.HTTP,
		Logger:               log,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcServer := grpc.NewServer()
	healthServer := utilities.RegisterHealthServer(grpcServer, config.ServiceName)

	grpcListener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}

	errCh := make(chan error, 2)

	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	go func() {
		log.Info().Int("port", cfg.GRPCPort).Msg("grpc health server listening")
		if err := grpcServer.Serve(grpcListener); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	go purgeExpiredTokens(ctx, passwordResetUsecase, cfg.Token.PurgeInterval, log)

	deregister := registerWithConsul(cfg, log)
	defer deregister()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down provisioning service")
	case err := <-errCh:
		return err
	}

	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to shut down http server")
	}
	grpcServer.GracefulStop()

	provisioningUsecase.Wait()

	return nil
}

func newIdentityService(
	ctx context.Context,
	cfg *config.ProvisioningServiceConfig,
	log *zerolog.Logger,
) (identity.Service, func(), error) {
	switch cfg.Identity.Backend {
	case config.IdentityBackendMongo:
		client, err := mongo.Connect(options.Client().ApplyURI(cfg.Identity.MongoURI))
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongo: %w", err)
		}

		closeFn := func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(disconnectCtx); err != nil {
				log.Error().Err(err).Msg("failed to disconnect from mongo")
			}
		}

		svc, err := identity.NewMongoService(ctx, log, client.Database(cfg.Identity.MongoDatabase))
		if err != nil {
			closeFn()
			return nil, nil, err
		}

		log.Info().Str("database", cfg.Identity.MongoDatabase).Msg("using mongo identity backend")
		return svc, closeFn, nil

	default:
		svc := identity.NewGoTrueClient(identity.GoTrueConfig{
			BaseURL:    cfg.Identity.URL,
			ServiceKey: cfg.Identity.ServiceKey,
			Timeout:    cfg.Identity.Timeout,
			PageSize:   cfg.Identity.PageSize,
		}, log)

		log.Info().Str("url", cfg.Identity.URL).Msg("using gotrue identity backend")
		return svc, func() {}, nil
	}
}

func newDispatcher(cfg *config.ProvisioningServiceConfig, log *zerolog.Logger) (notification.Dispatcher, error) {
	senders := map[notification.Channel]notification.Sender{}

	if cfg.SMTP.Enabled() {
		m, err := mailer.NewMailer(cfg.SMTP)
		if err != nil {
			return nil, fmt.Errorf("create mailer: %w", err)
		}
		senders[notification.ChannelEmail] = notification.NewEmailSender(m)
	} else {
		log.Warn().Msg("SMTP_HOST not set, emails will only be logged")
		senders[notification.ChannelEmail] = notification.NewLogSender(notification.ChannelEmail, log)
	}

	if cfg.Notification.SMSGatewayURL != "" {
		senders[notification.ChannelSMS] = notification.NewSMSSender(
			cfg.Notification.SMSGatewayURL,
			cfg.Notification.SMSGatewayToken,
			cfg.Notification.Timeout,
		)
	}

	return notification.NewDispatcher(log, cfg.Notification.RatePerSecond, cfg.Notification.Burst, senders), nil
}

func purgeExpiredTokens(ctx context.Context, uc usecase.PasswordResetUsecase, interval time.Duration, log *zerolog.Logger) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := uc.PurgeExpiredTokens(ctx)
			if err != nil {
				log.Error().Err(err).Msg("failed to purge expired reset tokens")
				continue
			}
			if n > 0 {
				log.Info().Int64("count", n).Msg("purged expired reset tokens")
			}
		}
	}
}

func registerWithConsul(cfg *config.ProvisioningServiceConfig, log *zerolog.Logger) func() {
	if !cfg.Consul.Enabled() {
		return func() {}
	}

	registrar, err := discovery.NewRegistrar(cfg.Consul, log)
	if err != nil {
		log.Error().Err(err).Msg("consul unavailable, skipping registration")
		return func() {}
	}

	reg := discovery.Registration(config.ServiceName, cfg.Consul, cfg.HTTPPort)
	if err := registrar.Register(reg); err != nil {
		log.Error().Err(err).Msg("failed to register with consul")
		return func() {}
	}

	return func() {
		if err := registrar.Deregister(reg.ID); err != nil {
			log.Error().Err(err).Msg("failed to deregister from consul")
		}
	}
}
