package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"staybook/internal/app/commands"
	availabilityapp "staybook/internal/app/handlers/availability"
	listingapp "staybook/internal/app/handlers/listings"
	reservationapp "staybook/internal/app/handlers/reservation"
	"staybook/internal/app/middleware"
	appoutbox "staybook/internal/app/outbox"
	"staybook/internal/app/queries"
	authsvc "staybook/internal/app/services/auth"
	"staybook/internal/app/uow"
	domainauth "staybook/internal/domain/auth"
	domainlisting "staybook/internal/domain/listing"
	"staybook/internal/domain/shared/money"
	domainuser "staybook/internal/domain/user"
	"staybook/internal/infra/broker/kafka"
	"staybook/internal/infra/config"
	ginserver "staybook/internal/infra/http/gin"
	"staybook/internal/infra/obs"
	infraoutbox "staybook/internal/infra/outbox"
	"staybook/internal/infra/security"
	memorystore "staybook/internal/infra/storage/memory"
	mongostore "staybook/internal/infra/storage/mongo"
	redisstore "staybook/internal/infra/storage/redis"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuration error:", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env, cfg.LogLevel)

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("application bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer app.close(logger)

	server := ginserver.NewServer(cfg, logger, obs.HealthHandlers{Checks: app.checks}, app.handlers)

	if err := app.loadListingFixtures(ctx, cfg.FixturesPath, logger); err != nil {
		logger.Warn("listing fixtures load failed", "error", err, "path", cfg.FixturesPath)
	}

	if app.relay != nil {
		go func() {
			if err := app.relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox relay stopped", "error", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageDriver)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers ginserver.Handlers
	listings domainlisting.Repository
	relay    *infraoutbox.Worker
	checks   map[string]obs.ReadinessCheck
	closers  []func(context.Context) error
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	app := &application{checks: map[string]obs.ReadinessCheck{}}

	var (
		listingsRepo domainlisting.Repository
		users        domainuser.Repository
		sessions     domainauth.SessionStore
		idStore      middleware.IdempotencyStore
		outboxStore  appoutbox.Outbox
		relayStore   infraoutbox.Store
		uowFactory   uow.UoWFactory
	)

	switch cfg.StorageDriver {
	case config.DriverMongo:
		client, err := mongostore.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("mongo connect: %w", err)
		}
		app.closers = append(app.closers, client.Close)
		app.checks["mongo"] = client.Ping

		listings := mongostore.NewListingRepository(client.DB)
		reservations := mongostore.NewReservationRepository(client.DB)
		userRepo := mongostore.NewUserRepository(client.DB)
		sessionStore := mongostore.NewSessionStore(client.DB)
		idempotency := mongostore.NewIdempotencyStore(client.DB, cfg.IdempotencyTTL)
		box := mongostore.NewOutboxStore(client.DB)

		if err := userRepo.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("mongo user indexes: %w", err)
		}
		if err := sessionStore.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("mongo session indexes: %w", err)
		}
		if err := idempotency.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("mongo idempotency indexes: %w", err)
		}

		listingsRepo = listings
		users = userRepo
		sessions = sessionStore
		idStore = idempotency
		outboxStore = box
		relayStore = box
		uowFactory = mongostore.Factory{
			DB:               client.DB,
			ListingsRepo:     listings,
			ReservationsRepo: reservations,
		}
	default:
		listings := memorystore.NewListingRepository()
		reservations := memorystore.NewReservationRepository()
		box := memorystore.NewOutbox()

		listingsRepo = listings
		users = memorystore.NewUserRepository()
		sessions = memorystore.NewSessionStore()
		idStore = memorystore.NewIdempotencyStore(cfg.IdempotencyTTL)
		outboxStore = box
		relayStore = box
		uowFactory = &memorystore.Factory{
			ListingsRepo:     listings,
			ReservationsRepo: reservations,
		}
	}
	app.listings = listingsRepo

	if cfg.SessionStore == config.SessionsRedis {
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		app.closers = append(app.closers, func(context.Context) error { return client.Close() })
		app.checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		sessions = redisstore.NewSessionStore(client)
		idStore = redisstore.NewIdempotencyStore(client, cfg.IdempotencyTTL)
	}

	authService := &authsvc.Service{
		Users:      users,
		Sessions:   sessions,
		Passwords:  security.BcryptHasher{Cost: cfg.BcryptCost},
		Tokens:     security.RandomTokenGenerator{},
		SessionTTL: cfg.SessionTTL,
		Logger:     logger,
	}

	commandBus := commands.NewInMemoryBus()
	createHandler := &reservationapp.CreateReservationHandler{
		UoWFactory: uowFactory,
		Outbox:     outboxStore,
		Encoder:    appoutbox.JSONEventEncoder{},
	}
	commands.RegisterHandler(commandBus, reservationapp.CreateReservationCommand{}.Key(), createHandler)
	cancelHandler := &reservationapp.CancelReservationHandler{
		UoWFactory: uowFactory,
		Outbox:     outboxStore,
		Encoder:    appoutbox.JSONEventEncoder{},
	}
	commands.RegisterHandler(commandBus, reservationapp.CancelReservationCommand{}.Key(), cancelHandler)

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, availabilityapp.GetBookedDatesQuery{}.Key(), &availabilityapp.GetBookedDatesHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, listingapp.GetListingQuery{}.Key(), &listingapp.GetListingHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, reservationapp.ListTripsQuery{}.Key(), &reservationapp.ListTripsHandler{UoWFactory: uowFactory, Logger: logger})

	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Idempotency(idStore, nil),
		middleware.Transaction(uowFactory, nil),
		middleware.OutboxFlush(outboxStore),
	)
	queryBusWithMiddleware := middleware.ChainQueries(queryBus)

	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		app.closers = append(app.closers, func(context.Context) error { return producer.Close() })
		app.relay = &infraoutbox.Worker{
			Store:       relayStore,
			Producer:    producer,
			Logger:      logger,
			Interval:    cfg.OutboxPollInterval,
			TopicPrefix: cfg.KafkaTopicPrefix,
			Backoff:     cfg.RetryBackoff,
		}
	}

	app.handlers = ginserver.Handlers{
		Auth:           ginserver.AuthHandler{Service: authService, Logger: logger},
		Listing:        ginserver.ListingHandler{Queries: queryBusWithMiddleware, Logger: logger},
		Availability:   ginserver.AvailabilityHandler{Queries: queryBusWithMiddleware, Logger: logger},
		Reservation:    ginserver.ReservationHandler{Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware, Logger: logger},
		AuthMiddleware: ginserver.AuthMiddleware{Service: authService, Logger: logger}.Handle,
	}
	return app, nil
}

func (a *application) close(logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, closer := range a.closers {
		if err := closer(ctx); err != nil {
			logger.Warn("resource close failed", "error", err)
		}
	}
}

type listingFixture struct {
	ID            string `json:"id"`
	Host          string `json:"host"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	ImageURL      string `json:"image_url"`
	Category      string `json:"category"`
	LocationValue string `json:"location_value"`
	RoomCount     int    `json:"room_count"`
	GuestCount    int    `json:"guest_count"`
	BathroomCount int    `json:"bathroom_count"`
	NightlyRate   struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	} `json:"nightly_rate"`
}

// loadListingFixtures seeds the catalog from a JSON file so a fresh instance
// has something to book against. A missing file is not an error.
func (a *application) loadListingFixtures(ctx context.Context, path string, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("listing fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	var fixtures []listingFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	now := time.Now()
	for _, fx := range fixtures {
		rate, err := money.New(fx.NightlyRate.Amount, fx.NightlyRate.Currency)
		if err != nil {
			logger.Error("fixture rate invalid", "listing_id", fx.ID, "error", err)
			continue
		}
		listing, err := domainlisting.NewListing(domainlisting.CreateParams{
			ID:            domainlisting.ListingID(fx.ID),
			Host:          domainlisting.HostID(fx.Host),
			Title:         fx.Title,
			Description:   fx.Description,
			ImageURL:      fx.ImageURL,
			Category:      fx.Category,
			LocationValue: fx.LocationValue,
			RoomCount:     fx.RoomCount,
			GuestCount:    fx.GuestCount,
			BathroomCount: fx.BathroomCount,
			NightlyRate:   rate,
			Now:           now,
		})
		if err != nil {
			logger.Error("fixture invalid", "listing_id", fx.ID, "error", err)
			continue
		}
		if existing, err := a.listings.ByID(ctx, listing.ID); err == nil && existing != nil {
			continue
		}
		if err := a.listings.Save(ctx, listing); err != nil {
			logger.Error("cannot store fixture listing", "listing_id", fx.ID, "error", err)
			continue
		}
		logger.Info("listing fixture imported", "listing_id", listing.ID)
	}
	return nil
}
