// Command server runs the cinema booking API.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/cinema-booking/internal/config"
	"github.com/iliyamo/cinema-booking/internal/handler"
	"github.com/iliyamo/cinema-booking/internal/history"
	"github.com/iliyamo/cinema-booking/internal/inventory"
	"github.com/iliyamo/cinema-booking/internal/kvstore"
	"github.com/iliyamo/cinema-booking/internal/middleware"
	"github.com/iliyamo/cinema-booking/internal/moviedb"
	"github.com/iliyamo/cinema-booking/internal/payment"
	"github.com/iliyamo/cinema-booking/internal/queue"
	"github.com/iliyamo/cinema-booking/internal/repository"
	"github.com/iliyamo/cinema-booking/internal/router"
	"github.com/iliyamo/cinema-booking/internal/service"
	"github.com/iliyamo/cinema-booking/internal/ticket"
	"github.com/iliyamo/cinema-booking/internal/wizard"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis is optional unless it is the store backend
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable, response cache and rate limiting disabled")
	} else {
		defer rdb.Close()
	}

	backend, closeBackend, err := openStore(ctx, cfg, rdb)
	if err != nil {
		log.Fatal(err)
	}
	defer closeBackend()
	store := kvstore.NewActor(backend, cfg.StoreQueue)
	defer store.Close()

	bookings := repository.NewBookingRepo(store)
	ledger := repository.NewSeatLedger(store)
	favorites := repository.NewFavoritesRepo(store)
	filters := repository.NewFiltersRepo(store)
	profiles := repository.NewProfileRepo(store)
	activity := repository.NewActivityRepo(store)

	showtimes := inventory.NewReconcilingProvider(inventory.NewRandomProvider(inventory.WithLocation(cfg.Location)), ledger)
	movies := moviedb.New(cfg.TMDBBaseURL, cfg.TMDBKey, cfg.TMDBTimeout)

	var (
		confirmed wizard.Notifier
		cancelled history.Notifier
	)
	if cfg.RabbitURL != "" {
		pub := service.NewPublisher(cfg.RabbitURL)
		confirmed, cancelled = pub, pub
		go func() {
			if err := queue.StartBookingConsumer(ctx, cfg.RabbitURL, cfg.EventLog); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("booking-consumer: stopped: %v", err)
			}
		}()
	} else {
		log.Printf("RABBITMQ_URL not set, booking events disabled")
	}

	wiz := wizard.New(wizard.Config{
		Movies:     movies,
		Inventory:  showtimes,
		Payments:   payment.NewSimulatedProcessor(cfg.PaymentDelay),
		Bookings:   bookings,
		Ledger:     ledger,
		Notifier:   confirmed,
		SessionTTL: cfg.SessionTTL,
	})
	go wiz.RunJanitor(ctx, cfg.JanitorEvery)

	signer := ticket.NewSigner(cfg.TicketSecret)
	cacheCfg := config.LoadCacheConfig()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.RequestID())
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:  cfg.CORSOrigins,
		AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, middleware.ClientHeader},
		ExposeHeaders: []string{echo.HeaderContentDisposition, "Retry-After", "X-Cache"},
	}))

	router.RegisterRoutes(e, &handler.HealthHandler{Store: store, Sessions: wiz})
	v1 := router.ClientGroup(e)
	router.RegisterMovies(v1, &handler.MovieHandler{Movies: movies, Filters: filters, Shows: showtimes},
		middleware.NewRedisCache(cacheCfg, rdb))
	router.RegisterBooking(e, v1,
		&handler.WizardHandler{Wizard: wiz},
		&handler.BookingHandler{
			History:  history.NewService(bookings, ledger, cancelled, cfg.Location),
			Signer:   signer,
			Location: cfg.Location,
		},
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		signer)
	router.RegisterAccount(v1,
		&handler.FavoritesHandler{Favorites: favorites},
		&handler.PreferencesHandler{Filters: filters, Cache: middleware.NewCachePurger(cacheCfg, rdb)},
		&handler.ProfileHandler{Profiles: service.NewProfileService(profiles, favorites, bookings, activity, cfg.BcryptCost, cfg.Location)})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, store=%s)", addr, cfg.Env, cfg.StoreBackend)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
