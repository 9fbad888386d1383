package cli

import (
	"bufio"
	"context"
	"database/sql"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/ndemidov/cargotrail/internal/client/alerts"
	"github.com/ndemidov/cargotrail/internal/client/api"
	"github.com/ndemidov/cargotrail/internal/client/config"
	"github.com/ndemidov/cargotrail/internal/client/models"
	"github.com/ndemidov/cargotrail/internal/client/oauth"
	"github.com/ndemidov/cargotrail/internal/client/repositories/cache"
	"github.com/ndemidov/cargotrail/internal/client/repositories/metadata"
	"github.com/ndemidov/cargotrail/internal/client/services"
	"github.com/ndemidov/cargotrail/internal/client/session"
	"github.com/ndemidov/cargotrail/internal/client/storage"
	"github.com/ndemidov/cargotrail/internal/logging"
)

// authService is the slice of the auth application service the CLI uses.
type authService interface {
	Login(ctx context.Context, username string, password []byte) (*models.TokenRecord, error)
	Logout(ctx context.Context) error
	Whoami(ctx context.Context) (*models.UserSnapshot, error)
}

// shipmentService is the slice of the shipment application service the CLI uses.
type shipmentService interface {
	List(ctx context.Context) ([]models.Shipment, error)
	Get(ctx context.Context, id string) (*models.Shipment, error)
	Create(ctx context.Context, shipment *models.Shipment) (*models.Shipment, error)
	Sync(ctx context.Context, id string) error
	UploadManifest(ctx context.Context, filename string, content io.Reader) error
}

// App is the interactive CargoTrail client. It owns the wired service graph
// and the REPL state.
type App struct {
	auth      authService
	shipments shipmentService
	monitor   *session.Monitor
	notifier  alerts.Notifier
	log       logging.Logger
	db        *sql.DB
	reader    *bufio.Reader
	out       io.Writer

	// userName is read by the REPL and reset by the monitor goroutine on
	// idle timeout, so access goes through mu.
	mu       sync.Mutex
	userName string
}

func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	db, err := storage.InitDatabase(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	metaRepo := metadata.NewSQLiteRepository(db)
	cacheRepo := cache.NewSQLiteRepository(db)
	store := session.NewStore(metaRepo)

	oauthClient := oauth.NewClient(cfg.BaseURL, cfg.ClientID, http.DefaultClient)
	guard := session.NewGuard(store, oauthClient, cfg.ExpiryMargin, log)
	dispatcher := api.NewDispatcher(cfg.BaseURL, guard, http.DefaultClient, log)

	a := &App{
		notifier: alerts.NewWriterNotifier(os.Stdout),
		log:      log,
		db:       db,
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}

	a.monitor = session.NewMonitor(store, cfg.IdleTimeout, cfg.ActivityPollInterval, a.onIdleTimeout, log)
	a.auth = services.NewAuthService(oauthClient, store, cacheRepo, a.monitor, log)
	a.shipments = services.NewShipmentService(dispatcher, cacheRepo, log)

	return a, nil
}

// Run restores the persisted activity timestamp, starts the inactivity
// monitor, and blocks in the REPL until the user exits.
func (a *App) Run(ctx context.Context) {
	defer a.db.Close()

	if err := a.monitor.Restore(ctx); err != nil {
		a.log.Warn(ctx, "failed to restore activity timestamp", "error", err)
	}
	if user, err := a.auth.Whoami(ctx); err == nil {
		a.setUserName(user.DisplayName)
	}

	go a.monitor.Run(ctx)

	a.Root(ctx)
}

// onIdleTimeout is the monitor's timeout callback. It runs on the monitor
// goroutine, concurrently with the REPL.
func (a *App) onIdleTimeout(ctx context.Context) {
	if err := a.auth.Logout(ctx); err != nil {
		a.log.Error(ctx, "failed to close idle session", "error", err)
		return
	}
	a.setUserName("")
	a.notifier.Notify(alerts.KindWarning, "Session closed after inactivity. Log in again to continue.")
}

func (a *App) setUserName(name string) {
	a.mu.Lock()
	a.userName = name
	a.mu.Unlock()
}

func (a *App) currentUserName() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.userName
}

func (a *App) isLoggedIn() bool {
	return a.currentUserName() != ""
}
