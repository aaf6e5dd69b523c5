package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/arcanadev/arcana/internal/client/auth"
	"github.com/arcanadev/arcana/internal/client/config"
	"github.com/arcanadev/arcana/internal/client/device"
	"github.com/arcanadev/arcana/internal/client/migration"
	"github.com/arcanadev/arcana/internal/client/remote"
	"github.com/arcanadev/arcana/internal/client/store"
	"github.com/arcanadev/arcana/internal/client/sync"
	"github.com/arcanadev/arcana/internal/logging"

	_ "modernc.org/sqlite"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	config   *config.Config
	st       *store.Store
	api      *remote.Client
	engine   *sync.Engine
	auth     *auth.Service
	migrator *migration.Migrator
	device   remote.Owner
	log      logging.Logger
	reader   *bufio.Reader
}

func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	st, err := store.Open(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	deviceID, err := device.ID(ctx, st)
	if err != nil {
		return nil, err
	}

	api := remote.New(remote.Options{BaseURL: c.ServerBaseURL})
	authSvc := auth.NewService(st, api.Auth(), log)
	api.SetTokenProvider(authSvc.AccessToken)
	api.SetSessionRefresher(authSvc.RefreshSession)

	rs := sync.RemoteFromClient(api)
	queue, err := sync.NewQueue(ctx, st)
	if err != nil {
		return nil, err
	}
	engine := sync.NewEngine(st, rs, queue, log)

	return &App{
		config:   c,
		st:       st,
		api:      api,
		engine:   engine,
		auth:     authSvc,
		migrator: migration.New(st, rs, log),
		device:   remote.Owner{Kind: remote.OwnerDevice, ID: deviceID},
		log:      log,
		reader:   bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) setMode(ctx context.Context, mode Mode) {
	if a.mode() != mode {
		a.engine.SetOnline(ctx, mode == ModeOnline)
		fmt.Printf("Switched to %s mode\n", mode)
	}
}

// mode derives the UI mode from the engine's connectivity flag. The flag
// is the only state shared between the watcher goroutine and the REPL, so
// reading it through the engine's atomic keeps both sides synchronized.
func (a *App) mode() Mode {
	if a.engine.IsOnline() {
		return ModeOnline
	}
	return ModeOffline
}

// currentOwner is the identity the engine runs under: the signed-in user
// when there is one, the anonymous device otherwise.
func (a *App) currentOwner() remote.Owner {
	if userID := a.auth.UserID(); userID != "" {
		return remote.Owner{Kind: remote.OwnerUser, ID: userID}
	}
	return a.device
}

func (a *App) isLoggedIn() bool {
	return a.auth.UserID() != ""
}

func (a *App) Run(ctx context.Context) error {
	defer a.st.Close()

	if _, err := a.auth.Restore(ctx); err != nil {
		return err
	}

	// First reachability probe before the watcher kicks in.
	if err := a.api.Ping(ctx); err == nil {
		a.setMode(ctx, ModeOnline)
	}

	if err := a.engine.Start(ctx, a.currentOwner()); err != nil {
		return err
	}

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	fmt.Println("Arcana journal CLI (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, bufio.NewScanner(os.Stdin))
	return nil
}

func (a *App) getStatus() string {
	s := string(a.mode())
	if userID := a.auth.UserID(); userID != "" {
		s = userID + " " + s
	}
	if a.engine.IsSyncing() {
		s += ", syncing"
	}
	if pending := a.engine.PendingCount(); pending > 0 {
		s = fmt.Sprintf("%s, %d pending", s, pending)
	}
	return "(" + s + ")"
}

// StartOnlineStatusWatcher probes the record store on a fixed interval
// and flips the mode when reachability changes.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			err := a.api.Ping(pingCtx)
			cancel()

			if err != nil {
				if a.mode() == ModeOnline {
					a.setMode(ctx, ModeOffline)
				}
			} else {
				if a.mode() != ModeOnline {
					a.setMode(ctx, ModeOnline)
				}
			}

		case <-ctx.Done():
			return
		}
	}
}
