// Package cli is the interactive HiveKeep client: a small REPL over the
// synchronization coordinator, with a connectivity watcher that replays
// pending records whenever the backend comes back.
package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"

	"github.com/apiarist/hivekeep/internal/client/auth"
	"github.com/apiarist/hivekeep/internal/client/cache"
	"github.com/apiarist/hivekeep/internal/client/config"
	"github.com/apiarist/hivekeep/internal/client/connectivity"
	"github.com/apiarist/hivekeep/internal/client/localdb"
	"github.com/apiarist/hivekeep/internal/client/models"
	"github.com/apiarist/hivekeep/internal/client/repositories/metadata"
	"github.com/apiarist/hivekeep/internal/client/repositories/snapshots"
	"github.com/apiarist/hivekeep/internal/client/rest"
	"github.com/apiarist/hivekeep/internal/client/services"
	"github.com/apiarist/hivekeep/internal/common"
	"github.com/apiarist/hivekeep/internal/logging"
)

type App struct {
	config  *config.Config
	log     logging.Logger
	repos   *localdb.Repositories
	tokens  *auth.TokenSource
	api     *rest.Client
	monitor *connectivity.Monitor

	inspections *services.Collection[models.Inspection]
	treatments  *services.Collection[models.Treatment]
	feedings    *services.Collection[models.Feeding]
	hives       *services.Collection[models.Hive]

	// The inspection list is the screen the UI lives on, so it goes through
	// the optimistic query cache; the other collections read straight from
	// the coordinator.
	inspectionCache *cache.Query[[]models.Inspection]

	clientID string
	reader   *bufio.Reader
	out      io.Writer
}

func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	repos, err := localdb.Open(ctx, c.DatabasePath)
	if err != nil {
		return nil, err
	}

	clientID, err := metadata.EnsureClientID(ctx, repos.Metadata)
	if err != nil {
		repos.Close()
		return nil, err
	}

	a := &App{
		config:   c,
		log:      log,
		repos:    repos,
		tokens:   auth.NewTokenSource(repos.Metadata),
		clientID: clientID,
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}

	a.api = rest.NewClient(c.ServerBaseURL, rest.WithToken(a.bearer))
	a.monitor = connectivity.NewMonitor(a.api.Ping,
		connectivity.WithInterval(c.OnlineCheckInterval),
		connectivity.WithProbeTimeout(c.ProbeTimeout),
		connectivity.WithLogger(log),
	)

	a.inspections = newCollection[models.Inspection](a, "inspections", "hive")
	a.treatments = newCollection[models.Treatment](a, "treatments", "treatment")
	a.feedings = newCollection[models.Feeding](a, "feedings", "feeding")
	a.hives = newCollection[models.Hive](a, "hives", "apiary")

	a.inspectionCache = cache.NewQuery(
		cache.WithTTL[[]models.Inspection](c.CacheTTL),
		cache.WithLogger[[]models.Inspection](log),
	)

	return a, nil
}

func newCollection[T models.Syncable[T]](a *App, resource, keyPrefix string) *services.Collection[T] {
	return services.NewCollection(
		resource,
		rest.NewResource[T](a.api, resource),
		snapshots.NewCollection[T](a.repos.Snapshots, keyPrefix),
		a.monitor,
		services.WithLogger[T](a.log),
	)
}

// bearer supplies the Authorization credential. A missing or expired token
// sends the request unauthenticated instead of failing it locally: the
// health probe must work logged out, and protected endpoints answer 401,
// which is the truthful error.
func (a *App) bearer(ctx context.Context) (string, error) {
	token, err := a.tokens.Token(ctx)
	if errors.Is(err, common.ErrNoToken) || errors.Is(err, common.ErrTokenExpired) {
		return "", nil
	}
	return token, err
}

// Run starts the connectivity watcher and the REPL, and blocks until the
// user exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	defer a.repos.Close()

	a.monitor.OnTransition(connectivity.Online, func() {
		// Detached from the REPL's per-command lifetime.
		a.reconcileAll(context.WithoutCancel(ctx))
	})
	a.monitor.Start(ctx)

	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.status, scanner)
	return nil
}

// reconcileAll replays pending records for every collection.
func (a *App) reconcileAll(ctx context.Context) {
	a.log.Info(ctx, "reconciling pending records")
	for _, rec := range []func(context.Context) error{
		a.inspections.Reconcile,
		a.treatments.Reconcile,
		a.feedings.Reconcile,
		a.hives.Reconcile,
	} {
		if err := rec(ctx); err != nil {
			a.log.Error(ctx, "reconciliation failed", "error", err)
		}
	}
	a.inspectionCache.InvalidateAll()
}

func (a *App) status() string {
	if a.monitor.IsOnline() {
		return "online"
	}
	return "offline"
}

func (a *App) isLoggedIn() bool {
	_, err := a.tokens.Token(context.Background())
	return err == nil
}
