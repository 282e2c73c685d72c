package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/watchtower/internal/config"
	"github.com/jakechorley/watchtower/pkg/clients/eventsclient"
	"github.com/jakechorley/watchtower/pkg/clients/feedclient"
	"github.com/jakechorley/watchtower/pkg/clients/sheetsclient"
	"github.com/jakechorley/watchtower/pkg/core/registry"
	"github.com/jakechorley/watchtower/pkg/core/services"
	"github.com/jakechorley/watchtower/pkg/db"
	"github.com/jakechorley/watchtower/pkg/metrics"
)

// AppContext holds the application dependencies shared across all commands.
// Clients for external systems are created on first use so that commands which
// don't need them never trigger an OAuth flow or a broker connection.
type AppContext struct {
	Env         string
	Cfg         *config.Config
	OAuthCfg    *config.OAuthClientConfig
	Database    db.Database
	Locker      registry.Locker
	PublishLock *registry.KeyedMutex
	Metrics     metrics.Recorder
	Logger      *zap.Logger
	Ctx         context.Context
	Out         io.Writer
	Now         func() time.Time

	sheets *sheetsclient.Client
	events *eventsclient.Client
}

// Generator builds a roster generator from the configured weights and corro tiers
func (app *AppContext) Generator() *services.RosterGenerator {
	return services.NewRosterGenerator(app.Database, app.Locker, app.Logger,
		services.WithMetrics(app.Metrics),
		services.WithWeights(app.Cfg.CriteriaWeights()),
		services.WithCorroThresholds(app.Cfg.CorroThresholds()),
		services.WithClock(app.Now),
	)
}

// PublishDeps wires the publish operation. The sheet and event publishers are
// left unset when not configured.
func (app *AppContext) PublishDeps() (services.PublishDeps, error) {
	deps := services.PublishDeps{
		Store:   app.Database,
		Locks:   app.PublishLock,
		Metrics: app.Metrics,
		Logger:  app.Logger,
		Now:     app.Now,
	}

	if app.Cfg.RosterSheetID != "" && app.OAuthCfg != nil {
		sheets, err := app.SheetsClient()
		if err != nil {
			return deps, err
		}
		deps.Sheets = sheets
		deps.SpreadsheetID = app.Cfg.RosterSheetID
	}

	if app.Cfg.Environment.Events.URL != "" {
		events, err := app.EventsClient()
		if err != nil {
			return deps, err
		}
		deps.Events = events
	}

	return deps, nil
}

// SheetsClient returns the Sheets client, authorizing on first use
func (app *AppContext) SheetsClient() (*sheetsclient.Client, error) {
	if app.sheets != nil {
		return app.sheets, nil
	}
	if app.OAuthCfg == nil {
		return nil, fmt.Errorf("no oauth client configured for environment %s", app.Env)
	}

	app.Logger.Info("Initializing sheets client")
	client, err := sheetsclient.NewClient(app.Ctx, app.OAuthCfg, app.Env, app.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}
	app.sheets = client
	return client, nil
}

// EventsClient returns the roster event publisher, connecting on first use
func (app *AppContext) EventsClient() (*eventsclient.Client, error) {
	if app.events != nil {
		return app.events, nil
	}

	events := app.Cfg.Environment.Events
	app.Logger.Info("Connecting to event broker", zap.String("queue", events.Queue))
	client, err := eventsclient.Dial(events.URL, events.Queue, time.Duration(events.PublishTimeout)*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to event broker: %w", err)
	}
	app.events = client
	return client, nil
}

// FeedClient returns the shift record feed client
func (app *AppContext) FeedClient() (*feedclient.Client, error) {
	feed := app.Cfg.Environment.Feed
	if feed.URL == "" {
		return nil, fmt.Errorf("WATCHTOWER_FEED_URL is not set")
	}
	return feedclient.NewClient(feed.URL, feed.Token, time.Duration(feed.Timeout)*time.Second, app.Logger), nil
}

// Close releases the connections opened by commands. Safe to call more than once.
func (app *AppContext) Close() {
	if app.events != nil {
		if err := app.events.Close(); err != nil {
			app.Logger.Warn("Failed to close event broker connection", zap.Error(err))
		}
		app.events = nil
	}
	if app.Database != nil {
		if err := app.Database.Close(); err != nil {
			app.Logger.Warn("Failed to close database", zap.Error(err))
		}
		app.Database = nil
	}
}
