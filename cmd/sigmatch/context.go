package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"sigmatch/internal/config"
	"sigmatch/internal/crm"
	"sigmatch/internal/extract"
	"sigmatch/internal/llm"
	"sigmatch/internal/logging"
	"sigmatch/internal/match"
	"sigmatch/internal/notifications"
	"sigmatch/internal/ratelimit"
	"sigmatch/internal/refstore"
)

// commandContext carries flag state and lazily-built collaborators
// shared by the subcommands. Config is loaded once per invocation.
type commandContext struct {
	configPath string

	configOnce     sync.Once
	cfg            *config.Config
	cfgPath        string
	cfgExists      bool
	cfgErr         error
	sharedLimiter  *ratelimit.Limiter
	limiterOnce    sync.Once
	loggerInstance *slog.Logger
	loggerOnce     sync.Once
}

func (a *commandContext) config() (*config.Config, error) {
	a.configOnce.Do(func() {
		a.cfg, a.cfgPath, a.cfgExists, a.cfgErr = config.Load(a.configPath)
	})
	return a.cfg, a.cfgErr
}

func (a *commandContext) logger() *slog.Logger {
	a.loggerOnce.Do(func() {
		cfg, err := a.config()
		if err != nil {
			a.loggerInstance = logging.Discard()
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			a.loggerInstance = logging.Discard()
			return
		}
		a.loggerInstance = logger
	})
	return a.loggerInstance
}

func (a *commandContext) openStore(ctx context.Context) (*refstore.Store, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	return refstore.Open(ctx, cfg.Store.Path, cfg.Matching.SearchLimit)
}

func (a *commandContext) crmClient() (*crm.Client, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	return crm.NewClient(crm.Config{
		BaseURL:           cfg.CRM.BaseURL,
		AccessToken:       cfg.CRM.AccessToken,
		SignalObject:      cfg.CRM.SignalObject,
		AssociationTypeID: cfg.CRM.AssociationTypeID,
		RequestTimeout:    time.Duration(cfg.CRM.RequestTimeout) * time.Second,
	})
}

func (a *commandContext) limiter() *ratelimit.Limiter {
	a.limiterOnce.Do(func() {
		cfg, err := a.config()
		if err != nil {
			return
		}
		a.sharedLimiter = ratelimit.New(cfg.LLM.RequestsPerMinute)
	})
	return a.sharedLimiter
}

func (a *commandContext) extractor() (*extract.Extractor, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	client := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	})
	return extract.New(client, a.limiter(), cfg.Matching.ExtractCharBudget, a.logger()), nil
}

func (a *commandContext) notifier() (notifications.Service, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	return notifications.NewService(notifications.Config{
		WebhookURL:     cfg.Notifications.SlackWebhookURL,
		RequestTimeout: time.Duration(cfg.Notifications.RequestTimeout) * time.Second,
	}), nil
}

// matcher wires the full engine. The caller owns the returned store and
// must close it.
func (a *commandContext) matcher(ctx context.Context, opts match.Options) (*match.Matcher, *refstore.Store, *crm.Client, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, nil, nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, nil, nil, err
	}
	crmClient, err := a.crmClient()
	if err != nil {
		return nil, nil, nil, err
	}
	store, err := a.openStore(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	extractor, err := a.extractor()
	if err != nil {
		_ = store.Close()
		return nil, nil, nil, err
	}
	notifier, err := a.notifier()
	if err != nil {
		_ = store.Close()
		return nil, nil, nil, err
	}
	if opts.CustomerStages == nil {
		opts.CustomerStages = cfg.CustomerStageSet()
	}
	engine := match.NewMatcher(crmClient, store, extractor, notifier, a.logger(), opts)
	return engine, store, crmClient, nil
}
