package config

const (
	defaultCRMBaseURL           = "https://api.hubapi.com"
	defaultSignalObject         = "signals"
	defaultAssociationTypeID    = 421
	defaultCRMRequestTimeout    = 15
	defaultStorePath            = "~/.local/share/sigmatch/companies.db"
	defaultLLMBaseURL           = "https://api.openai.com/v1/chat/completions"
	defaultLLMModel             = "gpt-4o-mini"
	defaultLLMTimeoutSeconds    = 30
	defaultRequestsPerMinute    = 3000
	defaultConfidenceThreshold  = 0.80
	defaultSearchLimit          = 5
	defaultExtractCharBudget    = 2000
	defaultNotifyRequestTimeout = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogDir               = "~/.local/share/sigmatch/logs"
	defaultWorkers              = 1
	defaultSignalLimit          = 100
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		CRM: CRM{
			BaseURL:           defaultCRMBaseURL,
			SignalObject:      defaultSignalObject,
			AssociationTypeID: defaultAssociationTypeID,
			RequestTimeout:    defaultCRMRequestTimeout,
		},
		Store: Store{
			Path: defaultStorePath,
		},
		LLM: LLM{
			BaseURL:           defaultLLMBaseURL,
			Model:             defaultLLMModel,
			TimeoutSeconds:    defaultLLMTimeoutSeconds,
			RequestsPerMinute: defaultRequestsPerMinute,
		},
		Matching: Matching{
			ConfidenceThreshold: defaultConfidenceThreshold,
			SearchLimit:         defaultSearchLimit,
			ExtractCharBudget:   defaultExtractCharBudget,
			CustomerStages:      []string{"customer", "closedwon"},
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
			Dir:    defaultLogDir,
		},
		Processing: Processing{
			Workers:     defaultWorkers,
			SignalLimit: defaultSignalLimit,
		},
	}
}
