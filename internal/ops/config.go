package ops

import (
	"encoding/json"
	"os"
	"time"

	"github.com/yanun0323/errors"

	"main/internal/book"
	"main/internal/stream"
)

// FileConfig mirrors the JSON config layout.
type FileConfig struct {
	Endpoint           string        `json:"endpoint"`
	Symbols            []string      `json:"symbols"`
	SubscriberQueue    int           `json:"subscriberQueue"`
	PendingDeltaLimit  int           `json:"pendingDeltaLimit"`
	RetryCeiling       int           `json:"retryCeiling"`
	HeartbeatTimeoutMs int           `json:"heartbeatTimeoutMs"`
	Backoff            BackoffConfig `json:"backoff"`
}

// BackoffConfig describes reconnect delays in milliseconds.
type BackoffConfig struct {
	MinMs  int     `json:"minMs"`
	MaxMs  int     `json:"maxMs"`
	Factor float64 `json:"factor"`
	Jitter float64 `json:"jitter"`
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Endpoint          string
	Symbols           []string
	SubscriberQueue   int
	PendingDeltaLimit int
	RetryCeiling      int
	HeartbeatTimeout  time.Duration
	Backoff           stream.Backoff
}

const (
	defaultSubscriberQueue  = 1024
	defaultHeartbeatTimeout = 30 * time.Second
)

// Load reads a JSON config file and resolves defaults.
func Load(path string) (Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, err
	}
	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Loaded{}, err
	}
	return resolve(cfg)
}

func resolve(cfg FileConfig) (Loaded, error) {
	if cfg.Endpoint == "" {
		return Loaded{}, errors.New("endpoint is empty")
	}
	if len(cfg.Symbols) == 0 {
		return Loaded{}, errors.New("no symbols configured")
	}
	for _, symbol := range cfg.Symbols {
		if symbol == "" {
			return Loaded{}, errors.New("empty symbol entry")
		}
	}
	if cfg.SubscriberQueue < 0 || cfg.PendingDeltaLimit < 0 || cfg.RetryCeiling < 0 {
		return Loaded{}, errors.New("queue sizes and retry ceiling must be >= 0")
	}

	loaded := Loaded{
		Endpoint:          cfg.Endpoint,
		Symbols:           cfg.Symbols,
		SubscriberQueue:   cfg.SubscriberQueue,
		PendingDeltaLimit: cfg.PendingDeltaLimit,
		RetryCeiling:      cfg.RetryCeiling,
		HeartbeatTimeout:  time.Duration(cfg.HeartbeatTimeoutMs) * time.Millisecond,
		Backoff:           resolveBackoff(cfg.Backoff),
	}
	if loaded.SubscriberQueue == 0 {
		loaded.SubscriberQueue = defaultSubscriberQueue
	}
	if loaded.PendingDeltaLimit == 0 {
		loaded.PendingDeltaLimit = book.DefaultPendingLimit
	}
	if loaded.HeartbeatTimeout <= 0 {
		loaded.HeartbeatTimeout = defaultHeartbeatTimeout
	}
	return loaded, nil
}

func resolveBackoff(cfg BackoffConfig) stream.Backoff {
	if cfg.MinMs == 0 && cfg.MaxMs == 0 && cfg.Factor == 0 && cfg.Jitter == 0 {
		return stream.DefaultBackoff()
	}
	return stream.Backoff{
		Min:    time.Duration(cfg.MinMs) * time.Millisecond,
		Max:    time.Duration(cfg.MaxMs) * time.Millisecond,
		Factor: cfg.Factor,
		Jitter: cfg.Jitter,
	}
}
