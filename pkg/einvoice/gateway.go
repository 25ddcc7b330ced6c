package einvoice

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/rezonia/einvoice-gateway/internal/batch"
	"github.com/rezonia/einvoice-gateway/internal/relay"
	"github.com/rezonia/einvoice-gateway/internal/store"
	"github.com/rezonia/einvoice-gateway/internal/vendor"
)

// Gateway delivers sealed requests to the platforms
type Gateway = relay.Gateway

// Options configures the registry
type Options struct {
	// RelayURL sends every platform call through a relay. When empty the
	// platforms are called directly.
	RelayURL string

	// Timeout bounds a single platform call
	Timeout time.Duration

	// Credentials per platform and mode
	Credentials map[Vendor]VendorCredentials

	// Gateway overrides RelayURL, e.g. for tests
	Gateway Gateway

	Logger *zap.Logger
}

// DefaultOptions returns options that call the platforms directly
func DefaultOptions() Options {
	return Options{
		Timeout: relay.DefaultCallTimeout,
		Logger:  zap.NewNop(),
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Timeout <= 0 {
		o.Timeout = d.Timeout
	}
	if o.Logger == nil {
		o.Logger = d.Logger
	}
	return o
}

// NewGateway builds the gateway described by opts
func NewGateway(opts Options) Gateway {
	opts = opts.withDefaults()
	if opts.Gateway != nil {
		return opts.Gateway
	}
	if opts.RelayURL != "" {
		return relay.NewClient(opts.RelayURL,
			relay.WithTimeout(opts.Timeout),
			relay.WithLogger(opts.Logger),
		)
	}
	return relay.NewForwarder(
		relay.WithForwardHTTPClient(&http.Client{Timeout: opts.Timeout}),
		relay.WithForwardLogger(opts.Logger),
	)
}

// NewRegistry creates one adapter per platform sharing a gateway
func NewRegistry(opts Options) *Registry {
	opts = opts.withDefaults()
	return vendor.NewRegistry(NewGateway(opts), opts.Credentials,
		vendor.WithLogger(opts.Logger),
		vendor.WithCallTimeout(opts.Timeout),
	)
}

// NewMemoryStore creates an in-memory invoice store
func NewMemoryStore() Store {
	return store.NewMemory()
}

// OpenSQLiteStore opens or creates a SQLite invoice store at path
func OpenSQLiteStore(path string, logger *zap.Logger) (*store.SQLite, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return store.OpenSQLite(path, logger)
}

// NewOrchestrator creates a batch orchestrator over st. onEvent may be nil.
func NewOrchestrator(st Store, onEvent func(Event), logger *zap.Logger) *Orchestrator {
	opts := []batch.Option{}
	if onEvent != nil {
		opts = append(opts, batch.WithEventHandler(onEvent))
	}
	if logger != nil {
		opts = append(opts, batch.WithLogger(logger))
	}
	return batch.New(st, opts...)
}
