package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

const (
	defaultEnvFile         = ".env"
	defaultUndoWindow      = 5 * time.Minute
	defaultOrderCounterID  = "orders"
	defaultEventsTopic     = "order-events"
	defaultConvertedStatus = "consumed"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Firestore FirestoreConfig
	PubSub    PubSubConfig
	Orders    OrdersConfig
}

// FirestoreConfig stores database parameters.
type FirestoreConfig struct {
	ProjectID    string
	EmulatorHost string
}

// PubSubConfig stores event publishing parameters.
type PubSubConfig struct {
	ProjectID        string
	OrderEventsTopic string
}

// OrdersConfig tunes order lifecycle behaviour.
type OrdersConfig struct {
	// UndoWindow is the default span during which a status change can be reverted.
	UndoWindow time.Duration
	// OrderNumberCounter names the counter document backing order number sequences.
	OrderNumberCounter string
	// ConvertedCartStatus is written to the linked cart after a successful order creation.
	ConvertedCartStatus string
}

// ValidationError reports configuration fields that failed validation.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e == nil || len(e.fields) == 0 {
		return "invalid configuration"
	}
	sorted := append([]string(nil), e.fields...)
	sort.Strings(sorted)
	return fmt.Sprintf("invalid configuration [%s]", strings.Join(sorted, ", "))
}

// Fields returns the offending configuration keys.
func (e *ValidationError) Fields() []string {
	if e == nil {
		return nil
	}
	return append([]string(nil), e.fields...)
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the dotenv file consulted during loading.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap supplies explicit values taking precedence over every other source.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading the process environment.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load resolves configuration with precedence dotenv < OS env < explicit map.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	values, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}
	if values == nil {
		values = map[string]string{}
	}
	if options.useSystemEnv {
		for _, entry := range os.Environ() {
			if key, value, ok := strings.Cut(entry, "="); ok && key != "" {
				values[key] = value
			}
		}
	}
	for key, value := range options.envMap {
		values[key] = value
	}

	lookup := func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}

	cfg := Config{
		Firestore: FirestoreConfig{
			ProjectID:    stringWithDefault(lookup, "FIRESTORE_PROJECT_ID", stringWithDefault(lookup, "GOOGLE_CLOUD_PROJECT", "")),
			EmulatorHost: stringWithDefault(lookup, "FIRESTORE_EMULATOR_HOST", ""),
		},
		PubSub: PubSubConfig{
			ProjectID:        stringWithDefault(lookup, "PUBSUB_PROJECT_ID", stringWithDefault(lookup, "GOOGLE_CLOUD_PROJECT", "")),
			OrderEventsTopic: stringWithDefault(lookup, "ORDER_EVENTS_TOPIC", defaultEventsTopic),
		},
		Orders: OrdersConfig{
			UndoWindow:          durationWithDefault(lookup, "ORDER_UNDO_WINDOW", defaultUndoWindow),
			OrderNumberCounter:  stringWithDefault(lookup, "ORDER_NUMBER_COUNTER", defaultOrderCounterID),
			ConvertedCartStatus: stringWithDefault(lookup, "CONVERTED_CART_STATUS", defaultConvertedStatus),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	var fields []string
	if cfg.Orders.UndoWindow <= 0 {
		fields = append(fields, "ORDER_UNDO_WINDOW")
	}
	if strings.TrimSpace(cfg.Orders.OrderNumberCounter) == "" {
		fields = append(fields, "ORDER_NUMBER_COUNTER")
	}
	if strings.TrimSpace(cfg.PubSub.OrderEventsTopic) == "" {
		fields = append(fields, "ORDER_EVENTS_TOPIC")
	}
	if len(fields) > 0 {
		return &ValidationError{fields: fields}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: open env file %s: %w", path, err)
	}
	defer file.Close()

	values := map[string]string{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		value = strings.Trim(value, `"'`)
		if key == "" {
			continue
		}
		values[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: read env file %s: %w", path, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	value, ok := lookup(key)
	if !ok {
		return fallback
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}
