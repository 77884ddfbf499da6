package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// TaxMode represents how listed prices relate to tax.
type TaxMode string

const (
	TaxModeExclusive TaxMode = "exclusive" // price + tax
	TaxModeInclusive TaxMode = "inclusive" // price already includes tax
)

// StoreConfig carries store-wide billing policy. It is hot-reloadable so
// operators can flip tax or discount behaviour without a restart.
type StoreConfig struct {
	Currency string  `mapstructure:"currency"`
	TaxMode  TaxMode `mapstructure:"taxMode"`
	// TaxRate is a fraction, e.g. 0.2 for 20%. Ignored when TaxesEnabled is false.
	TaxRate      float64 `mapstructure:"taxRate"`
	TaxesEnabled bool    `mapstructure:"taxesEnabled"`
	// DiscountsApplyToRenewals is the store-wide default for discounts that
	// carry no explicit renewal-eligibility meta of their own.
	DiscountsApplyToRenewals bool `mapstructure:"discountsApplyToRenewals"`
}

func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		Currency:                 "USD",
		TaxMode:                  TaxModeExclusive,
		TaxRate:                  0,
		TaxesEnabled:             false,
		DiscountsApplyToRenewals: false,
	}
}

type StoreConfigHolder struct {
	current atomic.Value // holds StoreConfig
}

func NewStoreConfigHolder() (*StoreConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("store")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/renewals/config")
	v.AddConfigPath("/etc/renewals")
	v.AddConfigPath(".")

	v.SetEnvPrefix("RENEWALS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultStoreConfig()
	v.SetDefault("store.currency", defaults.Currency)
	v.SetDefault("store.taxMode", string(defaults.TaxMode))
	v.SetDefault("store.taxRate", defaults.TaxRate)
	v.SetDefault("store.taxesEnabled", defaults.TaxesEnabled)
	v.SetDefault("store.discountsApplyToRenewals", defaults.DiscountsApplyToRenewals)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg StoreConfig
	if err := v.UnmarshalKey("store", &cfg); err != nil {
		return nil, err
	}
	if err := validateStoreConfig(cfg); err != nil {
		return nil, err
	}

	holder := &StoreConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated StoreConfig
		if err := v.UnmarshalKey("store", &updated); err != nil {
			log.Printf("[store-config] reload failed: %v", err)
			return
		}
		if err := validateStoreConfig(updated); err != nil {
			log.Printf("[store-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
	})

	return holder, nil
}

func (h *StoreConfigHolder) Current() StoreConfig {
	return h.current.Load().(StoreConfig)
}

// NewStaticStoreConfigHolder returns a holder pinned to the given config.
// Used by tests and by tools that must not watch the filesystem.
func NewStaticStoreConfigHolder(cfg StoreConfig) *StoreConfigHolder {
	holder := &StoreConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func validateStoreConfig(cfg StoreConfig) error {
	if strings.TrimSpace(cfg.Currency) == "" {
		return errors.New("store currency is required")
	}
	if cfg.TaxMode != TaxModeExclusive && cfg.TaxMode != TaxModeInclusive {
		return errors.New("store taxMode must be inclusive or exclusive")
	}
	if cfg.TaxRate < 0 || cfg.TaxRate >= 1 {
		return errors.New("store taxRate must be a fraction in [0, 1)")
	}
	return nil
}
