package broker

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/nakulchoubisa/option-sell-bot/internal/config"
)

// NewFromConfig builds the broker backend selected by the configuration and
// wraps it in a swappable Handle.
func NewFromConfig(cfg *config.Config) (*Handle, error) {
	external := externalPricerFunc(cfg)

	var active Broker
	switch cfg.Broker.Mode {
	case "mock":
		active = NewMockBroker()

	case "paper":
		var pricer Pricer
		if cfg.Broker.PriceSource == "external" {
			p, err := external()
			if err != nil {
				return nil, fmt.Errorf("paper broker: %w", err)
			}
			pricer = p
		}
		active = NewPaperBroker(pricer)

	case "kite":
		if cfg.Kite.APIKey == "" || cfg.Kite.AccessToken == "" {
			return nil, errors.New("kite broker requires api_key and access_token")
		}
		active = NewKiteBroker(cfg.Kite.APIKey, cfg.Kite.AccessToken, cfg.Kite.BaseURL)

	default:
		return nil, fmt.Errorf("unknown broker mode %q", cfg.Broker.Mode)
	}

	log.Info().
		Str("broker", active.Name()).
		Str("price_source", cfg.Broker.PriceSource).
		Msg("broker backend initialized")

	return NewHandle(active, external), nil
}

// externalPricerFunc returns a constructor for the external (Kite) price
// source, validated against the configured credentials at call time so the
// pricer can be attached lazily through a runtime swap.
func externalPricerFunc(cfg *config.Config) func() (Pricer, error) {
	return func() (Pricer, error) {
		if cfg.Kite.APIKey == "" || cfg.Kite.AccessToken == "" {
			return nil, errors.New("kite credentials not configured")
		}
		return NewKiteBroker(cfg.Kite.APIKey, cfg.Kite.AccessToken, cfg.Kite.BaseURL), nil
	}
}
