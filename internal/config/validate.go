// ShipWatch - Live Vessel Watchlist Tracking and Map Visualization
// Copyright 2026 ZonkeyNet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/zonkeynet/shipwatch

package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/zonkeynet/shipwatch/internal/models"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration for correctness. Struct-tag rules run
// first, then cross-field checks that tags cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := c.Watch.Area.Validate(); err != nil {
		return fmt.Errorf("invalid watch area: %w", err)
	}

	if c.Upstream.Dialect == "aisstream" && c.Upstream.APIKey == "" {
		return fmt.Errorf("upstream.api_key is required for the aisstream dialect")
	}

	if c.Upstream.BackoffCap < c.Upstream.BackoffBase {
		return fmt.Errorf("upstream.backoff_cap (%s) must be at least upstream.backoff_base (%s)",
			c.Upstream.BackoffCap, c.Upstream.BackoffBase)
	}

	for _, name := range c.Watch.Categories {
		if models.ParseCategory(name) == models.CategoryNone {
			return fmt.Errorf("unknown watch category %q", name)
		}
	}

	return nil
}
