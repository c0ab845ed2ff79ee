// Package validation checks operator configuration and screens provider
// numbers before they enter the normalized model.
package validation

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/yourorg/protocol-risk/internal/model"
)

// Watchlist validates the tracked protocol roster. All defects are reported
// together; an empty roster fails with model.ErrEmptyWatchlist.
func Watchlist(configs []model.TrackedProtocolConfig) error {
	if len(configs) == 0 {
		return model.ErrEmptyWatchlist
	}

	var errs []error
	seen := make(map[string]int, len(configs))
	for i, c := range configs {
		if err := Slug(c.Slug); err != nil {
			errs = append(errs, fmt.Errorf("watchlist[%d]: %w", i, err))
			continue
		}
		if prev, dup := seen[c.Slug]; dup {
			errs = append(errs, fmt.Errorf("watchlist[%d]: slug %q already defined at index %d", i, c.Slug, prev))
			continue
		}
		seen[c.Slug] = i

		if _, err := model.ParseCategory(string(c.Category)); err != nil {
			errs = append(errs, fmt.Errorf("watchlist[%d] %s: %w", i, c.Slug, err))
		}
		if strings.TrimSpace(c.DisplayName) == "" {
			errs = append(errs, fmt.Errorf("watchlist[%d] %s: display name is required", i, c.Slug))
		}
	}
	return errors.Join(errs...)
}

// Slug checks that s is usable as a join key: non-empty, lowercase and free
// of whitespace.
func Slug(s string) error {
	switch {
	case s == "":
		return errors.New("slug is empty")
	case s != strings.ToLower(s):
		return fmt.Errorf("slug %q must be lowercase", s)
	case strings.ContainsAny(s, " \t\r\n"):
		return fmt.Errorf("slug %q contains whitespace", s)
	}
	return nil
}

// VaultAddress validates a hex account address and returns it in the
// lowercase form the info API expects.
func VaultAddress(s string) (string, error) {
	if !common.IsHexAddress(s) {
		return "", fmt.Errorf("invalid vault address %q", s)
	}
	return strings.ToLower(common.HexToAddress(s).Hex()), nil
}

// Finite returns p unchanged unless it points at NaN or an infinity, in which
// case the value is treated as not reported.
func Finite(p *float64) *float64 {
	if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) {
		return nil
	}
	return p
}

// FiniteOr returns v, or fallback when v is NaN or infinite.
func FiniteOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

// Positive reports whether p carries a finite value above zero. Rejections
// are logged at debug level with fields.
func Positive(p *float64, fields logrus.Fields) bool {
	if Finite(p) != nil && *p > 0 {
		return true
	}
	logrus.WithFields(fields).Debug("Filtered record without positive value")
	return false
}
