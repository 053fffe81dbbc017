package editsession

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultOverrideReason = "manual adjustment"
	revertOverrideReason  = "reverted to automatic"

	defaultDebounceInterval = 500 * time.Millisecond
)

// The statutory personal-contribution codes eligible for manual override.
// Treated as configuration: the env var replaces the default set, and the
// payroll core is expected to enforce the same rule server-side.
var defaultOverridableCodes = []string{
	"PENSION_PERSONAL",
	"MEDICAL_PERSONAL",
	"UNEMPLOYMENT_PERSONAL",
	"OCCUPATIONAL_PENSION_PERSONAL",
	"HOUSING_FUND_PERSONAL",
}

type Config struct {
	// DebounceInterval is the quiet period before an amount edit on an
	// overridden item is persisted.
	DebounceInterval time.Duration
	// OverridableCodes are the deduction codes whose override toggle is
	// allowed.
	OverridableCodes map[string]struct{}
	// NegativeAmountCodes are the only codes allowed to carry a negative
	// amount.
	NegativeAmountCodes map[string]struct{}
}

func DefaultConfig() Config {
	return Config{
		DebounceInterval:    defaultDebounceInterval,
		OverridableCodes:    toSet(defaultOverridableCodes),
		NegativeAmountCodes: map[string]struct{}{},
	}
}

func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if raw := os.Getenv("OVERRIDABLE_DEDUCTION_CODES"); raw != "" {
		cfg.OverridableCodes = toSet(strings.Split(raw, ","))
	}
	if raw := os.Getenv("NEGATIVE_AMOUNT_CODES"); raw != "" {
		cfg.NegativeAmountCodes = toSet(strings.Split(raw, ","))
	}
	if raw := os.Getenv("PERSIST_DEBOUNCE_MS"); raw != "" {
		if ms, err := strconv.Atoi(raw); err == nil && ms > 0 {
			cfg.DebounceInterval = time.Duration(ms) * time.Millisecond
		}
	}

	return cfg
}

func toSet(codes []string) map[string]struct{} {
	set := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code != "" {
			set[code] = struct{}{}
		}
	}
	return set
}
