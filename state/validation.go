package state

import (
	"fmt"
	"regexp"
)

var namePattern, _ = regexp.Compile("^[0-9a-z._-]+$")

func NameValidator(s string) error {
	if !namePattern.MatchString(s) {
		return fmt.Errorf("%s is not a valid name, must match pattern %s", s, namePattern.String())
	}
	if len(s) > 100 {
		return fmt.Errorf("len(\"%s\") = %d > 100 is too long", s, len(s))
	}
	return nil
}

func RoutingConfigValidator(cfg *RoutingCfg) error {
	if cfg.LookupCacheTTL < 0 {
		return fmt.Errorf("lookup_cache_ttl must not be negative, got %s", cfg.LookupCacheTTL)
	}
	if cfg.RandomEcmp && cfg.LookupCacheTTL > 0 {
		return fmt.Errorf("lookup_cache_ttl cannot be used together with random_ecmp")
	}
	if cfg.DefaultMetric == 0 {
		return fmt.Errorf("default_metric must be at least 1")
	}
	return nil
}
