// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
)

// envPrefix namespaces the client variables: HERD_APP_HASH_KEY
// overrides APP_HASH_KEY when both are set.
const envPrefix = "HERD_"

// parseEnv fills cfg from the process environment using the `env` and
// `envPrefix` tags of [StructuredConfig].
func parseEnv(cfg any) error {
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environ(os.Environ())}); err != nil {
		return fmt.Errorf("error getting env configs: %w", err)
	}

	return nil
}

// environ flattens KEY=VALUE pairs, letting prefixed keys shadow plain ones.
func environ(pairs []string) map[string]string {
	plain := make(map[string]string, len(pairs))
	prefixed := make(map[string]string)
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		if name, found := strings.CutPrefix(key, envPrefix); found && name != "" {
			prefixed[name] = value
			continue
		}
		plain[key] = value
	}

	for key, value := range prefixed {
		plain[key] = value
	}

	return plain
}
