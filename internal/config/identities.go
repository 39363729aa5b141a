package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

var identityKey = regexp.MustCompile(`^(?:TELEGRAM|DISCORD)_BOT_TOKEN_(\d+)$`)

// DiscoverIdentities returns the sorted, distinct bot ids that have a token
// configured, either in envFile or in the process environment.
// A missing envFile is not an error.
func DiscoverIdentities(envFile string) ([]int, error) {
	keys := make(map[string]string)

	if envFile != "" {
		fileEnv, err := godotenv.Read(envFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", envFile, err)
		}
		for k, v := range fileEnv {
			keys[k] = v
		}
	}

	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if _, seen := keys[k]; !seen {
			keys[k] = v
		}
	}

	seen := make(map[int]bool)
	var ids []int
	for k, v := range keys {
		m := identityKey.FindStringSubmatch(k)
		if m == nil || strings.TrimSpace(v) == "" {
			continue
		}

		id, err := strconv.Atoi(m[1])
		if err != nil || seen[id] {
			continue
		}

		seen[id] = true
		ids = append(ids, id)
	}

	sort.Ints(ids)
	return ids, nil
}

// ApplyEnvFile loads envFile into the process environment without overriding
// variables that are already set. Workers inherit the supervisor's environment,
// so this is how they see tokens from a non-default env file.
// A missing envFile is not an error.
func ApplyEnvFile(envFile string) error {
	if envFile == "" {
		return nil
	}

	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load %s: %w", envFile, err)
	}
	return nil
}
