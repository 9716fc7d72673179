// Command bootstrap-terminal-key mints the first terminal key for a fresh
// deployment, so the admin API is reachable before any key exists.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/palmgate/palmgate/internal/auth"
	"github.com/palmgate/palmgate/internal/model"
	"github.com/palmgate/palmgate/internal/repository"
)

type output struct {
	OwnerID   string   `json:"owner_id"`
	KeyID     string   `json:"key_id"`
	Key       string   `json:"key"`
	KeyPrefix string   `json:"key_prefix"`
	Scopes    []string `json:"scopes"`
	Tier      string   `json:"tier"`
}

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		ownerID     = flag.String("owner", "system", "Operator account that owns the terminal key")
		name        = flag.String("name", "bootstrap", "Terminal key name")
		scopesInput = flag.String("scopes", "admin", "Comma-separated scopes (enroll,charge,attendance,access,admin)")
		tier        = flag.String("tier", model.TierUnlimited, "Rate limit tier (kiosk, standard, unlimited)")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	scopes, err := parseScopes(*scopesInput)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	if _, ok := model.TierConfigs[*tier]; !ok {
		fmt.Fprintln(os.Stderr, "invalid tier; use kiosk, standard or unlimited")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	generated, err := auth.GenerateTerminalKey(auth.EnvLive)
	if err != nil {
		fmt.Fprintln(os.Stderr, "generate terminal key:", err)
		os.Exit(1)
	}

	apiKey := &model.APIKey{
		ID:            ulid.Make().String(),
		UserID:        *ownerID,
		KeyHash:       generated.Hash,
		KeyPrefix:     generated.Prefix,
		Scopes:        scopes,
		RateLimitTier: *tier,
		Name:          *name,
		CreatedAt:     time.Now().UTC(),
	}

	if err := repo.CreateAPIKey(ctx, apiKey); err != nil {
		fmt.Fprintln(os.Stderr, "create terminal key:", err)
		os.Exit(1)
	}

	out := output{
		OwnerID:   *ownerID,
		KeyID:     apiKey.ID,
		Key:       generated.Plaintext,
		KeyPrefix: apiKey.KeyPrefix,
		Scopes:    scopes,
		Tier:      apiKey.RateLimitTier,
	}

	switch strings.ToLower(*format) {
	case "plain":
		fmt.Println(out.Key)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	default:
		fmt.Fprintln(os.Stderr, "invalid format; use plain or json")
		os.Exit(1)
	}
}

func parseScopes(input string) ([]string, error) {
	if strings.TrimSpace(input) == "" {
		return []string{model.ScopeAdmin}, nil
	}
	parts := strings.Split(input, ",")
	scopes := make([]string, 0, len(parts))
	for _, part := range parts {
		scope := strings.TrimSpace(part)
		if scope == "" {
			continue
		}
		if !isValidScope(scope) {
			return nil, fmt.Errorf("invalid scope: %s", scope)
		}
		scopes = append(scopes, scope)
	}
	if len(scopes) == 0 {
		scopes = []string{model.ScopeAdmin}
	}
	return scopes, nil
}

func isValidScope(scope string) bool {
	for _, allowed := range model.ValidScopes {
		if scope == allowed {
			return true
		}
	}
	return false
}
