package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/danielhkuo/travelsphere/voting"
)

const defaultSQLiteURL = "file:travelsphere.db?_pragma=busy_timeout(5000)"

type Config struct {
	Port           int
	DatabaseURL    string
	DatabaseType   string
	LobbyCodeSalt  string
	IPHashSalt     string
	ResolveTimeout time.Duration
	RevealDuration time.Duration
	TiePolicy      voting.TiePolicy
}

// ParseFlags validates flags and fills defaults from the environment
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("travelsphere", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.LobbyCodeSalt, "lobby-salt", "", "Lobby code salt (prefer env)")
	fs.StringVar(&cfg.IPHashSalt, "ip-salt", "", "IP hash salt (prefer env)")

	// Voting
	fs.DurationVar(&cfg.ResolveTimeout, "resolve-timeout", 0, "Upper bound on one round resolution")
	fs.DurationVar(&cfg.RevealDuration, "reveal", -1, "How long a round outcome stays in the revealing stage")
	tiePolicy := fs.String("tie-policy", "", "Tie policy at the cut: fail, random or id")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3318 // default
		}
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, fmt.Errorf("unsupported database type %q (use sqlite or postgres)", cfg.DatabaseType)
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		if cfg.DatabaseType == "postgres" {
			return Config{}, errors.New("database URL required for postgres (use -d or DATABASE_URL env)")
		}
		cfg.DatabaseURL = defaultSQLiteURL
	}

	// Secrets - MUST be provided
	if cfg.LobbyCodeSalt == "" {
		cfg.LobbyCodeSalt = os.Getenv("LOBBY_CODE_SALT")
	}
	if cfg.LobbyCodeSalt == "" {
		return Config{}, errors.New("LOBBY_CODE_SALT required")
	}

	if cfg.IPHashSalt == "" {
		cfg.IPHashSalt = os.Getenv("IP_HASH_SALT")
	}
	if cfg.IPHashSalt == "" {
		return Config{}, errors.New("IP_HASH_SALT required")
	}

	if cfg.ResolveTimeout == 0 {
		d, err := durationEnv("RESOLVE_TIMEOUT", 10*time.Second)
		if err != nil {
			return Config{}, err
		}
		cfg.ResolveTimeout = d
	}
	if cfg.ResolveTimeout <= 0 {
		return Config{}, errors.New("resolve timeout must be positive")
	}

	if cfg.RevealDuration < 0 {
		d, err := durationEnv("REVEAL_DURATION", 5*time.Second)
		if err != nil {
			return Config{}, err
		}
		cfg.RevealDuration = d
	}
	if cfg.RevealDuration < 0 {
		return Config{}, errors.New("reveal duration cannot be negative")
	}

	if *tiePolicy == "" {
		*tiePolicy = os.Getenv("TIE_POLICY")
	}
	policy, err := voting.ParseTiePolicy(*tiePolicy)
	if err != nil {
		return Config{}, err
	}
	cfg.TiePolicy = policy

	return cfg, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s env variable: %w", key, err)
	}
	return d, nil
}
