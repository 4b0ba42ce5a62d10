package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/sakshamg567/hangman/internal/hangman"
	"github.com/sakshamg567/hangman/pkg/utils"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

type Config struct {
	Addr       string
	PublicURL  string
	Store      string
	SQLitePath string
	RedisAddr  string
	JWTSecret  string
	WordsFile  string
	Debug      bool

	// GeneratedSecret is set when no secret was configured and one was
	// made up for this process.
	GeneratedSecret bool
}

// Load reads an optional .env file and then the environment.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := Config{
		Addr:       getenv("HANGMAN_ADDR", ":3000"),
		PublicURL:  strings.TrimRight(getenv("HANGMAN_PUBLIC_URL", "http://localhost:3000"), "/"),
		Store:      strings.ToLower(getenv("HANGMAN_STORE", StoreMemory)),
		SQLitePath: getenv("HANGMAN_SQLITE_PATH", "./hangman.db"),
		RedisAddr:  getenv("HANGMAN_REDIS_ADDR", "localhost:6379"),
		JWTSecret:  os.Getenv("HANGMAN_JWT_SECRET"),
		WordsFile:  os.Getenv("HANGMAN_WORDS_FILE"),
		Debug:      os.Getenv("DEBUG") != "",
	}
	return cfg, cfg.finish()
}

// finish validates the config and fills generated values.
func (c *Config) finish() error {
	switch c.Store {
	case StoreMemory, StoreSQLite, StoreRedis:
	default:
		return fmt.Errorf("unknown store %q (want memory, sqlite or redis)", c.Store)
	}
	if c.JWTSecret == "" {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			return fmt.Errorf("generate jwt secret: %w", err)
		}
		c.JWTSecret = hex.EncodeToString(b)
		c.GeneratedSecret = true
	}
	return nil
}

// WordBank returns the configured bank, or the built-in one when no file
// is set.
func (c Config) WordBank() (hangman.WordBank, error) {
	return LoadWordBank(c.WordsFile)
}

// LoadWordBank loads path as a word bank; an empty path yields the
// built-in bank.
func LoadWordBank(path string) (hangman.WordBank, error) {
	if path == "" {
		return hangman.DefaultWordBank(), nil
	}
	words, err := utils.LoadWords(path)
	if err != nil {
		return hangman.WordBank{}, err
	}
	bank, err := hangman.NewWordBank(words)
	if err != nil {
		return hangman.WordBank{}, fmt.Errorf("word bank %s: %w", path, err)
	}
	return bank, nil
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
