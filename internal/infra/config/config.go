// backend/internal/infra/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("config: invalid")

// Backend names.
const (
	LedgerSolana = "solana"
	LedgerMemory = "memory"

	JournalNone      = "none"
	JournalFirestore = "firestore"
	JournalPostgres  = "postgres"

	SignerNone          = "none"
	SignerSecretManager = "secretmanager"
	SignerKeystore      = "keystore"
)

// Config holds the process settings. Environment variables override the
// optional YAML file named by CONFIG_FILE; the file uses the same keys.
type Config struct {
	Port string

	// Solana
	RPCURL            string
	Cluster           string
	LedgerBackend     string
	ConfirmCommitment string
	ConfirmTimeout    time.Duration

	// MintCreateTimeout bounds the one-time mint creation.
	MintCreateTimeout time.Duration

	// Token
	Rate        decimal.Decimal
	MintAddress string

	// Keys
	MintKeyFile        string
	MintKeySecret      string
	WalletSigner       string
	WalletKeystoreDir  string
	WalletSecretPrefix string

	// GCP
	GCPProjectID             string
	FirestoreProjectID       string
	FirestoreCredentialsFile string
	TokenMetadataBucket      string

	// Firebase Auth
	FirebaseProjectID string
	AuthRequired      bool

	// Receipt journal
	JournalBackend string
	DatabaseURL    string

	// Notifications
	SendGridAPIKey string
	NotifyFrom     string
	NotifyTo       string

	// HTTP
	BalancePollInterval time.Duration
	CORSAllowedOrigin   string

	// Logging
	LogLevel  string
	LogFormat string
	LogFile   string
}

// source resolves a key from the environment, then the file.
type source struct {
	file map[string]string
}

func (s source) get(key string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return strings.TrimSpace(s.file[key])
}

func (s source) getenvDefault(key, def string) string {
	if v := s.get(key); v != "" {
		return v
	}
	return def
}

// Load reads the configuration and validates it.
func Load() (*Config, error) {
	src := source{}
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		m, err := readFile(path)
		if err != nil {
			return nil, err
		}
		src.file = m
	}

	var errs []error
	parseDuration := func(key, def string) time.Duration {
		raw := src.getenvDefault(key, def)
		d, err := time.ParseDuration(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s=%q: %v", key, raw, err))
		}
		return d
	}
	parseBool := func(key string) bool {
		raw := src.getenvDefault(key, "false")
		b, err := strconv.ParseBool(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s=%q: %v", key, raw, err))
		}
		return b
	}

	defaultProject := src.get("GCP_PROJECT_ID")

	rateRaw := src.getenvDefault("SOLUSD_RATE", "30")
	rate, err := decimal.NewFromString(rateRaw)
	if err != nil {
		errs = append(errs, fmt.Errorf("SOLUSD_RATE=%q: %v", rateRaw, err))
	}

	cfg := &Config{
		Port: src.getenvDefault("PORT", "8080"),

		RPCURL:            src.getenvDefault("SOLANA_RPC_URL", "https://api.devnet.solana.com"),
		Cluster:           src.getenvDefault("SOLANA_CLUSTER", "devnet"),
		LedgerBackend:     strings.ToLower(src.getenvDefault("LEDGER_BACKEND", LedgerSolana)),
		ConfirmCommitment: strings.ToLower(src.getenvDefault("CONFIRM_COMMITMENT", "confirmed")),
		ConfirmTimeout:    parseDuration("CONFIRM_TIMEOUT", "60s"),
		MintCreateTimeout: parseDuration("MINT_CREATE_TIMEOUT", "90s"),

		Rate:        rate,
		MintAddress: src.get("SOLUSD_MINT_ADDRESS"),

		MintKeyFile:        src.get("SOLANA_MINT_KEY_FILE"),
		MintKeySecret:      src.get("SOLANA_MINT_KEY_SECRET"),
		WalletSigner:       strings.ToLower(src.getenvDefault("WALLET_SIGNER", SignerNone)),
		WalletKeystoreDir:  src.get("WALLET_KEYSTORE_DIR"),
		WalletSecretPrefix: src.getenvDefault("SOLANA_WALLET_SECRET_PREFIX", "solana-wallet-"),

		GCPProjectID:             defaultProject,
		FirestoreProjectID:       src.getenvDefault("FIRESTORE_PROJECT_ID", defaultProject),
		FirestoreCredentialsFile: src.get("FIRESTORE_CREDENTIALS_FILE"),
		TokenMetadataBucket:      src.get("TOKEN_METADATA_BUCKET"),

		FirebaseProjectID: src.getenvDefault("FIREBASE_PROJECT_ID", defaultProject),
		AuthRequired:      parseBool("AUTH_REQUIRED"),

		JournalBackend: strings.ToLower(src.getenvDefault("JOURNAL_BACKEND", JournalNone)),
		DatabaseURL:    src.get("DATABASE_URL"),

		SendGridAPIKey: src.get("SENDGRID_API_KEY"),
		NotifyFrom:     src.get("NOTIFY_FROM"),
		NotifyTo:       src.get("NOTIFY_TO"),

		BalancePollInterval: parseDuration("BALANCE_POLL_INTERVAL", "10s"),
		CORSAllowedOrigin:   src.getenvDefault("CORS_ALLOWED_ORIGIN", "*"),

		LogLevel:  strings.ToLower(src.getenvDefault("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(src.getenvDefault("LOG_FORMAT", "json")),
		LogFile:   src.get("LOG_FILE"),
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readFile(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var m map[string]any
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, path, err)
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		if v == nil {
			continue
		}
		out[strings.ToUpper(k)] = fmt.Sprint(v)
	}
	return out, nil
}

// Validate rejects settings the process cannot run with.
func (c *Config) Validate() error {
	var errs []error
	oneOf := func(key, v string, allowed ...string) {
		for _, a := range allowed {
			if v == a {
				return
			}
		}
		errs = append(errs, fmt.Errorf("%s=%q: want one of %s", key, v, strings.Join(allowed, "|")))
	}

	if !c.Rate.IsPositive() {
		errs = append(errs, fmt.Errorf("SOLUSD_RATE must be positive, got %s", c.Rate))
	}
	oneOf("LEDGER_BACKEND", c.LedgerBackend, LedgerSolana, LedgerMemory)
	oneOf("JOURNAL_BACKEND", c.JournalBackend, JournalNone, JournalFirestore, JournalPostgres)
	oneOf("WALLET_SIGNER", c.WalletSigner, SignerNone, SignerSecretManager, SignerKeystore)
	oneOf("CONFIRM_COMMITMENT", c.ConfirmCommitment, "processed", "confirmed", "finalized")
	oneOf("LOG_FORMAT", c.LogFormat, "json", "console")
	oneOf("LOG_LEVEL", c.LogLevel, "debug", "info", "warn", "error")

	if c.BalancePollInterval <= 0 {
		errs = append(errs, errors.New("BALANCE_POLL_INTERVAL must be positive"))
	}
	if c.ConfirmTimeout <= 0 {
		errs = append(errs, errors.New("CONFIRM_TIMEOUT must be positive"))
	}
	if c.MintCreateTimeout <= 0 {
		errs = append(errs, errors.New("MINT_CREATE_TIMEOUT must be positive"))
	}
	if c.JournalBackend == JournalPostgres && c.DatabaseURL == "" {
		errs = append(errs, errors.New("JOURNAL_BACKEND=postgres requires DATABASE_URL"))
	}
	if c.JournalBackend == JournalFirestore && c.FirestoreProjectID == "" {
		errs = append(errs, errors.New("JOURNAL_BACKEND=firestore requires FIRESTORE_PROJECT_ID or GCP_PROJECT_ID"))
	}
	if c.WalletSigner == SignerKeystore && c.WalletKeystoreDir == "" {
		errs = append(errs, errors.New("WALLET_SIGNER=keystore requires WALLET_KEYSTORE_DIR"))
	}
	if c.WalletSigner == SignerSecretManager && c.GCPProjectID == "" {
		errs = append(errs, errors.New("WALLET_SIGNER=secretmanager requires GCP_PROJECT_ID"))
	}
	if c.AuthRequired && c.FirebaseProjectID == "" {
		errs = append(errs, errors.New("AUTH_REQUIRED requires FIREBASE_PROJECT_ID"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// NotificationsEnabled reports whether SendGrid is fully configured.
func (c *Config) NotificationsEnabled() bool {
	return c.SendGridAPIKey != "" && c.NotifyFrom != "" && c.NotifyTo != ""
}
