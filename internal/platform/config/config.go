package config

import (
	"encoding/hex"
	"os"
	"strings"
	"time"

	dErrors "custodia/pkg/domain-errors"
)

// Config is the immutable process configuration, built once in main and passed
// by reference into the components that need it. There is no mutable global
// connection state; the ledger gateway and custody store receive what they
// need at construction time.
type Config struct {
	Addr string

	// Ledger node and contract.
	LedgerNodeURL   string
	ContractAddress string
	SigningKey      string
	ExplorerBaseURL string
	FinalityTimeout time.Duration

	// Secret store (Vault KV v2).
	VaultAddr         string
	VaultToken        string
	VaultMount        string
	CustodyPathPrefix string

	// Envelope cipher secret, hex-encoded. Must decode to exactly 32 bytes
	// (AES-256-GCM key length); Validate enforces this before any ledger or
	// store call is attempted.
	EnvelopeSecretHex string

	// Audit pipeline.
	KafkaBrokers     []string
	KafkaAuditTopic  string
	AuditDatabaseURL string

	JWTSigningKey string
}

const envelopeKeyLen = 32

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:              getenv("CUSTODIA_ADDR", ":8080"),
		LedgerNodeURL:     os.Getenv("LEDGER_NODE_URL"),
		ContractAddress:   os.Getenv("LEDGER_CONTRACT_ADDRESS"),
		SigningKey:        os.Getenv("LEDGER_SIGNING_KEY"),
		ExplorerBaseURL:   getenv("LEDGER_EXPLORER_BASE_URL", "https://explorer.local/tx/"),
		FinalityTimeout:   30 * time.Second,
		VaultAddr:         os.Getenv("VAULT_ADDR"),
		VaultToken:        os.Getenv("VAULT_TOKEN"),
		VaultMount:        getenv("VAULT_MOUNT", "secret"),
		CustodyPathPrefix: getenv("CUSTODY_PATH_PREFIX", "data/pk"),
		EnvelopeSecretHex: os.Getenv("ENVELOPE_SECRET"),
		KafkaAuditTopic:   getenv("KAFKA_AUDIT_TOPIC", "custodia.audit.compliance"),
		AuditDatabaseURL:  os.Getenv("AUDIT_DATABASE_URL"),
		JWTSigningKey:     os.Getenv("JWT_SIGNING_KEY"),
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	if d, err := time.ParseDuration(os.Getenv("LEDGER_FINALITY_TIMEOUT")); err == nil && d > 0 {
		cfg.FinalityTimeout = d
	}
	return cfg
}

// Validate performs the fatal startup checks. Anything returned here is a
// configuration error: the process must not serve traffic.
func (c Config) Validate() error {
	if err := c.ValidateEnvelopeSecret(); err != nil {
		return err
	}
	if c.ExplorerBaseURL == "" {
		return dErrors.New(dErrors.CodeConfiguration, "ledger explorer base URL is required")
	}
	return nil
}

// ValidateEnvelopeSecret checks the cipher secret decodes to the exact AES-256
// key length. This runs once at startup, not per call.
func (c Config) ValidateEnvelopeSecret() error {
	key, err := hex.DecodeString(c.EnvelopeSecretHex)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeConfiguration, "envelope secret is not valid hex")
	}
	if len(key) != envelopeKeyLen {
		return dErrors.Newf(dErrors.CodeConfiguration,
			"envelope secret must be %d bytes, got %d", envelopeKeyLen, len(key))
	}
	return nil
}

// EnvelopeSecret returns the decoded cipher key. Callers must run Validate
// first; a malformed secret here means the startup check was skipped, which
// is a programming error, so this panics rather than serving with a bad key.
func (c Config) EnvelopeSecret() []byte {
	key, err := hex.DecodeString(c.EnvelopeSecretHex)
	if err != nil || len(key) != envelopeKeyLen {
		panic("config: envelope secret not validated")
	}
	return key
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
