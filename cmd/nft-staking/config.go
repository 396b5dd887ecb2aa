package main

import (
	"crypto/ed25519"
	"os"
	"strings"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	xrate "golang.org/x/time/rate"

	"github.com/code-payments/nft-staking-cli/pkg/rate"
	"github.com/code-payments/nft-staking-cli/pkg/solana"
	"github.com/code-payments/nft-staking-cli/pkg/solana/nftstaking"
	"github.com/code-payments/nft-staking-cli/pkg/staking"
)

const envPrefix = "NFT_STAKING_"

// Config is the configuration shared by every command.
type Config struct {
	LogLevel string `mapstructure:"log_level"`

	// Env selects a public cluster endpoint: dev, test or prod.
	Env string `mapstructure:"env"`
	// RPCEndpoint, if set, is used instead of the Env endpoint.
	RPCEndpoint string        `mapstructure:"rpc_endpoint"`
	RPCTimeout  time.Duration `mapstructure:"rpc_timeout"`
	// RPCRateLimit is the maximum number of requests per second for each RPC
	// method. Zero disables the limit.
	RPCRateLimit float64 `mapstructure:"rpc_rate_limit"`

	Commitment      string        `mapstructure:"commitment"`
	FreshnessWindow time.Duration `mapstructure:"freshness_window"`
	StaleRestarts   uint          `mapstructure:"stale_restarts"`
	Confirm         bool          `mapstructure:"confirm"`

	// Keypair is the path to the Solana CLI keypair that signs and pays for
	// transactions.
	Keypair string `mapstructure:"keypair"`

	// Deployment keys
	ProgramID                string `mapstructure:"program_id"`
	RewardMint               string `mapstructure:"reward_mint"`
	MetadataProgramID        string `mapstructure:"metadata_program_id"`
	SystemProgramID          string `mapstructure:"system_program_id"`
	TokenProgramID           string `mapstructure:"token_program_id"`
	AssociatedTokenProgramID string `mapstructure:"associated_token_program_id"`
	RentSysvar               string `mapstructure:"rent_sysvar"`
}

func defaultConfig() Config {
	deployment := nftstaking.DefaultConfig()

	return Config{
		LogLevel: "info",

		Env:        "prod",
		RPCTimeout: 30 * time.Second,

		Commitment:      solana.CommitmentConfirmed.Commitment,
		FreshnessWindow: staking.DefaultFreshnessWindow,
		StaleRestarts:   staking.DefaultStaleRestarts,

		Keypair: solana.DefaultKeypairPath(),

		ProgramID:                base58.Encode(deployment.Program),
		RewardMint:               base58.Encode(deployment.RewardMint),
		MetadataProgramID:        base58.Encode(deployment.MetadataProgram),
		SystemProgramID:          base58.Encode(deployment.SystemProgram),
		TokenProgramID:           base58.Encode(deployment.TokenProgram),
		AssociatedTokenProgramID: base58.Encode(deployment.AssociatedTokenProgram),
		RentSysvar:               base58.Encode(deployment.RentSysvar),
	}
}

var configKeys = []string{
	"log_level",

	"env",
	"rpc_endpoint",
	"rpc_timeout",
	"rpc_rate_limit",

	"commitment",
	"freshness_window",
	"stale_restarts",
	"confirm",

	"keypair",

	"program_id",
	"reward_mint",
	"metadata_program_id",
	"system_program_id",
	"token_program_id",
	"associated_token_program_id",
	"rent_sysvar",
}

func newViper() *viper.Viper {
	v := viper.New()
	for _, key := range configKeys {
		_ = v.BindEnv(key, envPrefix+strings.ToUpper(key))
	}
	return v
}

// loadConfig resolves the configuration from flags bound to v, the
// environment, and the optional config file at path, on top of the defaults.
func loadConfig(v *viper.Viper, path string) (Config, error) {
	// viper.ReadInConfig only returns ConfigFileNotFoundError when searching
	// for a config file, so a missing explicit path is checked here.
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
		} else if !os.IsNotExist(err) {
			return Config{}, errors.Wrap(err, "failed to check if config exists")
		}
	}

	err := v.ReadInConfig()
	_, isConfigNotFound := err.(viper.ConfigFileNotFoundError)
	if err != nil && !isConfigNotFound {
		return Config{}, errors.Wrap(err, "failed to load config")
	}

	config := defaultConfig()
	if err := v.Unmarshal(&config); err != nil {
		return Config{}, errors.Wrap(err, "failed to unmarshal config")
	}
	return config, nil
}

// Endpoint returns the RPC endpoint for the configured cluster.
func (c Config) Endpoint() string {
	if c.RPCEndpoint != "" {
		return c.RPCEndpoint
	}
	return string(solana.EnvironmentFromName(c.Env))
}

func (c Config) Limiter() (rate.Limiter, error) {
	switch {
	case c.RPCRateLimit < 0:
		return nil, errors.Errorf("invalid rpc rate limit: %v", c.RPCRateLimit)
	case c.RPCRateLimit == 0:
		return &rate.NoLimiter{}, nil
	default:
		return rate.NewLocalRateLimiter(xrate.Limit(c.RPCRateLimit)), nil
	}
}

func (c Config) Options() (staking.Options, error) {
	commitment, err := solana.CommitmentFromName(c.Commitment)
	if err != nil {
		return staking.Options{}, err
	}

	return staking.Options{
		Commitment:      commitment,
		FreshnessWindow: c.FreshnessWindow,
		StaleRestarts:   c.StaleRestarts,
		Confirm:         c.Confirm,
	}, nil
}

// Deployment parses the configured deployment keys.
func (c Config) Deployment() (*nftstaking.Config, error) {
	deployment := &nftstaking.Config{}
	for _, field := range []struct {
		key   string
		value string
		dst   *ed25519.PublicKey
	}{
		{"program_id", c.ProgramID, &deployment.Program},
		{"reward_mint", c.RewardMint, &deployment.RewardMint},
		{"metadata_program_id", c.MetadataProgramID, &deployment.MetadataProgram},
		{"system_program_id", c.SystemProgramID, &deployment.SystemProgram},
		{"token_program_id", c.TokenProgramID, &deployment.TokenProgram},
		{"associated_token_program_id", c.AssociatedTokenProgramID, &deployment.AssociatedTokenProgram},
		{"rent_sysvar", c.RentSysvar, &deployment.RentSysvar},
	} {
		key, err := solana.ParseAddress(field.value)
		if err != nil {
			return nil, errors.Wrap(err, field.key)
		}
		*field.dst = key
	}

	if err := deployment.Validate(); err != nil {
		return nil, err
	}
	return deployment, nil
}

func configureLogger(config Config) {
	level, err := logrus.ParseLevel(strings.ToLower(config.LogLevel))
	if err != nil {
		logrus.StandardLogger().WithField("log_level", config.LogLevel).Warn("unknown log level, ignoring")
	} else {
		logrus.SetLevel(level)
	}
}
