package main

import (
	"crypto/ed25519"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/code-payments/nft-staking-cli/pkg/rate"
	"github.com/code-payments/nft-staking-cli/pkg/solana"
	"github.com/code-payments/nft-staking-cli/pkg/staking"
)

type clientFactory func(endpoint string, timeout time.Duration, limiter rate.Limiter) solana.Client

// legacyFlags maps the flag names of earlier releases onto their current
// names.
var legacyFlags = map[string]string{
	"candy-machine": "registry",
	"reward":        "price",
}

func normalizeFlag(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	name = strings.ReplaceAll(name, "_", "-")
	if renamed, ok := legacyFlags[name]; ok {
		name = renamed
	}
	return pflag.NormalizedName(name)
}

type cli struct {
	v          *viper.Viper
	newClient  clientFactory
	configPath string
}

// executionError marks errors returned while running a command, as opposed
// to argument errors raised by cobra before the command starts.
type executionError struct {
	err error
}

func (e *executionError) Error() string { return e.err.Error() }
func (e *executionError) Unwrap() error { return e.err }

type session struct {
	config  Config
	service *staking.Service
	signer  ed25519.PrivateKey
}

func newRootCommand(newClient clientFactory) *cobra.Command {
	c := &cli{
		v:         newViper(),
		newClient: newClient,
	}
	defaults := defaultConfig()

	rootCmd := &cobra.Command{
		Use:           "nft-staking",
		Short:         "Client for the NFT staking program",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetGlobalNormalizationFunc(normalizeFlag)
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return staking.NewConfigError(err)
	})

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "path to a config file")
	flags.StringP("sign", "s", defaults.Keypair, "keypair file that signs and pays for the transaction")
	flags.StringP("env", "e", defaults.Env, "cluster to use: dev, test or prod")
	flags.String("rpc-endpoint", "", "RPC endpoint, overrides --env")
	flags.String("commitment", defaults.Commitment, "commitment level: processed, confirmed or finalized")
	flags.Bool("confirm", defaults.Confirm, "wait for the transaction to reach the commitment level")
	flags.String("log-level", defaults.LogLevel, "log level")

	for key, flag := range map[string]string{
		"keypair":      "sign",
		"env":          "env",
		"rpc_endpoint": "rpc-endpoint",
		"commitment":   "commitment",
		"confirm":      "confirm",
		"log_level":    "log-level",
	} {
		_ = c.v.BindPFlag(key, flags.Lookup(flag))
	}

	rootCmd.AddCommand(
		c.generateVaultCommand(),
		c.addToWhitelistCommand(),
		c.stakeCommand(),
		c.unstakeCommand(),
		c.withdrawCommand(),
		c.vaultInfoCommand(),
		c.stakeInfoCommand(),
		c.whitelistInfoCommand(),
	)

	return rootCmd
}

func (c *cli) generateVaultCommand() *cobra.Command {
	var op staking.GenerateVault

	cmd := &cobra.Command{
		Use:     "generate-vault",
		Aliases: []string{"generate_vault_address"},
		Short:   "Create the program vault with its staking periods",
		Args:    cobra.NoArgs,
		RunE: c.transact(func(cmd *cobra.Command, s *session) error {
			outcome, err := s.service.Execute(cmd.Context(), s.signer, op)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "vault account generated: %s\n", base58.Encode(outcome.Vault))
			printSubmission(cmd.OutOrStdout(), outcome)
			return nil
		}),
	}

	cmd.Flags().Uint64VarP(&op.MinPeriod, "min-period", "m", 0, "minimum staking period in seconds")
	cmd.Flags().Uint64VarP(&op.RewardPeriod, "reward-period", "r", 0, "reward accrual period in seconds")
	_ = cmd.MarkFlagRequired("min-period")
	_ = cmd.MarkFlagRequired("reward-period")

	return cmd
}

func (c *cli) addToWhitelistCommand() *cobra.Command {
	var registry string
	var price uint64

	cmd := &cobra.Command{
		Use:     "add-to-whitelist",
		Aliases: []string{"add_to_whitelist"},
		Short:   "Whitelist a collection and set its reward price",
		Args:    cobra.NoArgs,
		RunE: c.transact(func(cmd *cobra.Command, s *session) error {
			key, err := parseAddressFlag("registry", registry)
			if err != nil {
				return err
			}

			outcome, err := s.service.Execute(cmd.Context(), s.signer, staking.AddToWhitelist{Registry: key, Price: price})
			if err != nil {
				return err
			}

			printSubmission(cmd.OutOrStdout(), outcome)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&registry, "registry", "c", "", "first creator (candy machine) of the collection")
	cmd.Flags().Uint64VarP(&price, "price", "r", 0, "reward paid per reward period")
	_ = cmd.MarkFlagRequired("registry")
	_ = cmd.MarkFlagRequired("price")

	return cmd
}

func (c *cli) stakeCommand() *cobra.Command {
	var nft string

	cmd := &cobra.Command{
		Use:   "stake",
		Short: "Stake an NFT from a whitelisted collection",
		Args:  cobra.NoArgs,
		RunE: c.transact(func(cmd *cobra.Command, s *session) error {
			key, err := parseAddressFlag("nft", nft)
			if err != nil {
				return err
			}

			outcome, err := s.service.Execute(cmd.Context(), s.signer, staking.Stake{Nft: key})
			if err != nil {
				return err
			}

			printSubmission(cmd.OutOrStdout(), outcome)
			return nil
		}),
	}

	nftFlag(cmd, &nft)
	return cmd
}

func (c *cli) unstakeCommand() *cobra.Command {
	var nft string

	cmd := &cobra.Command{
		Use:   "unstake",
		Short: "Unstake an NFT and collect its rewards",
		Args:  cobra.NoArgs,
		RunE: c.transact(func(cmd *cobra.Command, s *session) error {
			key, err := parseAddressFlag("nft", nft)
			if err != nil {
				return err
			}

			outcome, err := s.service.Execute(cmd.Context(), s.signer, staking.Unstake{Nft: key})
			if err != nil {
				return err
			}

			printSubmission(cmd.OutOrStdout(), outcome)
			return nil
		}),
	}

	nftFlag(cmd, &nft)
	return cmd
}

func (c *cli) withdrawCommand() *cobra.Command {
	var op staking.Withdraw

	cmd := &cobra.Command{
		Use:   "withdraw",
		Short: "Withdraw reward tokens from the vault",
		Args:  cobra.NoArgs,
		RunE: c.transact(func(cmd *cobra.Command, s *session) error {
			outcome, err := s.service.Execute(cmd.Context(), s.signer, op)
			if err != nil {
				return err
			}

			printSubmission(cmd.OutOrStdout(), outcome)
			return nil
		}),
	}

	cmd.Flags().Uint64VarP(&op.Amount, "amount", "a", 0, "amount of reward tokens, in base units")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func (c *cli) vaultInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "vault-info",
		Short: "Show the vault's staking periods and reward balance",
		Args:  cobra.NoArgs,
		RunE: c.query(func(cmd *cobra.Command, s *session) error {
			info, err := s.service.VaultInfo(cmd.Context())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "vault: %s\n", base58.Encode(info.Address))
			if info.Contract == nil {
				fmt.Fprintln(w, "vault has not been generated")
				return nil
			}
			fmt.Fprintf(w, "min period: %s\n", time.Duration(info.Contract.MinPeriod)*time.Second)
			fmt.Fprintf(w, "reward period: %s\n", time.Duration(info.Contract.RewardPeriod)*time.Second)
			fmt.Fprintf(w, "reward account: %s\n", base58.Encode(info.RewardAccount))
			fmt.Fprintf(w, "reward balance: %d\n", info.RewardBalance)
			return nil
		}),
	}
}

func (c *cli) stakeInfoCommand() *cobra.Command {
	var nft string

	cmd := &cobra.Command{
		Use:   "stake-info",
		Short: "Show the stake record of an NFT",
		Args:  cobra.NoArgs,
		RunE: c.query(func(cmd *cobra.Command, s *session) error {
			key, err := parseAddressFlag("nft", nft)
			if err != nil {
				return err
			}

			info, err := s.service.StakeInfo(cmd.Context(), key)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "stake record: %s\n", base58.Encode(info.Address))
			fmt.Fprintf(w, "staker: %s\n", base58.Encode(info.Stake.Staker))
			fmt.Fprintf(w, "active: %t\n", info.Stake.Active)
			fmt.Fprintf(w, "staked at: %s\n", info.Stake.StakedAt().UTC().Format(time.RFC3339))
			fmt.Fprintf(w, "unlocks at: %s\n", info.UnlocksAt.UTC().Format(time.RFC3339))
			fmt.Fprintf(w, "unlocked: %t\n", info.Unlocked)
			return nil
		}),
	}

	nftFlag(cmd, &nft)
	return cmd
}

func (c *cli) whitelistInfoCommand() *cobra.Command {
	var registry string

	cmd := &cobra.Command{
		Use:   "whitelist-info",
		Short: "Show the whitelist entry of a collection",
		Args:  cobra.NoArgs,
		RunE: c.query(func(cmd *cobra.Command, s *session) error {
			key, err := parseAddressFlag("registry", registry)
			if err != nil {
				return err
			}

			info, err := s.service.WhitelistInfo(cmd.Context(), key)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "whitelist: %s\n", base58.Encode(info.Address))
			fmt.Fprintf(w, "price: %d\n", info.Rate.Price)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&registry, "registry", "c", "", "first creator (candy machine) of the collection")
	_ = cmd.MarkFlagRequired("registry")

	return cmd
}

func nftFlag(cmd *cobra.Command, nft *string) {
	cmd.Flags().StringVarP(nft, "nft", "n", "", "mint address of the NFT")
	_ = cmd.MarkFlagRequired("nft")
}

// transact runs fn with a session that holds the signing keypair.
func (c *cli) transact(fn func(*cobra.Command, *session) error) func(*cobra.Command, []string) error {
	return c.run(true, fn)
}

// query runs fn with a session that only reads state.
func (c *cli) query(fn func(*cobra.Command, *session) error) func(*cobra.Command, []string) error {
	return c.run(false, fn)
}

func (c *cli) run(withSigner bool, fn func(*cobra.Command, *session) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		s, err := c.newSession(withSigner)
		if err == nil {
			err = fn(cmd, s)
		}
		if err != nil {
			return &executionError{err: err}
		}
		return nil
	}
}

func (c *cli) newSession(withSigner bool) (*session, error) {
	config, err := loadConfig(c.v, c.configPath)
	if err != nil {
		return nil, staking.NewConfigError(err)
	}
	configureLogger(config)

	deployment, err := config.Deployment()
	if err != nil {
		return nil, staking.NewConfigError(err)
	}
	opts, err := config.Options()
	if err != nil {
		return nil, staking.NewConfigError(err)
	}
	limiter, err := config.Limiter()
	if err != nil {
		return nil, staking.NewConfigError(err)
	}

	s := &session{config: config}
	if withSigner {
		if s.signer, err = solana.LoadKeypair(config.Keypair); err != nil {
			return nil, staking.NewConfigError(err)
		}
	}

	s.service = staking.NewService(c.newClient(config.Endpoint(), config.RPCTimeout, limiter), deployment, opts)
	return s, nil
}

func parseAddressFlag(name, value string) (ed25519.PublicKey, error) {
	if value == "" {
		return nil, staking.NewConfigError(errors.Errorf("--%s is required", name))
	}
	key, err := solana.ParseAddress(value)
	if err != nil {
		return nil, staking.NewConfigError(errors.Wrapf(err, "--%s", name))
	}
	return key, nil
}

func printSubmission(w io.Writer, outcome *staking.Outcome) {
	fmt.Fprintf(w, "tx id: %s\n", outcome.Signature)
	if outcome.Status != nil {
		fmt.Fprintf(w, "status: %s at slot %d\n", outcome.Status.ConfirmationStatus, outcome.Status.Slot)
	}
}
