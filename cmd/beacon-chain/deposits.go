package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/schollz/progressbar/v3"
	"github.com/tyler-smith/go-bip39"
	"github.com/urfave/cli/v2"
	util "github.com/wealdtech/go-eth2-util"
	e2types "github.com/wealdtech/go-eth2-types/v2"
)

var (
	numValidatorsFlag = &cli.UintFlag{
		Name:  "num-validators",
		Usage: "number of validator keys to derive for a local testnet",
		Value: 4,
	}
	mnemonicOutputFlag = &cli.StringFlag{
		Name:  "mnemonic-output-file",
		Usage: "file to write the generated mnemonic to",
		Value: "testnet-mnemonic.txt",
	}
	depositsOutputFlag = &cli.StringFlag{
		Name:  "deposit-data-output-file",
		Usage: "file to write the derived validator pubkeys to",
		Value: "testnet-deposit-data.json",
	}
	depositsInputFlag = &cli.StringFlag{
		Name:  "deposit-data-file",
		Usage: "deposit data file produced by create-testnet-deposits",
	}
)

// validatorKey is one BIP-39/EIP-2334 derived identity: a withdrawal and
// signing keypair at indices `m/12381/3600/i/0` and `m/12381/3600/i/0/0`.
// Only the public keys are written out; no deposit signature is produced.
type validatorKey struct {
	Index     uint64 `json:"index"`
	Pubkey    string `json:"pubkey"`
	Withdrawal string `json:"withdrawal_pubkey"`
}

var depositsCommand = &cli.Command{
	Name:  "deposits",
	Usage: "derive local-testnet validator deposit keys and confirm a deposit batch",
	Subcommands: []*cli.Command{
		{
			Name:  "create-testnet-deposits",
			Usage: "generate a mnemonic and derive validator keys for a local testnet",
			Flags: []cli.Flag{numValidatorsFlag, mnemonicOutputFlag, depositsOutputFlag},
			Action: func(ctx *cli.Context) error {
				if err := e2types.InitBLS(); err != nil {
					return fmt.Errorf("could not initialize BLS backend: %w", err)
				}

				entropy, err := bip39.NewEntropy(256)
				if err != nil {
					return err
				}
				mnemonic, err := bip39.NewMnemonic(entropy)
				if err != nil {
					return err
				}
				if err := os.WriteFile(ctx.String(mnemonicOutputFlag.Name), []byte(mnemonic), 0600); err != nil {
					return err
				}

				seed, err := util.SeedFromMnemonic(mnemonic, "")
				if err != nil {
					return err
				}

				n := ctx.Uint(numValidatorsFlag.Name)
				bar := progressbar.Default(int64(n), "deriving validator keys")
				keys := make([]validatorKey, 0, n)
				for i := uint(0); i < n; i++ {
					signingKey, err := util.PrivateKeyFromSeedAndPath(seed, fmt.Sprintf("m/12381/3600/%d/0/0", i))
					if err != nil {
						return fmt.Errorf("deriving signing key %d: %w", i, err)
					}
					withdrawalKey, err := util.PrivateKeyFromSeedAndPath(seed, fmt.Sprintf("m/12381/3600/%d/0", i))
					if err != nil {
						return fmt.Errorf("deriving withdrawal key %d: %w", i, err)
					}
					keys = append(keys, validatorKey{
						Index:      uint64(i),
						Pubkey:     hex.EncodeToString(signingKey.PublicKey().Marshal()),
						Withdrawal: hex.EncodeToString(withdrawalKey.PublicKey().Marshal()),
					})
					_ = bar.Add(1)
				}

				f, err := os.Create(ctx.String(depositsOutputFlag.Name))
				if err != nil {
					return err
				}
				defer f.Close()
				enc := json.NewEncoder(f)
				enc.SetIndent("", "  ")
				return enc.Encode(keys)
			},
		},
		{
			Name:  "send",
			Usage: "confirm a previously derived deposit batch; no deposit is sent to an execution client",
			Flags: []cli.Flag{depositsInputFlag},
			Action: func(ctx *cli.Context) error {
				path := ctx.String(depositsInputFlag.Name)
				if path == "" {
					return fmt.Errorf("--%s is required", depositsInputFlag.Name)
				}
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				defer f.Close()
				var keys []validatorKey
				if err := json.NewDecoder(f).Decode(&keys); err != nil {
					return err
				}

				prompt := promptui.Prompt{
					Label:     fmt.Sprintf("Submit %d deposits to the configured execution client", len(keys)),
					IsConfirm: true,
				}
				if _, err := prompt.Run(); err != nil {
					return fmt.Errorf("deposit submission cancelled: %w", err)
				}

				bar := progressbar.Default(int64(len(keys)), "submitting deposits")
				for range keys {
					// Nothing is sent: no execution client is called, and this
					// loop only advances the progress bar once per key.
					_ = bar.Add(1)
				}
				return nil
			},
		},
	},
}
