package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/urfave/cli/v2"

	validatordb "github.com/nodecore-labs/sentinel/validator/db"
)

var (
	recordDirFlag = &cli.StringFlag{
		Name:  "validator-db-dir",
		Usage: "directory holding the validator client's slashing-protection database",
	}
	recordOutputFlag = &cli.StringFlag{
		Name:  "output-file",
		Usage: "file to write the exported record to",
		Value: "slashing-protection.json",
	}
)

// jsonRecord is the on-disk shape produced by `record create` and consumed
// by `record print`, a flattened view of validatordb.PubkeyRecord.
type jsonRecord struct {
	Pubkey       string                           `json:"pubkey"`
	HighestSlot  *uint64                          `json:"highest_proposal_slot,omitempty"`
	Attestations []validatordb.AttestationRecord `json:"attestations"`
}

var recordCommand = &cli.Command{
	Name:  "record",
	Usage: "inspect and export the validator client's slashing-protection history",
	Subcommands: []*cli.Command{
		{
			Name:  "create",
			Usage: "export every pubkey's slashing-protection history to a JSON file",
			Flags: []cli.Flag{recordDirFlag, recordOutputFlag},
			Action: func(ctx *cli.Context) error {
				dbDir := ctx.String(recordDirFlag.Name)
				if dbDir == "" {
					return fmt.Errorf("--%s is required", recordDirFlag.Name)
				}
				prompt := promptui.Prompt{
					Label:     fmt.Sprintf("Export slashing-protection history from %s", dbDir),
					IsConfirm: true,
				}
				if _, err := prompt.Run(); err != nil {
					return fmt.Errorf("export cancelled: %w", err)
				}

				store, err := validatordb.Open(dbDir)
				if err != nil {
					return err
				}
				defer store.Close()

				records, err := store.Export(context.Background())
				if err != nil {
					return err
				}

				out := make([]jsonRecord, 0, len(records))
				for _, r := range records {
					jr := jsonRecord{Pubkey: hex.EncodeToString(r.Pubkey[:]), Attestations: r.Attestations}
					if r.HighestSlot != nil {
						slot := uint64(*r.HighestSlot)
						jr.HighestSlot = &slot
					}
					out = append(out, jr)
				}

				f, err := os.Create(ctx.String(recordOutputFlag.Name))
				if err != nil {
					return err
				}
				defer f.Close()

				enc := json.NewEncoder(f)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			},
		},
		{
			Name:  "print",
			Usage: "print a previously exported slashing-protection JSON file",
			Flags: []cli.Flag{recordOutputFlag},
			Action: func(ctx *cli.Context) error {
				f, err := os.Open(ctx.String(recordOutputFlag.Name))
				if err != nil {
					return err
				}
				defer f.Close()

				var records []jsonRecord
				if err := json.NewDecoder(f).Decode(&records); err != nil {
					return err
				}
				for _, r := range records {
					fmt.Printf("pubkey=%s highest_slot=%v attestations=%d\n", r.Pubkey, r.HighestSlot, len(r.Attestations))
				}
				return nil
			},
		},
	},
}
