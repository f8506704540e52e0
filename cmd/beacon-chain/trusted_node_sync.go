package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"

	types "github.com/nodecore-labs/sentinel/beacon-chain/core/types"
	"github.com/nodecore-labs/sentinel/beacon-chain/sync/initialsync"
)

var (
	trustedNodeURLFlag = &cli.StringFlag{
		Name:  "trusted-node-url",
		Usage: "base URL of a trusted beacon node REST endpoint to sync blocks from",
	}
	trustedNodeTargetSlotFlag = &cli.Uint64Flag{
		Name:  "target-slot",
		Usage: "slot to sync up to",
	}
)

// restFetcher pulls one block at a time over HTTP from a trusted node,
// rather than the libp2p req/resp protocol initialsync normally drives;
// a checkpoint-sync operator trusts this single peer completely, so there
// is no quarantine or fork-choice validation on the way in (§4A supplement).
type restFetcher struct {
	baseURL string
	client  *http.Client
	codec   types.SSZCodec
}

func (f *restFetcher) FetchRange(ctx context.Context, req initialsync.ChunkRequest) ([]*types.Block, error) {
	blocks := make([]*types.Block, 0, req.Count)
	for slot := req.StartSlot; slot < req.StartSlot+types.Slot(req.Count); slot++ {
		url := fmt.Sprintf("%s/eth/v2/beacon/blocks/%d", f.baseURL, uint64(slot))
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		resp, err := f.client.Do(httpReq)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode == http.StatusNotFound {
			resp.Body.Close()
			continue
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("trusted node returned status %d for slot %d", resp.StatusCode, slot)
		}
		block, err := f.codec.UnmarshalBlock(types.ForkPhase0, body)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}
	if len(blocks) == 0 {
		return nil, fmt.Errorf("trusted node returned no blocks for range starting at slot %d", req.StartSlot)
	}
	return blocks, nil
}

var trustedNodeSyncCommand = &cli.Command{
	Name:  "trusted-node-sync",
	Usage: "sync forward from genesis to a target slot using a single trusted REST endpoint",
	Flags: []cli.Flag{trustedNodeURLFlag, trustedNodeTargetSlotFlag, networkProfileFlag},
	Action: func(ctx *cli.Context) error {
		baseURL := ctx.String(trustedNodeURLFlag.Name)
		if baseURL == "" {
			return fmt.Errorf("--%s is required", trustedNodeURLFlag.Name)
		}
		target := types.Slot(ctx.Uint64(trustedNodeTargetSlotFlag.Name))

		cfg, err := loadBeaconConfig(ctx)
		if err != nil {
			return err
		}

		// codec is intentionally nil here: SSZ decoding is an external
		// collaborator this module never implements (§6A), so a real
		// deployment links a concrete types.SSZCodec into this command at
		// build time before trusted-node-sync can actually decode a
		// response body.
		fetcher := &restFetcher{baseURL: baseURL, client: &http.Client{Timeout: cfg.RespTimeout}, codec: sszCodec}
		syncer := initialsync.NewForwardSync(cfg, fetcher, 64)

		bar := progressbar.Default(int64(target), "trusted-node-sync")
		deadline, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		return syncer.Run(deadline, 0, target, func(b *types.Block) error {
			_ = bar.Set(int(b.Slot))
			return nil
		})
	},
}
