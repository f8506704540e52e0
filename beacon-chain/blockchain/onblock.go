package blockchain

import (
	"context"

	types "github.com/nodecore-labs/sentinel/beacon-chain/core/types"
	"github.com/nodecore-labs/sentinel/beacon-chain/core/transition"
	"github.com/nodecore-labs/sentinel/config/params"
)

// ForkChoiceUpdater is the subset of forkchoice.ForkChoice OnBlock drives:
// registering the new block in the tree and forwarding whatever justified/
// finalized checkpoints the state transition computed (§4.3, §4.5).
type ForkChoiceUpdater interface {
	ProcessBlock(ctx context.Context, root types.Root, slot types.Slot, parentRoot types.Root) error
	UpdateJustified(cp types.Checkpoint)
	UpdateFinalized(cp types.Checkpoint)
}

// CheckpointSaver is the subset of iface.Database OnBlock persists the
// finalized checkpoint through.
type CheckpointSaver interface {
	SaveFinalizedCheckpoint(ctx context.Context, cp types.Checkpoint) error
}

// OnBlock is the block-processing entry point §4.4/§4.5 describe as
// "process_block": run the pure state transition, then forward its
// justification/finalization outcome into fork choice. root is the block's
// already-computed hash-tree-root (§1's SSZ collaborator boundary); this
// function never hashes anything itself.
//
// Grounded on blacktemplar-prysm's block_processing.go, whose
// onBlock/applyBlockAttestations/updateFFGCheckPts call sequence this
// mirrors: state transition first, then a single call site that reacts to
// whatever the transition decided about justification and finalization,
// rather than fork choice computing its own tally.
func OnBlock(ctx context.Context, cfg *params.BeaconChainConfig, signer transition.Signer, fc ForkChoiceUpdater, db CheckpointSaver, preState *types.BeaconState, root types.Root, block *types.Block, flag transition.VerifyFlag) (*types.BeaconState, error) {
	postState, err := transition.Transition(ctx, cfg, signer, preState, block, flag)
	if err != nil {
		return nil, err
	}

	if err := fc.ProcessBlock(ctx, root, block.Slot, block.ParentRoot); err != nil {
		return nil, err
	}

	if postState.CurrentJustified != preState.CurrentJustified {
		fc.UpdateJustified(postState.CurrentJustified)
	}
	if postState.FinalizedCheckpoint != preState.FinalizedCheckpoint {
		fc.UpdateFinalized(postState.FinalizedCheckpoint)
		if err := db.SaveFinalizedCheckpoint(ctx, postState.FinalizedCheckpoint); err != nil {
			return nil, err
		}
	}

	return postState, nil
}
