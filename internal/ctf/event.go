package ctf

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/compose-network/ctf-client/internal/contracts/bindings"
)

// FlagEvent is one change of flag holder.
type FlagEvent struct {
	PreviousHolder common.Address `json:"previousHolder"`
	CurrentHolder  common.Address `json:"currentHolder"`
}

func newFlagEvent(raw *bindings.CaptureTheFlagFlagCaptured) FlagEvent {
	return FlagEvent{
		PreviousHolder: raw.PreviousHolder,
		CurrentHolder:  raw.CurrentHolder,
	}
}
