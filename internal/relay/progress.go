package relay

import "github.com/ethereum/go-ethereum/common"

// ProgressKind names a stage of a relayed submission.
type ProgressKind string

const (
	ProgressInit            ProgressKind = "init"
	ProgressSignRequest     ProgressKind = "sign-request"
	ProgressSendToRelayer   ProgressKind = "send-to-relayer"
	ProgressRelayerResponse ProgressKind = "relayer-response"
	ProgressBroadcast       ProgressKind = "broadcast"
)

var progressSteps = []ProgressKind{
	ProgressInit,
	ProgressSignRequest,
	ProgressSendToRelayer,
	ProgressRelayerResponse,
	ProgressBroadcast,
}

// Progress is one notification emitted while a call travels through the
// relay. TxHash is set once the relayer has answered.
type Progress struct {
	Kind     ProgressKind `json:"kind"`
	Step     int          `json:"step"`
	Total    int          `json:"total"`
	RelayURL string       `json:"relayUrl"`
	TxHash   common.Hash  `json:"txHash,omitempty"`
}

func newProgress(kind ProgressKind, relayURL string, txHash common.Hash) Progress {
	step := 0
	for i, k := range progressSteps {
		if k == kind {
			step = i + 1
			break
		}
	}

	return Progress{
		Kind:     kind,
		Step:     step,
		Total:    len(progressSteps),
		RelayURL: relayURL,
		TxHash:   txHash,
	}
}
