package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/compose-network/ctf-client/internal/logger"
)

// Server is the relay network as seen by the client.
type Server interface {
	URL() string
	GetAddr(ctx context.Context) (*PingResponse, error)
	// Relay submits a signed relay request and returns the raw signed
	// transaction the relayer broadcasts.
	Relay(ctx context.Context, req *TransactionRequest) (hexutil.Bytes, error)
}

// PingResponse is the relayer's self description (GET /getaddr).
type PingResponse struct {
	RelayWorkerAddress  common.Address `json:"relayWorkerAddress"`
	RelayManagerAddress common.Address `json:"relayManagerAddress"`
	RelayHubAddress     common.Address `json:"relayHubAddress"`
	OwnerAddress        common.Address `json:"ownerAddress,omitempty"`
	MinGasPrice         json.Number    `json:"minGasPrice,omitempty"`
	ChainID             json.Number    `json:"chainId"`
	NetworkID           json.Number    `json:"networkId,omitempty"`
	Ready               bool           `json:"ready"`
	Version             string         `json:"version"`
}

// TransactionRequest is the body of POST /relay.
type TransactionRequest struct {
	RelayRequest RelayRequest `json:"relayRequest"`
	Metadata     Metadata     `json:"metadata"`
}

type RelayRequest struct {
	Request   ForwardRequest `json:"request"`
	RelayData RelayData      `json:"relayData"`
}

// ForwardRequest carries the caller's intent. Numeric fields are decimal
// strings.
type ForwardRequest struct {
	From       common.Address `json:"from"`
	To         common.Address `json:"to"`
	Value      string         `json:"value"`
	Gas        string         `json:"gas"`
	Nonce      string         `json:"nonce"`
	Data       hexutil.Bytes  `json:"data"`
	ValidUntil string         `json:"validUntil"`
}

type RelayData struct {
	GasPrice      string         `json:"gasPrice"`
	PctRelayFee   string         `json:"pctRelayFee"`
	BaseRelayFee  string         `json:"baseRelayFee"`
	RelayWorker   common.Address `json:"relayWorker"`
	Paymaster     common.Address `json:"paymaster"`
	Forwarder     common.Address `json:"forwarder"`
	PaymasterData hexutil.Bytes  `json:"paymasterData"`
	ClientID      string         `json:"clientId"`
}

type Metadata struct {
	Signature       hexutil.Bytes  `json:"signature"`
	ApprovalData    hexutil.Bytes  `json:"approvalData"`
	RelayHubAddress common.Address `json:"relayHubAddress"`
	RelayMaxNonce   uint64         `json:"relayMaxNonce"`
}

type relayResponse struct {
	SignedTx hexutil.Bytes `json:"signedTx"`
	Error    string        `json:"error"`
}

// HTTPServer talks to a relayer over its HTTP API.
type HTTPServer struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// NewHTTPServer creates a relay server client. A nil client uses
// http.DefaultClient.
func NewHTTPServer(url string, client *http.Client) *HTTPServer {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPServer{
		url:    strings.TrimRight(url, "/"),
		client: client,
		logger: logger.Named("relay_server"),
	}
}

func (s *HTTPServer) URL() string {
	return s.url
}

func (s *HTTPServer) GetAddr(ctx context.Context) (*PingResponse, error) {
	s.logger.With("url", s.url).Debug("fetching relayer address")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url+"/getaddr", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var ping PingResponse
	if err := s.do(req, &ping); err != nil {
		return nil, err
	}

	return &ping, nil
}

func (s *HTTPServer) Relay(ctx context.Context, relayReq *TransactionRequest) (hexutil.Bytes, error) {
	body, err := json.Marshal(relayReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal relay request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url+"/relay", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp relayResponse
	if err := s.do(req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("relayer rejected request: %s", resp.Error)
	}
	if len(resp.SignedTx) == 0 {
		return nil, fmt.Errorf("relayer returned no transaction")
	}

	return resp.SignedTx, nil
}

func (s *HTTPServer) do(req *http.Request, target any) error {
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach relayer: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code %d from %s: %s", resp.StatusCode, req.URL.Path, strings.TrimSpace(string(body)))
	}

	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("failed to unmarshal relayer response: %w", err)
	}

	return nil
}
