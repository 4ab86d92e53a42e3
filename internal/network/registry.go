package network

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"

	"github.com/compose-network/ctf-client/configs"
	fsjson "github.com/compose-network/ctf-client/internal/infra/filesystem/json"
)

// NetworkDescriptor is one deployment of the flag contract.
type NetworkDescriptor struct {
	ChainID          uint64         `json:"chainId"`
	Name             string         `json:"name"`
	ContractAddress  common.Address `json:"ctf"`
	PaymasterAddress common.Address `json:"paymaster"`
}

// Registry is the ordered, immutable set of known deployments.
type Registry struct {
	networks []NetworkDescriptor
	byChain  map[uint64]int
}

// NewRegistry builds a registry. Chain ids must be unique.
func NewRegistry(networks []NetworkDescriptor) (*Registry, error) {
	r := &Registry{
		networks: make([]NetworkDescriptor, 0, len(networks)),
		byChain:  make(map[uint64]int, len(networks)),
	}

	for _, n := range networks {
		if prev, ok := r.byChain[n.ChainID]; ok {
			return nil, fmt.Errorf("duplicate chain id %d in registry (%s and %s)", n.ChainID, r.networks[prev].Name, n.Name)
		}
		r.byChain[n.ChainID] = len(r.networks)
		r.networks = append(r.networks, n)
	}

	return r, nil
}

// FromConfig converts configured entries into a registry.
func FromConfig(entries []configs.Network) (*Registry, error) {
	networks := make([]NetworkDescriptor, 0, len(entries))
	for i, e := range entries {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("invalid network entry %d: %w", i, err)
		}
		networks = append(networks, NetworkDescriptor{
			ChainID:          e.ChainID,
			Name:             e.Name,
			ContractAddress:  common.HexToAddress(e.CTF),
			PaymasterAddress: common.HexToAddress(e.Paymaster),
		})
	}

	return NewRegistry(networks)
}

type registryFile struct {
	Networks []configs.Network `yaml:"networks" json:"networks"`
}

// LoadFile reads a generated networks file. The format follows the
// extension: .yaml/.yml or .json.
func LoadFile(path string) (*Registry, error) {
	var doc registryFile

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read networks file: %w", err)
		}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse networks file %s: %w", path, err)
		}
	case ".json":
		if err := fsjson.NewReader().ReadJSON(path, &doc); err != nil {
			return nil, fmt.Errorf("failed to load networks file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported networks file extension %q", filepath.Ext(path))
	}

	return FromConfig(doc.Networks)
}

// Load picks the registry source the config names: the networks file when
// set, the inline list otherwise.
func Load(cfg configs.Config) (*Registry, error) {
	if cfg.NetworksFile != "" {
		return LoadFile(cfg.NetworksFile)
	}
	return FromConfig(cfg.Networks)
}

func (r *Registry) Lookup(chainID uint64) (NetworkDescriptor, bool) {
	i, ok := r.byChain[chainID]
	if !ok {
		return NetworkDescriptor{}, false
	}
	return r.networks[i], true
}

// Names lists network names in registry order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.networks))
	for _, n := range r.networks {
		names = append(names, n.Name)
	}
	return names
}

func (r *Registry) Networks() []NetworkDescriptor {
	return append([]NetworkDescriptor(nil), r.networks...)
}

// WriteFile stores the registry as a JSON networks file LoadFile accepts.
func (r *Registry) WriteFile(path string) error {
	doc := registryFile{Networks: make([]configs.Network, 0, len(r.networks))}
	for _, n := range r.networks {
		doc.Networks = append(doc.Networks, configs.Network{
			ChainID:   n.ChainID,
			Name:      n.Name,
			CTF:       n.ContractAddress.Hex(),
			Paymaster: n.PaymasterAddress.Hex(),
		})
	}

	if err := fsjson.NewWriter().WriteJSON(path, doc); err != nil {
		return fmt.Errorf("failed to write networks file: %w", err)
	}

	return nil
}
