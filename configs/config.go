package configs

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

var Values Config

type (
	Config struct {
		Provider     Provider  `mapstructure:"provider"`
		Relay        Relay     `mapstructure:"relay"`
		Networks     []Network `mapstructure:"networks"`
		NetworksFile string    `mapstructure:"networks-file"`
	}

	// Provider describes where the wallet provider lives. An empty URL
	// means no provider is available.
	Provider struct {
		URL              string `mapstructure:"url"`
		LocalDevelopment bool   `mapstructure:"local-development"`
	}

	Relay struct {
		URL                  string `mapstructure:"url"`
		LogLevel             int    `mapstructure:"log-level"`
		LoggerURL            string `mapstructure:"logger-url"`
		MethodSuffix         string `mapstructure:"method-suffix"`
		JSONStringifyRequest bool   `mapstructure:"json-stringify-request"`
	}

	Network struct {
		ChainID   uint64 `mapstructure:"chain-id" yaml:"chain-id" json:"chainId"`
		Name      string `mapstructure:"name" yaml:"name" json:"name"`
		CTF       string `mapstructure:"ctf" yaml:"ctf" json:"ctf"`
		Paymaster string `mapstructure:"paymaster" yaml:"paymaster" json:"paymaster"`
	}
)

func (c *Config) Validate() error {
	var errs []error

	if c.Relay.URL == "" {
		errs = append(errs, errors.New("relay.url is required"))
	}
	if c.Relay.LogLevel < 0 || c.Relay.LogLevel > 5 {
		errs = append(errs, errors.New("relay.log-level must be between 0 and 5"))
	}
	if len(c.Networks) == 0 && c.NetworksFile == "" {
		errs = append(errs, errors.New("either networks or networks-file is required"))
	}

	for i, n := range c.Networks {
		if err := n.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("networks[%d]: %w", i, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %w", errors.Join(errs...))
	}

	return nil
}

func (n Network) Validate() error {
	var errs []error

	if n.ChainID == 0 {
		errs = append(errs, errors.New("chain-id is required"))
	}
	if n.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if !common.IsHexAddress(n.CTF) {
		errs = append(errs, fmt.Errorf("ctf %q is not a valid address", n.CTF))
	}
	if !common.IsHexAddress(n.Paymaster) {
		errs = append(errs, fmt.Errorf("paymaster %q is not a valid address", n.Paymaster))
	}

	return errors.Join(errs...)
}
