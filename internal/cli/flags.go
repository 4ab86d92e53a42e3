package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// flagDef defines a command-line flag with its configuration.
type (
	flagType interface {
		string | int | bool
	}

	flagDef[T flagType] struct {
		name         string
		viperKey     string
		defaultValue T
		description  string
	}
)

var (
	stringFlags = []flagDef[string]{
		// Wallet provider
		{"provider-url", "provider.url", "", "Wallet provider JSON-RPC endpoint (http, ws or ipc)"},

		// Relay
		{"relay-url", "relay.url", "", "Relay server URL"},
		{"relay-logger-url", "relay.logger-url", "", "Remote diagnostics endpoint for the relay client"},
		{"relay-method-suffix", "relay.method-suffix", "", "Suffix of the typed-data signing method (e.g. _v3)"},

		// Registry
		{"networks-file", "networks-file", "", "Networks file (.yaml, .yml or .json) overriding the inline networks"},
	}

	intFlags = []flagDef[int]{
		{"relay-log-level", "relay.log-level", 0, "Relay client log level (0=debug .. 5=error)"},
	}

	boolFlags = []flagDef[bool]{
		{"local-development", "provider.local-development", false, "Treat unknown chains as an incomplete local setup"},
		{"relay-json-stringify-request", "relay.json-stringify-request", false, "Send typed data to the wallet as a JSON string"},
		{"verbose", "verbose", false, "Enable debug logging"},
	}
)

// BindFlags declares the configuration flags on cmd and binds them to viper
// keys. Flags are persistent so every subcommand accepts them.
func BindFlags(cmd *cobra.Command) error {
	if err := declareFlags(cmd, stringFlags); err != nil {
		return err
	}
	if err := declareFlags(cmd, intFlags); err != nil {
		return err
	}
	return declareFlags(cmd, boolFlags)
}

// declareFlags declares multiple flags and binds them to viper configuration keys.
func declareFlags[T flagType](cmd *cobra.Command, flags []flagDef[T]) error {
	for _, flag := range flags {
		if err := declareFlag(cmd, flag.name, flag.viperKey, flag.defaultValue, flag.description); err != nil {
			return err
		}
	}
	return nil
}

// declareFlag declares a single flag and binds it to a viper configuration key.
// The type parameter T determines the flag type (string, int, or bool).
func declareFlag[T flagType](cmd *cobra.Command, flagName, viperKey string, defaultValue T, description string) error {
	var zero T
	switch any(zero).(type) {
	case string:
		cmd.PersistentFlags().String(flagName, any(defaultValue).(string), description)
	case int:
		cmd.PersistentFlags().Int(flagName, any(defaultValue).(int), description)
	case bool:
		cmd.PersistentFlags().Bool(flagName, any(defaultValue).(bool), description)
	}
	return viper.BindPFlag(viperKey, cmd.PersistentFlags().Lookup(flagName))
}
