package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/paw-chain/arb/internal/config"
)

// newRootCmd builds the arbd root command, binding persistent flags through
// viper the way the teacher's cmd/pawd/cmd/root.go does, generalized from a
// full chain-node CLI down to the one `run` subcommand this daemon needs.
func newRootCmd(factory ClientFactory) *cobra.Command {
	root := &cobra.Command{
		Use:   "arbd",
		Short: "On-chain arbitrage execution daemon",
		Long: `arbd watches a Cosmos SDK chain's mempool for swap transactions, plans
profitable multi-hop arbitrage routes against a configured strategy bundle,
and broadcasts the resulting transactions through a coordinated broadcaster
fleet.`,
		SilenceUsage: true,
	}

	v := viper.GetViper()
	if err := config.BindFlags(v, root.PersistentFlags()); err != nil {
		panic(err) // flag registration is static and always succeeds; a failure here is a programming error
	}

	root.AddCommand(newRunCmd(factory))
	return root
}
