package main

import (
	"fmt"
	"os"
)

func main() {
	// liveClientFactory is the production ClientFactory. internal/chain only
	// specifies the external-collaborator interfaces (spec.md §6); wiring
	// real LCD/gRPC/WebSocket transports and loading the address book/CW20
	// whitelist named in spec.md §6's "Process boundary" is a per-deployment
	// concern that plugs in here.
	rootCmd := newRootCmd(liveClientFactory)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
