package config

import (
	"fmt"
	"strings"

	"github.com/amilzbot/agent-proof-cli/internal/app/apperrors"
)

type Network string

const (
	Devnet   Network = "devnet"
	Mainnet  Network = "mainnet"
	Localnet Network = "localnet"
)

var rpcURLs = map[Network]string{
	Devnet:   "https://api.devnet.solana.com",
	Mainnet:  "https://api.mainnet-beta.solana.com",
	Localnet: "http://127.0.0.1:8899",
}

func ParseNetwork(s string) (Network, error) {
	n := Network(strings.ToLower(strings.TrimSpace(s)))
	if n == "mainnet-beta" {
		n = Mainnet
	}
	if _, ok := rpcURLs[n]; !ok {
		return "", apperrors.Invalid("network", "devnet, mainnet or localnet", fmt.Sprintf("unknown network %q", s))
	}
	return n, nil
}

func (n Network) RPCURL() string { return rpcURLs[n] }

// HasFaucet reports whether airdrops are available on n.
func (n Network) HasFaucet() bool { return n != Mainnet }
