// Command n3node runs the full node: load protocol/network settings, open
// the ledger over its genesis block, join the P2P network, and serve until
// interrupted. Grounded on the teacher's cmd/synnergy/main.go cobra root
// with one subcommand per concern, rebuilt so every subcommand drives the
// real ledger/P2P/consensus stack instead of printing a mock message.
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/libp2p/go-libp2p"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/synnergy-network/n3node/internal/config"
	"github.com/synnergy-network/n3node/internal/consensus"
	"github.com/synnergy-network/n3node/internal/crypto/keys"
	"github.com/synnergy-network/n3node/internal/ledger"
	"github.com/synnergy-network/n3node/internal/node"
	"github.com/synnergy-network/n3node/internal/p2p"
	"github.com/synnergy-network/n3node/internal/store"
	"github.com/synnergy-network/n3node/internal/util"
)

// version is the node's reported build version. There is no release
// pipeline yet to stamp this via -ldflags, so it is a plain constant.
const version = "0.1.0"

func main() {
	root := &cobra.Command{Use: "n3node"}
	root.AddCommand(runCmd())
	root.AddCommand(genesisCmd())
	root.AddCommand(versionCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the node's version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
}

func genesisCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "genesis [config]",
		Short: "compute and print a network's genesis hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, ps, err := config.Load(args[0])
			if err != nil {
				return err
			}
			h, err := config.GenesisHash(ps)
			if err != nil {
				return fmt.Errorf("genesis: %w", err)
			}
			fmt.Println(h.String())
			return nil
		},
	}
}

func runCmd() *cobra.Command {
	var solo bool
	cmd := &cobra.Command{
		Use:   "run [config]",
		Short: "start the node and join its network",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			netCfg, ps, err := loadSettings(args, solo)
			if err != nil {
				return err
			}
			return runNode(cmd.Context(), netCfg, ps)
		},
	}
	cmd.Flags().BoolVar(&solo, "solo", false, "run a single-validator development network with a freshly generated key")
	return cmd
}

func loadSettings(args []string, solo bool) (*config.NetworkConfig, *config.ProtocolSettings, error) {
	if solo {
		priv, err := keys.NewPrivateKey()
		if err != nil {
			return nil, nil, fmt.Errorf("solo: generate validator key: %w", err)
		}
		logrus.WithField("pubkey", hex.EncodeToString(priv.PublicKey().Bytes())).
			Warn("solo network: validator key generated in memory and will not survive a restart")
		return config.DefaultNetworkConfig(), config.DefaultSoloSettings(priv), nil
	}
	if len(args) == 1 {
		return config.Load(args[0])
	}
	return config.LoadFromEnv("n3node.yaml")
}

func runNode(ctx context.Context, netCfg *config.NetworkConfig, ps *config.ProtocolSettings) error {
	log := logrus.WithField("component", "main")

	genesis, err := config.GenesisBlock(ps)
	if err != nil {
		return fmt.Errorf("run: genesis: %w", err)
	}

	backing := store.NewMemStore()
	chain, err := ledger.NewLedger(backing, ledger.Config{
		MaxTraceableBlocks: ps.MaxTraceableBlocks,
		Genesis:            genesis,
	})
	if err != nil {
		return fmt.Errorf("run: ledger: %w", err)
	}
	mempool := ledger.NewMempool(50_000, 100, 0)

	host, err := libp2p.New(libp2p.ListenAddrStrings(netCfg.ListenAddr))
	if err != nil {
		return fmt.Errorf("run: libp2p host: %w", err)
	}
	defer host.Close()

	net := p2p.NewNode(host, ps.Magic, netCfg, chain.BlockHeight)
	validators := validatorSet(ps)
	orc := node.New(chain, mempool, net, validators)

	net.DialSeeds(ctx, ps.SeedList)

	log.WithFields(logrus.Fields{
		"magic":   ps.Magic,
		"height":  chain.BlockHeight(),
		"genesis": genesis.Hash().String(),
	}).Info("node started")

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	h := orc.Health()
	log.WithFields(logrus.Fields{
		"height":  h.BlockHeight,
		"peers":   h.PeerCount,
		"mempool": h.MempoolSize,
	}).Info("shutting down")
	return nil
}

// validatorSet derives each standby committee member's account from its
// single-signature script hash, the identity a Commit/ChangeView envelope's
// Sender field carries.
func validatorSet(ps *config.ProtocolSettings) consensus.ValidatorSet {
	vs := make(consensus.ValidatorSet, 0, len(ps.StandbyCommittee))
	for _, pub := range ps.StandbyCommittee {
		vs = append(vs, util.Uint160(pub.ScriptHash()))
	}
	return vs
}
