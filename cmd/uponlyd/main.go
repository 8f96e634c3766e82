package main

import (
	"flag"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"path/filepath"

	"uponly/config"
	"uponly/core"
	"uponly/core/state"
	"uponly/core/types"
	"uponly/crypto"
	"uponly/observability/logging"
	"uponly/rpc"
	"uponly/storage"
)

func main() {
	configPath := flag.String("config", "./config.toml", "path to the node configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.Setup("uponlyd", cfg.Env)

	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "ledger"))
	if err != nil {
		logger.Error("open ledger", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	processor := core.NewProcessor(db)
	processor.SetLogger(logger)
	if err := applyGenesis(processor.State(), &cfg.Genesis); err != nil {
		logger.Error("apply genesis", "error", err)
		os.Exit(1)
	}

	server := rpc.NewServer(processor, logger)
	logger.Info("rpc listening", "address", cfg.RPCAddress, "network", cfg.NetworkName)
	if err := http.ListenAndServe(cfg.RPCAddress, server.Router()); err != nil {
		logger.Error("rpc server stopped", "error", err)
		os.Exit(1)
	}
}

// applyGenesis registers the configured mints and funds the deployer on a
// fresh ledger. It is a no-op on restart: existing mints and balances are
// left untouched.
func applyGenesis(m *state.Manager, genesis *config.GenesisConfig) error {
	deployer, err := genesisAddress(genesis.Deployer)
	if err != nil {
		return err
	}
	saleMint, err := genesisAddress(genesis.SaleMint)
	if err != nil {
		return err
	}
	paymentMint, err := genesisAddress(genesis.PaymentMint)
	if err != nil {
		return err
	}

	if _, ok, err := m.MintInfoGet(paymentMint); err != nil {
		return err
	} else if !ok {
		if err := m.CreateMint(paymentMint, deployer, 6); err != nil {
			return err
		}
		account, err := m.EnsureAssociatedTokenAccount(deployer, paymentMint)
		if err != nil {
			return err
		}
		amount := new(big.Int).SetUint64(genesis.DeployerPaymentBalance)
		if err := m.MintTo(paymentMint, account, types.SignerAuthority(deployer), amount); err != nil {
			return err
		}
	}

	if _, ok, err := m.MintInfoGet(saleMint); err != nil {
		return err
	} else if !ok {
		if err := m.CreateMint(saleMint, deployer, 9); err != nil {
			return err
		}
		account, err := m.EnsureAssociatedTokenAccount(deployer, saleMint)
		if err != nil {
			return err
		}
		amount := new(big.Int).SetUint64(genesis.DeployerSaleBalance)
		if err := m.MintTo(saleMint, account, types.SignerAuthority(deployer), amount); err != nil {
			return err
		}
	}
	return nil
}

func genesisAddress(value string) ([20]byte, error) {
	var out [20]byte
	addr, err := crypto.DecodeAddress(value)
	if err != nil {
		return out, err
	}
	copy(out[:], addr.Bytes())
	return out, nil
}
