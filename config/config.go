package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"uponly/crypto"
)

// GenesisConfig declares the mints and deployer funding applied to a fresh
// ledger before the initialize operation runs. Addresses are bech32 with the
// "up" prefix.
type GenesisConfig struct {
	Deployer               string `toml:"Deployer"`
	SaleMint               string `toml:"SaleMint"`
	PaymentMint            string `toml:"PaymentMint"`
	DeployerPaymentBalance uint64 `toml:"DeployerPaymentBalance"`
	DeployerSaleBalance    uint64 `toml:"DeployerSaleBalance"`
}

type Config struct {
	RPCAddress  string        `toml:"RPCAddress"`
	DataDir     string        `toml:"DataDir"`
	NetworkName string        `toml:"NetworkName"`
	Env         string        `toml:"Env"`
	Genesis     GenesisConfig `toml:"Genesis"`
}

// Load loads the configuration from the given path, creating a default file
// with freshly generated identities when none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the genesis addresses decode.
func (c *Config) Validate() error {
	for name, value := range map[string]string{
		"Genesis.Deployer":    c.Genesis.Deployer,
		"Genesis.SaleMint":    c.Genesis.SaleMint,
		"Genesis.PaymentMint": c.Genesis.PaymentMint,
	} {
		if value == "" {
			return fmt.Errorf("config: %s is required", name)
		}
		if _, err := crypto.DecodeAddress(value); err != nil {
			return fmt.Errorf("config: %s: %w", name, err)
		}
	}
	if c.RPCAddress == "" {
		return fmt.Errorf("config: RPCAddress is required")
	}
	return nil
}

func freshAddress() (string, error) {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return "", err
	}
	return key.PubKeyAddress().String(), nil
}

func createDefault(path string) (*Config, error) {
	deployer, err := freshAddress()
	if err != nil {
		return nil, err
	}
	saleMint, err := freshAddress()
	if err != nil {
		return nil, err
	}
	paymentMint, err := freshAddress()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		RPCAddress:  "127.0.0.1:8645",
		DataDir:     "./uponly-data",
		NetworkName: "uponly-local",
		Env:         "local",
		Genesis: GenesisConfig{
			Deployer:               deployer,
			SaleMint:               saleMint,
			PaymentMint:            paymentMint,
			DeployerPaymentBalance: 1_000_000_000_000,
			DeployerSaleBalance:    1_000_000_000,
		},
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
