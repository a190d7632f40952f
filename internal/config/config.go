package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"
)

const (
	defaultNetwork        = "bsc"
	defaultMode           = "mainnet"
	defaultRPCAlgorithm   = "fastest"
	defaultConfirmSeconds = int(TxConfirmTimeout / time.Second)

	configFile  = "config.json"
	walletsFile = "wallets.json"
	ifoFile     = "ifos.yaml"
	keyringDir  = "keyring"

	// EnvDir overrides the config directory.
	EnvDir = "SWAPFLOW_CONFIG_DIR"
)

// Config holds all swapflow configuration.
type Config struct {
	DefaultNetwork string              `json:"default_network"`
	NetworkMode    string              `json:"network_mode"` // "mainnet" | "testnet"
	CustomRPCs     map[string][]string `json:"custom_rpcs"`
	RPCAlgorithm   string              `json:"rpc_algorithm"`      // "fastest" | "failover"
	IFOFile        string              `json:"ifo_file,omitempty"` // relative paths resolve against the config dir
	ConfirmTimeout int                 `json:"confirm_timeout"`    // seconds to wait for a receipt

	// internal: config dir path used for Save()
	configDir string
}

// DefaultDir returns $SWAPFLOW_CONFIG_DIR or ~/.swapflow.
func DefaultDir() (string, error) {
	if dir := os.Getenv(EnvDir); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home dir: %w", err)
	}
	return filepath.Join(home, ".swapflow"), nil
}

// Load reads config from dir (or creates defaults). An empty dir means DefaultDir.
func Load(dir string) (*Config, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create config dir: %w", err)
	}

	cfg := defaults(dir)

	data, err := os.ReadFile(filepath.Join(dir, configFile))
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.configDir = dir
	if cfg.CustomRPCs == nil {
		cfg.CustomRPCs = make(map[string][]string)
	}
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = defaultConfirmSeconds
	}
	if cfg.RPCAlgorithm == "" {
		cfg.RPCAlgorithm = defaultRPCAlgorithm
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks fields a hand-edited file can get wrong.
func (c *Config) Validate() error {
	switch c.NetworkMode {
	case "mainnet", "testnet":
	default:
		return fmt.Errorf("config: network_mode must be mainnet or testnet, got %q", c.NetworkMode)
	}
	if c.DefaultNetwork == "" {
		return fmt.Errorf("config: default_network is empty")
	}
	switch c.RPCAlgorithm {
	case "", "fastest", "failover":
	default:
		return fmt.Errorf("config: rpc_algorithm must be fastest or failover, got %q", c.RPCAlgorithm)
	}
	return nil
}

// Save writes the config to disk.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.configDir, 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.configDir, configFile), data, 0o600)
}

// AddRPC adds a custom RPC URL for a chain.
func (c *Config) AddRPC(chain, url string) error {
	if c.CustomRPCs == nil {
		c.CustomRPCs = make(map[string][]string)
	}
	if slices.Contains(c.CustomRPCs[chain], url) {
		return fmt.Errorf("RPC %s already exists for chain %s", url, chain)
	}
	c.CustomRPCs[chain] = append(c.CustomRPCs[chain], url)
	return nil
}

// RemoveRPC removes a custom RPC URL for a chain.
func (c *Config) RemoveRPC(chain, url string) error {
	rpcs := c.CustomRPCs[chain]
	idx := slices.Index(rpcs, url)
	if idx == -1 {
		return fmt.Errorf("RPC %s not found for chain %s", url, chain)
	}
	c.CustomRPCs[chain] = slices.Delete(rpcs, idx, idx+1)
	return nil
}

// GetRPCs returns custom RPCs for a chain.
func (c *Config) GetRPCs(chain string) []string {
	return c.CustomRPCs[chain]
}

// Dir returns the config directory.
func (c *Config) Dir() string {
	return c.configDir
}

// WalletsPath is where wallet metadata is stored.
func (c *Config) WalletsPath() string {
	return filepath.Join(c.configDir, walletsFile)
}

// KeyringDir is used by the encrypted-file keyring backend.
func (c *Config) KeyringDir() string {
	return filepath.Join(c.configDir, keyringDir)
}

// IFOPath resolves the IFO registry file.
func (c *Config) IFOPath() string {
	switch {
	case c.IFOFile == "":
		return filepath.Join(c.configDir, ifoFile)
	case filepath.IsAbs(c.IFOFile):
		return c.IFOFile
	default:
		return filepath.Join(c.configDir, c.IFOFile)
	}
}

// ConfirmWait is the receipt timeout as a duration.
func (c *Config) ConfirmWait() time.Duration {
	if c.ConfirmTimeout <= 0 {
		return TxConfirmTimeout
	}
	return time.Duration(c.ConfirmTimeout) * time.Second
}

// --- helpers ---

func defaults(dir string) *Config {
	return &Config{
		DefaultNetwork: defaultNetwork,
		NetworkMode:    defaultMode,
		CustomRPCs:     make(map[string][]string),
		RPCAlgorithm:   defaultRPCAlgorithm,
		ConfirmTimeout: defaultConfirmSeconds,
		configDir:      dir,
	}
}
