package config

import (
	"errors"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/smartcontractkit/chainlink-common/pkg/config"

	"github.com/venga-labs/evm-txm/txm"
)

// Global chain defaults.
var defaultConfigSet = chainConfigSet{
	// poll period for balance monitoring
	BalancePollPeriod: 5 * time.Second,
	// transaction broadcast channel size
	BroadcastChanSize: 4096,
	// polling period for transaction confirmation
	ConfirmPollPeriod: 2 * time.Second,
	// block depth required before a transaction counts as final
	Confirmations: 1,
	// full submission attempts per transaction
	MaxRetries: txm.DefaultMaxRetries,
	// base backoff between submission attempts
	RetryDelay: txm.DefaultRetryDelay,
}

type chainConfigSet struct {
	BalancePollPeriod time.Duration
	BroadcastChanSize uint64
	ConfirmPollPeriod time.Duration
	Confirmations     uint64
	MaxRetries        uint64
	RetryDelay        time.Duration
}

type ChainConfig struct {
	BalancePollPeriod *config.Duration
	BroadcastChanSize *uint64
	ConfirmPollPeriod *config.Duration
	Confirmations     *uint64
	MaxRetries        *uint64
	RetryDelay        *config.Duration
}

func (c *ChainConfig) SetDefaults() {
	if c.BalancePollPeriod == nil {
		c.BalancePollPeriod = config.MustNewDuration(defaultConfigSet.BalancePollPeriod)
	}
	if c.BroadcastChanSize == nil {
		c.BroadcastChanSize = &defaultConfigSet.BroadcastChanSize
	}
	if c.ConfirmPollPeriod == nil {
		c.ConfirmPollPeriod = config.MustNewDuration(defaultConfigSet.ConfirmPollPeriod)
	}
	if c.Confirmations == nil {
		c.Confirmations = &defaultConfigSet.Confirmations
	}
	if c.MaxRetries == nil {
		c.MaxRetries = &defaultConfigSet.MaxRetries
	}
	if c.RetryDelay == nil {
		c.RetryDelay = config.MustNewDuration(defaultConfigSet.RetryDelay)
	}
}

type NodeConfig struct {
	Name *string
	URL  *config.URL
}

func (n *NodeConfig) ValidateConfig() (err error) {
	if n.Name == nil {
		err = errors.Join(err, config.ErrMissing{Name: "Name", Msg: "required for all nodes"})
	} else if *n.Name == "" {
		err = errors.Join(err, config.ErrEmpty{Name: "Name", Msg: "required for all nodes"})
	}
	if n.URL == nil {
		err = errors.Join(err, config.ErrMissing{Name: "URL", Msg: "required for all nodes"})
	}
	return
}

type TOMLConfig struct {
	ChainID *string
	Chain   ChainConfig
	Nodes   []*NodeConfig
}

func (c *TOMLConfig) ValidateConfig() (err error) {
	if c.ChainID == nil {
		err = errors.Join(err, config.ErrMissing{Name: "ChainID", Msg: "required for all chains"})
	} else if *c.ChainID == "" {
		err = errors.Join(err, config.ErrEmpty{Name: "ChainID", Msg: "required for all chains"})
	}
	if len(c.Nodes) == 0 {
		err = errors.Join(err, config.ErrMissing{Name: "Nodes", Msg: "must have at least one node"})
	}
	for _, n := range c.Nodes {
		err = errors.Join(err, n.ValidateConfig())
	}
	return
}

// Decode parses a TOML chain configuration, applies defaults for unset fields and
// validates the result.
func Decode(data []byte) (*TOMLConfig, error) {
	var cfg TOMLConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Chain.SetDefaults()
	if err := cfg.ValidateConfig(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *TOMLConfig) BalancePollPeriod() time.Duration {
	return c.Chain.BalancePollPeriod.Duration()
}

func (c *TOMLConfig) ConfirmPollPeriod() time.Duration {
	return c.Chain.ConfirmPollPeriod.Duration()
}

// TxmConfig maps the chain configuration onto the transaction manager's config.
func (c *TOMLConfig) TxmConfig() txm.Config {
	return txm.Config{
		MaxRetries:        *c.Chain.MaxRetries,
		RetryDelay:        c.Chain.RetryDelay.Duration(),
		Confirmations:     *c.Chain.Confirmations,
		BroadcastChanSize: uint(*c.Chain.BroadcastChanSize),
	}
}
