package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/tradewire-lab/fxrelay/pkg/errors"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) writeConfig(content string) string {
	path := filepath.Join(suite.T().TempDir(), "relay.yaml")
	suite.Require().NoError(os.WriteFile(path, []byte(content), 0o600))

	return path
}

func (suite *ConfigTestSuite) TestLoadFullConfig() {
	suite.T().Setenv("FXRELAY_OANDA_TOKEN", "test-token")

	path := suite.writeConfig(`
server:
  listen_addr: ":9090"
  read_timeout: 5s
broker:
  base_url: https://api-fxpractice.oanda.com
  account_id: "001-001-1234567-001"
  timeout: 20s
coordinator:
  fixed_unit_size: 10000
  order_cooldown: 3m
instruments:
  USD_JPY:
    precision: 3
    price_epsilon: "0.02"
    min_entry_distance: "0.05"
log_level: debug
`)

	cfg, err := Load(path)
	suite.Require().NoError(err)

	suite.Equal(":9090", cfg.Server.ListenAddr)
	suite.Equal(5*time.Second, cfg.Server.ReadTimeout)
	suite.Equal("https://api-fxpractice.oanda.com", cfg.Broker.BaseURL)
	suite.Equal("001-001-1234567-001", cfg.Broker.AccountID)
	suite.Equal("test-token", cfg.Broker.Token)
	suite.Equal(20*time.Second, cfg.Broker.Timeout)
	suite.Equal(int64(10000), cfg.Coordinator.FixedUnitSize)
	suite.Equal(3*time.Minute, cfg.Coordinator.OrderCooldown)
	suite.Equal("debug", cfg.LogLevel)
}

func (suite *ConfigTestSuite) TestDefaultsFilled() {
	suite.T().Setenv("FXRELAY_OANDA_TOKEN", "test-token")

	path := suite.writeConfig(`
broker:
  base_url: https://api-fxpractice.oanda.com
  account_id: "001-001-1234567-001"
`)

	cfg, err := Load(path)
	suite.Require().NoError(err)

	suite.Equal(DefaultListenAddr, cfg.Server.ListenAddr)
	suite.Equal(DefaultReadTimeout, cfg.Server.ReadTimeout)
	suite.Equal(DefaultWriteTimeout, cfg.Server.WriteTimeout)
	suite.Equal(DefaultShutdownTimeout, cfg.Server.ShutdownTimeout)
}

func (suite *ConfigTestSuite) TestEnvOverridesFile() {
	suite.T().Setenv("FXRELAY_OANDA_TOKEN", "test-token")
	suite.T().Setenv("FXRELAY_OANDA_ACCOUNT_ID", "002-002-7654321-002")
	suite.T().Setenv("FXRELAY_LISTEN_ADDR", ":7070")

	path := suite.writeConfig(`
server:
  listen_addr: ":9090"
broker:
  base_url: https://api-fxpractice.oanda.com
  account_id: "001-001-1234567-001"
`)

	cfg, err := Load(path)
	suite.Require().NoError(err)

	suite.Equal("002-002-7654321-002", cfg.Broker.AccountID)
	suite.Equal(":7070", cfg.Server.ListenAddr)
}

func (suite *ConfigTestSuite) TestMissingTokenRejected() {
	suite.T().Setenv("FXRELAY_OANDA_TOKEN", "")

	path := suite.writeConfig(`
broker:
  base_url: https://api-fxpractice.oanda.com
  account_id: "001-001-1234567-001"
`)

	_, err := Load(path)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ConfigTestSuite) TestBadInstrumentPriceRejected() {
	suite.T().Setenv("FXRELAY_OANDA_TOKEN", "test-token")

	path := suite.writeConfig(`
broker:
  base_url: https://api-fxpractice.oanda.com
  account_id: "001-001-1234567-001"
instruments:
  USD_JPY:
    precision: 3
    price_epsilon: "not a number"
    min_entry_distance: "0.05"
`)

	_, err := Load(path)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ConfigTestSuite) TestMissingFileRejected() {
	suite.T().Setenv("FXRELAY_OANDA_TOKEN", "test-token")

	_, err := Load(filepath.Join(suite.T().TempDir(), "missing.yaml"))
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ConfigTestSuite) TestInstrumentTableOverride() {
	suite.T().Setenv("FXRELAY_OANDA_TOKEN", "test-token")

	path := suite.writeConfig(`
broker:
  base_url: https://api-fxpractice.oanda.com
  account_id: "001-001-1234567-001"
instruments:
  XAU_USD:
    precision: 2
    price_epsilon: "0.5"
    min_entry_distance: "1.0"
`)

	cfg, err := Load(path)
	suite.Require().NoError(err)

	table, err := cfg.InstrumentTable()
	suite.Require().NoError(err)

	spec := table.Lookup("XAU_USD")
	suite.Equal(int32(2), spec.Precision)
	suite.Equal("0.5", spec.PriceEpsilon.String())
	suite.Equal("1", spec.MinEntryDistance.String())
}
