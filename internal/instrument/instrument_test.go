package instrument

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type InstrumentTestSuite struct {
	suite.Suite
	table *Table
}

func TestInstrumentSuite(t *testing.T) {
	suite.Run(t, new(InstrumentTestSuite))
}

func (suite *InstrumentTestSuite) SetupTest() {
	suite.table = NewTable(nil)
}

func (suite *InstrumentTestSuite) TestJPYPrecision() {
	spec := suite.table.Lookup("USD_JPY")
	suite.Equal(int32(3), spec.Precision)
}

func (suite *InstrumentTestSuite) TestStandardPrecision() {
	spec := suite.table.Lookup("EUR_USD")
	suite.Equal(int32(5), spec.Precision)
}

func (suite *InstrumentTestSuite) TestFormatPriceJPY() {
	price := decimal.RequireFromString("150.1234")
	suite.Equal("150.123", suite.table.FormatPrice("USD_JPY", price))
}

func (suite *InstrumentTestSuite) TestFormatPriceStandard() {
	price := decimal.RequireFromString("150.1234")
	suite.Equal("150.12340", suite.table.FormatPrice("EUR_USD", price))
}

func (suite *InstrumentTestSuite) TestFormatPricePads() {
	price := decimal.RequireFromString("150")
	suite.Equal("150.000", suite.table.FormatPrice("USD_JPY", price))
	suite.Equal("150.00000", suite.table.FormatPrice("EUR_USD", price))
}

func (suite *InstrumentTestSuite) TestOverride() {
	table := NewTable(map[string]Spec{
		"XAU_USD": {
			Precision:        2,
			PriceEpsilon:     decimal.RequireFromString("0.1"),
			MinEntryDistance: decimal.RequireFromString("0.5"),
		},
	})

	spec := table.Lookup("XAU_USD")
	suite.Equal(int32(2), spec.Precision)
	suite.Equal("2000.12", table.FormatPrice("XAU_USD", decimal.RequireFromString("2000.119")))

	// Symbols without overrides keep the defaults
	suite.Equal(int32(3), table.Lookup("GBP_JPY").Precision)
}

func (suite *InstrumentTestSuite) TestEpsilonDefaults() {
	jpy := suite.table.Lookup("GBP_JPY")
	std := suite.table.Lookup("GBP_USD")

	suite.True(jpy.PriceEpsilon.GreaterThan(std.PriceEpsilon))
	suite.True(jpy.MinEntryDistance.GreaterThan(std.MinEntryDistance))
}
