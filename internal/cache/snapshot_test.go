package cache

import (
	"context"
	"testing"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/tradewire-lab/fxrelay/internal/types"
)

// countingBroker counts venue reads so memoization can be asserted.
type countingBroker struct {
	positionCalls int
	pendingCalls  int
	pricingCalls  int

	position optional.Option[types.Position]
	pendings []types.PendingOrder
	mid      decimal.Decimal
}

func (b *countingBroker) GetOpenPosition(_ context.Context, _ string) (optional.Option[types.Position], error) {
	b.positionCalls++
	return b.position, nil
}

func (b *countingBroker) GetPendingOrders(_ context.Context, _ string) ([]types.PendingOrder, error) {
	b.pendingCalls++
	return b.pendings, nil
}

func (b *countingBroker) CancelOrder(_ context.Context, _ string) error {
	return nil
}

func (b *countingBroker) PlaceOrder(_ context.Context, _ types.OrderSpec) (types.OrderResult, error) {
	return types.OrderResult{}, nil
}

func (b *countingBroker) ClosePosition(_ context.Context, _ string, _, _ bool) (types.CloseResult, error) {
	return types.CloseResult{}, nil
}

func (b *countingBroker) GetMidPrice(_ context.Context, _ string) (decimal.Decimal, error) {
	b.pricingCalls++
	return b.mid, nil
}

type SnapshotTestSuite struct {
	suite.Suite
	broker   *countingBroker
	snapshot *Snapshot
}

func TestSnapshotSuite(t *testing.T) {
	suite.Run(t, new(SnapshotTestSuite))
}

func (suite *SnapshotTestSuite) SetupTest() {
	suite.broker = &countingBroker{
		position: optional.Some(types.Position{Symbol: "USD_JPY", LongUnits: 20000}),
		pendings: []types.PendingOrder{{ID: "11", Symbol: "USD_JPY", Type: types.OrderTypeLimit, Units: 20000}},
		mid:      decimal.RequireFromString("150.002"),
	}
	suite.snapshot = NewSnapshot(suite.broker, "USD_JPY")
}

func (suite *SnapshotTestSuite) TestPositionMemoized() {
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		pos, err := suite.snapshot.Position(ctx)
		suite.NoError(err)
		suite.True(pos.IsSome())
	}

	suite.Equal(1, suite.broker.positionCalls)
}

func (suite *SnapshotTestSuite) TestPendingOrdersMemoized() {
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		pendings, err := suite.snapshot.PendingOrders(ctx)
		suite.NoError(err)
		suite.Len(pendings, 1)
	}

	suite.Equal(1, suite.broker.pendingCalls)
}

func (suite *SnapshotTestSuite) TestMidPriceMemoized() {
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		mid, err := suite.snapshot.MidPrice(ctx)
		suite.NoError(err)
		suite.Equal("150.002", mid.String())
	}

	suite.Equal(1, suite.broker.pricingCalls)
}

func (suite *SnapshotTestSuite) TestResetForcesRefetch() {
	ctx := context.Background()

	_, err := suite.snapshot.Position(ctx)
	suite.NoError(err)

	suite.snapshot.Reset()

	_, err = suite.snapshot.Position(ctx)
	suite.NoError(err)

	suite.Equal(2, suite.broker.positionCalls)
}
