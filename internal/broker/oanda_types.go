package broker

// Wire types for the venue's v3 REST API. All numeric values travel as
// strings at instrument precision.

type positionSideResponse struct {
	Units        string `json:"units"`
	AveragePrice string `json:"averagePrice,omitempty"`
}

type positionResponse struct {
	Instrument string               `json:"instrument"`
	Long       positionSideResponse `json:"long"`
	Short      positionSideResponse `json:"short"`
}

type openPositionsResponse struct {
	Positions []positionResponse `json:"positions"`
}

type orderResponse struct {
	ID         string `json:"id"`
	Instrument string `json:"instrument"`
	Type       string `json:"type"`
	Price      string `json:"price"`
	Units      string `json:"units"`
	State      string `json:"state"`
}

type pendingOrdersResponse struct {
	Orders []orderResponse `json:"orders"`
}

type stopLossOnFill struct {
	Price string `json:"price"`
}

type takeProfitOnFill struct {
	Price string `json:"price"`
}

type clientExtensions struct {
	ID string `json:"id"`
}

type orderRequestBody struct {
	Type             string            `json:"type"`
	Instrument       string            `json:"instrument"`
	Units            string            `json:"units"`
	Price            string            `json:"price,omitempty"`
	TimeInForce      string            `json:"timeInForce"`
	PositionFill     string            `json:"positionFill"`
	StopLossOnFill   *stopLossOnFill   `json:"stopLossOnFill,omitempty"`
	TakeProfitOnFill *takeProfitOnFill `json:"takeProfitOnFill,omitempty"`
	ClientExtensions *clientExtensions `json:"clientExtensions,omitempty"`
}

type orderRequest struct {
	Order orderRequestBody `json:"order"`
}

type transactionRef struct {
	ID string `json:"id"`
}

type createOrderResponse struct {
	OrderCreateTransaction transactionRef  `json:"orderCreateTransaction"`
	OrderFillTransaction   *transactionRef `json:"orderFillTransaction,omitempty"`
	RejectReason           string          `json:"rejectReason,omitempty"`
	ErrorMessage           string          `json:"errorMessage,omitempty"`
}

type closePositionRequest struct {
	LongUnits  string `json:"longUnits,omitempty"`
	ShortUnits string `json:"shortUnits,omitempty"`
}

type closePositionResponse struct {
	LongOrderFillTransaction  *transactionRef `json:"longOrderFillTransaction,omitempty"`
	ShortOrderFillTransaction *transactionRef `json:"shortOrderFillTransaction,omitempty"`
	ErrorMessage              string          `json:"errorMessage,omitempty"`
}

type priceBucket struct {
	Price string `json:"price"`
}

type priceResponse struct {
	Instrument string        `json:"instrument"`
	Bids       []priceBucket `json:"bids"`
	Asks       []priceBucket `json:"asks"`
}

type pricingResponse struct {
	Prices []priceResponse `json:"prices"`
}
