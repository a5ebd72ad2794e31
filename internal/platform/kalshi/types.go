package kalshi

import (
	"encoding/json"
	"time"

	"github.com/alanyoungcy/fadebot/internal/domain"
)

// --------------------------------------------------------------------------
// Kalshi API DTOs
// --------------------------------------------------------------------------

// Market represents a market as returned by the Kalshi REST API.
type Market struct {
	Ticker          string  `json:"ticker"`
	EventTicker     string  `json:"event_ticker"`
	Title           string  `json:"title"`
	Subtitle        string  `json:"subtitle"`
	Status          string  `json:"status"` // "open", "closed", "settled"
	YesBid          float64 `json:"yes_bid"`
	YesAsk          float64 `json:"yes_ask"`
	LastPrice       float64 `json:"last_price"`
	Volume          int64   `json:"volume"`
	Volume24H       int64   `json:"volume_24h"`
	OpenInterest    int64   `json:"open_interest"`
	ExpirationTime  string  `json:"expiration_time"`
	Category        string  `json:"category"`
	Result          string  `json:"result"` // "yes", "no", "" (unsettled)
	ExpirationValue string  `json:"expiration_value"`
	OpenTime        string  `json:"open_time"`
	CloseTime       string  `json:"close_time"`
}

// SettlementValue maps the market result onto the contract payout scale:
// 100 for "yes", 0 for "no", nil while unsettled.
func (m *Market) SettlementValue() *float64 {
	var v float64
	switch m.Result {
	case "yes":
		v = 100
	case "no":
		v = 0
	default:
		return nil
	}
	return &v
}

// CandlePrice is the nested OHLC block of a candlestick, in cents.
type CandlePrice struct {
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// Candlestick represents one aggregation period from the candlesticks
// endpoint. EndPeriodTS is the Unix second the period closed on.
type Candlestick struct {
	EndPeriodTS  int64       `json:"end_period_ts"`
	Price        CandlePrice `json:"price"`
	Volume       int64       `json:"volume"`
	OpenInterest int64       `json:"open_interest"`
}

// ToCandle converts a candlestick to the domain representation.
func (c *Candlestick) ToCandle(instrumentID string) domain.Candle {
	return domain.Candle{
		InstrumentID: instrumentID,
		TS:           time.Unix(c.EndPeriodTS, 0).UTC(),
		Open:         c.Price.Open,
		High:         c.Price.High,
		Low:          c.Price.Low,
		Close:        c.Price.Close,
		Volume:       c.Volume,
	}
}

// ErrorResponse represents a Kalshi API error response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// --------------------------------------------------------------------------
// Kalshi WebSocket DTOs
// --------------------------------------------------------------------------

// WSMessage is the envelope for Kalshi WebSocket messages.
type WSMessage struct {
	Type string          `json:"type"` // "ticker", "subscribed", "error", etc.
	Msg  json.RawMessage `json:"msg"`
	SID  int64           `json:"sid"`
}

// WSTicker is the ticker channel payload: last trade price plus top of book.
type WSTicker struct {
	Ticker       string  `json:"market_ticker"`
	Price        float64 `json:"price"`
	YesBid       float64 `json:"yes_bid"`
	YesAsk       float64 `json:"yes_ask"`
	Volume       int64   `json:"volume"`
	OpenInterest int64   `json:"open_interest"`
	TS           int64   `json:"ts"` // Unix seconds
}

// Time returns the ticker timestamp as a UTC time.
func (t *WSTicker) Time() time.Time {
	return time.Unix(t.TS, 0).UTC()
}

// WSSubscribeCmd is the command sent to subscribe to Kalshi WebSocket channels.
type WSSubscribeCmd struct {
	ID     int64             `json:"id"`
	Cmd    string            `json:"cmd"` // "subscribe" or "unsubscribe"
	Params WSSubscribeParams `json:"params"`
}

// WSSubscribeParams defines the subscription parameters.
type WSSubscribeParams struct {
	Channels []string `json:"channels"` // e.g. ["ticker"]
	Tickers  []string `json:"market_tickers"`
}
