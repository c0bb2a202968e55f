package api

import (
	"time"

	"stock_sim/internal/domain"
)

// ErrorResponse is the body of every non-2xx reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// MarketSummaryResponse wraps the summary with the tick it was computed from
type MarketSummaryResponse struct {
	domain.MarketSummary
	Seq  uint64    `json:"seq"`
	Time time.Time `json:"time"`
}

// TransactionsResponse lists the session's fills, newest first
type TransactionsResponse struct {
	Count        int                  `json:"count"`
	Transactions []domain.Transaction `json:"transactions"`
}

// WSSubscribeRequest is sent by client to subscribe to channels
type WSSubscribeRequest struct {
	Op       string   `json:"op"`       // "subscribe" or "unsubscribe"
	Channels []string `json:"channels"` // "market", "alerts", "signals"
}

// WSMessage is pushed to subscribed clients
type WSMessage struct {
	Channel string `json:"channel"`
	Data    any    `json:"data"`
}

// Websocket channels
const (
	ChannelMarket  = "market"
	ChannelAlerts  = "alerts"
	ChannelSignals = "signals"
)
