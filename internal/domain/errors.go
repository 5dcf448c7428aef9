package domain

import "errors"

var (
	// ErrNoQuote means no venue has usable data for either orientation of a
	// pair. This is a normal, expected outcome at the merger level; the graph
	// builder omits the edge and continues.
	ErrNoQuote = errors.New("no quote available")

	// ErrInvalidAmount means a zero or negative amount was passed into the
	// estimator or replay.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrUnknownCurrency means an edge references a currency outside the
	// configured universe. Fatal for the detection pass.
	ErrUnknownCurrency = errors.New("unknown currency")

	// ErrNoExecutablePrice means a replay leg could not be filled at the
	// assumed liquidity; the cycle may not be realizable at that size.
	ErrNoExecutablePrice = errors.New("no executable price")

	// ErrNotFound is returned by stores when a key does not exist.
	ErrNotFound = errors.New("not found")

	// ErrWSDisconnect is returned when a websocket connection is lost or the
	// client has been closed.
	ErrWSDisconnect = errors.New("websocket disconnected")
)
