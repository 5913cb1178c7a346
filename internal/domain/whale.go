package domain

import "time"

// WhaleTransfer is a large on-chain transfer reported by a block explorer feed.
type WhaleTransfer struct {
	Hash       string
	Blockchain string
	Symbol     string
	Amount     float64
	AmountUSD  float64
	From       string // Known owner name if available, otherwise the address
	To         string
	Timestamp  time.Time
}
