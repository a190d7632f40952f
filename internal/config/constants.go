package config

import "time"

// Timeouts shared by the commands.
const (
	RPCTimeout       = 15 * time.Second // single JSON-RPC round trip
	TxConfirmTimeout = 3 * time.Minute  // standard transaction confirmation wait
	ReceiptPoll      = 2 * time.Second  // receipt polling interval
)
