package websocket

import "time"

// Connection settings for the analysis stream.
const (
	HandshakeTimeout = 10 * time.Second
	WriteWait        = 5 * time.Second
	MaxMessageBytes  = 1 << 20
	CloseGrace       = 100 * time.Millisecond
)

// Badge labels shown for each phase.
const (
	LabelConnecting   = "Connecting..."
	LabelProcessing   = "Processing in background..."
	LabelLoadingAI    = "Loading AI..."
	LabelWaitingForAI = "Waiting for AI..."
	LabelReady        = "AI Ready"
	LabelComplete     = "Analysis Complete"
	LabelError        = "Connection Error"
	LabelDisconnected = "Disconnected"
)
