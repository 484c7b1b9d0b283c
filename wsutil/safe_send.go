package wsutil

import (
	"encoding/json"
	"log/slog"
)

// SafeSend sends data to a channel without panicking if the channel is closed.
// If the channel is full or closed, the send is skipped. Panics are recovered
// and logged for debugging.
func SafeSend(ch chan []byte, data []byte) (sent bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("SafeSend recovered panic", "tag", "wsutil", "panic", r)
		}
	}()
	select {
	case ch <- data:
		sent = true
	default:
		slog.Debug("SafeSend dropped message, channel full", "tag", "wsutil")
	}
	return sent
}

// SendJSON marshals v and delivers it with SafeSend.
func SendJSON(ch chan []byte, v any) bool {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("SendJSON marshal failed", "tag", "wsutil", "err", err)
		return false
	}
	return SafeSend(ch, data)
}
