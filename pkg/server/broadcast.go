package server

import (
	"bytes"

	"github.com/pumpkincraft/pumpkincore/pkg/chat"
	"github.com/pumpkincraft/pumpkincore/pkg/conn"
	"github.com/pumpkincraft/pumpkincore/pkg/protocol"
)

// systemChatID is this server's own wire shape (see DESIGN.md).
const systemChatID = 0x6C

// BroadcastSystemMessage enqueues a system chat message (join/leave
// notices, server announcements) to every currently registered client.
// Delivery is best-effort: a send error on one client never blocks or
// drops the message for the others.
func (s *Server) BroadcastSystemMessage(text string) {
	s.clientsMu.Lock()
	targets := make([]conn.ClientPlatform, 0, len(s.clients))
	for _, cp := range s.clients {
		targets = append(targets, cp)
	}
	s.clientsMu.Unlock()

	payload := chat.Text(text).String()
	for _, cp := range targets {
		cp.EnqueuePacket(systemChatID, func(w *bytes.Buffer) {
			protocol.WriteString(w, payload)
			protocol.WriteBool(w, false) // overlay (action bar) flag
		})
	}
}
