package server

import (
	"bytes"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Tnze/go-mc/nbt"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"

	"github.com/pumpkincraft/pumpkincore/pkg/config"
	"github.com/pumpkincraft/pumpkincore/pkg/player"
	"github.com/pumpkincraft/pumpkincore/pkg/protocol"
)

type levelDatDoc struct {
	Data struct {
		WorldGenSettings struct {
			Seed int64 `nbt:"Seed"`
		} `nbt:"WorldGenSettings"`
	} `nbt:"Data"`
}

func newTestWorldDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "region"), 0o755))

	var doc levelDatDoc
	doc.Data.WorldGenSettings.Seed = 7
	raw, err := nbt.Marshal(doc)
	require.NoError(t, err)

	var gz bytes.Buffer
	w := gzip.NewWriter(&gz)
	_, err = w.Write(raw)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "level.dat"), gz.Bytes(), 0o644))
	return dir
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Address = "127.0.0.1:0"
	cfg.WorldPath = newTestWorldDir(t)
	cfg.OnlineMode = false
	cfg.CompressionThreshold = -1

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := New(cfg, logger)
	require.NoError(t, err)
	require.NoError(t, s.Start())
	t.Cleanup(s.Stop)
	return s
}

func dialTest(t *testing.T, s *Server) net.Conn {
	t.Helper()
	nc, err := net.Dial("tcp", s.listener.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { nc.Close() })
	return nc
}

func sendHandshake(t *testing.T, nc net.Conn, nextState int32) {
	t.Helper()
	pkt := protocol.MarshalPacket(0x00, func(w *bytes.Buffer) {
		protocol.WriteVarInt(w, protocolVersionConst)
		protocol.WriteString(w, "localhost")
		protocol.WriteUint16(w, 25565)
		protocol.WriteVarInt(w, nextState)
	})
	require.NoError(t, protocol.WriteFrame(nc, protocol.EncodeUncompressed(pkt)))
}

func TestStatusRoundTrip(t *testing.T) {
	s := newTestServer(t)
	nc := dialTest(t, s)

	sendHandshake(t, nc, 1)

	reqPkt := protocol.MarshalPacket(0x00, func(w *bytes.Buffer) {})
	require.NoError(t, protocol.WriteFrame(nc, protocol.EncodeUncompressed(reqPkt)))

	resp, err := protocol.ReadPacket(nc)
	require.NoError(t, err)
	require.Equal(t, int32(0x00), resp.ID)

	pingPkt := protocol.MarshalPacket(0x01, func(w *bytes.Buffer) { protocol.WriteInt64(w, 42) })
	require.NoError(t, protocol.WriteFrame(nc, protocol.EncodeUncompressed(pingPkt)))

	pong, err := protocol.ReadPacket(nc)
	require.NoError(t, err)
	require.Equal(t, int32(0x01), pong.ID)
}

func TestLoginPlayHandoffDeliversJoinBroadcast(t *testing.T) {
	s := newTestServer(t)
	nc := dialTest(t, s)

	sendHandshake(t, nc, 2)

	startPkt := protocol.MarshalPacket(0x00, func(w *bytes.Buffer) {
		protocol.WriteString(w, "Hopper")
		protocol.WriteUUID(w, [16]byte{})
	})
	require.NoError(t, protocol.WriteFrame(nc, protocol.EncodeUncompressed(startPkt)))

	success, err := protocol.ReadPacket(nc)
	require.NoError(t, err)
	require.Equal(t, int32(0x02), success.ID) // loginSuccessID

	ackPkt := protocol.MarshalPacket(0x03, func(w *bytes.Buffer) {})
	require.NoError(t, protocol.WriteFrame(nc, protocol.EncodeUncompressed(ackPkt)))

	require.Eventually(t, func() bool {
		return len(s.world.Players()) == 1
	}, time.Second, 10*time.Millisecond)

	nc.SetReadDeadline(time.Now().Add(time.Second))
	chat, err := protocol.ReadPacket(nc)
	require.NoError(t, err)
	require.Equal(t, int32(systemChatID), chat.ID)
}

func TestStopClosesTrackedConnections(t *testing.T) {
	s := newTestServer(t)
	nc := dialTest(t, s)
	sendHandshake(t, nc, 1)

	require.Eventually(t, func() bool {
		s.connsMu.Lock()
		defer s.connsMu.Unlock()
		return len(s.conns) == 1
	}, time.Second, 10*time.Millisecond)

	s.Stop()

	nc.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, 1)
	_, err := nc.Read(buf)
	require.True(t, err == io.EOF || err != nil)
}

func TestPlayerDataRoundTripsAcrossSaveAndLoad(t *testing.T) {
	s := newTestServer(t)

	p := player.New(player.GameProfile{ID: uuid.New(), Name: "Marge"}, player.GameModeSurvival)
	p.Entity.Health = 13
	p.Entity.SetPos(player.Position{X: 1, Y: 2, Z: 3})

	s.savePlayerData(p)
	require.FileExists(t, s.playerDataPath(p.Profile.ID))

	loaded := player.New(player.GameProfile{ID: p.Profile.ID, Name: p.Profile.Name}, player.GameModeSurvival)
	s.loadPlayerData(loaded)

	require.Equal(t, float32(13), loaded.Entity.Health)
	pos, _ := loaded.Entity.Snapshot()
	require.Equal(t, player.Position{X: 1, Y: 2, Z: 3}, pos)
}
