// Package server wires the connection state machine, login orchestrator,
// world loader, and player runtime into a single listening process.
package server

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pumpkincraft/pumpkincore/pkg/chat"
	"github.com/pumpkincraft/pumpkincore/pkg/chunkqueue"
	"github.com/pumpkincraft/pumpkincore/pkg/config"
	"github.com/pumpkincraft/pumpkincore/pkg/conn"
	"github.com/pumpkincraft/pumpkincore/pkg/events"
	"github.com/pumpkincraft/pumpkincore/pkg/login"
	"github.com/pumpkincraft/pumpkincore/pkg/player"
	"github.com/pumpkincraft/pumpkincore/pkg/protocol"
	"github.com/pumpkincraft/pumpkincore/pkg/workerpool"
	"github.com/pumpkincraft/pumpkincore/pkg/world"
	"github.com/pumpkincraft/pumpkincore/pkg/worldformat"
)

// tickInterval is the per-player tick period; 50ms matches the vanilla
// 20-tick-per-second cadence the §4.7 step sequence assumes.
const tickInterval = 50 * time.Millisecond

// Server orchestrates one listening process: it accepts connections,
// drives each through the conn/login state machine, and then hands
// confirmed players off to the player runtime inside a World.
type Server struct {
	cfg    config.Config
	logger *slog.Logger

	listener net.Listener
	stopCh   chan struct{}
	wg       sync.WaitGroup

	keys     *login.ServerKeyPair
	resolver login.ProfileResolver
	registry worldformat.BlockRegistry

	world   *world.World
	workers *workerpool.Pool
	events  *events.Dispatcher

	connsMu sync.Mutex
	conns   map[net.Conn]struct{}

	clientsMu sync.Mutex
	clients   map[uuid.UUID]conn.ClientPlatform
}

// New constructs a Server, loading its world and generating an RSA
// keypair if online mode is enabled.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	registry := worldformat.MapRegistry{}
	loader, err := worldformat.LoadAnvilWorld(cfg.WorldPath, registry)
	if err != nil {
		return nil, fmt.Errorf("server: loading world: %w", err)
	}

	workers := workerpool.New(int64(cfg.WorkerPoolSize))
	s := &Server{
		cfg:      cfg,
		logger:   logger,
		stopCh:   make(chan struct{}),
		registry: registry,
		world:    world.New("overworld", loader, workers),
		workers:  workers,
		events:   events.NewDispatcher(),
		conns:    make(map[net.Conn]struct{}),
		clients:  make(map[uuid.UUID]conn.ClientPlatform),
	}

	if cfg.OnlineMode && cfg.ProxyMode == config.ProxyNone {
		keys, err := login.GenerateServerKeyPair()
		if err != nil {
			return nil, err
		}
		s.keys = keys
		s.resolver = &login.OnlineResolver{Endpoint: "https://sessionserver.example.com/session/minecraft/hasJoined"}
	} else {
		s.resolver = login.OfflineResolver{}
	}

	return s, nil
}

// Start begins listening and accepting connections in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return fmt.Errorf("server: listen on %s: %w", s.cfg.Address, err)
	}
	s.listener = ln
	s.logger.Info("listening", "address", s.cfg.Address)

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// StopChan is closed when the server has decided (internally) to shut
// down, e.g. on a fatal accept error.
func (s *Server) StopChan() <-chan struct{} { return s.stopCh }

// Stop closes the listener, disconnects every player, and releases the
// world's session lock.
func (s *Server) Stop() {
	select {
	case <-s.stopCh:
		return // already stopped
	default:
		close(s.stopCh)
	}
	if s.listener != nil {
		s.listener.Close()
	}

	s.connsMu.Lock()
	for nc := range s.conns {
		nc.Close()
	}
	s.connsMu.Unlock()

	s.wg.Wait()
	if err := s.world.Close(); err != nil {
		s.logger.Warn("closing world", "error", err)
	}
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		nc, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.stopCh:
				return
			default:
				s.logger.Error("accept", "error", err)
				continue
			}
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(nc)
		}()
	}
}

func (s *Server) handleConnection(nc net.Conn) {
	defer nc.Close()

	s.connsMu.Lock()
	s.conns[nc] = struct{}{}
	s.connsMu.Unlock()
	defer func() {
		s.connsMu.Lock()
		delete(s.conns, nc)
		s.connsMu.Unlock()
	}()

	jc := conn.NewJavaConn(nc)

	hooks := conn.Hooks{
		StatusResponse: s.statusResponse,
		RunLogin: func(jc *conn.JavaConn, hs conn.Handshake) (bool, error) {
			if hs.ProtocolVersion != protocolVersionConst {
				// Still in the Login phase: send the Login Disconnect (id 0x00), not Kick's Play-phase one.
				reason := chat.Text(fmt.Sprintf("Protocol version mismatch: server runs %d", protocolVersionConst))
				_ = jc.Transport().WritePacket(protocol.MarshalPacket(0x00, func(w *bytes.Buffer) {
					protocol.WriteString(w, reason.String())
				}))
				_ = nc.Close()
				return false, fmt.Errorf("server: protocol version mismatch from %s", nc.RemoteAddr())
			}
			result, err := s.runLogin(jc, hs, nc)
			if err != nil {
				return false, err
			}
			s.startPlay(jc, result.Profile)
			return false, nil // this goroutine's job ends at Play handoff
		},
	}

	if err := conn.RunJava(jc, hooks); err != nil {
		s.logger.Debug("connection ended", "remote", nc.RemoteAddr(), "error", err)
	}
}

// protocolVersionConst is this server's accepted protocol version.
const protocolVersionConst = 767

func (s *Server) statusResponse() string {
	return fmt.Sprintf(`{"version":{"name":"pumpkincore","protocol":%d},"players":{"max":%d,"online":%d},"description":{"text":%q}}`,
		protocolVersionConst, s.cfg.MaxPlayers, len(s.world.Players()), s.cfg.MOTD)
}

func (s *Server) proxyMode() login.ProxyMode {
	switch s.cfg.ProxyMode {
	case config.ProxyVelocity:
		return login.ProxyVelocity
	case config.ProxyBungeeCord:
		return login.ProxyBungeeCord
	default:
		return login.ProxyNone
	}
}

func (s *Server) runLogin(jc *conn.JavaConn, hs conn.Handshake, nc net.Conn) (login.Result, error) {
	cfg := login.Config{
		OnlineMode:           s.cfg.OnlineMode,
		Proxy:                s.proxyMode(),
		ForwardingSecret:     []byte(s.cfg.ForwardingSecret),
		CompressionThreshold: s.cfg.CompressionThreshold,
		Keys:                 s.keys,
		Resolver:             s.resolver,
		ClientIP:             remoteIP(nc),
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return login.Orchestrate(ctx, jc, hs, cfg)
}

func remoteIP(nc net.Conn) string {
	host, _, err := net.SplitHostPort(nc.RemoteAddr().String())
	if err != nil {
		return nc.RemoteAddr().String()
	}
	return host
}

// startPlay admits the authenticated profile as a Player, adds it to the
// world roster, and runs its per-tick loop until the connection drops.
func (s *Server) startPlay(jc *conn.JavaConn, profile login.GameProfile) {
	p := player.New(player.GameProfile{ID: profile.ID, Name: profile.Name}, player.GameModeSurvival)
	s.loadPlayerData(p)
	s.world.AddPlayer(p)
	s.registerClient(p.Profile.ID, jc)
	defer s.unregisterClient(p.Profile.ID)
	defer s.world.RemovePlayer(p.Profile.ID)
	defer s.savePlayerData(p)

	s.logger.Info("player joined", "name", profile.Name, "id", profile.ID)
	s.BroadcastSystemMessage(fmt.Sprintf("%s joined the game", profile.Name))
	defer s.BroadcastSystemMessage(fmt.Sprintf("%s left the game", profile.Name))

	go s.readPlayLoop(jc, p)
	s.tickLoop(jc, p)
}

func (s *Server) registerClient(id uuid.UUID, cp conn.ClientPlatform) {
	s.clientsMu.Lock()
	s.clients[id] = cp
	s.clientsMu.Unlock()
}

func (s *Server) unregisterClient(id uuid.UUID) {
	s.clientsMu.Lock()
	delete(s.clients, id)
	s.clientsMu.Unlock()
}

func (s *Server) readPlayLoop(jc *conn.JavaConn, p *player.Player) {
	for {
		pkt, err := jc.Transport().ReadPacket()
		if err != nil {
			_ = jc.NetConn().Close()
			return
		}
		s.dispatchPlayPacket(p, pkt.ID, pkt.Data)
	}
}

func (s *Server) dispatchPlayPacket(p *player.Player, id int32, data []byte) {
	switch id {
	case playKeepAliveID:
		if len(data) == 8 {
			var v int64
			for _, b := range data {
				v = v<<8 | int64(b)
			}
			p.AcknowledgeKeepAlive(v)
		}
	}
}

// tickLoop drives the §4.7 per-tick sequence until the connection closes.
func (s *Server) tickLoop(jc *conn.JavaConn, p *player.Player) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	dispatcher := chunkqueue.JavaDispatcher{
		SendStart: func() {
			jc.EnqueuePacket(chunkBatchStartID, func(w *bytes.Buffer) {})
		},
		SendChunk: func(e chunkqueue.Entry) {
			jc.EnqueuePacket(levelChunkID, func(w *bytes.Buffer) {
				protocol.WriteInt32(w, e.X)
				protocol.WriteInt32(w, e.Z)
			})
		},
		SendEnd: func(count int) {
			jc.EnqueuePacket(chunkBatchEndID, func(w *bytes.Buffer) { protocol.WriteVarInt(w, int32(count)) })
		},
	}

	hooks := player.TickHooks{
		FlushScreenContentUpdates: func(h player.ScreenHandler) { h.SendContentUpdates() },
		SendAcknowledgeBlockChange: func(seq int32) {
			jc.EnqueuePacket(ackBlockChangeID, func(w *bytes.Buffer) { protocol.WriteVarInt(w, seq) })
		},
		DrainChunkQueue: func(q *chunkqueue.Queue) {
			dispatcher.DispatchBatch(q.Drain())
		},
		LookupBlockIsAir:    func(pos player.BlockPos) bool { return false },
		MiningStageFor:      func(pos player.BlockPos, ticksElapsed int64) int8 { return int8(ticksElapsed % 10) },
		BroadcastStopMining: func(pos player.BlockPos) {},
		TickLivingEntity:    func(e *player.LivingEntity) {},
		TickHunger:          func(h *player.HungerState) {},
		SendExperience: func(progress float32, points, level int32) {
			jc.EnqueuePacket(setExperienceID, func(w *bytes.Buffer) {
				protocol.WriteFloat32(w, progress)
				protocol.WriteVarInt(w, level)
				protocol.WriteVarInt(w, points)
			})
		},
		SendHealth: func(health float32, food int32, saturationIsZero bool) {
			jc.EnqueuePacket(setHealthID, func(w *bytes.Buffer) {
				protocol.WriteFloat32(w, health)
				protocol.WriteVarInt(w, food)
			})
		},
		SendKeepAlive: func(id int64) {
			jc.EnqueuePacket(playKeepAliveID, func(w *bytes.Buffer) { protocol.WriteInt64(w, id) })
		},
		KickTimeout: func() { _ = jc.Kick(chat.Text("Timed out")) },
		NowMs:       func() int64 { return time.Now().UnixMilli() },
	}

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			p.Tick(hooks)
			if err := jc.Flush(); err != nil {
				return
			}
		}
	}
}

// Play-phase packet ids, this server's own wire shape (see DESIGN.md).
const (
	playKeepAliveID   = 0x24
	ackBlockChangeID  = 0x05
	chunkBatchStartID = 0x0C
	chunkBatchEndID   = 0x0D
	levelChunkID      = 0x27
	setExperienceID   = 0x59
	setHealthID       = 0x5D
)
