package providers

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/five82/lookout/internal/logs"
)

const maxDatagram = 64 * 1024

// parseFunc turns one received payload into an entry.
type parseFunc func(payload []byte, source string) (logs.Entry, bool)

// listener is the shared lifecycle of the socket providers: Start opens the
// socket and spawns readers, Close shuts the socket and waits for them.
type listener struct {
	id       string
	settings Settings
	protocol string
	parse    parseFunc
	log      *log.Logger

	mu     sync.Mutex
	logger *logs.Logger
	conn   net.PacketConn
	ln     net.Listener
	conns  map[net.Conn]struct{}
	active bool
	wg     sync.WaitGroup
}

func newNetworkProvider(id string, s Settings, logger *log.Logger) (Provider, error) {
	ns, ok := s.(*NetworkSettings)
	if !ok {
		return nil, fmt.Errorf("network provider needs %s, got %s", KindNetworkSettings, s.Kind())
	}
	return &listener{
		id:       id,
		settings: ns,
		protocol: strings.ToLower(ns.Protocol),
		parse:    parseLine,
		log:      logger,
	}, nil
}

func newUDPAppenderProvider(id string, s Settings, logger *log.Logger) (Provider, error) {
	us, ok := s.(*UDPAppenderSettings)
	if !ok {
		return nil, fmt.Errorf("udp appender provider needs %s, got %s", KindUDPAppenderSettings, s.Kind())
	}
	return &listener{
		id:       id,
		settings: us,
		protocol: "udp",
		parse:    parseLog4j,
		log:      logger,
	}, nil
}

func (p *listener) ID() string         { return p.id }
func (p *listener) Info() Info         { return p.settings.ProviderInfo() }
func (p *listener) Settings() Settings { return p.settings }

func (p *listener) SetLogger(l *logs.Logger) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logger = l
}

func (p *listener) IsActive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// LocalAddr returns the bound address once started.
func (p *listener) LocalAddr() net.Addr {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case p.conn != nil:
		return p.conn.LocalAddr()
	case p.ln != nil:
		return p.ln.Addr()
	}
	return nil
}

func (p *listener) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active {
		return nil
	}

	addr := p.settings.Address()
	switch p.protocol {
	case "udp":
		conn, err := net.ListenPacket("udp", addr)
		if err != nil {
			return fmt.Errorf("listen udp %s: %w", addr, err)
		}
		p.conn = conn
		p.wg.Add(1)
		go p.readPackets(conn)
	case "tcp":
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listen tcp %s: %w", addr, err)
		}
		p.ln = ln
		p.conns = make(map[net.Conn]struct{})
		p.wg.Add(1)
		go p.accept(ln)
	default:
		return fmt.Errorf("unsupported protocol %q", p.protocol)
	}
	p.active = true
	p.log.Info("provider started", "protocol", p.protocol, "address", addr)
	return nil
}

func (p *listener) Close() error {
	p.mu.Lock()
	if !p.active {
		p.mu.Unlock()
		return nil
	}
	p.active = false
	var err error
	if p.conn != nil {
		err = p.conn.Close()
	}
	if p.ln != nil {
		err = p.ln.Close()
	}
	for c := range p.conns {
		_ = c.Close()
	}
	p.mu.Unlock()

	p.wg.Wait()
	p.log.Info("provider closed")
	return err
}

func (p *listener) deliver(payload []byte, source string) {
	entry, ok := p.parse(payload, source)
	if !ok {
		return
	}
	if entry.Source == "" {
		entry.Source = p.settings.InstanceName()
	}
	p.mu.Lock()
	logger := p.logger
	p.mu.Unlock()
	if logger == nil {
		return
	}
	if err := logger.Add(entry); err != nil {
		p.log.Warn("log writer failed", "err", err)
	}
}

func (p *listener) readPackets(conn net.PacketConn) {
	defer p.wg.Done()
	buf := make([]byte, maxDatagram)
	for {
		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				p.log.Error("read datagram", "err", err)
			}
			return
		}
		payload := make([]byte, n)
		copy(payload, buf[:n])
		p.deliver(payload, hostOf(from))
	}
}

func (p *listener) accept(ln net.Listener) {
	defer p.wg.Done()
	for {
		c, err := ln.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				p.log.Error("accept", "err", err)
			}
			return
		}
		p.mu.Lock()
		if !p.active {
			p.mu.Unlock()
			_ = c.Close()
			return
		}
		p.conns[c] = struct{}{}
		p.wg.Add(1)
		p.mu.Unlock()
		go p.readLines(c)
	}
}

func (p *listener) readLines(c net.Conn) {
	defer p.wg.Done()
	defer func() {
		_ = c.Close()
		p.mu.Lock()
		delete(p.conns, c)
		p.mu.Unlock()
	}()

	host := hostOf(c.RemoteAddr())
	scanner := bufio.NewScanner(c)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		p.deliver(scanner.Bytes(), host)
	}
}

func hostOf(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}
