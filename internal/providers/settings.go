package providers

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Provider identifiers.
const (
	NetworkID     = "lookout.network"
	UDPAppenderID = "lookout.udp-appender"
)

// Settings kinds (discriminators in session files).
const (
	KindNetworkSettings     = "NetworkSettings"
	KindUDPAppenderSettings = "UdpAppenderSettings"
)

// Info describes a provider implementation.
type Info struct {
	Identifier  string `json:"identifier"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Settings is the closed set of provider configurations: *NetworkSettings and
// *UDPAppenderSettings.
type Settings interface {
	Kind() string
	ProviderInfo() Info
	InstanceName() string
	Address() string
	Validate() error
	settings()
}

// NetworkInfo describes the network provider.
var NetworkInfo = Info{
	Identifier:  NetworkID,
	Name:        "Network listener",
	Description: "Receives JSON or plain-text log lines over TCP or UDP.",
}

// UDPAppenderInfo describes the UDP appender provider.
var UDPAppenderInfo = Info{
	Identifier:  UDPAppenderID,
	Name:        "UDP appender",
	Description: "Receives log4j XML events sent by UDP appenders.",
}

// NetworkSettings configures a network listener.
type NetworkSettings struct {
	Info     Info   `json:"info"`
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Protocol string `json:"protocol"` // "tcp" or "udp"
}

// DefaultProtocol is the transport of a network listener that names none.
const DefaultProtocol = "udp"

// NewNetworkSettings returns settings for a network listener on host:port.
func NewNetworkSettings(name, host string, port int, protocol string) *NetworkSettings {
	return &NetworkSettings{Info: NetworkInfo, Name: name, Host: host, Port: port, Protocol: NormalizeProtocol(protocol)}
}

// NormalizeProtocol lower-cases a protocol name. Blank means DefaultProtocol.
func NormalizeProtocol(protocol string) string {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	if protocol == "" {
		return DefaultProtocol
	}
	return protocol
}

func (*NetworkSettings) settings()              {}
func (*NetworkSettings) Kind() string           { return KindNetworkSettings }
func (s *NetworkSettings) ProviderInfo() Info   { return s.Info }
func (s *NetworkSettings) InstanceName() string { return s.Name }
func (s *NetworkSettings) Address() string      { return joinHostPort(s.Host, s.Port) }

// Validate checks the port and protocol.
func (s *NetworkSettings) Validate() error {
	if err := validatePort(s.Port); err != nil {
		return err
	}
	switch s.Protocol {
	case "tcp", "udp":
		return nil
	default:
		return fmt.Errorf("unsupported protocol %q", s.Protocol)
	}
}

// UDPAppenderSettings configures a UDP appender listener.
type UDPAppenderSettings struct {
	Info Info   `json:"info"`
	Name string `json:"name"`
	Host string `json:"host"`
	Port int    `json:"port"`
}

// NewUDPAppenderSettings returns settings for a UDP appender on host:port.
func NewUDPAppenderSettings(name, host string, port int) *UDPAppenderSettings {
	return &UDPAppenderSettings{Info: UDPAppenderInfo, Name: name, Host: host, Port: port}
}

func (*UDPAppenderSettings) settings()              {}
func (*UDPAppenderSettings) Kind() string           { return KindUDPAppenderSettings }
func (s *UDPAppenderSettings) ProviderInfo() Info   { return s.Info }
func (s *UDPAppenderSettings) InstanceName() string { return s.Name }
func (s *UDPAppenderSettings) Address() string      { return joinHostPort(s.Host, s.Port) }

// Validate checks the port.
func (s *UDPAppenderSettings) Validate() error { return validatePort(s.Port) }

// PendingRecord is a provider configuration waiting to be instantiated.
type PendingRecord struct {
	Info     Info
	Settings Settings
}

// Pending wraps settings into a PendingRecord.
func Pending(s Settings) PendingRecord {
	return PendingRecord{Info: s.ProviderInfo(), Settings: s}
}

func validatePort(port int) error {
	if port < 0 || port > 65535 {
		return fmt.Errorf("port %d out of range", port)
	}
	return nil
}

func joinHostPort(host string, port int) string {
	return net.JoinHostPort(strings.TrimSpace(host), strconv.Itoa(port))
}
