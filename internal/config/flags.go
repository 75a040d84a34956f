package config

import (
	"errors"
	"flag"
	"net"
	"strconv"
	"strings"
	"time"
)

// NetAddress holds structured network address data for host and port.
// It implements the flag.Value interface.
type NetAddress struct {
	Host string
	Port int
}

// ParseFlags parses all configuration flags.
//
// Flags:
//
//	-a control API address in format [host]:[port]
//	-d local database path (SQLite)
//	-r remote store base URL
//	-t remote bearer token
//	-probe-url connectivity probe URL
//	-probe-interval connectivity probe cadence (e.g., "30s")
//	-sync-interval background sync cadence (e.g., "5m")
//	-no-auto-sync disable periodic and reconnect-triggered syncing
//	-strategy automatic conflict resolution strategy
//	-log-file rotating log file path
//	-c/-config json file path with configs
func ParseFlags() *StructuredConfig {
	var serverAddress NetAddress
	var databaseDSN string
	var remoteBaseURL string
	var remoteToken string
	var probeURL string
	var probeInterval time.Duration
	var syncInterval time.Duration
	var noAutoSync bool
	var conflictStrategy string
	var logFilePath string
	var jsonConfigPath string

	flag.Var(&serverAddress, "a", "Control API net address host:port")
	flag.StringVar(&databaseDSN, "d", "", "Local database path")
	flag.StringVar(&remoteBaseURL, "r", "", "Remote store base URL")
	flag.StringVar(&remoteToken, "t", "", "Remote bearer token")
	flag.StringVar(&probeURL, "probe-url", "", "Connectivity probe URL")
	flag.DurationVar(&probeInterval, "probe-interval", 0, "Connectivity probe cadence (e.g., 30s)")
	flag.DurationVar(&syncInterval, "sync-interval", 0, "Background sync cadence (e.g., 5m)")
	flag.BoolVar(&noAutoSync, "no-auto-sync", false, "Disable automatic syncing")
	flag.StringVar(&conflictStrategy, "strategy", "", "Automatic conflict strategy: local, remote, merge or manual")
	flag.StringVar(&logFilePath, "log-file", "", "Rotating log file path")
	flag.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	flag.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")

	flag.Parse()

	return &StructuredConfig{
		Engine: Engine{
			SyncInterval:     syncInterval,
			DisableAutoSync:  noAutoSync,
			ConflictStrategy: conflictStrategy,
		},
		Remote: Remote{
			BaseURL: remoteBaseURL,
			Token:   remoteToken,
		},
		Storage: Storage{
			DSN: databaseDSN,
		},
		Monitor: Monitor{
			ProbeURL:      probeURL,
			ProbeInterval: probeInterval,
		},
		Server: Server{
			HTTPAddress: serverAddress.String(),
		},
		Log: Log{
			FilePath: logFilePath,
		},
		JSONFilePath: jsonConfigPath,
	}
}

// String returns a canonical host:port string for a NetAddress.
// If neither Host nor Port are set, it returns an empty string so that the
// merge step can fall through to lower-priority sources.
func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}

	return a.Host + ":" + strconv.Itoa(a.Port)
}

// Set parses the input string of form host:port and populates the NetAddress.
// It validates the port range, checks IP correctness unless host is "localhost",
// and returns an error if the format or values are invalid.
func (a *NetAddress) Set(s string) error {
	hostAndPort := strings.Split(s, ":")
	if len(hostAndPort) != 2 {
		return errors.New("need address in a form `host:port`")
	}

	host := hostAndPort[0]
	port, err := strconv.Atoi(hostAndPort[1])
	if err != nil {
		return err
	}

	if port < 1 {
		return errors.New("port number is a positive integer")
	}

	if host != "localhost" {
		ip := net.ParseIP(hostAndPort[0])
		if ip == nil {
			return errors.New("incorrect IP-address provided")
		}
	}

	a.Host = host
	a.Port = port
	return nil
}
