// Package config handles configuration for the server component,
// including defaults, a JSON overlay, environment variables and
// command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

const (
	StoreIPFS   = "ipfs"
	StoreS3     = "s3"
	StoreLocal  = "local"
	StoreMemory = "memory"

	RegistryEthereum = "ethereum"
	RegistryMemory   = "memory"
)

// Config holds runtime settings for the shackstack server.
//
// Fields:
//   - EndpointAddrGRPC: bind address for the public gRPC endpoint.
//   - LogLevel: debug, info, warn or error.
//   - SecretKey: HMAC secret for verifying JWTs (HS256). Empty disables auth.
//   - ContentStore: ipfs, s3, local or memory.
//   - IPFSHost: IPFS HTTP RPC address, multiaddr or host:port.
//   - S3AccessKey / S3SecretKey / S3Bucket / S3Region / S3BaseEndpoint /
//     S3Compress: object storage settings for the s3 store.
//   - LocalStorePath: pebble directory for the local store.
//   - Registry: ethereum or memory.
//   - EthRPCURL / RegistryAddress: node endpoint and deployed contract.
//   - OwnerKeys: hex private keys of the accounts allowed to sign.
//   - PollInterval: receipt polling interval.
//   - EncryptionKey: base64 secretbox key. KeyPassphrase + KeySalt derive
//     one instead. With neither, an ephemeral key is generated.
//   - ConfirmTimeout: upper bound on each confirmation wait.
//   - PinOnCreate: pin content right after it is stored.
//   - JournalDSN: PostgreSQL DSN (pgx) for the orphan journal. Optional.
type Config struct {
	EndpointAddrGRPC string
	LogLevel         string
	SecretKey        string
	ContentStore     string
	IPFSHost         string
	S3AccessKey      string
	S3SecretKey      string
	S3Bucket         string
	S3Region         string
	S3BaseEndpoint   string
	S3Compress       bool
	LocalStorePath   string
	Registry         string
	EthRPCURL        string
	RegistryAddress  string
	OwnerKeys        []string
	PollInterval     time.Duration
	EncryptionKey    string
	KeyPassphrase    string
	KeySalt          string
	ConfirmTimeout   time.Duration
	PinOnCreate      bool
	JournalDSN       string
}

// LoadDefaults populates Config with development defaults matching a local
// IPFS daemon and a dev chain on :8545.
func (c *Config) LoadDefaults() {
	c.EndpointAddrGRPC = ":50051"
	c.LogLevel = "info"
	c.ContentStore = StoreIPFS
	c.IPFSHost = "/ip4/127.0.0.1/tcp/5001"
	c.S3Bucket = "resources"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.LocalStorePath = "data/content"
	c.Registry = RegistryEthereum
	c.EthRPCURL = "http://localhost:8545"
	c.PollInterval = time.Second
	c.ConfirmTimeout = 2 * time.Minute
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	var errs []error

	switch c.ContentStore {
	case StoreIPFS:
		if c.IPFSHost == "" {
			errs = append(errs, errors.New("ipfs store needs an IPFS host"))
		}
	case StoreS3:
		if c.S3Bucket == "" {
			errs = append(errs, errors.New("s3 store needs a bucket"))
		}
	case StoreLocal:
		if c.LocalStorePath == "" {
			errs = append(errs, errors.New("local store needs a path"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown content store %q", c.ContentStore))
	}

	switch c.Registry {
	case RegistryEthereum:
		if c.EthRPCURL == "" {
			errs = append(errs, errors.New("ethereum registry needs an RPC URL"))
		}
		if !ethcommon.IsHexAddress(c.RegistryAddress) {
			errs = append(errs, fmt.Errorf("invalid registry contract address %q", c.RegistryAddress))
		}
		if c.PollInterval <= 0 {
			errs = append(errs, errors.New("poll interval must be positive"))
		}
	case RegistryMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown registry %q", c.Registry))
	}

	if c.EncryptionKey != "" && c.KeyPassphrase != "" {
		errs = append(errs, errors.New("set either an encryption key or a passphrase, not both"))
	}
	if c.KeyPassphrase != "" && c.KeySalt == "" {
		errs = append(errs, errors.New("key passphrase needs a salt"))
	}

	return errors.Join(errs...)
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line
// flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, os.Args[1:])
	parseEnv(cfg)
	parseFlags(cfg, os.Args[1:])
	return cfg
}
