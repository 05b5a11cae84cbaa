package config

import (
	"encoding/json"
	"os"

	"github.com/shackstack/shackstack/internal/flagx"
	"github.com/shackstack/shackstack/internal/timex"
)

// JsonConfig is the on-disk form of Config. Durations accept "30s" or
// integer nanoseconds; booleans are pointers so an absent key leaves the
// current value alone.
type JsonConfig struct {
	EndpointAddrGRPC string         `json:"endpoint_addr_grpc"`
	LogLevel         string         `json:"log_level"`
	SecretKey        string         `json:"secret_key"`
	ContentStore     string         `json:"content_store"`
	IPFSHost         string         `json:"ipfs_host"`
	S3AccessKey      string         `json:"s3_access_key"`
	S3SecretKey      string         `json:"s3_secret_key"`
	S3Bucket         string         `json:"s3_bucket"`
	S3Region         string         `json:"s3_region"`
	S3BaseEndpoint   string         `json:"s3_base_endpoint"`
	S3Compress       *bool          `json:"s3_compress"`
	LocalStorePath   string         `json:"local_store_path"`
	Registry         string         `json:"registry"`
	EthRPCURL        string         `json:"eth_rpc_url"`
	RegistryAddress  string         `json:"registry_address"`
	OwnerKeys        []string       `json:"owner_keys"`
	PollInterval     timex.Duration `json:"poll_interval"`
	EncryptionKey    string         `json:"encryption_key"`
	KeyPassphrase    string         `json:"key_passphrase"`
	KeySalt          string         `json:"key_salt"`
	ConfirmTimeout   timex.Duration `json:"confirm_timeout"`
	PinOnCreate      *bool          `json:"pin_on_create"`
	JournalDSN       string         `json:"journal_dsn"`
}

// parseJson overlays the JSON file named by -c/-config in args onto config.
// Keys missing from the file keep their current values. A file that cannot
// be read or parsed panics.
func parseJson(config *Config, args []string) {
	path := flagx.ConfigPath(args)
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.ContentStore, c.ContentStore)
	setString(&config.IPFSHost, c.IPFSHost)
	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.LocalStorePath, c.LocalStorePath)
	setString(&config.Registry, c.Registry)
	setString(&config.EthRPCURL, c.EthRPCURL)
	setString(&config.RegistryAddress, c.RegistryAddress)
	setString(&config.EncryptionKey, c.EncryptionKey)
	setString(&config.KeyPassphrase, c.KeyPassphrase)
	setString(&config.KeySalt, c.KeySalt)
	setString(&config.JournalDSN, c.JournalDSN)

	if c.S3Compress != nil {
		config.S3Compress = *c.S3Compress
	}
	if c.PinOnCreate != nil {
		config.PinOnCreate = *c.PinOnCreate
	}
	if len(c.OwnerKeys) > 0 {
		config.OwnerKeys = c.OwnerKeys
	}
	if c.PollInterval.Duration > 0 {
		config.PollInterval = c.PollInterval.Duration
	}
	if c.ConfirmTimeout.Duration > 0 {
		config.ConfirmTimeout = c.ConfirmTimeout.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
