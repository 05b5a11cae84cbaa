package config

import (
	"flag"

	"github.com/shackstack/shackstack/internal/flagx"
)

// parseFlags populates server Config fields from command-line flags.
//
// Supported flags:
//
//	-a string        gRPC bind address (e.g., ":50051")
//	-l string        log level
//	-s string        JWT HMAC secret key
//	-store string    content store: ipfs, s3, local, memory
//	-ipfs string     IPFS host
//	-u string        S3 access key
//	-p string        S3 secret key
//	-b string        S3 bucket name
//	-g string        S3 region
//	-e string        S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-z               zstd-compress S3 objects
//	-local string    pebble directory for the local store
//	-registry string registry: ethereum, memory
//	-rpc string      Ethereum JSON-RPC URL
//	-contract string registry contract address
//	-owners string   comma-separated owner private keys
//	-poll duration   receipt polling interval
//	-k string        base64 encryption key
//	-passphrase string / -salt string  derive the encryption key instead
//	-confirm duration confirmation timeout
//	-pin             pin content on create
//	-j string        orphan journal DSN
//
// Only the flags above are taken from args, so the JSON layer's -c/-config
// can share the command line.
func parseFlags(config *Config, args []string) {
	args = flagx.FilterArgs(args,
		[]string{"-a", "-l", "-s", "-store", "-ipfs", "-u", "-p", "-b", "-g", "-e", "-local",
			"-registry", "-rpc", "-contract", "-owners", "-poll", "-k", "-passphrase", "-salt", "-confirm", "-j"},
		"-z", "-pin")

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	fs.StringVar(&config.ContentStore, "store", config.ContentStore, "content store backend")
	fs.StringVar(&config.IPFSHost, "ipfs", config.IPFSHost, "IPFS host")
	fs.StringVar(&config.S3AccessKey, "u", config.S3AccessKey, "S3 access key")
	fs.StringVar(&config.S3SecretKey, "p", config.S3SecretKey, "S3 secret key")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.BoolVar(&config.S3Compress, "z", config.S3Compress, "compress S3 objects")
	fs.StringVar(&config.LocalStorePath, "local", config.LocalStorePath, "local store directory")

	fs.StringVar(&config.Registry, "registry", config.Registry, "registry backend")
	fs.StringVar(&config.EthRPCURL, "rpc", config.EthRPCURL, "Ethereum RPC URL")
	fs.StringVar(&config.RegistryAddress, "contract", config.RegistryAddress, "registry contract address")
	owners := fs.String("owners", "", "comma-separated owner private keys")
	fs.DurationVar(&config.PollInterval, "poll", config.PollInterval, "receipt polling interval")

	fs.StringVar(&config.EncryptionKey, "k", config.EncryptionKey, "base64 encryption key")
	fs.StringVar(&config.KeyPassphrase, "passphrase", config.KeyPassphrase, "encryption key passphrase")
	fs.StringVar(&config.KeySalt, "salt", config.KeySalt, "encryption key salt")
	fs.DurationVar(&config.ConfirmTimeout, "confirm", config.ConfirmTimeout, "confirmation timeout")
	fs.BoolVar(&config.PinOnCreate, "pin", config.PinOnCreate, "pin content on create")
	fs.StringVar(&config.JournalDSN, "j", config.JournalDSN, "orphan journal DSN")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	if keys := splitList(*owners); len(keys) > 0 {
		config.OwnerKeys = keys
	}
}
