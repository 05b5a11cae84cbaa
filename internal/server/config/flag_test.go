package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "all flags", args: []string{
			"-a", "127.0.0.1:9090", "-l", "debug", "-s", "secret",
			"-store", "s3", "-ipfs", "ipfs:5001",
			"-u", "user", "-p", "password", "-b", "bucket", "-g", "us-west-1", "-e", "http://endpoint", "-z",
			"-local", "/tmp/store",
			"-registry", "memory", "-rpc", "http://node:8545", "-contract", testContract,
			"-owners", "aa, bb", "-poll", "500ms",
			"-k", "a2V5", "-passphrase", "pw", "-salt", "na", "-confirm", "45s", "-pin", "-j", "postgres://j",
		},
			expected: &Config{
				EndpointAddrGRPC: "127.0.0.1:9090",
				LogLevel:         "debug",
				SecretKey:        "secret",
				ContentStore:     "s3",
				IPFSHost:         "ipfs:5001",
				S3AccessKey:      "user",
				S3SecretKey:      "password",
				S3Bucket:         "bucket",
				S3Region:         "us-west-1",
				S3BaseEndpoint:   "http://endpoint",
				S3Compress:       true,
				LocalStorePath:   "/tmp/store",
				Registry:         "memory",
				EthRPCURL:        "http://node:8545",
				RegistryAddress:  testContract,
				OwnerKeys:        []string{"aa", "bb"},
				PollInterval:     500 * time.Millisecond,
				EncryptionKey:    "a2V5",
				KeyPassphrase:    "pw",
				KeySalt:          "na",
				ConfirmTimeout:   45 * time.Second,
				PinOnCreate:      true,
				JournalDSN:       "postgres://j",
			}},
		{name: "foreign flags ignored", args: []string{"-c", "cfg.json", "-a", ":1"},
			expected: &Config{EndpointAddrGRPC: ":1"}},
		{name: "bad duration panics", args: []string{"-poll", "often"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{}

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config, tt.args) })
				assert.Empty(t, cmp.Diff(tt.expected, config))
			} else {
				require.Panics(t, func() { parseFlags(config, tt.args) })
			}
		})
	}
}
