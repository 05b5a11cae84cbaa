package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Environment variables. The first four keep the names used by existing
// deployments.
const (
	EnvWeb3ProviderURI         = "WEB3_PROVIDER_URI"
	EnvIPFSHost                = "IPFS_HOST"
	EnvEncryptionKey           = "ENCRYPTION_KEY"
	EnvResourceContractAddress = "RESOURCE_CONTRACT_ADDRESS"
	EnvOwnerKeys               = "SHACKSTACK_OWNER_KEYS"
	EnvJournalDSN              = "SHACKSTACK_JOURNAL_DSN"
	EnvSecretKey               = "SHACKSTACK_SECRET_KEY"
)

// parseEnv overlays non-empty environment variables onto config.
func parseEnv(config *Config) {
	v := viper.New()
	_ = v.BindEnv("eth_rpc_url", EnvWeb3ProviderURI)
	_ = v.BindEnv("ipfs_host", EnvIPFSHost)
	_ = v.BindEnv("encryption_key", EnvEncryptionKey)
	_ = v.BindEnv("registry_address", EnvResourceContractAddress)
	_ = v.BindEnv("owner_keys", EnvOwnerKeys)
	_ = v.BindEnv("journal_dsn", EnvJournalDSN)
	_ = v.BindEnv("secret_key", EnvSecretKey)

	setString(&config.EthRPCURL, v.GetString("eth_rpc_url"))
	setString(&config.IPFSHost, v.GetString("ipfs_host"))
	setString(&config.EncryptionKey, v.GetString("encryption_key"))
	setString(&config.RegistryAddress, v.GetString("registry_address"))
	setString(&config.JournalDSN, v.GetString("journal_dsn"))
	setString(&config.SecretKey, v.GetString("secret_key"))

	if keys := splitList(v.GetString("owner_keys")); len(keys) > 0 {
		config.OwnerKeys = keys
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
