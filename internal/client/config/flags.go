package config

import (
	"flag"

	"github.com/shackstack/shackstack/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
//	-a string      server address
//	-t string      access token
//	-timeout dur   per-call timeout
//	-i dur         online check interval
func parseFlags(cfg *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-a", "-t", "-timeout", "-i"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	fs.StringVar(&cfg.AccessToken, "t", cfg.AccessToken, "access token")
	fs.DurationVar(&cfg.RequestTimeout, "timeout", cfg.RequestTimeout, "per-call timeout")
	fs.DurationVar(&cfg.OnlineCheckInterval, "i", cfg.OnlineCheckInterval, "online check interval")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
