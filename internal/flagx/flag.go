// Package flagx lets several config layers share one command line: each
// layer picks out only the flags it owns and parses them with its own
// flag.FlagSet.
package flagx

import (
	"flag"
	"strings"
)

// FilterArgs keeps the arguments naming a flag in valued or switches,
// in order. A valued flag also keeps the following argument unless that
// argument starts with "-". Switches (boolean flags) never take the next
// argument; use -flag=false to turn one off. "-flag=value" forms are
// always kept whole.
func FilterArgs(args []string, valued []string, switches ...string) []string {
	kind := make(map[string]bool, len(valued)+len(switches))
	for _, f := range valued {
		kind[f] = true
	}
	for _, f := range switches {
		kind[f] = false
	}

	filtered := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]

		if name, _, ok := strings.Cut(arg, "="); ok && strings.HasPrefix(arg, "-") {
			if _, known := kind[name]; known {
				filtered = append(filtered, arg)
			}
			continue
		}

		takesValue, known := kind[arg]
		if !known {
			continue
		}
		filtered = append(filtered, arg)
		if takesValue && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}
	return filtered
}

// ConfigPath returns the JSON config file named by -c or -config in args,
// or "" when neither is given. The last occurrence wins.
func ConfigPath(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.StringVar(&path, "config", "", "path to JSON config file")
	fs.StringVar(&path, "c", "", "path to JSON config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config"}))

	return path
}
