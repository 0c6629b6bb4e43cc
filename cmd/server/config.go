package main

import (
	"github.com/go-extras/cobraflags"

	"riceMarketplace/internal/config"
)

const (
	configFlag = "config"
	devFlag    = "dev"
)

func newConfigFlags() map[string]cobraflags.Flag {
	return map[string]cobraflags.Flag{
		configFlag: &cobraflags.StringFlag{
			Name:  configFlag,
			Value: "",
			Usage: "Path to a YAML config file (environment variables still override it)",
		},
		devFlag: &cobraflags.BoolFlag{
			Name:  devFlag,
			Value: false,
			Usage: "Fall back to a development session secret when SESSION_SECRET is unset",
		},
	}
}

// loadConfig picks the loading mode from the --config and --dev flags.
func loadConfig(flags map[string]cobraflags.Flag) (*config.Config, error) {
	path := flags[configFlag].GetString()
	dev := flags[devFlag].GetBool()
	switch {
	case path != "":
		return config.LoadFile(path, !dev)
	case dev:
		return config.LoadWithDefaults()
	default:
		return config.Load()
	}
}
