package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/planets/federation-gateway/pkg/config"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	v := config.NewViper()

	cmd := &cobra.Command{
		Use:   "gateway",
		Short: "Federation gateway for the planets, satellites and auth subgraphs",
		// .env is read before any flag or environment lookup happens.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(); err != nil {
				fmt.Fprintln(os.Stderr, "could not load .env:", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			return run(cfg, os.Stdout)
		},
		SilenceUsage: true,
	}

	flags := cmd.Flags()
	flags.String("env", "", "deployment mode (docker|local)")
	flags.String("topology", "", "subgraph table (full|reduced)")
	flags.String("host", "", "listen host")
	flags.Int("port", 0, "listen port")
	flags.Bool("strict-deployment-mode", false, "fail at startup on an unknown deployment mode")
	flags.Bool("debug", false, "enable debug logging")

	bindings := map[string]string{
		config.KeyDeploymentMode:       "env",
		config.KeyTopology:             "topology",
		config.KeyListenHost:           "host",
		config.KeyListenPort:           "port",
		config.KeyStrictDeploymentMode: "strict-deployment-mode",
		config.KeyDebug:                "debug",
	}
	for key, flag := range bindings {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}

	return cmd
}
