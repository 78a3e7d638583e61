package main

import (
	"os"

	"topnote/internal/app"
	"topnote/internal/cli"
)

func main() {
	root := cli.NewRootCommand(func(rt *cli.Runtime, files []string) error {
		return app.Run(rt.Config, rt.Log, files)
	})
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
