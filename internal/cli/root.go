package cli

import (
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"topnote/internal/config"
	"topnote/internal/imagecodec"
	"topnote/internal/logger"
	"topnote/internal/session"
	"topnote/pkg/rtedoc"
)

// Runtime is what every command gets once flags and config are resolved.
type Runtime struct {
	Config *config.Config
	Log    *zap.Logger
}

func (rt *Runtime) Codec() *imagecodec.Codec {
	return imagecodec.New(rt.Config.Images.MaxWidth, rt.Config.Images.MaxHeight)
}

func (rt *Runtime) SessionOptions() session.Options {
	return session.Options{
		Logger: rt.Log,
		Codec:  rt.Codec(),
		Save:   rt.Config.SaveOptions(),
		Load:   rt.Config.LoadOptions(),
	}
}

func (rt *Runtime) LoadOptions() rtedoc.LoadOptions {
	return rt.Config.LoadOptions()
}

// Launcher opens the GUI with the given files.
type Launcher func(rt *Runtime, files []string) error

type rootFlags struct {
	config   string
	logLevel string
	password string
}

func NewRootCommand(launch Launcher) *cobra.Command {
	var (
		flags rootFlags
		rt    Runtime
	)

	cmd := &cobra.Command{
		Use:   "topnote [files...]",
		Short: "An always-on-top notepad with tabs, images and projects.",
		Long: heredoc.Doc(`
			TopNote keeps a small notepad window above everything else.

			Each tab holds plain text (.txt and friends) or rich text (.rted)
			with embedded or floating images. All tabs can be saved together
			as a project (.rtep) and reopened later.

			Examples:
			  topnote                     # start with an empty tab
			  topnote notes.rted todo.txt # open two tabs
			  topnote work.rtep           # reopen a project
		`),
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return flags.resolve(&rt)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if rt.Log != nil {
				_ = rt.Log.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if launch == nil {
				return fmt.Errorf("no window backend available")
			}
			return launch(&rt, args)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.config, "config", "", "config file (default is $XDG_CONFIG_HOME/topnote/config.yaml)")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.StringVar(&flags.password, "password", "", "password for encrypted .rted/.rtep files")

	cmd.AddCommand(
		newInspectCommand(&rt),
		newConvertCommand(&rt),
		newConfigCommand(&flags),
	)
	return cmd
}

func (f *rootFlags) resolve(rt *Runtime) error {
	cfg, err := config.Load(f.config)
	if err != nil {
		return err
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if f.password != "" {
		cfg.Storage.Password = f.password
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(logger.Options{
		File:    cfg.Log.File,
		Level:   cfg.Log.Level,
		Console: cfg.Log.Console,
	})
	if err != nil {
		return err
	}
	rt.Config = cfg
	rt.Log = log
	log.Debug("config resolved", zap.String("source", cfg.Source))
	return nil
}
