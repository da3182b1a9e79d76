package cmd

import (
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"zte/clipboardx"
	"zte/config"
	"zte/editor"
	"zte/log"
)

const debugLogFile = "zte-debug.log"

var (
	version  = "dev"
	cfgFile  string
	debugLog bool
)

var rootCmd = &cobra.Command{
	Use:     "zte [files...]",
	Short:   "A small terminal text editor",
	Long:    `zte edits text files in the terminal with split views, undo history and syntax highlighting.`,
	Version: version,
	RunE:    runEditor,
}

var initConfigCmd = &cobra.Command{
	Use:   "init-config [path]",
	Short: "Write the default settings file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.ConfigPath()
		if len(args) == 1 {
			path = args[0]
		}
		if path == "" {
			return fmt.Errorf("no config path: home directory unknown")
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		cmd.Printf("wrote %s\n", path)
		return nil
	},
}

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "List or restore recovery copies of unsaved edits",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting current directory: %w", err)
		}
		backups := editor.ListBackups(editor.DataDir(), wd)
		if len(backups) == 0 {
			cmd.Println("no recovery copies")
			return nil
		}
		apply, _ := cmd.Flags().GetBool("apply")
		for _, b := range backups {
			if !apply {
				cmd.Printf("%s (%s)\n", b.OriginalPath, b.Timestamp)
				continue
			}
			if err := editor.RecoverBackup(editor.DataDir(), b); err != nil {
				return err
			}
			cmd.Printf("restored %s\n", b.OriginalPath)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"settings file (default: ~/.config/zte/settings.json)")
	rootCmd.Flags().BoolVar(&debugLog, "debug", false,
		"write a debug log to "+debugLogFile)
	recoverCmd.Flags().Bool("apply", false, "write the copies over the original files")
	rootCmd.AddCommand(initConfigCmd, recoverCmd)
}

func runEditor(cmd *cobra.Command, args []string) error {
	if debugLog || os.Getenv(config.EnvPrefix+"_DEBUG") != "" {
		cleanup, err := log.Init(debugLogFile)
		if err != nil {
			return err
		}
		defer cleanup()
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	log.Info(log.CatConfig, "settings loaded", "tab_size", cfg.TabSize, "theme", cfg.Theme)

	e := editor.New(cfg, clipboardx.New())
	if len(args) > 0 || !e.RestoreSession() {
		if err := e.Open(args); err != nil {
			return fmt.Errorf("opening files: %w", err)
		}
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("creating screen: %w", err)
	}
	return e.Run(screen)
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
