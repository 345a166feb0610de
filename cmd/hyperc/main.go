// Command hyperc compiles component template directories, writes the
// generated render procedures next to them, and renders components with
// prop values supplied as JSON.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/scriptogre/hyper/compiler"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "hyperc:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "hyperc",
		Short:         "Compile and render hyper component templates",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	root.PersistentFlags().String("config", "", "config file (default .hyperc.yaml)")

	cobra.OnInitialize(func() { initConfig(root) })

	root.AddCommand(newBuildCmd())
	root.AddCommand(newRenderCmd())
	return root
}

func initConfig(root *cobra.Command) {
	if cfg, _ := root.PersistentFlags().GetString("config"); cfg != "" {
		viper.SetConfigFile(cfg)
	} else {
		viper.SetConfigName(".hyperc")
		viper.AddConfigPath(".")
	}
	viper.SetEnvPrefix("HYPERC")
	viper.AutomaticEnv()
	_ = viper.BindPFlag("verbose", root.PersistentFlags().Lookup("verbose"))
	_ = viper.ReadInConfig()
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if viper.GetBool("verbose") {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

func newBuildCmd() *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "build <dir>",
		Short: "Compile every *.hyper file in a directory and write the generated sources",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			dir := args[0]
			if outDir == "" {
				outDir = dir
			}

			reg := compiler.NewRegistry(log)
			if err := reg.LoadDir(dir); err != nil {
				return err
			}

			for _, name := range reg.Names() {
				comp, err := reg.Resolve(name)
				if err != nil {
					return err
				}
				path := filepath.Join(outDir, strings.ToLower(name)+".hyper.gen")
				if err := os.WriteFile(path, []byte(comp.Source()), 0o644); err != nil {
					return err
				}
				log.Info().Str("component", name).Str("path", path).Msg("wrote generated source")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory for generated sources (default: the input directory)")
	return cmd
}

func newRenderCmd() *cobra.Command {
	var propsJSON string
	var stream bool
	cmd := &cobra.Command{
		Use:   "render <dir> <component>",
		Short: "Render one component to stdout",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			dir, name := args[0], args[1]

			reg := compiler.NewRegistry(log)
			if err := reg.LoadDir(dir); err != nil {
				return err
			}
			comp, err := reg.Resolve(name)
			if err != nil {
				return err
			}

			var props map[string]any
			if propsJSON != "" {
				if err := json.Unmarshal([]byte(propsJSON), &props); err != nil {
					return fmt.Errorf("parsing --props: %w", err)
				}
			}

			ctx := context.Background()
			if stream {
				sink := make(chan string)
				done := make(chan error, 1)
				go func() {
					done <- comp.RenderStream(ctx, compiler.Args{Props: props}, sink)
				}()
				for frag := range sink {
					fmt.Print(frag)
				}
				fmt.Println()
				return <-done
			}

			out, err := comp.Render(ctx, compiler.Args{Props: props})
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		},
	}
	cmd.Flags().StringVar(&propsJSON, "props", "", "prop values as a JSON object")
	cmd.Flags().BoolVar(&stream, "stream", false, "stream fragments as they are produced")
	return cmd
}
