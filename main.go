package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"archipel/internal/common"
	"archipel/internal/manager"
	"archipel/pkg/mcp"
	"archipel/pkg/pipeline"
	"archipel/pkg/server"
	"archipel/pkg/service"
)

var (
	verbose    bool
	dataDir    string
	configPath string
	systemName string
	outputID   string
)

var rootCmd = &cobra.Command{
	Use:   "archipel",
	Short: "Extract and serve architecture models from source trees",
	Long: `Archipel scans source trees, compose manifests and architecture
descriptors, aggregates what it finds into one consistent model, and
serves the result over REST or MCP.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
		if verbose {
			common.SetVerbose()
		}
	},
}

var extractCmd = &cobra.Command{
	Use:   "extract <source-dir>",
	Short: "Run the extraction pipeline over a source tree",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server over extracted projects",
	RunE:  runServe,
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server on stdio over extracted projects",
	RunE:  runMCP,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "./data", "directory holding extracted project files")

	extractCmd.Flags().StringVar(&configPath, "config", "", "path to a pipeline config file")
	extractCmd.Flags().StringVar(&systemName, "system", "", "system name when no config file is given")
	extractCmd.Flags().StringVar(&outputID, "project", "", "project id to store the result under (default: system id)")

	rootCmd.AddCommand(extractCmd, serveCmd, mcpCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	baseDir := args[0]
	logger := common.Logger()

	var (
		cfg pipeline.Config
		err error
	)
	switch {
	case configPath != "":
		cfg, err = pipeline.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	case systemName != "":
		cfg = pipeline.DefaultConfig(systemName)
	default:
		// Fall back to the directory name so bare "extract ." works.
		abs, err := filepath.Abs(baseDir)
		if err != nil {
			return err
		}
		cfg = pipeline.DefaultConfig(filepath.Base(abs))
	}

	p := pipeline.New(cfg, logger)
	result, err := p.Run(cmd.Context(), baseDir)
	if err != nil {
		return err
	}

	projectID := outputID
	if projectID == "" {
		projectID = result.System.ID
	}

	mgr := manager.New(dataDir)
	if err := mgr.Save(projectID, result); err != nil {
		return err
	}

	logger.Info().
		Str("project", projectID).
		Str("path", filepath.Join(dataDir, projectID+".json")).
		Msg("extraction complete")
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	mgr := manager.New(dataDir)
	srv := server.NewServer(service.NewArchService(mgr))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	addr := ":" + port

	common.Logger().Info().Str("addr", addr).Str("data", dataDir).Msg("starting REST API server")
	return srv.Run(addr)
}

func runMCP(cmd *cobra.Command, args []string) error {
	mgr := manager.New(dataDir)
	return mcp.Run(context.Background(), service.NewArchService(mgr))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
