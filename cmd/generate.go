package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/zjrosen/instadash/internal/generation"
	"github.com/zjrosen/instadash/internal/ingest"
	"github.com/zjrosen/instadash/internal/workflow"
)

var (
	genJSON        string
	genPrompt      string
	genTemperature float64
	genOut         string
	genStdout      bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a dashboard without the UI",
	Long: `Send a JSON file and a prompt to the generation service and save the
resulting HTML as dashboard_<unix-ms>.html.

Examples:
  instadash generate --json sales.json --prompt "Dark theme, bar chart per region"
  cat sales.json | instadash generate --json - --prompt "Minimal" --stdout`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&genJSON, "json", "j", "", `JSON file to send ("-" reads stdin)`)
	generateCmd.Flags().StringVarP(&genPrompt, "prompt", "p", "", "how the dashboard should look")
	generateCmd.Flags().Float64VarP(&genTemperature, "temperature", "t", workflow.DefaultTemperature, "sampling temperature, 0 to 2")
	generateCmd.Flags().StringVarP(&genOut, "out", "o", "", "directory for the HTML file (default export.download_dir)")
	generateCmd.Flags().BoolVar(&genStdout, "stdout", false, "write the HTML to stdout instead of a file")
	_ = generateCmd.MarkFlagRequired("json")
	_ = generateCmd.MarkFlagRequired("prompt")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := loaded.Config
	if genOut != "" {
		cfg.Export.DownloadDir = genOut
	}

	rt, err := newRuntime(ctx, cfg, runtimeOptions{debug: debug, traceOut: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	defer rt.Close()

	text, err := readGenerateInput(cmd, rt.ingestor)
	if err != nil {
		return err
	}

	rt.controller.SetJSON(text)
	rt.controller.SetPrompt(genPrompt)
	if cmd.Flags().Changed("temperature") {
		rt.controller.SetTemperature(genTemperature)
	}

	html, err := rt.controller.Run(ctx, rt.client)
	if err != nil {
		var verr *workflow.ValidationError
		if errors.As(err, &verr) {
			return verr
		}
		return errors.New(generation.Message(err))
	}

	if genStdout {
		_, err := io.WriteString(cmd.OutOrStdout(), html)
		return err
	}
	path, err := rt.exporter.Download(rt.controller.State())
	if err != nil {
		return fmt.Errorf("saving dashboard: %w", err)
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func readGenerateInput(cmd *cobra.Command, ing *ingest.Ingestor) (string, error) {
	if genJSON == "-" {
		data, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), ing.MaxFileSize()+1))
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		if int64(len(data)) > ing.MaxFileSize() {
			return "", errors.New(ingest.Message(ingest.ErrFileTooLarge))
		}
		return ing.Edit(string(data)).Text, nil
	}
	f, err := ing.Accept([]ingest.File{ingest.FileFromPath(genJSON)})
	if err != nil {
		return "", errors.New(ingest.Message(err))
	}
	res, err := ing.Read(cmd.Context(), f, ingest.SourceUpload)
	if err != nil {
		return "", errors.New(ingest.Message(err))
	}
	for _, issue := range res.Issues {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "schema:", issue)
	}
	return res.Text, nil
}
