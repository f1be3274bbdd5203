// Command directoryctl runs the directory creation wizard's schema step
// against a Directory Hub server from the terminal.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"directoryhub/backend/internal/config"
	"directoryhub/backend/internal/services"
	"directoryhub/backend/pkg/models"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

type generateOptions struct {
	configPath string
	server     string
	token      string
	timeout    time.Duration
	sticky     bool
	answers    models.InterviewAnswers
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "directoryctl",
		Short:         "Directory Hub command line client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.AddCommand(newGenerateCmd())
	return root
}

func newGenerateCmd() *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate-schema",
		Short: "Infer a directory schema from interview answers and print it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "Path to config file")
	f.StringVar(&opts.server, "server", "", "Server base URL (default schema_service.url)")
	f.StringVar(&opts.token, "token", os.Getenv("DIRECTORY_TOKEN"), "Bearer token")
	f.DurationVar(&opts.timeout, "timeout", 0, "Request timeout (default schema_service.timeout, 0 waits indefinitely)")
	f.BoolVar(&opts.sticky, "sticky-mock", false, "Keep the mock mode warning once shown")
	f.StringVar(&opts.answers.DirectoryType, "type", "", "What kind of directory is this?")
	f.StringVar(&opts.answers.ExampleOrganizations, "examples", "", "Example organizations")
	f.StringVar(&opts.answers.RequiredFields, "required", "", "Fields every listing must have")
	f.StringVar(&opts.answers.OptionalFields, "optional", "", "Nice-to-have fields")
	return cmd
}

func runGenerate(cmd *cobra.Command, opts *generateOptions) error {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	server := cfg.SchemaService.URL
	if opts.server != "" {
		server = opts.server
	}
	timeout := cfg.SchemaService.Timeout
	if cmd.Flags().Changed("timeout") {
		timeout = opts.timeout
	}

	var clientOpts []services.ClientOption
	if opts.token != "" {
		clientOpts = append(clientOpts, services.WithBearerToken(opts.token))
	}
	var wfOpts []services.WorkflowOption
	if opts.sticky {
		wfOpts = append(wfOpts, services.WithStickyMockMode())
	}
	wf := services.NewSchemaWorkflow(services.NewHTTPSchemaClient(server, timeout, clientOpts...), wfOpts...)

	errOut := cmd.ErrOrStderr()
	unsubscribe := wf.Subscribe(func(s services.Status) { render(errOut, s) })
	defer unsubscribe()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	var schema json.RawMessage
	err = wf.Generate(ctx, opts.answers, func(s json.RawMessage) { schema = s }, nil)
	if err != nil {
		return errors.New(services.FailureMessage(err))
	}
	return printSchema(cmd.OutOrStdout(), schema)
}

// render draws the presentation state: a loading line while the request is
// in flight, then the mock mode warning or the error.
func render(w io.Writer, s services.Status) {
	switch {
	case s.IsLoading:
		fmt.Fprintln(w, "Generating schema...")
	case s.Error != "":
		fmt.Fprintf(w, "Error: %s\n", s.Error)
	default:
		if s.MockMode {
			fmt.Fprintln(w, "Warning: no language model is configured; this is a placeholder schema.")
		}
	}
}

func printSchema(w io.Writer, schema json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, schema, "", "  "); err != nil {
		// not ours to reformat, print as received
		_, err = fmt.Fprintln(w, string(schema))
		return err
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(w)
	return err
}

