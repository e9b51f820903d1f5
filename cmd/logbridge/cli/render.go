package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tkingovr/logbridge/api"
	"github.com/tkingovr/logbridge/internal/middleware"
	"github.com/tkingovr/logbridge/internal/pipeline"
)

var (
	renderRoute       string
	renderMethod      string
	renderStatus      int
	renderURI         string
	renderProto       string
	renderReqHeaders  []string
	renderRespHeaders []string
	renderForm        string
	renderBody        string
	renderError       string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the log record of a sample exchange",
	Long: `Render builds an exchange from flags, selects its level with the
configured filters and prints the record exactly as a sink would receive
it: the text message followed by its context.`,
	Example: `  logbridge render -c logbridge.yaml --method POST --status 500 \
    --header "Authorization: Bearer x" --form "name=alice&tags[]=a" --body '{"error":"boom"}'`,
	RunE: runRender,
}

func init() {
	f := renderCmd.Flags()
	f.StringVar(&renderRoute, "route", "", "route name (empty for none)")
	f.StringVar(&renderMethod, "method", "GET", "HTTP method")
	f.IntVar(&renderStatus, "status", 200, "response status code")
	f.StringVar(&renderURI, "uri", "http://localhost/", "request URI")
	f.StringVar(&renderProto, "proto", "HTTP/1.1", "request protocol")
	f.StringArrayVar(&renderReqHeaders, "header", nil, `request header "Name: value" (repeatable)`)
	f.StringArrayVar(&renderRespHeaders, "response-header", nil, `response header "Name: value" (repeatable)`)
	f.StringVar(&renderForm, "form", "", "url-encoded POST parameters")
	f.StringVar(&renderBody, "body", "", "response body")
	f.StringVar(&renderError, "error", "", "error raised while serving the request")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	engine, err := newEngine(ctx, cfg)
	if err != nil {
		return err
	}

	reqHeaders, err := parseHeaders(renderReqHeaders)
	if err != nil {
		return err
	}
	respHeaders, err := parseHeaders(renderRespHeaders)
	if err != nil {
		return err
	}
	params, err := middleware.ParseForm(renderForm)
	if err != nil {
		return fmt.Errorf("parsing --form: %w", err)
	}

	ex := &api.Exchange{
		Route:           renderRoute,
		Method:          renderMethod,
		Protocol:        renderProto,
		URI:             renderURI,
		Status:          renderStatus,
		RequestHeaders:  reqHeaders,
		ResponseHeaders: respHeaders,
		PostParams:      params,
		ResponseBody:    []byte(renderBody),
	}
	if renderError != "" {
		ex.Error = errors.New(renderError)
	}

	chain := pipeline.BuildChain(pipeline.ChainConfig{
		Engine:       engine,
		Formatter:    newFormatter(cfg),
		ScrubSecrets: cfg.ScrubSecrets,
		Logger:       logger,
	})
	entry := pipeline.NewEntry(ex)
	if err := chain.Process(ctx, entry); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !entry.Logged() {
		fmt.Fprintln(out, `{"logged": false}`)
		return nil
	}

	record := entry.Record
	fmt.Fprintf(out, "[%s] %s\n%s\n", record.Level, record.Filter, record.Message)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(record.Context.Map())
}

func parseHeaders(values []string) (http.Header, error) {
	h := http.Header{}
	for _, v := range values {
		name, value, ok := strings.Cut(v, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid header %q, expected \"Name: value\"", v)
		}
		h.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}
	return h, nil
}
