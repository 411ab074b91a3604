package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/getmockd/stubmatch/pkg/engine"
	"github.com/getmockd/stubmatch/pkg/request"
	"github.com/getmockd/stubmatch/pkg/stub"
)

type matchOptions struct {
	configPath string
	method     string
	url        string
	headers    []string
	body       string
	bodyFile   string
	metrics    bool
	candidates bool
	jsonOutput bool
}

func newMatchCommand(opts *globalOptions) *cobra.Command {
	mo := &matchOptions{}

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Evaluate one request against a mapping file",
		Long: `Evaluate one request against the mappings in a mapping file and print the
response of the mapping that answers it.

Exit status is 0 when a mapping matched, 2 when none did and 1 when the
file could not be loaded or evaluation failed (for example a mapping refers
to an extension that is not registered).`,
		Example: `  stubmatch match --config stubs.yaml --url /findthis/thing
  stubmatch match -f stubs.yaml --method POST --url /orders \
    -H 'Content-Type: application/json' --body '{"amount": 250}'
  stubmatch match -f stubs.yaml --url /orders --body-file order.json --candidates --metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMatch(cmd.OutOrStdout(), opts, mo)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&mo.configPath, "config", "f", "", "Mapping file path")
	flags.StringVarP(&mo.method, "method", "X", http.MethodGet, "Request method")
	flags.StringVarP(&mo.url, "url", "u", "/", "Request URI (path and query)")
	flags.StringArrayVarP(&mo.headers, "header", "H", nil, "Request header as 'Name: value' (repeatable)")
	flags.StringVarP(&mo.body, "body", "d", "", "Request body")
	flags.StringVar(&mo.bodyFile, "body-file", "", "Read the request body from a file")
	flags.BoolVar(&mo.metrics, "metrics", false, "Print evaluation metrics after the result")
	flags.BoolVar(&mo.candidates, "candidates", false, "List every mapping that accepts the request")
	flags.BoolVar(&mo.jsonOutput, "json", false, "Output the result as JSON")
	cmd.MarkFlagsMutuallyExclusive("body", "body-file")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func runMatch(out io.Writer, opts *globalOptions, mo *matchOptions) error {
	req, err := mo.request()
	if err != nil {
		return err
	}
	s, err := opts.open(mo.configPath, mo.metrics)
	if err != nil {
		return err
	}
	defer s.Close()

	snap := s.engine.Snapshot()
	outcome, err := s.engine.EvaluateSnapshot(req, snap)
	if err != nil {
		return err
	}

	var candidates []*stub.Mapping
	if mo.candidates {
		if candidates, err = s.engine.Candidates(req, snap); err != nil {
			return err
		}
	}

	if mo.jsonOutput {
		err = writeMatchJSON(out, outcome, candidates)
	} else {
		err = writeMatchText(out, outcome, candidates, mo.candidates)
	}
	if err != nil {
		return err
	}

	if s.metrics != nil {
		fmt.Fprintln(out)
		if err := s.metrics.WriteText(out); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	if !outcome.Matched() {
		return ErrNoMatch
	}
	return nil
}

func (mo *matchOptions) request() (*request.Request, error) {
	header := http.Header{}
	for _, h := range mo.headers {
		name, value, ok := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: %q", ErrBadHeader, h)
		}
		header.Add(name, strings.TrimSpace(value))
	}

	body := []byte(mo.body)
	if mo.bodyFile != "" {
		data, err := os.ReadFile(mo.bodyFile)
		if err != nil {
			return nil, fmt.Errorf("read body file: %w", err)
		}
		body = data
	}

	return request.New(strings.ToUpper(mo.method), mo.url, header, body)
}

func writeMatchText(out io.Writer, outcome engine.Outcome, candidates []*stub.Mapping, listCandidates bool) error {
	if !outcome.Matched() {
		fmt.Fprintln(out, "no match")
	} else {
		m := outcome.Mapping
		resp := m.Response
		fmt.Fprintf(out, "matched %s (priority %d)\n", m.Label(), m.Priority)
		fmt.Fprintf(out, "HTTP %d %s\n", resp.Status(), http.StatusText(resp.Status()))

		headers := resp.Headers()
		names := make([]string, 0, len(headers))
		for name := range headers {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			for _, v := range headers[name] {
				fmt.Fprintf(out, "%s: %s\n", name, v)
			}
		}

		body, err := resp.PlainBody()
		if err != nil {
			return err
		}
		if len(body) > 0 {
			fmt.Fprintf(out, "\n%s\n", body)
		}
	}

	if listCandidates {
		fmt.Fprintf(out, "\ncandidates (%d):\n", len(candidates))
		for i, m := range candidates {
			fmt.Fprintf(out, "  %d. %s (priority %d)\n", i+1, m.Label(), m.Priority)
		}
	}
	return nil
}

type matchResult struct {
	Matched    bool              `json:"matched"`
	ID         string            `json:"id,omitempty"`
	Name       string            `json:"name,omitempty"`
	Priority   int               `json:"priority,omitempty"`
	Status     int               `json:"status,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       string            `json:"body,omitempty"`
	Candidates []string          `json:"candidates,omitempty"`
}

func writeMatchJSON(out io.Writer, outcome engine.Outcome, candidates []*stub.Mapping) error {
	result := matchResult{Matched: outcome.Matched()}
	if m := outcome.Mapping; m != nil {
		body, err := m.Response.PlainBody()
		if err != nil {
			return err
		}
		result.ID = m.ID
		result.Name = m.Name
		result.Priority = m.Priority
		result.Status = m.Response.Status()
		result.Body = string(body)
		if headers := m.Response.Headers(); len(headers) > 0 {
			result.Headers = make(map[string]string, len(headers))
			for name := range headers {
				result.Headers[name] = headers.Get(name)
			}
		}
	}
	for _, m := range candidates {
		result.Candidates = append(result.Candidates, m.ID)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
