package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/cuse/internal/output"
)

// putBatchSize is the number of file records written per transaction.
const putBatchSize = 200

type putOptions struct {
	index string
	id    string
	file  string
}

func newPutCmd(root *rootOptions) *cobra.Command {
	var opts putOptions

	cmd := &cobra.Command{
		Use:   "put --index NAME (--id ID field=value... | --file FILE)",
		Short: "Register a record in an index",
		Long: `Store a record and register it in the named index, replacing any
record with the same id.

With --file, records are read as JSON lines of the form
  {"id": "p1", "fields": {"name": "Ada", "city": "London"}}
Use "-" to read from stdin.`,
		Example: `  cuse put --index people --id p1 name=Ada city=London
  cuse put --index people --file people.jsonl`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPut(cmd.Context(), cmd, root, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.index, "index", "", "Index name (required)")
	cmd.Flags().StringVar(&opts.id, "id", "", "Record id")
	cmd.Flags().StringVar(&opts.file, "file", "", "Read JSON-lines records from a file")
	_ = cmd.MarkFlagRequired("index")
	cmd.MarkFlagsMutuallyExclusive("id", "file")

	return cmd
}

func runPut(ctx context.Context, cmd *cobra.Command, root *rootOptions, opts putOptions, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var records []Record
	switch {
	case opts.file != "":
		if len(args) > 0 {
			return fmt.Errorf("field arguments cannot be combined with --file")
		}
		in, closeIn, err := openInput(cmd, opts.file)
		if err != nil {
			return err
		}
		defer closeIn()
		records, err = readRecords(in, opts.index)
		if err != nil {
			return err
		}
	case opts.id != "":
		fields, err := parseFields(args)
		if err != nil {
			return err
		}
		records = []Record{{Index: opts.index, ID: opts.id, Fields: fields}}
	default:
		return fmt.Errorf("either --id or --file is required")
	}

	a, err := openApp(root.cfg, root.logger, opts.index)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	out := output.New(cmd.OutOrStdout())
	for start := 0; start < len(records); start += putBatchSize {
		end := start + putBatchSize
		if end > len(records) {
			end = len(records)
		}
		if err := a.put(ctx, records[start:end]); err != nil {
			return err
		}
		if opts.file != "" {
			out.Progress(end, len(records), "Registering records")
		}
	}

	if len(records) == 1 {
		out.Successf("Registered %s in %s", records[0].ID, opts.index)
	} else {
		out.Successf("Registered %d records in %s", len(records), opts.index)
	}
	return nil
}

// parseFields parses field=value arguments. The value may contain '='.
func parseFields(args []string) (map[string]string, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("at least one field=value argument is required")
	}

	fields := make(map[string]string, len(args))
	for _, arg := range args {
		field, value, ok := strings.Cut(arg, "=")
		field = strings.TrimSpace(field)
		if !ok || field == "" {
			return nil, fmt.Errorf("invalid field %q: expected field=value", arg)
		}
		fields[field] = value
	}
	return fields, nil
}

// fileRecord is one JSON line of a --file import.
type fileRecord struct {
	ID     string            `json:"id"`
	Fields map[string]string `json:"fields"`
}

// readRecords decodes JSON-lines records, skipping blank lines.
func readRecords(r io.Reader, index string) ([]Record, error) {
	var records []Record
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var fr fileRecord
		if err := json.Unmarshal([]byte(text), &fr); err != nil {
			return nil, fmt.Errorf("line %d: invalid record: %w", line, err)
		}
		if fr.ID == "" {
			return nil, fmt.Errorf("line %d: record has no id", line)
		}
		records = append(records, Record{Index: index, ID: fr.ID, Fields: fr.Fields})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no records found")
	}
	return records, nil
}

// openInput opens path, or the command's stdin for "-".
func openInput(cmd *cobra.Command, path string) (io.Reader, func(), error) {
	if path == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, func() { _ = f.Close() }, nil
}
