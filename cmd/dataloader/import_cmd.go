package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/talentgrid/gateway/modules/dataimport/services"
)

type importOptions struct {
	File           string
	Entity         string
	BaseURL        string
	Token          string
	CookieName     string
	SkipDuplicates bool
	ImportNewOnly  bool
	UpdateExisting bool
	Labels         []string
}

type importRequest struct {
	EntityType       string            `json:"entityType"`
	Records          []map[string]any  `json:"records"`
	Options          services.Options  `json:"options"`
	FieldNameToLabel map[string]string `json:"fieldNameToLabel,omitempty"`
}

type importResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Summary *services.Summary `json:"summary"`
}

func newImportCmd() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import --file <path> --entity <type> --base-url <url> --token <token>",
		Short: "Parse a file and push its rows through the gateway import endpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateImportOptions(&opts); err != nil {
				return withCode(exitUsage, err)
			}
			labels, err := parseLabels(opts.Labels)
			if err != nil {
				return withCode(exitUsage, err)
			}

			result, err := parseFile(opts.File)
			if err != nil {
				return withCode(exitParse, err)
			}

			summary, err := pushImport(cmd.Context(), newHTTPClient(), &opts, labels, result.Records)
			if err != nil {
				return err
			}

			printSummary(cmd.OutOrStdout(), opts.Entity, summary)
			if summary.Failed > 0 {
				return withCode(exitRowFailures, fmt.Errorf("%d of %d rows failed", summary.Failed, summary.TotalRows))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.File, "file", "", "CSV or XLSX file to import")
	cmd.Flags().StringVar(&opts.Entity, "entity", "", "Entity type, e.g. leads or job-seekers")
	cmd.Flags().StringVar(&opts.BaseURL, "base-url", "http://localhost:3200", "Gateway base URL")
	cmd.Flags().StringVar(&opts.Token, "token", "", "Session token placed in the gateway auth cookie")
	cmd.Flags().StringVar(&opts.CookieName, "cookie-name", "token", "Name of the gateway auth cookie")
	cmd.Flags().BoolVar(&opts.SkipDuplicates, "skip-duplicates", false, "Skip rows whose unique field matches an existing record")
	cmd.Flags().BoolVar(&opts.ImportNewOnly, "import-new-only", false, "Only create records that do not exist yet")
	cmd.Flags().BoolVar(&opts.UpdateExisting, "update-existing", false, "Update matching records instead of skipping them")
	cmd.Flags().StringSliceVar(&opts.Labels, "labels", nil, "field=Label pairs shown in duplicate messages, repeatable")

	return cmd
}

func validateImportOptions(opts *importOptions) error {
	if strings.TrimSpace(opts.File) == "" {
		return errors.New("--file is required")
	}
	if strings.TrimSpace(opts.Entity) == "" {
		return errors.New("--entity is required")
	}
	if strings.TrimSpace(opts.BaseURL) == "" {
		return errors.New("--base-url is required")
	}
	if strings.TrimSpace(opts.Token) == "" {
		return errors.New("--token is required")
	}
	return nil
}

func parseLabels(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	labels := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		field, label, ok := strings.Cut(pair, "=")
		field, label = strings.TrimSpace(field), strings.TrimSpace(label)
		if !ok || field == "" || label == "" {
			return nil, fmt.Errorf("invalid --labels entry %q, want field=Label", pair)
		}
		labels[field] = label
	}
	return labels, nil
}

func pushImport(
	ctx context.Context,
	client *http.Client,
	opts *importOptions,
	labels map[string]string,
	records []map[string]any,
) (*services.Summary, error) {
	payload, err := json.Marshal(importRequest{
		EntityType: opts.Entity,
		Records:    records,
		Options: services.Options{
			SkipDuplicates: opts.SkipDuplicates,
			ImportNewOnly:  opts.ImportNewOnly,
			UpdateExisting: opts.UpdateExisting,
		},
		FieldNameToLabel: labels,
	})
	if err != nil {
		return nil, withCode(exitRequest, err)
	}

	target := strings.TrimRight(opts.BaseURL, "/") + "/api/admin/data-uploader/import"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return nil, withCode(exitRequest, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: opts.CookieName, Value: opts.Token})

	resp, err := client.Do(req)
	if err != nil {
		return nil, withCode(exitRequest, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, withCode(exitRequest, err)
	}

	var decoded importResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, withCode(exitRequest, fmt.Errorf("unexpected gateway response (status %d): %s", resp.StatusCode, snippet(body)))
	}
	if !decoded.Success || decoded.Summary == nil {
		message := decoded.Message
		if message == "" {
			message = snippet(body)
		}
		return nil, withCode(exitRequest, fmt.Errorf("gateway rejected the import (status %d): %s", resp.StatusCode, message))
	}
	return decoded.Summary, nil
}

func printSummary(out io.Writer, entity string, summary *services.Summary) {
	fmt.Fprintf(out, "Entity:     %s\n", entity)
	fmt.Fprintf(out, "Total rows: %d\n", summary.TotalRows)
	fmt.Fprintf(out, "Successful: %d\n", summary.Successful)
	fmt.Fprintf(out, "Failed:     %d\n", summary.Failed)
	for _, rowErr := range summary.Errors {
		fmt.Fprintf(out, "  row %d: %s\n", rowErr.Row, strings.Join(rowErr.Errors, "; "))
	}
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 300 {
		return s[:300] + "..."
	}
	return s
}
