package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"jira-extract/internal/export"
	"jira-extract/internal/jira"
	"jira-extract/internal/pipeline"
	"jira-extract/internal/report"

	"github.com/natefinch/atomic"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	fetchSel    = jira.DefaultSelection()
	fetchQATeam bool
	fetchDays   int
	fetchOut    string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch issues once and print them or write an export file",
	Example: `  jira-extract fetch --type Bug --priority P0,P1 --out bugs.xlsx
  jira-extract fetch --clarification --qa-team
  jira-extract fetch --search "login" --days 14`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, client, err := loadClient()
		if err != nil {
			return err
		}

		sel := fetchSel
		if fetchQATeam {
			sel.Reporters = jira.DefaultQATeam()
		}
		if fetchDays > 0 {
			sel.StartDate, sel.EndDate = jira.DateRangeLastDays(time.Now(), fetchDays)
		}
		if err := sel.Validate(nil, client.GetStatuses(), client.GetPriorities()); err != nil {
			return err
		}

		res, err := pipeline.New(client).Fetch(cmd.Context(), sel)
		if err != nil {
			return fetchError(err)
		}
		if len(res.Rows) == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), "No issues found matching the selected filters.")
			return nil
		}

		if fetchOut == "" {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				JQL     string         `json:"jql"`
				Rows    report.RowSet  `json:"rows"`
				Summary report.Summary `json:"summary"`
			}{res.JQL, res.Rows, report.Summarize(res.Rows)})
		}
		return writeExport(fetchOut, res.Rows, res.FetchedAt)
	},
}

// fetchError adds a hint to gateway failures caused by local settings.
func fetchError(err error) error {
	switch {
	case jira.IsKind(err, jira.KindAuth):
		return fmt.Errorf("%w (check JIRA_EMAIL and JIRA_API_TOKEN)", err)
	case jira.IsKind(err, jira.KindNotFound):
		return fmt.Errorf("%w (check JIRA_PROJECT_KEY and JIRA_CLOUD_ID)", err)
	}
	return err
}

func writeExport(path string, rows report.RowSet, at time.Time) error {
	name := filepath.Base(path)
	if err := export.ValidateFilename(name); err != nil {
		return err
	}

	var (
		body []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx":
		body, err = export.ToExcel(rows, export.SheetName(at.Format("2006-01-02")))
	default:
		body, err = export.ToCSV(rows)
	}
	if err != nil {
		return err
	}

	if err := atomic.WriteFile(path, bytes.NewReader(body)); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	log.Info().Str("file", path).Int("rows", len(rows)).Msg("Export written")
	return nil
}

func init() {
	f := fetchCmd.Flags()
	f.StringSliceVar(&fetchSel.IssueTypes, "type", fetchSel.IssueTypes, "issue types")
	f.StringSliceVar(&fetchSel.Statuses, "status", fetchSel.Statuses, "statuses")
	f.StringSliceVar(&fetchSel.Priorities, "priority", fetchSel.Priorities, "priorities")
	f.StringSliceVar(&fetchSel.Reporters, "reporter", nil, "reporter display names (default all)")
	f.BoolVar(&fetchQATeam, "qa-team", false, "only issues reported by the QA team")
	f.StringVar(&fetchSel.StartDate, "start", "", "created on or after (YYYY-MM-DD)")
	f.StringVar(&fetchSel.EndDate, "end", "", "created on or before (YYYY-MM-DD)")
	f.IntVar(&fetchDays, "days", 0, "shorthand for --start/--end covering the last N days")
	f.BoolVar(&fetchSel.NoSprintOnly, "no-sprint", fetchSel.NoSprintOnly, "only issues without a sprint")
	f.BoolVar(&fetchSel.ClarificationOnly, "clarification", false, "only tasks awaiting clarification")
	f.StringVar(&fetchSel.SummarySearch, "search", "", "text the summary must contain")
	f.IntVar(&fetchSel.MaxResults, "max", fetchSel.MaxResults, "maximum results (10-500)")
	f.StringVarP(&fetchOut, "out", "o", "", "write .xlsx or .csv instead of printing JSON")
}
