package report

// Row is one flattened, display-ready record derived from a Jira issue.
type Row struct {
	EpicKey     string `json:"epic_key"`
	EpicURL     string `json:"epic_url"`
	IssueKey    string `json:"issue_key"`
	IssueURL    string `json:"issue_url"`
	Summary     string `json:"summary"`
	Reporter    string `json:"reporter"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
	CreatedDate string `json:"created_date"`
	Comments    string `json:"comments"`
}

// RowSet is an ordered sequence of rows. Order is meaningful and stages never re-sort it.
type RowSet []Row

// Column headers shared by the table view and the exporters.
const (
	ColEpic     = "Epic/Story"
	ColEpicURL  = "Epic URL"
	ColIssueKey = "Issue key"
	ColIssueURL = "Issue URL"
	ColSummary  = "Summary"
	ColReporter = "Reporter"
	ColPriority = "Priority"
	ColStatus   = "QA Status"
	ColCreated  = "Created Date"
	ColComments = "Comments"
)

// DisplayColumns are the columns shown to users; the URL columns only back hyperlinks.
var DisplayColumns = []string{ColEpic, ColIssueKey, ColSummary, ColReporter, ColPriority, ColStatus, ColCreated, ColComments}

// Values returns the row's cells in DisplayColumns order.
func (r Row) Values() []string {
	return []string{r.EpicKey, r.IssueKey, r.Summary, r.Reporter, r.Priority, r.Status, r.CreatedDate, r.Comments}
}
