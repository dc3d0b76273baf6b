package dashboard

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"jira-extract/internal/auth"
	"jira-extract/internal/export"
	"jira-extract/internal/jira"
	"jira-extract/internal/metrics"
	"jira-extract/internal/report"

	"github.com/rs/zerolog/log"
)

const (
	presetBugs          = "bugs"
	presetClarification = "clarification"
	presetAllTypes      = "all"
	presetCustom        = "custom"

	reportersAll    = "all"
	reportersQA     = "qa"
	reportersCustom = "custom"

	defaultDateSpanDays = 30
	maxReporterCards    = 5
)

// pageData feeds both templates.
type pageData struct {
	User      string
	CSRF      string
	Remaining string
	Project   string

	Options      *filterOptions
	Sel          jira.FilterSelection
	Preset       string
	Mode         string
	UseDate      bool
	DefaultStart string
	DefaultEnd   string

	HasData     bool
	Fetched     int
	Rows        report.RowSet
	Summary     report.Summary
	TopReporter *report.Count
	Reporters   []report.Count
	Columns     []string
	JQL         string
	FetchedAt   string
	Search      string

	Error  string
	Notice string
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) loginPage(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if _, ok := s.sessions.Get(c.Value); ok {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
	}
	s.render(w, http.StatusOK, "login.html", pageData{})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	sess, err := s.sessions.Login(username, password)
	if err != nil {
		s.render(w, http.StatusUnauthorized, "login.html", pageData{Error: "Invalid username or password"})
		return
	}
	s.setCookie(w, sess)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	s.sessions.Logout(sess.ID)
	s.clearCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// index renders the filters and, when data was fetched, the searchable results table.
func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	data := s.basePage(r, sess)

	if sess.HasData() {
		rows, _, _, _ := sess.Snapshot()
		search := strings.TrimSpace(r.URL.Query().Get("q"))
		filtered := rows
		if search != "" {
			filtered = report.Search(rows, search)
		}
		sess.SetFiltered(filtered)
		data.Search = search
		s.fillResults(&data, sess)
	}
	s.render(w, http.StatusOK, "dashboard.html", data)
}

func (s *Server) fetch(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	opts := s.filterOptions(r.Context())

	sel, preset, mode, useDate := parseSelection(r, opts)
	sess.SetSelection(sel)

	data := s.basePage(r, sess)
	data.Preset, data.Mode, data.UseDate = preset, mode, useDate

	if err := sel.Validate(opts.IssueTypes, opts.Statuses, opts.Priorities); err != nil {
		data.Error = err.Error()
		s.render(w, http.StatusBadRequest, "dashboard.html", data)
		return
	}

	res, err := s.fetcher.Fetch(r.Context(), sel)
	if err != nil {
		log.Error().Err(err).Str("user", sess.Username).Msg("Fetch failed")
		data.Error = userMessage(err)
		s.render(w, http.StatusBadGateway, "dashboard.html", data)
		return
	}

	sess.SetData(res.Rows, res.JQL, res.FetchedAt)
	if len(res.Rows) == 0 {
		data.Notice = "No issues found matching the selected filters."
	} else {
		data.Notice = fmt.Sprintf("Fetched %d issues.", len(res.Rows))
	}
	s.fillResults(&data, sess)
	data.Fetched = res.Fetched
	s.render(w, http.StatusOK, "dashboard.html", data)
}

func (s *Server) exportXLSX(w http.ResponseWriter, r *http.Request) {
	s.serveExport(w, r, "xlsx", export.MimeXLSX, func(rows report.RowSet) ([]byte, error) {
		return export.ToExcel(rows, export.SheetName(s.now().Format("2006-01-02")))
	})
}

func (s *Server) exportCSV(w http.ResponseWriter, r *http.Request) {
	s.serveExport(w, r, "csv", export.MimeCSV, export.ToCSV)
}

func (s *Server) serveExport(w http.ResponseWriter, r *http.Request, format, mime string, encode func(report.RowSet) ([]byte, error)) {
	sess := sessionFrom(r.Context())
	_, filtered, _, _ := sess.Snapshot()
	if len(filtered) == 0 {
		http.Error(w, "No data to export. Fetch issues first.", http.StatusBadRequest)
		return
	}

	base := r.URL.Query().Get("name")
	if base == "" {
		base = export.DefaultBaseName
	}
	name := export.Filename(base, format, r.URL.Query().Get("timestamp") != "0", s.now())
	if err := export.ValidateFilename(name); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	body, err := encode(filtered)
	if err != nil {
		log.Error().Err(err).Str("format", format).Msg("Export failed")
		http.Error(w, "Export failed", http.StatusInternalServerError)
		return
	}

	metrics.Exports.WithLabelValues(format).Inc()
	log.Info().Str("user", sess.Username).Str("file", name).Int("rows", len(filtered)).Msg("Export served")

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	_, _ = w.Write(body)
}

func (s *Server) basePage(r *http.Request, sess *auth.Session) pageData {
	start, end := jira.DateRangeLastDays(s.now(), defaultDateSpanDays)
	sel := sess.Selection()
	data := pageData{
		User:         sess.Username,
		CSRF:         sess.CSRFToken,
		Remaining:    s.sessions.Remaining(sess).Truncate(time.Minute).String(),
		Project:      s.client.ProjectKey(),
		Options:      s.filterOptions(r.Context()),
		Sel:          sel,
		Preset:       presetCustom,
		Mode:         reportersAll,
		UseDate:      sel.StartDate != "" || sel.EndDate != "",
		DefaultStart: start,
		DefaultEnd:   end,
		Columns:      report.DisplayColumns,
	}
	if len(sel.Reporters) > 0 {
		data.Mode = reportersCustom
	}
	return data
}

func (s *Server) fillResults(data *pageData, sess *auth.Session) {
	rows, filtered, jql, at := sess.Snapshot()
	data.HasData = rows != nil
	data.Fetched = len(rows)
	data.Rows = filtered
	data.Summary = report.Summarize(filtered)
	if top, ok := report.Top(data.Summary.ByReporter); ok {
		data.TopReporter = &top
	}
	data.Reporters = report.Limit(data.Summary.ByReporter, maxReporterCards)
	data.JQL = jql
	if !at.IsZero() {
		data.FetchedAt = at.Format("2006-01-02 15:04:05")
	}
}

// parseSelection maps the filter form onto a FilterSelection, resolving presets.
func parseSelection(r *http.Request, opts *filterOptions) (sel jira.FilterSelection, preset, mode string, useDate bool) {
	_ = r.ParseForm()
	f := r.PostForm

	preset = f.Get("preset")
	switch preset {
	case presetBugs:
		sel.IssueTypes = []string{"Bug"}
	case presetClarification:
		sel.IssueTypes = []string{"Task"}
	case presetAllTypes:
		sel.IssueTypes = opts.IssueTypes
	default:
		preset = presetCustom
		sel.IssueTypes = f["issue_types"]
	}

	sel.Statuses = f["statuses"]
	sel.Priorities = f["priorities"]

	mode = f.Get("reporter_mode")
	switch mode {
	case reportersQA:
		sel.Reporters = opts.QATeam
	case reportersCustom:
		sel.Reporters = f["reporters"]
	default:
		mode = reportersAll
	}

	useDate = f.Get("use_dates") == "on"
	if useDate {
		sel.StartDate = f.Get("start_date")
		sel.EndDate = f.Get("end_date")
	}

	sel.NoSprintOnly = f.Get("no_sprint_only") == "on"
	sel.ClarificationOnly = f.Get("clarification_only") == "on"
	sel.SummarySearch = strings.TrimSpace(f.Get("summary_search"))

	sel.MaxResults = 100
	if n, err := strconv.Atoi(f.Get("max_results")); err == nil {
		sel.MaxResults = jira.ClampMaxResults(n)
	}
	return sel, preset, mode, useDate
}

// userMessage unwraps gateway errors to the message meant for people.
func userMessage(err error) string {
	var apiErr *jira.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	var vErr *jira.ValidationError
	if errors.As(err, &vErr) {
		return vErr.Error()
	}
	return "Unexpected error while fetching issues."
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		log.Error().Err(err).Str("template", name).Msg("Template render failed")
	}
}
