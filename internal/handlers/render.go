package handlers

import (
	"fmt"
	"html/template"
	"net/url"
	"strconv"

	"github.com/tbrandon/loginhistory/internal/services"
	"github.com/tbrandon/loginhistory/internal/useragent"
)

// reportPageConfig carries the render-time switches derived from config and
// the caller's scopes.
type reportPageConfig struct {
	DateFormat string
	ShowIP     bool
	CanDelete  bool
}

// rowView is one table row prepared for the template
type rowView struct {
	ID         int64
	Username   string
	UserID     int64
	State      string
	Timestamp  string
	UnixTime   int64
	Successful bool
	IPAddress  string
	Summary    string
}

// reportPage is the full template payload
type reportPage struct {
	Rows       []rowView
	Total      int
	Page       int
	TotalPages int
	Limit      int
	ShowIP     bool
	CanDelete  bool
	Usernames  []string
	Filters    filterValues
	PrevURL    string
	NextURL    string
}

// filterValues echoes the submitted filter form back into its fields
type filterValues struct {
	Username   string
	UserAgent  string
	Successful string
	When       string
	DateFrom   string
	DateUntil  string
}

func buildReportPage(report *services.Report, usernames []string, params url.Values, cfg reportPageConfig) reportPage {
	rows := make([]rowView, 0, len(report.Rows))
	for i := range report.Rows {
		r := &report.Rows[i]
		view := rowView{
			ID:         r.Attempt.ID,
			Username:   r.Attempt.Username,
			UserID:     r.Attempt.UserID,
			State:      string(r.State),
			Timestamp:  r.Attempt.LoginAt.Format(cfg.DateFormat),
			UnixTime:   r.Attempt.LoginAt.Unix(),
			Successful: r.Attempt.Successful,
			Summary:    useragent.NoData,
		}
		if r.Attempt.UserAgent != nil {
			view.Summary = r.Summary.String()
		}
		if cfg.ShowIP && r.Attempt.IPAddress != nil {
			view.IPAddress = *r.Attempt.IPAddress
		}
		rows = append(rows, view)
	}

	page := reportPage{
		Rows:       rows,
		Total:      report.Total,
		Page:       report.Page,
		TotalPages: report.TotalPages(),
		Limit:      report.Limit,
		ShowIP:     cfg.ShowIP,
		CanDelete:  cfg.CanDelete,
		Usernames:  usernames,
		Filters: filterValues{
			Username:   params.Get("username"),
			UserAgent:  params.Get("user_agent"),
			Successful: params.Get("login_was_successful"),
			When:       params.Get("when"),
			DateFrom:   params.Get("date_from"),
			DateUntil:  params.Get("date_until"),
		},
	}

	if report.Page > 1 {
		page.PrevURL = pageURL(params, report.Page-1)
	}
	if report.Page < page.TotalPages {
		page.NextURL = pageURL(params, report.Page+1)
	}
	return page
}

// pageURL rebuilds the current query string with a different page number so
// pager links preserve the active filters and sort.
func pageURL(params url.Values, page int) string {
	next := url.Values{}
	for k, vs := range params {
		for _, v := range vs {
			next.Add(k, v)
		}
	}
	next.Set("page", strconv.Itoa(page))
	return fmt.Sprintf("/history?%s", next.Encode())
}

var reportTemplate = template.Must(template.New("report").Parse(reportHTML))

const reportHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Login History</title>
<style>
body { font-family: sans-serif; margin: 2rem; color: #222; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; padding: 0.4rem 0.6rem; text-align: left; }
th { background: #f0f0f0; }
tr.failed td { background: #fff4f4; }
form.filters { margin-bottom: 1rem; }
form.filters label { margin-right: 0.8rem; }
.pager { margin-top: 1rem; }
.outcome-success { color: #2d7a2d; }
.outcome-failure { color: #a33; }
</style>
</head>
<body>
<h1>Login History</h1>

<form class="filters" method="get" action="/history">
  <label>User
    <select name="username">
      <option value=""></option>
      {{- range .Usernames }}
      <option value="{{ . }}"{{ if eq . $.Filters.Username }} selected{{ end }}>{{ . }}</option>
      {{- end }}
    </select>
  </label>
  <label>User agent <input type="text" name="user_agent" value="{{ .Filters.UserAgent }}"></label>
  <label>Outcome
    <select name="login_was_successful">
      <option value=""></option>
      <option value="1"{{ if eq .Filters.Successful "1" }} selected{{ end }}>successful</option>
      <option value="0"{{ if eq .Filters.Successful "0" }} selected{{ end }}>failed</option>
    </select>
  </label>
  <label>Since
    <select name="when">
      <option value=""></option>
      <option value="1 DAY"{{ if eq .Filters.When "1 DAY" }} selected{{ end }}>1 day</option>
      <option value="1 WEEK"{{ if eq .Filters.When "1 WEEK" }} selected{{ end }}>1 week</option>
      <option value="1 MONTH"{{ if eq .Filters.When "1 MONTH" }} selected{{ end }}>1 month</option>
      <option value="1 YEAR"{{ if eq .Filters.When "1 YEAR" }} selected{{ end }}>1 year</option>
    </select>
  </label>
  <label>From <input type="date" name="date_from" value="{{ .Filters.DateFrom }}"></label>
  <label>Until <input type="date" name="date_until" value="{{ .Filters.DateUntil }}"></label>
  <button type="submit">Filter</button>
</form>

<p>{{ .Total }} attempt{{ if ne .Total 1 }}s{{ end }}, page {{ .Page }} of {{ .TotalPages }}</p>

<table>
<thead>
<tr>
  <th>User</th>
  <th>Time</th>
  <th>Outcome</th>
  {{- if .ShowIP }}
  <th>IP address</th>
  {{- end }}
  <th>Client</th>
  {{- if .CanDelete }}
  <th></th>
  {{- end }}
</tr>
</thead>
<tbody>
{{- range .Rows }}
<tr{{ if not .Successful }} class="failed"{{ end }}>
  <td>
    {{- if eq .State "active" }}<a href="/users/{{ .UserID }}">{{ .Username }}</a>
    {{- else if eq .State "deleted" }}<s>{{ .Username }}</s>
    {{- else }}<em>{{ .Username }}</em>{{ end -}}
  </td>
  <td data-timestamp="{{ .UnixTime }}">{{ .Timestamp }}</td>
  <td>{{ if .Successful }}<span class="outcome-success">successful</span>{{ else }}<span class="outcome-failure">failed</span>{{ end }}</td>
  {{- if $.ShowIP }}
  <td>{{ .IPAddress }}</td>
  {{- end }}
  <td>{{ .Summary }}</td>
  {{- if $.CanDelete }}
  <td><a href="/history/{{ .ID }}" class="delete-row" data-method="delete">delete</a></td>
  {{- end }}
</tr>
{{- else }}
<tr><td colspan="6"><em>No login attempts match the current filters.</em></td></tr>
{{- end }}
</tbody>
</table>

<div class="pager">
  {{- if .PrevURL }}<a href="{{ .PrevURL }}">&laquo; previous</a>{{ end }}
  {{- if .NextURL }} <a href="{{ .NextURL }}">next &raquo;</a>{{ end }}
</div>

</body>
</html>
`
