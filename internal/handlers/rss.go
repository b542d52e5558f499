package handlers

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"time"

	"github.com/tbrandon/loginhistory/internal/services"
)

// RSS 2.0 document structure

type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	GUID        string `xml:"guid"`
	PubDate     string `xml:"pubDate"`
}

// WriteRSS renders the report as an RSS 2.0 feed. Each row becomes one item
// titled after the outcome and the account, tagged with (deleted) or
// (nonexistent) when the account is gone.
func WriteRSS(w http.ResponseWriter, r *http.Request, report *services.Report) {
	base := baseURL(r)

	items := make([]rssItem, 0, len(report.Rows))
	for i := range report.Rows {
		row := &report.Rows[i]
		link := fmt.Sprintf("%s/history/%d", base, row.Attempt.ID)
		items = append(items, rssItem{
			Title:       rssTitle(row),
			Link:        link,
			Description: summaryText(row),
			GUID:        link,
			PubDate:     row.Attempt.LoginAt.Format(time.RFC1123Z),
		})
	}

	feed := rssFeed{
		Version: "2.0",
		Channel: rssChannel{
			Title:       "Login History",
			Link:        base + "/history",
			Description: "Recorded login attempts",
			Items:       items,
		},
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.Write([]byte(xml.Header))
	// The feed is assembled in memory; an encode failure here means the
	// client went away, nothing to recover.
	_ = xml.NewEncoder(w).Encode(feed)
}

func rssTitle(row *services.ReportRow) string {
	outcome := "Failed"
	if row.Attempt.Successful {
		outcome = "Successful"
	}

	title := fmt.Sprintf("%s login attempt for %s", outcome, row.Attempt.Username)
	switch row.State {
	case services.UserNonexistent:
		title += " (nonexistent)"
	case services.UserDeleted:
		title += " (deleted)"
	}
	if row.Attempt.IPAddress != nil {
		title += " from " + *row.Attempt.IPAddress
	}
	return title
}

func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
