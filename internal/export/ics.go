// Package export renders a day's blocks as an iCalendar to-do list.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shekified/life-tracker/internal/clock"
	"github.com/shekified/life-tracker/internal/model"
)

const (
	icsDateLayout  = "20060102"
	icsStampLayout = "20060102T150405Z"
	prodID         = "-//LifeTracker//Blocks Export//EN"
)

// BuildDayICS builds a VCALENDAR with one VTODO per block on date. Blocks on
// other dates are ignored; an empty day yields a calendar with no todos.
func BuildDayICS(blocks []model.Block, date string, now time.Time) (string, error) {
	day, err := clock.ParseDate(date)
	if err != nil {
		return "", fmt.Errorf("export date must be YYYY-MM-DD: %w", err)
	}

	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:" + prodID,
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
	}
	stamp := now.UTC().Format(icsStampLayout)
	for _, b := range blocks {
		if b.Date != date {
			continue
		}
		lines = append(lines, todoLines(b, day, stamp)...)
	}
	lines = append(lines, "END:VCALENDAR", "")

	return strings.Join(lines, "\r\n"), nil
}

// WriteDayICS is BuildDayICS streamed to w.
func WriteDayICS(w io.Writer, blocks []model.Block, date string, now time.Time) error {
	body, err := BuildDayICS(blocks, date, now)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, body)
	return err
}

func todoLines(b model.Block, day time.Time, stamp string) []string {
	title := strings.TrimSpace(b.Title)
	if title == "" {
		title = "Untitled block"
	}

	out := []string{
		"BEGIN:VTODO",
		"UID:" + escapeICSText(fmt.Sprintf("block-%s@lifetracker", b.ID)),
		"DTSTAMP:" + stamp,
		"SUMMARY:" + escapeICSText(title),
		"DUE;VALUE=DATE:" + day.Format(icsDateLayout),
	}
	if b.Category != "" {
		out = append(out, "CATEGORIES:"+escapeICSText(string(b.Category)))
	}
	if b.Completed {
		out = append(out, "STATUS:COMPLETED")
	} else {
		out = append(out, "STATUS:NEEDS-ACTION")
	}
	if b.IsRecurring {
		out = append(out, "RRULE:FREQ=DAILY;INTERVAL=1")
	}
	return append(out, "END:VTODO")
}

func escapeICSText(s string) string {
	repl := strings.NewReplacer(
		"\\", "\\\\",
		";", "\\;",
		",", "\\,",
		"\r\n", "\\n",
		"\n", "\\n",
		"\r", "\\n",
	)
	return repl.Replace(s)
}
