// Package export renders issue lists as CSV for download. The format quotes
// every field (embedded quotes doubled) and flattens newlines to spaces so a
// multi-line description stays on one row.
package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"civicsync/models"
)

var csvHeader = []string{
	"ID", "Type", "Description", "Location", "Latitude", "Longitude",
	"Votes", "Priority", "Status", "Department", "Expense", "Created At",
}

// createdAtLayout is a local-time ISO string, matching what the board UI
// shows on issue cards.
const createdAtLayout = "2006-01-02T15:04:05"

// WriteCSV streams the given issues, in order, as CSV rows after a fixed
// header. The caller chooses filtering and ordering beforehand.
func WriteCSV(w io.Writer, issues []models.IssueWithVotes) error {
	if err := writeRow(w, csvHeader); err != nil {
		return err
	}
	for _, iv := range issues {
		row := []string{
			iv.ID.Hex(),
			iv.Type,
			iv.Description,
			iv.Location,
			strconv.FormatFloat(iv.Latitude, 'f', -1, 64),
			strconv.FormatFloat(iv.Longitude, 'f', -1, 64),
			strconv.FormatInt(iv.Votes, 10),
			string(iv.Priority),
			string(iv.Status),
			iv.Department,
			strconv.FormatFloat(iv.Expense, 'f', -1, 64),
			iv.CreatedAt.Local().Format(createdAtLayout),
		}
		if err := writeRow(w, row); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(w io.Writer, fields []string) error {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = quoteField(f)
	}
	_, err := fmt.Fprintf(w, "%s\n", strings.Join(quoted, ","))
	return err
}

// quoteField flattens newlines to spaces, doubles embedded quotes and wraps
// the value in quotes unconditionally.
func quoteField(v string) string {
	v = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(v)
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}
