// Package report writes the postings of a run to local files: a plain text
// table for people and a JSON snapshot for tooling.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"job_ingester/internal/domain"
)

// Writer implements service.ReportSink. An empty path disables that output.
type Writer struct {
	textPath     string
	snapshotPath string
	skills       []string
}

func New(textPath, snapshotPath string, skillColumns []string) *Writer {
	return &Writer{
		textPath:     textPath,
		snapshotPath: snapshotPath,
		skills:       skillColumns,
	}
}

// Snapshot is the JSON document written to the snapshot path.
type Snapshot struct {
	Stats    *domain.RunStats `json:"stats"`
	Postings []domain.Posting `json:"postings"`
}

// Write replaces both files with the content of this run. postings holds
// every extracted posting, stored or not.
func (w *Writer) Write(postings []domain.Posting, stats *domain.RunStats) error {
	if w.textPath != "" {
		if err := writeFile(w.textPath, func(out io.Writer) error {
			return w.writeTable(out, postings)
		}); err != nil {
			return fmt.Errorf("write table: %w", err)
		}
	}

	if w.snapshotPath != "" {
		if postings == nil {
			postings = []domain.Posting{}
		}
		if err := writeFile(w.snapshotPath, func(out io.Writer) error {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(Snapshot{Stats: stats, Postings: postings})
		}); err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
	}

	return nil
}

func (w *Writer) writeTable(out io.Writer, postings []domain.Posting) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	header := []string{"title", "company", "url", "days_since_publication", "years_experience"}
	header = append(header, w.skills...)
	header = append(header, "location", "publication_date", "date_added")
	if err := writeRow(tw, header); err != nil {
		return err
	}

	for _, p := range postings {
		years := ""
		if p.YearsExperience != nil {
			years = strconv.Itoa(*p.YearsExperience)
		}

		row := []string{p.Title, p.Company, p.URL, strconv.Itoa(p.DaysSincePublication), years}
		for _, col := range w.skills {
			row = append(row, strconv.FormatBool(p.Skills[col]))
		}
		row = append(row, p.Location, domain.FormatDate(p.PublicationDate), domain.FormatDate(p.DateAdded))
		if err := writeRow(tw, row); err != nil {
			return err
		}
	}

	return tw.Flush()
}

func writeRow(out io.Writer, cells []string) error {
	_, err := io.WriteString(out, strings.Join(cells, "\t")+"\n")
	return err
}

// writeFile writes through a temporary file in the same directory so readers
// never see a partial file.
func writeFile(path string, fill func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := fill(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}
