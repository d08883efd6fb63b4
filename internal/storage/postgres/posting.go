package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"job_ingester/internal/domain"
)

const (
	jobsTable = "jobs"

	// keeps every statement under the 65535 bind parameter limit
	maxParams = 65535
)

var baseColumns = []string{"title", "company", "url", "days_since_publication", "years_experience"}

var tailColumns = []string{"location", "publication_date", "date_added"}

type PostingStore struct {
	db     *sqlx.DB
	skills []string
}

// NewPostingStore returns a store for the jobs table with one boolean column
// per skill identifier.
func NewPostingStore(db *sqlx.DB, skillColumns []string) *PostingStore {
	return &PostingStore{db: db, skills: skillColumns}
}

// EnsureSchema creates the jobs table and its key index when absent and adds
// columns for newly configured skills. Existing rows are never touched.
func (s *PostingStore) EnsureSchema(ctx context.Context) error {
	var sb strings.Builder
	sb.WriteString("CREATE TABLE IF NOT EXISTS " + jobsTable + " (\n")
	sb.WriteString("\trow_id BIGSERIAL PRIMARY KEY,\n")
	sb.WriteString("\ttitle TEXT NOT NULL,\n")
	sb.WriteString("\tcompany TEXT NOT NULL,\n")
	sb.WriteString("\turl TEXT,\n")
	sb.WriteString("\tdays_since_publication INTEGER,\n")
	sb.WriteString("\tyears_experience INTEGER,\n")
	for _, col := range s.skills {
		sb.WriteString("\t" + pq.QuoteIdentifier(col) + " BOOLEAN,\n")
	}
	sb.WriteString("\tlocation TEXT,\n")
	sb.WriteString("\tpublication_date TEXT,\n")
	sb.WriteString("\tdate_added TEXT NOT NULL,\n")
	sb.WriteString("\tCONSTRAINT jobs_title_company_date_added_key UNIQUE (title, company, date_added)\n")
	sb.WriteString(")")

	exec := GetExecutor(ctx, s.db)

	if _, err := exec.ExecContext(ctx, sb.String()); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	_, err := exec.ExecContext(ctx,
		"CREATE INDEX IF NOT EXISTS idx_jobs_title_company_date ON "+jobsTable+" (title, company, date_added)",
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	for _, col := range s.skills {
		_, err := exec.ExecContext(ctx,
			"ALTER TABLE "+jobsTable+" ADD COLUMN IF NOT EXISTS "+pq.QuoteIdentifier(col)+" BOOLEAN",
		)
		if err != nil {
			return fmt.Errorf("add skill column %s: %w", col, err)
		}
	}

	return nil
}

// ExistingKeys reads the identity key of every stored posting.
func (s *PostingStore) ExistingKeys(ctx context.Context) (map[domain.PostingKey]struct{}, error) {
	var keys []domain.PostingKey
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &keys,
		"SELECT title, company, date_added FROM "+jobsTable,
	)
	if err != nil {
		return nil, err
	}

	result := make(map[domain.PostingKey]struct{}, len(keys))
	for _, k := range keys {
		result[k] = struct{}{}
	}
	return result, nil
}

// InsertBatch appends postings and returns how many rows were written. Rows
// whose key is already present are skipped by the unique constraint.
func (s *PostingStore) InsertBatch(ctx context.Context, postings []domain.Posting) (int, error) {
	if len(postings) == 0 {
		return 0, nil
	}

	columns := s.columns()
	perStatement := maxParams / len(columns)

	inserted := 0
	for start := 0; start < len(postings); start += perStatement {
		end := min(start+perStatement, len(postings))
		n, err := s.insertChunk(ctx, columns, postings[start:end])
		if err != nil {
			return inserted, err
		}
		inserted += n
	}

	return inserted, nil
}

func (s *PostingStore) insertChunk(ctx context.Context, columns []string, postings []domain.Posting) (int, error) {
	var sb strings.Builder
	sb.WriteString("INSERT INTO " + jobsTable + " (")
	for i, col := range columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(pq.QuoteIdentifier(col))
	}
	sb.WriteString(") VALUES ")

	args := make([]interface{}, 0, len(postings)*len(columns))
	for i, p := range postings {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for j := range columns {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("$")
			sb.WriteString(strconv.Itoa(i*len(columns) + j + 1))
		}
		sb.WriteString(")")
		args = append(args, s.values(p)...)
	}
	sb.WriteString(" ON CONFLICT (title, company, date_added) DO NOTHING RETURNING row_id")

	rows, err := GetExecutor(ctx, s.db).QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		n++
	}
	return n, rows.Err()
}

func (s *PostingStore) columns() []string {
	cols := make([]string, 0, len(baseColumns)+len(s.skills)+len(tailColumns))
	cols = append(cols, baseColumns...)
	cols = append(cols, s.skills...)
	return append(cols, tailColumns...)
}

func (s *PostingStore) values(p domain.Posting) []interface{} {
	vals := make([]interface{}, 0, len(baseColumns)+len(s.skills)+len(tailColumns))
	vals = append(vals, p.Title, p.Company, p.URL, p.DaysSincePublication, p.YearsExperience)
	for _, col := range s.skills {
		vals = append(vals, p.Skills[col])
	}
	return append(vals,
		p.Location,
		domain.FormatDate(p.PublicationDate),
		domain.FormatDate(p.DateAdded),
	)
}
