package cases

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medpilot/medpilot/internal/db"
)

// Store persists case records and answers similarity and statistics
// queries. Writes for distinct cases are independent inserts; SQLite
// serializes them internally.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Save inserts a case record. If rec.ID is empty a UUID is generated.
// The returned record carries the assigned ID and timestamp.
func (s *Store) Save(ctx context.Context, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.RiskLevel == "" {
		rec.RiskLevel = RiskUnknown
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return rec, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO cases (id, created_at, user_role, risk_level, confidence, sensitive_content, validated)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.CreatedAt.Format(time.RFC3339),
		string(rec.UserRole),
		string(rec.RiskLevel),
		rec.Confidence,
		boolToInt(rec.SensitiveContent),
		boolToInt(rec.Validated),
	)
	if err != nil {
		return rec, fmt.Errorf("inserting case: %w", err)
	}

	for _, sym := range rec.Symptoms {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO case_symptoms (case_id, symptom) VALUES (?, ?)`,
			rec.ID, strings.ToLower(strings.TrimSpace(sym)),
		); err != nil {
			return rec, fmt.Errorf("inserting symptom %q: %w", sym, err)
		}
	}

	for _, d := range rec.Diagnoses {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO case_diagnoses (case_id, diagnosis, confidence) VALUES (?, ?, ?)`,
			rec.ID, strings.ToLower(strings.TrimSpace(d.Name)), d.Confidence,
		); err != nil {
			return rec, fmt.Errorf("inserting diagnosis %q: %w", d.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return rec, fmt.Errorf("committing case: %w", err)
	}
	return rec, nil
}

// Get retrieves a single case record by ID.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, user_role, risk_level, confidence, sensitive_content, validated
		FROM cases WHERE id = ?`, id)

	rec, err := scanRecord(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadDetails(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// MarkValidated records a human sign-off on a stored case.
func (s *Store) MarkValidated(ctx context.Context, id string, valid bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE cases SET validated = ? WHERE id = ?`, boolToInt(valid), id)
	if err != nil {
		return fmt.Errorf("updating validation status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FindSimilar returns stored cases ranked by the number of symptoms they
// share with the query. Symptom matching is exact after normalization.
func (s *Store) FindSimilar(ctx context.Context, symptoms []string, limit int) ([]SimilarCase, error) {
	if len(symptoms) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 5
	}

	placeholders := make([]string, len(symptoms))
	args := make([]any, 0, len(symptoms)+1)
	for i, sym := range symptoms {
		placeholders[i] = "?"
		args = append(args, strings.ToLower(strings.TrimSpace(sym)))
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT c.id, c.created_at, c.user_role, c.risk_level, c.confidence,
		       c.sensitive_content, c.validated, COUNT(cs.symptom) AS matching
		FROM cases c
		JOIN case_symptoms cs ON cs.case_id = c.id
		WHERE cs.symptom IN (%s)
		GROUP BY c.id
		ORDER BY matching DESC, c.created_at DESC
		LIMIT ?`, strings.Join(placeholders, ","))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying similar cases: %w", err)
	}
	defer rows.Close()

	var results []SimilarCase
	for rows.Next() {
		var (
			rec                  Record
			createdAt            string
			role, risk           string
			sensitive, validated int
			matching             int
		)
		if err := rows.Scan(&rec.ID, &createdAt, &role, &risk, &rec.Confidence,
			&sensitive, &validated, &matching); err != nil {
			return nil, fmt.Errorf("scanning similar case: %w", err)
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		rec.UserRole = Role(role)
		rec.RiskLevel = RiskLevel(risk)
		rec.SensitiveContent = sensitive != 0
		rec.Validated = validated != 0
		results = append(results, SimilarCase{Record: rec, MatchingSymptoms: matching})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range results {
		if err := s.loadDetails(ctx, &results[i].Record); err != nil {
			return nil, err
		}
	}
	return results, nil
}

// FindComorbidities returns diagnoses that co-occur with the given
// diagnosis across stored cases, ordered by co-occurrence count.
func (s *Store) FindComorbidities(ctx context.Context, diagnosis string) ([]Comorbidity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d2.diagnosis, COUNT(*) AS co_occurrence
		FROM case_diagnoses d1
		JOIN case_diagnoses d2 ON d2.case_id = d1.case_id AND d2.diagnosis <> d1.diagnosis
		WHERE d1.diagnosis = ?
		GROUP BY d2.diagnosis
		ORDER BY co_occurrence DESC`,
		strings.ToLower(strings.TrimSpace(diagnosis)))
	if err != nil {
		return nil, fmt.Errorf("querying comorbidities: %w", err)
	}
	defer rows.Close()

	var results []Comorbidity
	for rows.Next() {
		var c Comorbidity
		if err := rows.Scan(&c.Name, &c.CoOccurrence); err != nil {
			return nil, fmt.Errorf("scanning comorbidity: %w", err)
		}
		results = append(results, c)
	}
	return results, rows.Err()
}

// Statistics returns aggregate counts over the case database.
func (s *Store) Statistics(ctx context.Context) (*Statistics, error) {
	var stats Statistics
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM cases),
			(SELECT COUNT(DISTINCT symptom) FROM case_symptoms),
			(SELECT COUNT(DISTINCT diagnosis) FROM case_diagnoses),
			(SELECT COUNT(DISTINCT case_id) FROM case_diagnoses)`,
	).Scan(&stats.TotalCases, &stats.TotalSymptoms, &stats.TotalDiagnoses, &stats.CasesWithDiagnosis)
	if err != nil {
		return nil, fmt.Errorf("querying statistics: %w", err)
	}
	return &stats, nil
}

func (s *Store) loadDetails(ctx context.Context, rec *Record) error {
	symRows, err := s.db.QueryContext(ctx,
		`SELECT symptom FROM case_symptoms WHERE case_id = ? ORDER BY symptom`, rec.ID)
	if err != nil {
		return fmt.Errorf("loading symptoms: %w", err)
	}
	defer symRows.Close()

	rec.Symptoms = []string{}
	for symRows.Next() {
		var sym string
		if err := symRows.Scan(&sym); err != nil {
			return err
		}
		rec.Symptoms = append(rec.Symptoms, sym)
	}
	if err := symRows.Err(); err != nil {
		return err
	}

	diagRows, err := s.db.QueryContext(ctx,
		`SELECT diagnosis, confidence FROM case_diagnoses WHERE case_id = ? ORDER BY confidence DESC, diagnosis`, rec.ID)
	if err != nil {
		return fmt.Errorf("loading diagnoses: %w", err)
	}
	defer diagRows.Close()

	for diagRows.Next() {
		var d Diagnosis
		if err := diagRows.Scan(&d.Name, &d.Confidence); err != nil {
			return err
		}
		rec.Diagnoses = append(rec.Diagnoses, d)
	}
	return diagRows.Err()
}

func scanRecord(row *sql.Row) (*Record, error) {
	var (
		rec                  Record
		createdAt            string
		role, risk           string
		sensitive, validated int
	)
	err := row.Scan(&rec.ID, &createdAt, &role, &risk, &rec.Confidence, &sensitive, &validated)
	if err != nil {
		return nil, err
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	rec.UserRole = Role(role)
	rec.RiskLevel = RiskLevel(risk)
	rec.SensitiveContent = sensitive != 0
	rec.Validated = validated != 0
	return &rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
