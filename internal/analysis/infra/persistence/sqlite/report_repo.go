package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"Vic2Economy/internal/analysis/entity"
	"Vic2Economy/internal/analysis/infra/persistence/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS report (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	save_name TEXT NOT NULL DEFAULT '',
	kind TEXT NOT NULL,
	params TEXT NOT NULL DEFAULT '',
	result TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_report_session ON report(session_id, created_at);
`

const (
	OpGetReport  = "repo.report.Get"
	OpSaveReport = "repo.report.Save"
	OpListReport = "repo.report.ListBySession"
)

type ReportRepo struct {
	db *sqlx.DB
}

// NewReportRepo 建表后返回仓储。
func NewReportRepo(db *sqlx.DB) (*ReportRepo, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate report: %w", err)
	}
	return &ReportRepo{db: db}, nil
}

func (r *ReportRepo) Save(ctx context.Context, rep *entity.Report) error {
	if rep == nil {
		return nil
	}
	_, err := r.db.NamedExecContext(ctx, `INSERT OR REPLACE INTO report
		(id, session_id, save_name, kind, params, result, created_at)
		VALUES (:id, :session_id, :save_name, :kind, :params, :result, :created_at)`,
		model.ReportToRow(rep))
	if err != nil {
		return fmt.Errorf("%s report_id=%s: %w", OpSaveReport, rep.ID, err)
	}
	return nil
}

func (r *ReportRepo) Get(ctx context.Context, id string) (*entity.Report, error) {
	var m model.Report
	err := r.db.GetContext(ctx, &m, `SELECT id, session_id, save_name, kind, params, result, created_at FROM report WHERE id = ?`, id)
	switch {
	case err == nil:
		return model.RowToReport(&m), nil
	case errors.Is(err, sql.ErrNoRows):
		return nil, entity.ErrReportNotFound
	default:
		return nil, fmt.Errorf("%s report_id=%s: %w", OpGetReport, id, err)
	}
}

func (r *ReportRepo) ListBySession(ctx context.Context, sessionID entity.SessionID) ([]*entity.Report, error) {
	var rows []model.Report
	err := r.db.SelectContext(ctx, &rows, `SELECT id, session_id, save_name, kind, params, result, created_at
		FROM report WHERE session_id = ? ORDER BY created_at, id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%s session_id=%s: %w", OpListReport, sessionID, err)
	}
	out := make([]*entity.Report, 0, len(rows))
	for i := range rows {
		out = append(out, model.RowToReport(&rows[i]))
	}
	return out, nil
}
