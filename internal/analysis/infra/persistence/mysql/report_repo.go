package mysql

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"Vic2Economy/internal/analysis/entity"
	"Vic2Economy/internal/analysis/infra/persistence/model"
)

const (
	OpGetReport  = "repo.report.Get"
	OpSaveReport = "repo.report.Save"
	OpListReport = "repo.report.ListBySession"
)

type ReportRepo struct {
	db *gorm.DB
}

func NewReportRepo(db *gorm.DB) *ReportRepo {
	return &ReportRepo{db: db}
}

// Migrate 建表；报告表结构简单，直接交给 AutoMigrate。
func (r *ReportRepo) Migrate() error {
	return r.db.AutoMigrate(&model.Report{})
}

func (r *ReportRepo) WithTx(tx *gorm.DB) *ReportRepo {
	return &ReportRepo{db: tx}
}

func (r *ReportRepo) Save(ctx context.Context, rep *entity.Report) error {
	if rep == nil {
		return nil
	}
	m := model.ReportToRow(rep)
	// 同 id 重写时整行覆盖
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(m).Error
	if err != nil {
		return fmt.Errorf("%s report_id=%s: %w", OpSaveReport, rep.ID, err)
	}
	return nil
}

func (r *ReportRepo) Get(ctx context.Context, id string) (*entity.Report, error) {
	var m model.Report
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error

	switch {
	case err == nil:
		return model.RowToReport(&m), nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, entity.ErrReportNotFound
	default:
		return nil, fmt.Errorf("%s report_id=%s: %w", OpGetReport, id, err)
	}
}

func (r *ReportRepo) ListBySession(ctx context.Context, sessionID entity.SessionID) ([]*entity.Report, error) {
	var rows []model.Report
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%s session_id=%s: %w", OpListReport, sessionID, err)
	}
	out := make([]*entity.Report, 0, len(rows))
	for i := range rows {
		out = append(out, model.RowToReport(&rows[i]))
	}
	return out, nil
}
