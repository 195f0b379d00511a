package model

import (
	"time"

	"Vic2Economy/internal/analysis/entity"
)

// Report 是 mysql/sqlite 共用的行模型，gorm 和 sqlx 各取自己的 tag。
type Report struct {
	ID        string    `gorm:"column:id;type:varchar(64);primaryKey;not null;" db:"id"`
	SessionID string    `gorm:"column:session_id;type:varchar(64);index:idx_report_session;not null;" db:"session_id"`
	SaveName  string    `gorm:"column:save_name;type:varchar(255);" db:"save_name"`
	Kind      string    `gorm:"column:kind;type:varchar(32);not null;" db:"kind"`
	Params    string    `gorm:"column:params;type:text;" db:"params"`
	Result    string    `gorm:"column:result;type:longtext;" db:"result"`
	CreatedAt time.Time `gorm:"column:created_at;type:datetime(3);index:idx_report_session;not null;" db:"created_at"`
}

func (r *Report) TableName() string {
	return "report"
}

// ReportDoc 是 mongodb 文档，参数和结果以字符串保存，避免和 bson 的数字类型互转。
type ReportDoc struct {
	ID        string    `bson:"_id"`
	SessionID string    `bson:"session_id"`
	SaveName  string    `bson:"save_name"`
	Kind      string    `bson:"kind"`
	Params    string    `bson:"params"`
	Result    string    `bson:"result"`
	CreatedAt time.Time `bson:"created_at"`
}

func ReportToRow(r *entity.Report) *Report {
	return &Report{
		ID:        r.ID,
		SessionID: r.SessionID,
		SaveName:  r.SaveName,
		Kind:      string(r.Kind),
		Params:    string(r.Params),
		Result:    string(r.Result),
		CreatedAt: r.CreatedAt.UTC(),
	}
}

func RowToReport(m *Report) *entity.Report {
	return &entity.Report{
		ID:        m.ID,
		SessionID: m.SessionID,
		SaveName:  m.SaveName,
		Kind:      entity.ReportKind(m.Kind),
		Params:    []byte(m.Params),
		Result:    []byte(m.Result),
		CreatedAt: m.CreatedAt.UTC(),
	}
}

func ReportToDoc(r *entity.Report) ReportDoc {
	row := ReportToRow(r)
	return ReportDoc(*row)
}

func DocToReport(d ReportDoc) *entity.Report {
	row := Report(d)
	return RowToReport(&row)
}
