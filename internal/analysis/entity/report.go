package entity

import (
	"encoding/json"
	"errors"
	"time"
)

var ErrReportNotFound = errors.New("report not found")

type ReportKind string

const (
	ReportProduction ReportKind = "production"
	ReportPopulation ReportKind = "population"
	ReportPopNeeds   ReportKind = "pop_needs"
	ReportEnemies    ReportKind = "enemies"
)

// Report 是一次查询的留档：请求参数和结果都以 JSON 保存，便于不同存储统一落库。
type Report struct {
	ID        string          `json:"id"`
	SessionID SessionID       `json:"session_id"`
	SaveName  string          `json:"save_name"`
	Kind      ReportKind      `json:"kind"`
	Params    json.RawMessage `json:"params"`
	Result    json.RawMessage `json:"result"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewReport 序列化参数和结果。
func NewReport(id string, s LoadStatus, kind ReportKind, params, result any, now time.Time) (*Report, error) {
	p, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	r, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	return &Report{
		ID:        id,
		SessionID: s.SessionID,
		SaveName:  s.FileName,
		Kind:      kind,
		Params:    p,
		Result:    r,
		CreatedAt: now.UTC(),
	}, nil
}

// Clone 深拷贝，缓存和仓储之间传递时避免共享底层字节。
func (r *Report) Clone() *Report {
	if r == nil {
		return nil
	}
	out := *r
	out.Params = append(json.RawMessage(nil), r.Params...)
	out.Result = append(json.RawMessage(nil), r.Result...)
	return &out
}
