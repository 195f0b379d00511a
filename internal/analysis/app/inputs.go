package app

import (
	"io"
	"time"

	"Vic2Economy/internal/economy"
)

// DecodeInput 是一次存档上传。Size 是声明的字节数，用于字节进度；未知时填 0。
type DecodeInput struct {
	FileName string
	Size     int64
	Reader   io.Reader
	// Encoding 为空时用配置里的编码
	Encoding string
}

type ProductionInput struct {
	Countries       []string `json:"countries" mapstructure:"countries"`
	Goods           []string `json:"goods" mapstructure:"goods"`
	// OverseasPenalty 为空时用配置里的系数
	OverseasPenalty *float64 `json:"overseas_penalty,omitempty" mapstructure:"overseas_penalty"`
}

type PopulationInput struct {
	Countries []string `json:"countries" mapstructure:"countries"`
}

type EnemiesInput struct {
	Country string `json:"country" mapstructure:"country"`
}

// 查询结果都带上留档报告的 id

type ProductionOutput struct {
	ReportID string `json:"report_id"`
	*economy.ProductionResult
}

type PopulationOutput struct {
	ReportID string             `json:"report_id"`
	Totals   []economy.PopTotal `json:"totals"`
}

type PopNeedsOutput struct {
	ReportID string             `json:"report_id"`
	Good     string             `json:"good"`
	Needs    []economy.PopTotal `json:"needs"`
}

type EnemiesOutput struct {
	ReportID string   `json:"report_id"`
	Country  string   `json:"country"`
	Enemies  []string `json:"enemies"`
}

// Clock 和 IDGen 可替换，测试里固定时间和 id。
type (
	Clock func() time.Time
	IDGen func() string
)
