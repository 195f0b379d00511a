package app

type Reason struct {
	Code    string
	Message string
}

func (r Reason) ReasonCode() string {
	return r.Code
}

func NewReason(c, m string) Reason {
	return Reason{Code: c, Message: m}
}

var (
	// 参数校验失败的细分原因
	ReasonEmptyCountries   = NewReason("EMPTY_COUNTRIES", "未选择国家")
	ReasonEmptyGoods       = NewReason("EMPTY_GOODS", "未选择商品")
	ReasonEmptyGood        = NewReason("EMPTY_GOOD", "未指定商品")
	ReasonBadPenalty       = NewReason("BAD_OVERSEAS_PENALTY", "海外惩罚系数需在 0~1 之间")
	ReasonBadPlurality     = NewReason("BAD_PLURALITY", "多元化需在 0~100 之间")
	ReasonBadInventions    = NewReason("BAD_INVENTIONS", "发明数不能为负")
	ReasonEmptySave        = NewReason("EMPTY_SAVE", "未上传存档")
	ReasonBadEncoding      = NewReason("BAD_ENCODING", "不支持的存档编码")
	ReasonBadStateDefs     = NewReason("BAD_STATE_DEFINITIONS", "省份不在任何州定义里")
	ReasonMissingDataset   = NewReason("MISSING_DATASET", "规则数据缺失")
	ReasonStreamBroken     = NewReason("STREAM_BROKEN", "存档读取中断")
	ReasonReportRepoFailed = NewReason("REPORT_REPO_FAILED", "报告存储库不可用")
)
