package pdx

// Phase 是解码进度的阶段，两阶段严格有序：先读字节，再解析行。
type Phase uint8

const (
	PhaseRead Phase = iota + 1
	PhaseParse
)

func (p Phase) String() string {
	switch p {
	case PhaseRead:
		return "read"
	case PhaseParse:
		return "parse"
	default:
		return "unknown"
	}
}

// Progress 是一次进度回调的内容。Percent 取值 0~100。
type Progress struct {
	Phase   Phase   `json:"phase"`
	Percent float64 `json:"percent"`
	Done    int64   `json:"done"`
	Total   int64   `json:"total"`
}

// ProgressFunc 在读块之间、行批次之间被同步调用，是解码过程唯一的让出点。
type ProgressFunc func(Progress)

func percentOf(done, total int64) float64 {
	if total <= 0 {
		return 100
	}
	p := float64(done) * 100 / float64(total)
	if p > 100 {
		return 100
	}
	return p
}
