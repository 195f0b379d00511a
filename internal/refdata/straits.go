package refdata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

var ErrBadStraitTable = errors.New("refdata: bad strait table")

// Connection 是一条海峡捷径：经由 Through 省份到达 To。
type Connection struct {
	To      string `json:"to"`
	Through string `json:"through"`
}

// Straits 是 from → 捷径列表，方向和表中的行一致。
type Straits map[string][]Connection

// ParseStraits 解析 `;` 分隔的邻接表。表头必须包含 From、To、Through；
// `#` 开头的行和 Through 为空的行跳过。空文本得到空表。
func ParseStraits(text string) (Straits, error) {
	out := make(Straits)
	if strings.TrimSpace(text) == "" {
		return out, nil
	}

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = ';'
	r.Comment = '#'
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrBadStraitTable, err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}
	from, okFrom := col["From"]
	to, okTo := col["To"]
	through, okThrough := col["Through"]
	if !okFrom || !okTo || !okThrough {
		return nil, fmt.Errorf("%w: header needs From, To and Through, got %v", ErrBadStraitTable, header)
	}

	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadStraitTable, err)
		}
		t := field(rec, through)
		if t == "" {
			continue
		}
		f := field(rec, from)
		out[f] = append(out[f], Connection{To: field(rec, to), Through: t})
	}
	return out, nil
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}
