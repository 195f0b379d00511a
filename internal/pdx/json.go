package pdx

import (
	"bytes"
	"encoding/json"
)

// MarshalJSON 导出为 JSON：标量 → 字符串，列表 → 数组，对象 → 按插入顺序的对象。
// 导出结果与规则表 JSON 同形，可以直接作为 Bundle 的数据集使用。
func (n *Node) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := n.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (n *Node) writeJSON(buf *bytes.Buffer) error {
	if n == nil {
		buf.WriteString("null")
		return nil
	}
	switch n.kind {
	case KindScalar:
		raw, err := json.Marshal(n.scalar)
		if err != nil {
			return err
		}
		buf.Write(raw)
	case KindList:
		buf.WriteByte('[')
		for i, it := range n.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := it.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	default:
		buf.WriteByte('{')
		for i, k := range n.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			raw, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(raw)
			buf.WriteByte(':')
			if err := n.fields[k].writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}

// Merge 把 src 的顶层字段覆盖写入 n（导出时的 merge 模式，后写的文件胜出）。
func (n *Node) Merge(src *Node) {
	src.Each(func(key string, v *Node) {
		n.Replace(key, v)
	})
}
