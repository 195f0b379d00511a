package pdx

// Multiplicity 描述一个“可能重复”的字段实际出现了几次。
type Multiplicity uint8

const (
	Absent Multiplicity = iota
	Single
	Many
)

// Records 是重复键字段的归一化视图：Absent | Single(record) | Many(records)。
// 存档里 farmers、modifier、employees.key 这类字段出现一次是对象，出现多次是列表，
// 下游统一通过 Records 读取，不再做形态探测。
type Records struct {
	mult  Multiplicity
	items []*Node
}

// RecordsOf 归一化一个节点。列表节点视为 Many，其余非空节点视为 Single。
func RecordsOf(n *Node) Records {
	switch {
	case n == nil:
		return Records{mult: Absent}
	case n.kind == KindList:
		return Records{mult: Many, items: n.items}
	default:
		return Records{mult: Single, items: []*Node{n}}
	}
}

func (r Records) Multiplicity() Multiplicity { return r.mult }

func (r Records) Present() bool { return r.mult != Absent }

// All 总是返回列表形态（Absent 返回 nil）。
func (r Records) All() []*Node { return r.items }

func (r Records) Len() int { return len(r.items) }

// Sum 对每条记录的 field 求和，缺失按 0。
func (r Records) Sum(field string) float64 {
	total := 0.0
	for _, it := range r.items {
		total += it.Get(field).Float()
	}
	return total
}

// Records 是 RecordsOf(n.Get(key)) 的快捷方式。
func (n *Node) Records(key string) Records {
	return RecordsOf(n.Get(key))
}
