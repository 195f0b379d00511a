package pdx

import (
	"strconv"
	"strings"
)

// Kind 表示节点形态。
type Kind uint8

const (
	KindScalar Kind = iota + 1
	KindList
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindList:
		return "list"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// AnonymousKey 是没有前置 key 的 `{` 挂载使用的占位 key。
// 规则表（continent/region/production）都依赖它：provinces.key、employees.key。
const AnonymousKey = "key"

// Node 是解码后的动态值树节点：标量 / 有序列表 / key→Node 映射。
//
// 约束：
// - 同一 key 第一次出现保持原样（标量或对象），第二次出现才提升为列表并追加
// - 对象保留插入顺序，所有“按下标查表”的逻辑都依赖这个顺序
// - 解码完成后视为只读；nil 节点上的读操作全部安全返回零值
type Node struct {
	kind   Kind
	scalar string
	items  []*Node
	keys   []string
	fields map[string]*Node
}

func NewScalar(s string) *Node {
	return &Node{kind: KindScalar, scalar: s}
}

func NewList(items ...*Node) *Node {
	return &Node{kind: KindList, items: items}
}

func NewObject() *Node {
	return &Node{kind: KindObject, fields: make(map[string]*Node)}
}

// ScalarList 用一组字符串构造列表节点。
func ScalarList(values ...string) *Node {
	items := make([]*Node, 0, len(values))
	for _, v := range values {
		items = append(items, NewScalar(v))
	}
	return NewList(items...)
}

func (n *Node) Kind() Kind {
	if n == nil {
		return 0
	}
	return n.kind
}

func (n *Node) IsScalar() bool { return n.Kind() == KindScalar }
func (n *Node) IsList() bool   { return n.Kind() == KindList }
func (n *Node) IsObject() bool { return n.Kind() == KindObject }

// String 返回标量值；非标量返回空串。
func (n *Node) String() string {
	if n == nil || n.kind != KindScalar {
		return ""
	}
	return n.scalar
}

// Float 把标量解析成数字；缺失或无法解析时按 0 处理。
func (n *Node) Float() float64 {
	f, _ := n.FloatOK()
	return f
}

func (n *Node) FloatOK() (float64, bool) {
	if n == nil || n.kind != KindScalar {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(n.scalar), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func (n *Node) Int() (int, bool) {
	if n == nil || n.kind != KindScalar {
		return 0, false
	}
	i, err := strconv.Atoi(strings.TrimSpace(n.scalar))
	if err != nil {
		return 0, false
	}
	return i, true
}

func (n *Node) Get(key string) *Node {
	if n == nil || n.kind != KindObject {
		return nil
	}
	return n.fields[key]
}

func (n *Node) Has(key string) bool {
	return n.Get(key) != nil
}

// Path 逐级取子节点，任意一级缺失返回 nil。
func (n *Node) Path(keys ...string) *Node {
	cur := n
	for _, k := range keys {
		cur = cur.Get(k)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// Keys 按插入顺序返回对象的 key。
func (n *Node) Keys() []string {
	if n == nil || n.kind != KindObject {
		return nil
	}
	out := make([]string, len(n.keys))
	copy(out, n.keys)
	return out
}

func (n *Node) Len() int {
	switch n.Kind() {
	case KindList:
		return len(n.items)
	case KindObject:
		return len(n.keys)
	default:
		return 0
	}
}

// Items 返回列表元素；非列表返回 nil。
func (n *Node) Items() []*Node {
	if n == nil || n.kind != KindList {
		return nil
	}
	return n.items
}

// Strings 把列表里的标量收集成字符串切片，非标量元素跳过。
func (n *Node) Strings() []string {
	items := n.Items()
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it.IsScalar() {
			out = append(out, it.scalar)
		}
	}
	return out
}

// Contains 判断列表中是否有等于 v 的标量。
func (n *Node) Contains(v string) bool {
	for _, it := range n.Items() {
		if it.IsScalar() && it.scalar == v {
			return true
		}
	}
	return false
}

// Each 按插入顺序遍历对象字段。
func (n *Node) Each(fn func(key string, v *Node)) {
	if n == nil || n.kind != KindObject {
		return
	}
	for _, k := range n.keys {
		fn(k, n.fields[k])
	}
}

// Put 写入一个字段：key 已存在时提升为列表并追加（已是列表则直接追加）。
// 只在构造阶段使用。
func (n *Node) Put(key string, v *Node) {
	if n == nil || n.kind != KindObject || v == nil {
		return
	}
	prev, ok := n.fields[key]
	if !ok {
		n.keys = append(n.keys, key)
		n.fields[key] = v
		return
	}
	if prev.kind != KindList {
		prev = NewList(prev)
		n.fields[key] = prev
	}
	prev.items = append(prev.items, v)
}

// Replace 覆盖写入一个字段，不做列表提升。
func (n *Node) Replace(key string, v *Node) {
	if n == nil || n.kind != KindObject || v == nil {
		return
	}
	if _, ok := n.fields[key]; !ok {
		n.keys = append(n.keys, key)
	}
	n.fields[key] = v
}

// Append 向列表追加元素。
func (n *Node) Append(vs ...*Node) {
	if n == nil || n.kind != KindList {
		return
	}
	n.items = append(n.items, vs...)
}
