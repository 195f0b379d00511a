package economy

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"Vic2Economy/internal/pdx"
	"Vic2Economy/internal/refdata"
)

var (
	// ErrBadStateDefinitions 表示省份不在任何州定义里：规则表自相矛盾，当前查询失败。
	ErrBadStateDefinitions = errors.New("economy: bad state definitions")
	ErrUnknownCountry      = errors.New("economy: unknown country")
)

// BaseWorkplaces 是每一级省份规模提供的岗位数。
const BaseWorkplaces = 40000

// RgoClass 是 RGO 的类别，决定读取哪一组 *_rgo_size / *_rgo_eff 修正。
type RgoClass string

const (
	Farm RgoClass = "farm"
	Mine RgoClass = "mine"
)

func (c RgoClass) SizeKey() string { return string(c) + "_rgo_size" }
func (c RgoClass) EffKey() string  { return string(c) + "_rgo_eff" }

// Province 是存档中单个省份的只读访问器。除 RGO 类别和邻接表副本外不持有状态。
type Province struct {
	id        string
	data      *pdx.Node
	class     RgoClass
	neighbors []string
}

func NewProvince(id string, data *pdx.Node, b *refdata.Bundle) *Province {
	class := Mine
	if data.Has("farmers") {
		class = Farm
	}
	src := b.Neighbors(id)
	neighbors := make([]string, len(src))
	copy(neighbors, src)
	return &Province{id: id, data: data, class: class, neighbors: neighbors}
}

func (p *Province) ID() string          { return p.id }
func (p *Province) Data() *pdx.Node     { return p.data }
func (p *Province) Class() RgoClass     { return p.class }
func (p *Province) Name() string        { return pdx.Unquote(p.data.Get("name").String()) }
func (p *Province) Owner() string       { return pdx.Unquote(p.data.Get("owner").String()) }
func (p *Province) Controller() string  { return pdx.Unquote(p.data.Get("controller").String()) }
func (p *Province) GoodsType() string   { return p.data.Path("rgo", "goods_type").String() }
func (p *Province) Neighbors() []string { return p.neighbors }

// Pop 返回某人口类型的全部记录（出现一次或多次统一成列表），缺失时为 Absent。
func (p *Province) Pop(popType string) pdx.Records {
	return p.data.Records(popType)
}

func (p *Province) PopSize(popType string) float64 {
	return p.Pop(popType).Sum("size")
}

// Size 取 workerTypes 中人口最多的一种（并列时取先出现的）计算省份规模：
// floor(1.5 * ceil(人口 / 40000 / (1 + 地形规模修正)))。
func (p *Province) Size(b *refdata.Bundle, workerTypes []string) int {
	largest := 0.0
	for i, t := range workerTypes {
		if s := p.PopSize(t); i == 0 || s > largest {
			largest = s
		}
	}
	terrain := b.TerrainModifier(p.id, p.class.SizeKey())
	size := math.Floor(1.5 * math.Ceil(largest/BaseWorkplaces/(1+terrain)))
	if math.IsNaN(size) || math.IsInf(size, 0) || size < 0 {
		return 0
	}
	return int(size)
}

// TerrainModifier 是省份地形对本类 RGO 规模的修正。
func (p *Province) TerrainModifier(b *refdata.Bundle) float64 {
	return b.TerrainModifier(p.id, p.class.SizeKey())
}

// RgoSizeModifier = 省份事件修正 + 所在大洲的 RGO 规模修正。
func (p *Province) RgoSizeModifier(b *refdata.Bundle) float64 {
	key := p.class.SizeKey()
	total := p.ModifierFromEvents(b, key)
	if c, ok := b.ContinentOf(p.id); ok {
		total += b.Continent(c).Get(key).Float()
	}
	return total
}

// NumWorkers 是 RGO 雇佣记录的 count 之和，没有雇佣时为 0。
func (p *Province) NumWorkers() float64 {
	employees := p.data.Path("rgo", "employment", "employees")
	if employees == nil {
		return 0
	}
	return employees.Records(pdx.AnonymousKey).Sum("count")
}

// ModifierFromEvents 累加省份上生效的事件修正。
func (p *Province) ModifierFromEvents(b *refdata.Bundle, name string) float64 {
	total := 0.0
	for _, m := range p.data.Records("modifier").All() {
		total += b.Modifier(m.Get("modifier").String(), name)
	}
	return total
}

// ModifierFromFocus 读取所属州的国策修正。focuses 是国家的 州下标 → 国策名。
// 省份不在任何州定义里时返回 ErrBadStateDefinitions。
func (p *Province) ModifierFromFocus(b *refdata.Bundle, name string, focuses map[string]string) (float64, error) {
	state, ok := b.StateIndexOf(p.id)
	if !ok {
		return 0, fmt.Errorf("%w: %s province ID=%s wasn't found in state definitions", ErrBadStateDefinitions, p.Name(), p.id)
	}
	focus := focuses[strconv.Itoa(state)]
	if focus == "" {
		return 0, nil
	}
	return b.FocusValue(focus, name), nil
}

// ModifierFromCrime 按 crime 下标查犯罪表。
func (p *Province) ModifierFromCrime(b *refdata.Bundle, name string) float64 {
	idx, ok := p.data.Get("crime").Int()
	if !ok {
		return 0
	}
	return b.Crime(idx).Get(name).Float()
}

// Modifier = 事件 + 国策 + 犯罪。
func (p *Province) Modifier(b *refdata.Bundle, name string, focuses map[string]string) (float64, error) {
	focus, err := p.ModifierFromFocus(b, name, focuses)
	if err != nil {
		return 0, err
	}
	return p.ModifierFromEvents(b, name) + focus + p.ModifierFromCrime(b, name), nil
}
