package economy

import (
	"fmt"

	"Vic2Economy/internal/pdx"
)

// PopTotal 是一种人口类型的统计值。
type PopTotal struct {
	PopType string  `json:"pop_type"`
	Value   float64 `json:"value"`
}

// selectProvinces 返回 owners 拥有的省份；owners 为空时返回全部省份。
func (w *World) selectProvinces(owners []string) []*Province {
	all := w.Provinces()
	if len(owners) == 0 {
		return all
	}
	want := make(map[string]bool, len(owners))
	for _, t := range owners {
		want[t] = true
	}
	out := make([]*Province, 0, len(all))
	for _, p := range all {
		if want[p.Owner()] {
			out = append(out, p)
		}
	}
	return out
}

// PopulationTotals 按规则表里的人口类型顺序统计 size 合计。
func (w *World) PopulationTotals(owners []string) []PopTotal {
	provinces := w.selectProvinces(owners)
	types := w.bundle.PopTypeNames()
	out := make([]PopTotal, 0, len(types))
	for _, t := range types {
		total := 0.0
		for _, p := range provinces {
			total += p.PopSize(t)
		}
		out = append(out, PopTotal{PopType: t, Value: total})
	}
	return out
}

// PopNeedsQuery 描述一次人口需求统计。
type PopNeedsQuery struct {
	Good      string   `json:"good"`
	Countries []string `json:"countries"`
	// Plurality 是多元化百分比（0~100）
	Plurality float64 `json:"plurality"`
	// Inventions 是已激活的发明数，为 nil 时取所选第一个国家的发明数
	Inventions *int `json:"inventions,omitempty"`
}

// PopNeeds 统计每种人口对某商品的需求：
//
//	(1 + plurality/100) * (1 + 2*con/PDEF_BASE_CON) *
//	(life + inv*everyday + inv*luxury) * BASE_GOODS_DEMAND * size / 200000
//
// 其中 inv = 1 + 发明数 * INVENTION_IMPACT_ON_DEMAND，常量取自 defines 的 pops 组。
func (w *World) PopNeeds(q PopNeedsQuery) ([]PopTotal, error) {
	b := w.bundle
	inventions := 0
	switch {
	case q.Inventions != nil:
		inventions = *q.Inventions
	case len(q.Countries) > 0:
		data := w.save.Get(q.Countries[0])
		if !data.IsObject() {
			return nil, fmt.Errorf("%w: %s", ErrUnknownCountry, q.Countries[0])
		}
		inventions = len(NewRawCountry(q.Countries[0], data, b).ActiveInventions())
	}

	plurality := 1 + q.Plurality/100
	baseCon := b.Define("pops", "PDEF_BASE_CON")
	invFactor := 1 + float64(inventions)*b.Define("pops", "INVENTION_IMPACT_ON_DEMAND")
	baseDemand := b.Define("pops", "BASE_GOODS_DEMAND")

	provinces := w.selectProvinces(q.Countries)
	types := b.PopTypeNames()
	out := make([]PopTotal, 0, len(types))
	for _, t := range types {
		def := b.PopType(t)
		needs := def.Path("life_needs", q.Good).Float() +
			invFactor*def.Path("everyday_needs", q.Good).Float() +
			invFactor*def.Path("luxury_needs", q.Good).Float()

		total := 0.0
		for _, p := range provinces {
			for _, pop := range p.Pop(t).All() {
				total += plurality * consciousness(pop, baseCon) * needs * baseDemand * pop.Get("size").Float() / 200000
			}
		}
		out = append(out, PopTotal{PopType: t, Value: total})
	}
	return out, nil
}

func consciousness(pop *pdx.Node, baseCon float64) float64 {
	con := pop.Get("con").Float()
	if baseCon == 0 {
		return 1
	}
	return 1 + 2*con/baseCon
}
