package economy

import (
	"math"
	"sync"

	"Vic2Economy/internal/pdx"
	"Vic2Economy/internal/refdata"
)

// Wiring 是 World 给国家补齐的上下文，由 Wire 一次性消费。
type Wiring struct {
	// Owned / Controlled 按存档顺序
	Owned      []*Province
	Controlled []*Province
	// Capital 是首都省份，首都不在控制集合里也照样作为 BFS 根
	Capital *Province
	Straits refdata.Straits
	// ContinentOf 省份 → 大洲
	ContinentOf func(provinceID string) (string, bool)
	Wars        []*pdx.Node
}

// Country 是装配完成的国家，之后只读。连通集合懒计算并只算一次，不跨实例共享。
type Country struct {
	*RawCountry

	owned           []*Province
	ownedSet        map[string]*Province
	controlled      map[string]*Province
	controlledOrder []string
	capital         *Province
	straitLinks     map[string][]string
	sameContinent   map[string]bool
	wars            []*pdx.Node

	reachOnce sync.Once
	reach     map[string]bool

	portMu    sync.Mutex
	portReach map[string]map[string]bool
}

// Wire 把 RawCountry 和 World 提供的上下文组装成 Country，不修改 raw。
func Wire(raw *RawCountry, w Wiring) *Country {
	c := &Country{
		RawCountry:    raw,
		owned:         w.Owned,
		ownedSet:      make(map[string]*Province, len(w.Owned)),
		controlled:    make(map[string]*Province, len(w.Controlled)),
		capital:       w.Capital,
		straitLinks:   make(map[string][]string),
		sameContinent: make(map[string]bool),
		wars:          w.Wars,
		portReach:     make(map[string]map[string]bool),
	}
	for _, p := range w.Owned {
		c.ownedSet[p.ID()] = p
	}
	for _, p := range w.Controlled {
		c.controlled[p.ID()] = p
		c.controlledOrder = append(c.controlledOrder, p.ID())
	}

	// 海峡捷径双向生效，两端都要在控制集合里
	for from, conns := range w.Straits {
		if _, ok := c.controlled[from]; !ok {
			continue
		}
		for _, conn := range conns {
			if _, ok := c.controlled[conn.To]; !ok {
				continue
			}
			c.straitLinks[from] = append(c.straitLinks[from], conn.To)
			c.straitLinks[conn.To] = append(c.straitLinks[conn.To], from)
		}
	}

	if w.ContinentOf != nil {
		if home, ok := w.ContinentOf(raw.capital); ok {
			for _, p := range w.Owned {
				if cont, ok := w.ContinentOf(p.ID()); ok && cont == home {
					c.sameContinent[p.ID()] = true
				}
			}
		}
	}
	return c
}

func (c *Country) OwnedProvinces() []*Province { return c.owned }

func (c *Country) Owns(provinceID string) bool {
	_, ok := c.ownedSet[provinceID]
	return ok
}

func (c *Country) Controls(provinceID string) bool {
	_, ok := c.controlled[provinceID]
	return ok
}

// StraitLinks 返回省份经海峡直达的控制省份。
func (c *Country) StraitLinks(provinceID string) []string {
	return c.straitLinks[provinceID]
}

// Reachable 返回以首都为根的连通集合：只走控制省份之间的邻接和海峡捷径。
func (c *Country) Reachable() map[string]bool {
	c.reachOnce.Do(func() {
		c.reach = c.bfs(c.capital, c.RawCountry.capital)
	})
	return c.reach
}

func (c *Country) bfs(root *Province, rootID string) map[string]bool {
	seen := make(map[string]bool)
	if rootID == "" {
		return seen
	}
	seen[rootID] = true
	queue := []string{rootID}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		var neighbors []string
		if p, ok := c.controlled[cur]; ok {
			neighbors = p.Neighbors()
		} else if cur == rootID && root != nil {
			neighbors = root.Neighbors()
		}
		for _, next := range neighbors {
			if _, ok := c.controlled[next]; ok && !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
		for _, next := range c.straitLinks[cur] {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return seen
}

// IsOverseas 当且仅当省份既不在首都所在大洲，也不能从首都连通到达。
func (c *Country) IsOverseas(provinceID string) bool {
	if c.sameContinent[provinceID] {
		return false
	}
	return !c.Reachable()[provinceID]
}

// ConnectedPort 在控制的港口中（按存档顺序）返回第一个能连通到目标省份的港口。
func (c *Country) ConnectedPort(b *refdata.Bundle, provinceID string) (string, bool) {
	for _, id := range c.controlledOrder {
		if !b.IsPort(id) {
			continue
		}
		if c.reachFromPort(id)[provinceID] {
			return id, true
		}
	}
	return "", false
}

func (c *Country) reachFromPort(portID string) map[string]bool {
	c.portMu.Lock()
	defer c.portMu.Unlock()
	if set, ok := c.portReach[portID]; ok {
		return set
	}
	set := c.bfs(c.controlled[portID], portID)
	c.portReach[portID] = set
	return set
}

// IsBlockaded 表示海外省份没有可用的港口补给。
func (c *Country) IsBlockaded(b *refdata.Bundle, provinceID string) bool {
	if !c.IsOverseas(provinceID) {
		return false
	}
	_, ok := c.ConnectedPort(b, provinceID)
	return !ok
}

// ModifierFromBlockade 只在海外且无港口补给时生效。
func (c *Country) ModifierFromBlockade(b *refdata.Bundle, p *Province) float64 {
	if !c.IsBlockaded(b, p.ID()) {
		return 0
	}
	return b.Modifier("blockaded", p.Class().EffKey())
}

// PopsPercentageInState 是州内 popType 人口占全部统计人口的比例，只统计本国拥有的省份。
// 州内没有统计人口时结果不是有限数，由调用方当作 0。
func (c *Country) PopsPercentageInState(b *refdata.Bundle, popType string, state int) float64 {
	tracked := b.PopTypeNames()
	num, den := 0.0, 0.0
	for _, p := range c.owned {
		if idx, ok := b.StateIndexOf(p.ID()); !ok || idx != state {
			continue
		}
		num += p.PopSize(popType)
		for _, t := range tracked {
			den += p.PopSize(t)
		}
	}
	return num / den
}

// finiteOrZero 把 NaN / Inf 当作 0。
func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
