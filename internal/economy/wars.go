package economy

import (
	"sort"
	"strconv"
	"strings"

	"Vic2Economy/internal/pdx"
)

// WarSides 是一场战争重放完历史后的双方成员。
type WarSides struct {
	Name      string
	Attackers []string
	Defenders []string

	everAttacker map[string]bool
	everDefender map[string]bool
}

type side struct {
	members []string
}

func (s *side) add(tag string) {
	for _, m := range s.members {
		if m == tag {
			return
		}
	}
	s.members = append(s.members, tag)
}

func (s *side) remove(tag string) {
	for i, m := range s.members {
		if m == tag {
			s.members = append(s.members[:i:i], s.members[i+1:]...)
			return
		}
	}
}

// ReplayWar 从最初的攻守双方出发，按日期顺序重放加入/退出事件。
// 同一天的多个事件块按存档顺序处理。
func ReplayWar(war *pdx.Node) WarSides {
	out := WarSides{
		Name:         pdx.Unquote(war.Get("name").String()),
		everAttacker: make(map[string]bool),
		everDefender: make(map[string]bool),
	}
	var attackers, defenders side
	join := func(s *side, ever map[string]bool, tag string) {
		if tag == "" {
			return
		}
		s.add(tag)
		ever[tag] = true
	}

	join(&attackers, out.everAttacker, pdx.Unquote(war.Get("original_attacker").String()))
	join(&defenders, out.everDefender, pdx.Unquote(war.Get("original_defender").String()))

	history := war.Get("history")
	type dated struct {
		date  [3]int
		entry *pdx.Node
	}
	var events []dated
	history.Each(func(key string, v *pdx.Node) {
		d, ok := parseDate(key)
		if !ok {
			return
		}
		for _, entry := range pdx.RecordsOf(v).All() {
			events = append(events, dated{date: d, entry: entry})
		}
	})
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i].date, events[j].date
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		if a[1] != b[1] {
			return a[1] < b[1]
		}
		return a[2] < b[2]
	})

	for _, ev := range events {
		ev.entry.Each(func(action string, v *pdx.Node) {
			for _, t := range pdx.RecordsOf(v).All() {
				tag := pdx.Unquote(t.String())
				switch action {
				case "add_attacker":
					join(&attackers, out.everAttacker, tag)
				case "add_defender":
					join(&defenders, out.everDefender, tag)
				case "rem_attacker":
					attackers.remove(tag)
				case "rem_defender":
					defenders.remove(tag)
				}
			}
		})
	}
	out.Attackers = attackers.members
	out.Defenders = defenders.members
	return out
}

// EnemiesOf 返回 tag 在这场战争中的敌人：曾在哪一方出现，就取对方的最终成员。
func (w WarSides) EnemiesOf(tag string) []string {
	var out []string
	if w.everAttacker[tag] {
		out = append(out, w.Defenders...)
	}
	if w.everDefender[tag] {
		out = append(out, w.Attackers...)
	}
	return out
}

// Enemies 汇总所有进行中战争的敌人，去重并保持首次出现的顺序。
func (c *Country) Enemies() []string {
	seen := map[string]bool{c.tag: true}
	var out []string
	for _, war := range c.wars {
		for _, e := range ReplayWar(war).EnemiesOf(c.tag) {
			if !seen[e] {
				seen[e] = true
				out = append(out, e)
			}
		}
	}
	return out
}

func parseDate(s string) ([3]int, bool) {
	var d [3]int
	parts := strings.Split(pdx.Unquote(s), ".")
	if len(parts) != 3 {
		return d, false
	}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return d, false
		}
		d[i] = n
	}
	return d, true
}
