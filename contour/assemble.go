package contour

import "sort"

// polyline 拼接中的折线；id 越小表示创建越早。
type polyline struct {
	id     int
	points []Point
}

func (p *polyline) first() Point { return p.points[0] }
func (p *polyline) last() Point  { return p.points[len(p.points)-1] }

// assemble 按端点精确匹配把线段拼成折线。
//
// starts 以折线首点为键，ends 以折线尾点为键。两条不同折线相接时，
// 较新的并入较旧的，使输出顺序与扫描顺序一致。
func assemble(segs []segment) []Contour {
	var (
		starts = make(map[Point]*polyline)
		ends   = make(map[Point]*polyline)
		live   = make(map[int]*polyline)
		nextID int
	)

	for _, s := range segs {
		if s.from == s.to {
			continue
		}

		tail, hasTail := ends[s.from]
		if hasTail {
			delete(ends, s.from)
		}
		head, hasHead := starts[s.to]
		if hasHead {
			delete(starts, s.to)
		}

		switch {
		case hasTail && hasHead:
			if tail == head {
				// 首尾相接，闭合
				tail.points = append(tail.points, s.to)
				continue
			}
			if tail.id > head.id {
				// tail 较新：整体接到 head 前面
				delete(starts, tail.first())
				delete(live, tail.id)
				head.points = append(append(make([]Point, 0, len(tail.points)+len(head.points)), tail.points...), head.points...)
				starts[head.first()] = head
				ends[head.last()] = head
			} else {
				// head 较新：整体接到 tail 后面
				delete(ends, head.last())
				delete(live, head.id)
				tail.points = append(tail.points, head.points...)
				starts[tail.first()] = tail
				ends[tail.last()] = tail
			}

		case !hasTail && !hasHead:
			p := &polyline{id: nextID, points: []Point{s.from, s.to}}
			nextID++
			live[p.id] = p
			starts[s.from] = p
			ends[s.to] = p

		case hasTail:
			tail.points = append(tail.points, s.to)
			ends[s.to] = tail

		default:
			head.points = append([]Point{s.from}, head.points...)
			starts[s.from] = head
		}
	}

	ids := make([]int, 0, len(live))
	for id := range live {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]Contour, 0, len(ids))
	for _, id := range ids {
		out = append(out, Contour(live[id].points))
	}
	return out
}
