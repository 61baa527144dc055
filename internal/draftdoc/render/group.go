package render

import "github.com/aisa-it/draftdoc/internal/draftdoc/editor/edtypes"

// Group - максимальная последовательность соседних блоков [Start, End), которая рисуется одним контейнером.
type Group struct {
	Type  edtypes.BlockType
	Start int
	End   int
}

func (g Group) Len() int {
	return g.End - g.Start
}

// GroupBlocks разбивает блоки документа на группы. Соседние блоки попадают в одну группу, если у них один тип;
// unstyled блоки всегда образуют отдельные группы, а цепочка элементов списка рвется на скачке глубины больше чем на один.
func GroupBlocks(blocks []edtypes.Block) []Group {
	var groups []Group
	for i := range blocks {
		if n := len(groups); n > 0 && joins(blocks[i-1], blocks[i]) {
			groups[n-1].End = i + 1
			continue
		}
		groups = append(groups, Group{Type: blocks[i].Type, Start: i, End: i + 1})
	}
	return groups
}

func joins(prev, cur edtypes.Block) bool {
	if prev.Type != cur.Type || cur.Type == edtypes.Unstyled {
		return false
	}
	if cur.Type.IsList() {
		return cur.Depth <= prev.Depth+1
	}
	return true
}

// ForestNode - элемент списка. Block - индекс блока документа, Children - индексы узлов в Forest.Nodes.
type ForestNode struct {
	Block    int
	Children []int
}

// Forest - вложенная структура элементов списка одной группы.
type Forest struct {
	Nodes []ForestNode
	Roots []int
}

// BuildForest строит дерево элементов списка по глубинам блоков группы.
// Элемент становится ребенком ближайшего предыдущего элемента с меньшей глубиной, при его отсутствии - корнем,
// поэтому пропуск уровней вложенности не ломает построение.
func BuildForest(blocks []edtypes.Block, g Group) Forest {
	f := Forest{Nodes: make([]ForestNode, 0, g.Len())}
	var stack []int
	for i := g.Start; i < g.End; i++ {
		depth := blocks[i].Depth
		for len(stack) > 0 && blocks[f.Nodes[stack[len(stack)-1]].Block].Depth >= depth {
			stack = stack[:len(stack)-1]
		}

		node := len(f.Nodes)
		f.Nodes = append(f.Nodes, ForestNode{Block: i})
		if len(stack) == 0 {
			f.Roots = append(f.Roots, node)
		} else {
			parent := stack[len(stack)-1]
			f.Nodes[parent].Children = append(f.Nodes[parent].Children, node)
		}
		stack = append(stack, node)
	}
	return f
}
