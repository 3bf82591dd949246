package svgdoc

import (
	"log"
	"slices"

	"floorplan-editor/internal/editor/models"
)

// ============================================================
// Positional identity pairing
// ============================================================

// KindTags - какие теги рендера могут изображать элемент данного вида.
type KindTags map[models.Kind][]string

// DefaultKindTags соответствует тому, как внешний рендерер рисует элементы.
var DefaultKindTags = KindTags{
	models.KindRoom:     {"rect", "path"},
	models.KindWall:     {"line", "rect"},
	models.KindDoor:     {"path", "line", "g"},
	models.KindWindow:   {"rect", "line"},
	models.KindBed:      {"g", "rect"},
	models.KindTable:    {"rect", "g"},
	models.KindChair:    {"rect", "g"},
	models.KindStairs:   {"g", "rect"},
	models.KindElevator: {"g", "rect"},
}

// pairingLayers - порядок слоев, в котором рендерер выводит элементы.
var pairingLayers = []func(models.Kind) bool{
	func(k models.Kind) bool { return k == models.KindRoom },
	func(k models.Kind) bool { return k == models.KindWall },
	func(k models.Kind) bool { return k == models.KindDoor || k == models.KindWindow },
	models.Kind.IsFurnishing,
}

// AssignByPosition расставляет маркеры, если рендерер их не выдал. Слои идут в порядке
// рендера, внутри слоя элементы в порядке модели; каждый элемент получает следующий
// за предыдущей парой свободный узел с подходящим тегом. Поддерево занятого узла
// из поиска исключается. Элементы без геометрии не рисуются и пропускаются.
// Если рендерер выводит элементы в другом порядке, пары будут неверными.
// Возвращает число расставленных маркеров; документ с маркерами не трогает.
func AssignByPosition(doc *Document, elements []models.Element, tags KindTags) int {
	if doc == nil || doc.Root == nil {
		return 0
	}
	if len(doc.Marked()) > 0 {
		return 0
	}
	if tags == nil {
		tags = DefaultKindTags
	}

	var nodes []*Node
	doc.Walk(func(n *Node) bool {
		if n != doc.Root {
			nodes = append(nodes, n)
		}
		return true
	})

	claimed := map[*Node]bool{}
	cursor := 0
	assigned := 0

	for _, inLayer := range pairingLayers {
		for _, el := range elements {
			if !inLayer(el.Type) || !drawable(el) {
				continue
			}
			allowed := tags[el.Type]
			for i := cursor; i < len(nodes); i++ {
				n := nodes[i]
				if claimed[n] || !slices.Contains(allowed, n.Tag) {
					continue
				}
				n.SetAttr(IdentityAttr, el.ID)
				claimSubtree(claimed, n)
				cursor = i + 1
				assigned++
				break
			}
		}
	}

	if assigned > 0 {
		log.Printf("[SVGDOC] synthesized %d identity markers by position", assigned)
	}
	return assigned
}

func drawable(el models.Element) bool {
	switch {
	case el.Type == models.KindRoom:
		return el.Position != nil && el.Size != nil
	case el.Type == models.KindWall:
		return el.Start != nil && el.End != nil
	default:
		return el.Position != nil
	}
}

func claimSubtree(claimed map[*Node]bool, n *Node) {
	claimed[n] = true
	for _, c := range n.Children {
		claimSubtree(claimed, c)
	}
}
