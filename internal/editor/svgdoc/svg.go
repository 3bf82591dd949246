package svgdoc

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// IdentityAttr - атрибут-маркер, связывающий узел рендера с id элемента модели.
const IdentityAttr = "data-id"

var ErrNotSVG = errors.New("document root is not <svg>")

// ============================================================
// Geometry
// ============================================================

type Vec struct {
	X float64
	Y float64
}

// Box - прямоугольник в единицах документа.
type Box struct {
	MinX, MinY, MaxX, MaxY float64
}

func (b Box) Width() float64  { return b.MaxX - b.MinX }
func (b Box) Height() float64 { return b.MaxY - b.MinY }

func (b Box) Center() Vec {
	return Vec{X: (b.MinX + b.MaxX) / 2, Y: (b.MinY + b.MaxY) / 2}
}

func (b Box) union(o Box) Box {
	return Box{
		MinX: math.Min(b.MinX, o.MinX), MinY: math.Min(b.MinY, o.MinY),
		MaxX: math.Max(b.MaxX, o.MaxX), MaxY: math.Max(b.MaxY, o.MaxY),
	}
}

func (b Box) translate(dx, dy float64) Box {
	return Box{MinX: b.MinX + dx, MinY: b.MinY + dy, MaxX: b.MaxX + dx, MaxY: b.MaxY + dy}
}

func boxOf(points []Vec) (Box, bool) {
	if len(points) == 0 {
		return Box{}, false
	}
	b := Box{MinX: points[0].X, MinY: points[0].Y, MaxX: points[0].X, MaxY: points[0].Y}
	for _, p := range points[1:] {
		b = b.union(Box{MinX: p.X, MinY: p.Y, MaxX: p.X, MaxY: p.Y})
	}
	return b, true
}

// ViewBox - объявленный логический прямоугольник документа.
type ViewBox struct {
	MinX, MinY, Width, Height float64
}

// ============================================================
// Document tree
// ============================================================

type Node struct {
	Tag      string
	Attrs    map[string]string
	Text     string
	Parent   *Node
	Children []*Node
}

func (n *Node) Attr(name string) string {
	if n == nil {
		return ""
	}
	return n.Attrs[name]
}

func (n *Node) SetAttr(name, value string) {
	if n.Attrs == nil {
		n.Attrs = map[string]string{}
	}
	n.Attrs[name] = value
}

// Identity возвращает маркер элемента на самом узле, без подъема к предкам.
func (n *Node) Identity() (string, bool) {
	id := strings.TrimSpace(n.Attr(IdentityAttr))
	return id, id != ""
}

// Document - разобранный векторный документ рендера.
type Document struct {
	Root *Node

	viewBox    ViewBox
	hasViewBox bool
	width      float64
	height     float64
}

// Parse разбирает SVG в дерево узлов.
func Parse(r io.Reader) (*Document, error) {
	decoder := xml.NewDecoder(r)
	decoder.Strict = false

	var root, cur *Node
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode svg: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Tag: t.Name.Local, Attrs: make(map[string]string, len(t.Attr)), Parent: cur}
			for _, a := range t.Attr {
				n.Attrs[attrName(a.Name)] = a.Value
			}
			if cur == nil {
				if root != nil {
					return nil, fmt.Errorf("decode svg: multiple root elements")
				}
				root = n
			} else {
				cur.Children = append(cur.Children, n)
			}
			cur = n
		case xml.EndElement:
			if cur != nil {
				cur = cur.Parent
			}
		case xml.CharData:
			if cur != nil {
				cur.Text += string(t)
			}
		}
	}

	if root == nil || root.Tag != "svg" {
		return nil, ErrNotSVG
	}

	doc := &Document{Root: root}
	doc.viewBox, doc.hasViewBox = parseViewBox(root.Attr("viewBox"))
	doc.width = parseLength(root.Attr("width"))
	doc.height = parseLength(root.Attr("height"))
	return doc, nil
}

// ParseString - удобная обертка над Parse.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// ViewBox возвращает объявленный viewBox, если он корректен.
func (d *Document) ViewBox() (ViewBox, bool) {
	return d.viewBox, d.hasViewBox
}

// PixelSize - собственный размер документа в пикселях (атрибуты width/height).
// Без них используется размер viewBox.
func (d *Document) PixelSize() (float64, float64) {
	w, h := d.width, d.height
	if w <= 0 && d.hasViewBox {
		w = d.viewBox.Width
	}
	if h <= 0 && d.hasViewBox {
		h = d.viewBox.Height
	}
	return w, h
}

// Walk обходит дерево в порядке документа.
func (d *Document) Walk(fn func(*Node) bool) {
	var visit func(*Node) bool
	visit = func(n *Node) bool {
		if !fn(n) {
			return false
		}
		for _, c := range n.Children {
			if !visit(c) {
				return false
			}
		}
		return true
	}
	if d.Root != nil {
		visit(d.Root)
	}
}

// Marked возвращает все узлы с маркером элемента в порядке документа.
func (d *Document) Marked() []*Node {
	var out []*Node
	d.Walk(func(n *Node) bool {
		if _, ok := n.Identity(); ok {
			out = append(out, n)
		}
		return true
	})
	return out
}

// FindByIdentity ищет первый узел с маркером id.
func (d *Document) FindByIdentity(id string) *Node {
	var found *Node
	d.Walk(func(n *Node) bool {
		if got, ok := n.Identity(); ok && got == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// Contains сообщает, принадлежит ли узел этому документу.
func (d *Document) Contains(n *Node) bool {
	for ; n != nil; n = n.Parent {
		if n == d.Root {
			return true
		}
	}
	return false
}

// ============================================================
// Bounding boxes
// ============================================================

// BBox вычисляет габариты узла в единицах документа.
// Из трансформаций учитывается только translate.
func (n *Node) BBox() (Box, bool) {
	box, ok := n.ownBox()
	for _, c := range n.Children {
		if cb, cok := c.BBox(); cok {
			if ok {
				box = box.union(cb)
			} else {
				box, ok = cb, true
			}
		}
	}
	if !ok {
		return Box{}, false
	}
	if dx, dy, has := parseTranslate(n.Attr("transform")); has {
		box = box.translate(dx, dy)
	}
	return box, true
}

func (n *Node) ownBox() (Box, bool) {
	num := func(name string) float64 { return parseLength(n.Attr(name)) }

	switch n.Tag {
	case "rect", "image", "use":
		w, h := num("width"), num("height")
		if w <= 0 && h <= 0 {
			return Box{}, false
		}
		x, y := num("x"), num("y")
		return Box{MinX: x, MinY: y, MaxX: x + w, MaxY: y + h}, true
	case "line":
		return boxOf([]Vec{{X: num("x1"), Y: num("y1")}, {X: num("x2"), Y: num("y2")}})
	case "circle":
		cx, cy, r := num("cx"), num("cy"), num("r")
		return Box{MinX: cx - r, MinY: cy - r, MaxX: cx + r, MaxY: cy + r}, true
	case "ellipse":
		cx, cy, rx, ry := num("cx"), num("cy"), num("rx"), num("ry")
		return Box{MinX: cx - rx, MinY: cy - ry, MaxX: cx + rx, MaxY: cy + ry}, true
	case "polygon", "polyline":
		coords := parseCoords(n.Attr("points"))
		var pts []Vec
		for i := 0; i+1 < len(coords); i += 2 {
			pts = append(pts, Vec{X: coords[i], Y: coords[i+1]})
		}
		return boxOf(pts)
	case "path":
		pts, err := ParsePath(n.Attr("d"))
		if err != nil {
			return Box{}, false
		}
		return boxOf(pts)
	case "text":
		x, y := num("x"), num("y")
		return Box{MinX: x, MinY: y, MaxX: x, MaxY: y}, true
	}
	return Box{}, false
}

// ============================================================
// Attribute helpers
// ============================================================

func attrName(name xml.Name) string {
	if name.Space == "xmlns" {
		return "xmlns:" + name.Local
	}
	return name.Local
}

func parseViewBox(s string) (ViewBox, bool) {
	coords := parseCoords(s)
	if len(coords) != 4 || coords[2] <= 0 || coords[3] <= 0 {
		return ViewBox{}, false
	}
	return ViewBox{MinX: coords[0], MinY: coords[1], Width: coords[2], Height: coords[3]}, true
}

// parseLength понимает "120", "120px", "12.5"; проценты и em не поддерживаются.
func parseLength(s string) float64 {
	s = strings.TrimSuffix(strings.TrimSpace(s), "px")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseTranslate(s string) (float64, float64, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "translate(") {
		return 0, 0, false
	}
	end := strings.Index(s, ")")
	if end < 0 {
		return 0, 0, false
	}
	coords := parseCoords(s[len("translate("):end])
	switch len(coords) {
	case 1:
		return coords[0], 0, true
	case 2:
		return coords[0], coords[1], true
	}
	return 0, 0, false
}
