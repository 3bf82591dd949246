package svgdoc

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ============================================================
// Path Parser
// ============================================================

var (
	pathCommand = regexp.MustCompile(`([MmLlHhVvCcSsQqTtAaZz])([^MmLlHhVvCcSsQqTtAaZz]*)`)
	pathNumber  = regexp.MustCompile(`[-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?`)
)

// ParsePath разбирает атрибут d в список опорных точек (в единицах документа).
// Для кривых в список попадают контрольные и конечные точки: для bbox этого достаточно.
func ParsePath(d string) ([]Vec, error) {
	d = strings.TrimSpace(d)
	if d == "" {
		return nil, fmt.Errorf("path: empty d attribute")
	}

	var points []Vec
	var cur, start Vec

	for _, match := range pathCommand.FindAllStringSubmatch(d, -1) {
		cmd := match[1]
		args := parseCoords(match[2])
		rel := cmd == strings.ToLower(cmd)

		abs := func(x, y float64) Vec {
			if rel {
				return Vec{X: cur.X + x, Y: cur.Y + y}
			}
			return Vec{X: x, Y: y}
		}

		switch strings.ToUpper(cmd) {
		case "M", "L", "T":
			for i := 0; i+1 < len(args); i += 2 {
				cur = abs(args[i], args[i+1])
				points = append(points, cur)
				if strings.ToUpper(cmd) == "M" && i == 0 {
					start = cur
				}
			}

		case "H":
			for _, x := range args {
				if rel {
					cur.X += x
				} else {
					cur.X = x
				}
				points = append(points, cur)
			}

		case "V":
			for _, y := range args {
				if rel {
					cur.Y += y
				} else {
					cur.Y = y
				}
				points = append(points, cur)
			}

		case "C":
			for i := 0; i+5 < len(args); i += 6 {
				points = append(points, abs(args[i], args[i+1]), abs(args[i+2], args[i+3]))
				cur = abs(args[i+4], args[i+5])
				points = append(points, cur)
			}

		case "S", "Q":
			for i := 0; i+3 < len(args); i += 4 {
				points = append(points, abs(args[i], args[i+1]))
				cur = abs(args[i+2], args[i+3])
				points = append(points, cur)
			}

		case "A":
			// rx ry rotation large-arc sweep x y
			for i := 0; i+6 < len(args); i += 7 {
				cur = abs(args[i+5], args[i+6])
				points = append(points, cur)
			}

		case "Z":
			if len(points) > 0 {
				cur = start
				points = append(points, start)
			}
		}
	}

	return points, nil
}

// parseCoords читает числа в компактной записи SVG: "10-5", ".5.5", "1e-3,2".
func parseCoords(s string) []float64 {
	nums := pathNumber.FindAllString(s, -1)
	if len(nums) == 0 {
		return nil
	}

	coords := make([]float64, 0, len(nums))
	for _, n := range nums {
		if val, err := strconv.ParseFloat(n, 64); err == nil {
			coords = append(coords, val)
		}
	}
	return coords
}
