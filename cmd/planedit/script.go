package main

import (
	"fmt"
	"os"
	"path/filepath"

	"floorplan-editor/internal/editor/models"
	"floorplan-editor/internal/editor/session"
	"floorplan-editor/internal/editor/viewport"

	"gopkg.in/yaml.v3"
)

// ============================================================
// Session scripts
// ============================================================

// Script - записанная сессия редактирования.
type Script struct {
	// Source - путь к исходному тексту плана (относительно скрипта), Code - текст inline.
	Source     string     `yaml:"source"`
	Code       string     `yaml:"code"`
	Backend    string     `yaml:"backend"`
	Scale      float64    `yaml:"scale"`
	Origin     [2]float64 `yaml:"origin"`
	LiveDrag   bool       `yaml:"live_drag"`
	AutoSuffix bool       `yaml:"auto_suffix"`
	Steps      []Step     `yaml:"steps"`
}

// Step - одно событие. x/y в пикселях окна.
type Step struct {
	Type   string  `yaml:"type"`
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Target string  `yaml:"target"`
	Key    string  `yaml:"key"`
	Mode   string  `yaml:"mode"`
	Kind   string  `yaml:"kind"`
	ID     string  `yaml:"id"`
	Field  string  `yaml:"field"`
	Value  string  `yaml:"value"`
}

func loadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}

	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}

	if s.Source != "" {
		src := s.Source
		if !filepath.IsAbs(src) {
			src = filepath.Join(filepath.Dir(path), src)
		}
		code, err := os.ReadFile(src)
		if err != nil {
			return nil, fmt.Errorf("read source: %w", err)
		}
		s.Code = string(code)
	}
	return &s, nil
}

// Events переводит шаги скрипта в события сессии. Исходный текст, если он задан,
// загружается первым, и сессия ждет ответа рендера до первого шага.
func (s *Script) Events() ([]session.Event, error) {
	var out []session.Event
	if s.Code != "" {
		out = append(out,
			session.Event{Type: session.EventLoad, Source: s.Code},
			session.Event{Type: session.EventWait},
		)
	}

	for i, st := range s.Steps {
		ev := session.Event{
			Type:     session.EventType(st.Type),
			Pointer:  viewport.PointerEvent{ClientX: st.X, ClientY: st.Y},
			TargetID: st.Target,
			Key:      st.Key,
			Mode:     session.Mode(st.Mode),
			ID:       st.ID,
			Field:    st.Field,
			Value:    st.Value,
		}
		if st.Kind != "" {
			kind, err := models.ParseKind(st.Kind)
			if err != nil {
				return nil, fmt.Errorf("step %d: %w", i+1, err)
			}
			ev.Kind = kind
		}
		out = append(out, ev)
	}
	return out, nil
}

func (s *Script) mapper() (viewport.Mapper, error) {
	switch viewport.Backend(s.Backend) {
	case "", viewport.BackendRaster:
		r := viewport.NewRaster(s.Scale)
		r.Mount(s.Origin[0], s.Origin[1])
		return r, nil
	case viewport.BackendVector:
		v := viewport.NewVector()
		v.Mount(nil, s.Origin[0], s.Origin[1])
		return v, nil
	}
	return nil, fmt.Errorf("unknown backend %q", s.Backend)
}
