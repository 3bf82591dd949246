package syncer

import (
	"context"
	"fmt"
	"log"
	"strings"

	"floorplan-editor/internal/editor/client"
	"floorplan-editor/internal/editor/models"
	"floorplan-editor/internal/editor/svgdoc"
)

// ============================================================
// Sync Protocol
// ============================================================

// EmptyDocument - изображение пустого плана в той же системе координат,
// что выдает сервис рендера для пустого ввода.
const EmptyDocument = `<svg xmlns="http://www.w3.org/2000/svg" width="100" height="100" viewBox="0 0 10 10"></svg>`

// Kind - что делать с результатом рендера.
type Kind int

const (
	// KindRender - модель уже изменена локально, обновляется только картинка.
	KindRender Kind = iota
	// KindReplace - свежий парсинг исходного текста заменяет модель целиком.
	KindReplace
)

func (k Kind) String() string {
	if k == KindReplace {
		return "replace"
	}
	return "render"
}

// Renderer - граница внешнего сервиса рендера.
type Renderer interface {
	Render(ctx context.Context, source string) (*client.RenderResult, error)
	FetchDocument(ctx context.Context, renderRef string, stamp uint64) (string, error)
}

// Ticket - выданный запрос. Stamp монотонно растет.
type Ticket struct {
	Stamp    uint64
	Kind     Kind
	Source   string
	Revision uint64
}

// Result - ответ на Ticket. Err != nil означает, что ничего применять нельзя.
type Result struct {
	Ticket
	Elements  []models.Element
	RenderRef string
	Body      string
	Document  *svgdoc.Document
	Err       error
}

// Syncer выдает штампы и доставляет результаты в канал Results.
// Issue, Dispatch и Accept вызываются только из цикла событий; вызов сервиса
// идет в отдельной горутине и состояние Syncer не трогает.
type Syncer struct {
	renderer       Renderer
	results        chan Result
	latest         uint64
	inflight       int
	FetchDocuments bool
}

func New(r Renderer) *Syncer {
	return &Syncer{
		renderer:       r,
		results:        make(chan Result, 16),
		FetchDocuments: true,
	}
}

// Issue выдает следующий штамп; все ранее выданные с этого момента устарели.
func (s *Syncer) Issue(kind Kind, source string, revision uint64) Ticket {
	s.latest++
	return Ticket{Stamp: s.latest, Kind: kind, Source: source, Revision: revision}
}

// Latest - последний выданный штамп.
func (s *Syncer) Latest() uint64 { return s.latest }

// Idle - нет запросов, результаты которых еще не прошли через Accept.
func (s *Syncer) Idle() bool { return s.inflight == 0 }

func (s *Syncer) Results() <-chan Result { return s.results }

// Dispatch запускает запрос в фоне (fire-and-forget).
func (s *Syncer) Dispatch(ctx context.Context, t Ticket) {
	s.inflight++
	log.Printf("[SYNC] dispatch #%d (%s, %d bytes)", t.Stamp, t.Kind, len(t.Source))

	go func() {
		res := s.Run(ctx, t)
		select {
		case s.results <- res:
		case <-ctx.Done():
		}
	}()
}

// Run выполняет запрос синхронно: рендер, затем загрузка документа.
// Ошибки сервиса не выходят наружу, а кладутся в Result.Err.
func (s *Syncer) Run(ctx context.Context, t Ticket) Result {
	res := Result{Ticket: t}

	if t.Kind == KindRender && strings.TrimSpace(t.Source) == "" {
		// пустой план: сервис не вызывается, картинка заменяется пустым листом
		res.Elements = []models.Element{}
		doc, err := svgdoc.ParseString(EmptyDocument)
		if err != nil {
			res.Err = fmt.Errorf("empty document: %w", err)
			return res
		}
		res.Body = EmptyDocument
		res.Document = doc
		return res
	}

	out, err := s.renderer.Render(ctx, t.Source)
	if err != nil {
		res.Err = err
		return res
	}
	res.Elements = out.Elements
	res.RenderRef = out.RenderRef

	if !s.FetchDocuments || out.RenderRef == "" {
		return res
	}

	body, err := s.renderer.FetchDocument(ctx, out.RenderRef, t.Stamp)
	if err != nil {
		res.Err = err
		return res
	}
	doc, err := svgdoc.ParseString(body)
	if err != nil {
		res.Err = fmt.Errorf("rendered document: %w", err)
		return res
	}
	res.Body = body
	res.Document = doc
	return res
}

// Accept сообщает, можно ли применять результат: только ответ на последний выданный штамп.
// Поздние ответы на вытесненные запросы отбрасываются.
func (s *Syncer) Accept(r Result) bool {
	if s.inflight > 0 {
		s.inflight--
	}
	if r.Stamp != s.latest {
		log.Printf("[SYNC] drop stale #%d (latest #%d)", r.Stamp, s.latest)
		return false
	}
	return true
}
