package screenshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/bwlee-dix/h-stuido-dev-research/internal/kv"
	"github.com/bwlee-dix/h-stuido-dev-research/internal/logging"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const StorageKey = "pageScreenshots"

type TouchPosition struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Count int     `json:"count"`
	Page  int     `json:"pageNumber"`
}

// Screenshot is a page's markup at capture time together with the touches
// recorded on that page up to then.
type Screenshot struct {
	Page           int             `json:"pageNumber"`
	HTML           string          `json:"html"`
	TouchPositions []TouchPosition `json:"touchPositions"`
}

type persisted struct {
	Screenshots    []Screenshot    `json:"screenshots"`
	TouchPositions []TouchPosition `json:"touchPositions"`
}

type positionKey struct {
	page int
	x, y float64
}

type Tracker struct {
	store kv.Store
	log   *zap.Logger

	mu          sync.Mutex
	screenshots map[int]Screenshot
	positions   map[positionKey]int
}

func NewTracker(store kv.Store, log *zap.Logger) *Tracker {
	return &Tracker{
		store:       store,
		log:         logging.OrNop(log),
		screenshots: map[int]Screenshot{},
		positions:   map[positionKey]int{},
	}
}

// CapturePage stores markup for page, replacing any earlier capture. Input
// values are blanked so typed answers never reach storage.
func (t *Tracker) CapturePage(ctx context.Context, page int, markup string) (Screenshot, error) {
	cleaned, err := blankInputs(markup)
	if err != nil {
		return Screenshot{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	shot := Screenshot{Page: page, HTML: cleaned, TouchPositions: t.positionsFor(page)}
	t.screenshots[page] = shot
	t.save(ctx)
	return shot, nil
}

// TrackTouch counts a touch at the exact (x, y) on page.
func (t *Tracker) TrackTouch(ctx context.Context, x, y float64, page int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.positions[positionKey{page: page, x: x, y: y}]++
	t.save(ctx)
}

// Screenshots returns captures ordered by page number.
func (t *Tracker) Screenshots() []Screenshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	shots := make([]Screenshot, 0, len(t.screenshots))
	for _, s := range t.screenshots {
		s.TouchPositions = append([]TouchPosition{}, s.TouchPositions...)
		shots = append(shots, s)
	}
	sort.Slice(shots, func(i, j int) bool { return shots[i].Page < shots[j].Page })
	return shots
}

func (t *Tracker) TouchPositions() []TouchPosition {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.allPositions()
}

func (t *Tracker) Load(ctx context.Context) error {
	raw, err := t.store.Get(ctx, StorageKey)
	if errors.Is(err, kv.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load screenshots: %w", err)
	}
	var p persisted
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return fmt.Errorf("decode screenshots: %w", err)
	}

	screenshots := make(map[int]Screenshot, len(p.Screenshots))
	for _, s := range p.Screenshots {
		screenshots[s.Page] = s
	}
	positions := make(map[positionKey]int, len(p.TouchPositions))
	for _, tp := range p.TouchPositions {
		positions[positionKey{page: tp.Page, x: tp.X, y: tp.Y}] += tp.Count
	}

	t.mu.Lock()
	t.screenshots = screenshots
	t.positions = positions
	t.mu.Unlock()
	return nil
}

func (t *Tracker) Clear(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screenshots = map[int]Screenshot{}
	t.positions = map[positionKey]int{}
	if err := t.store.Remove(ctx, StorageKey); err != nil {
		t.log.Warn("remove screenshots", zap.Error(err))
	}
}

func (t *Tracker) positionsFor(page int) []TouchPosition {
	out := []TouchPosition{}
	for _, p := range t.allPositions() {
		if p.Page == page {
			out = append(out, p)
		}
	}
	return out
}

func (t *Tracker) allPositions() []TouchPosition {
	out := make([]TouchPosition, 0, len(t.positions))
	for k, n := range t.positions {
		out = append(out, TouchPosition{X: k.x, Y: k.y, Count: n, Page: k.page})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Page != b.Page {
			return a.Page < b.Page
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
	return out
}

func (t *Tracker) save(ctx context.Context) {
	shots := make([]Screenshot, 0, len(t.screenshots))
	for _, s := range t.screenshots {
		shots = append(shots, s)
	}
	sort.Slice(shots, func(i, j int) bool { return shots[i].Page < shots[j].Page })

	payload, err := json.Marshal(persisted{Screenshots: shots, TouchPositions: t.allPositions()})
	if err != nil {
		t.log.Warn("encode screenshots", zap.Error(err))
		return
	}
	if err := t.store.Set(ctx, StorageKey, string(payload)); err != nil {
		t.log.Warn("save screenshots", zap.Error(err))
	}
}

// blankInputs parses markup as body content and clears the value of every
// <input> element.
func blankInputs(markup string) (string, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(markup), body)
	if err != nil {
		return "", fmt.Errorf("parse page markup: %w", err)
	}

	var sb strings.Builder
	for _, n := range nodes {
		clearValues(n)
		if err := html.Render(&sb, n); err != nil {
			return "", fmt.Errorf("render page markup: %w", err)
		}
	}
	return sb.String(), nil
}

func clearValues(n *html.Node) {
	if n.Type == html.ElementNode && n.DataAtom == atom.Input {
		for i := range n.Attr {
			if n.Attr[i].Namespace == "" && strings.EqualFold(n.Attr[i].Key, "value") {
				n.Attr[i].Val = ""
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		clearValues(c)
	}
}
