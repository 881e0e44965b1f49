package interaction

import (
	"planboard/internal/canvas"
	"planboard/internal/domain"
	"planboard/internal/geometry"
)

// Machine is the per-session interaction state machine. Only one
// interaction is active at a time; starting a new one cancels the old.
type Machine struct {
	board   *canvas.Board
	targets []DropTarget
	catalog domain.DrillCatalog

	state  State
	cardID string

	last        geometry.Point // last screen point while panning
	grab        geometry.Point // pointer minus card position, canvas space
	startScreen geometry.Point
	startSize   geometry.Size
}

func NewMachine(board *canvas.Board, targets ...DropTarget) *Machine {
	return &Machine{board: board, targets: targets}
}

func (m *Machine) State() State { return m.state }

// ActiveCard is the card being dragged, resized or edited.
func (m *Machine) ActiveCard() string { return m.cardID }

// SetDropTargets replaces the drop regions checked on card release.
func (m *Machine) SetDropTargets(targets ...DropTarget) { m.targets = targets }

func (m *Machine) DropTargets() []DropTarget { return m.targets }

// SetCatalog makes external drops resolve drills by id. Without a catalog
// the dropped summary is used as sent.
func (m *Machine) SetCatalog(c domain.DrillCatalog) { m.catalog = c }

// Dispatch feeds one event into the machine. It reports whether the event
// was consumed; a plain wheel without ctrl/meta is not, so the host can
// scroll the page instead.
func (m *Machine) Dispatch(ev Event) bool {
	switch ev.Type {
	case PointerDown:
		return m.pointerDown(ev)
	case PointerMove:
		return m.pointerMove(ev)
	case PointerUp:
		return m.pointerUp(ev)
	case Wheel:
		return m.wheel(ev)
	case KeyDelete:
		if m.state == EditingCardText {
			return false
		}
		return m.board.DeleteSelected()
	case KeyEscape:
		if m.state == Idle {
			had := m.board.Selection().CardID() != "" || m.board.Selection().ConnectionID() != ""
			m.board.Selection().Clear()
			return had
		}
		m.Cancel()
		return true
	case EditStart:
		return m.editStart(ev)
	case EditChange:
		if m.state != EditingCardText || ev.Patch == nil {
			return false
		}
		return m.board.Cards.UpdateCardContent(m.cardID, *ev.Patch)
	case EditEnd:
		if m.state != EditingCardText {
			return false
		}
		m.reset()
		return true
	case DropExternal:
		return m.dropExternal(ev)
	}
	return false
}

// Cancel abandons the active interaction. A temporary connection is
// discarded; moves and resizes already applied stay.
func (m *Machine) Cancel() {
	if m.state == DraggingConnectionHandle {
		m.board.Connections.CancelConnection()
	}
	m.reset()
}

func (m *Machine) reset() {
	m.state = Idle
	m.cardID = ""
}

func (m *Machine) toCanvas(p geometry.Point) geometry.Point {
	return m.board.Viewport.ScreenToCanvas(p)
}

// ── Pointer ─────────────────────────────────────────────────

func (m *Machine) pointerDown(ev Event) bool {
	m.Cancel()
	b := m.board
	pt := m.toCanvas(ev.Screen)

	switch ev.Target.Kind {
	case TargetBackground, "":
		// A connection's hit band sits over the background.
		if id, ok := b.Connections.HitTest(pt, 0); ok {
			return b.Connections.SelectConnection(id)
		}
		b.Selection().Clear()
		m.state = PanningCanvas
		m.last = ev.Screen
		return true

	case TargetConnection:
		return b.Connections.SelectConnection(ev.Target.ConnectionID)

	case TargetCardBody:
		return b.Cards.SelectCard(ev.Target.CardID)

	case TargetCardHandle:
		card, ok := b.Cards.Card(ev.Target.CardID)
		if !ok {
			return false
		}
		b.Cards.SelectCard(card.ID)
		m.state = DraggingCard
		m.cardID = card.ID
		m.grab = pt.Sub(card.Position)
		return true

	case TargetResizeCorner:
		card, ok := b.Cards.Card(ev.Target.CardID)
		if !ok {
			return false
		}
		b.Cards.SelectCard(card.ID)
		m.state = ResizingCard
		m.cardID = card.ID
		m.startScreen = ev.Screen
		m.startSize = card.Size
		return true

	case TargetConnectionHandle:
		if !b.Connections.BeginConnection(ev.Target.CardID, ev.Target.Anchor, pt) {
			return false
		}
		m.state = DraggingConnectionHandle
		m.cardID = ev.Target.CardID
		return true
	}
	return false
}

func (m *Machine) pointerMove(ev Event) bool {
	b := m.board
	switch m.state {
	case PanningCanvas:
		b.Viewport.Pan(ev.Screen.Sub(m.last))
		m.last = ev.Screen
		return true
	case DraggingCard:
		return b.Cards.MoveCard(m.cardID, m.toCanvas(ev.Screen).Sub(m.grab))
	case ResizingCard:
		return b.Cards.ResizeCard(m.cardID, m.resizedSize(ev.Screen))
	case DraggingConnectionHandle:
		b.Connections.UpdateTemporaryEndpoint(m.toCanvas(ev.Screen))
		return true
	}
	return false
}

func (m *Machine) pointerUp(ev Event) bool {
	b := m.board
	switch m.state {
	case PanningCanvas:
		b.Viewport.Pan(ev.Screen.Sub(m.last))
		m.reset()
		return true

	case DraggingCard:
		id := m.cardID
		m.reset()
		if !b.Cards.MoveCard(id, m.toCanvas(ev.Screen).Sub(m.grab)) {
			return false
		}
		m.checkDropTargets(id)
		return true

	case ResizingCard:
		b.Cards.ResizeCard(m.cardID, m.resizedSize(ev.Screen))
		m.reset()
		return true

	case DraggingConnectionHandle:
		m.reset()
		if ev.Target.Kind == TargetConnectionHandle {
			_, ok := b.Connections.CompleteConnection(ev.Target.CardID, ev.Target.Anchor)
			return ok
		}
		b.Connections.CancelConnection()
		return true
	}
	return false
}

// checkDropTargets runs every drop target whose region overlaps the card's
// current screen rect.
func (m *Machine) checkDropTargets(cardID string) {
	card, ok := m.board.Cards.Card(cardID)
	if !ok {
		return
	}
	onScreen := m.board.Viewport.ScreenRect(card.Rect())
	for _, t := range m.targets {
		if t.Region().Intersects(onScreen) {
			t.Drop(card)
		}
	}
}

func (m *Machine) resizedSize(screen geometry.Point) geometry.Size {
	d := screen.Sub(m.startScreen).Scale(1 / m.board.Viewport.Scale())
	return geometry.Sz(m.startSize.W+d.X, m.startSize.H+d.Y)
}

// ── Wheel / text / external drop ────────────────────────────

func (m *Machine) wheel(ev Event) bool {
	if !ev.Modifiers.Ctrl && !ev.Modifiers.Meta {
		return false
	}
	if ev.DeltaY == 0 {
		return false
	}
	step := m.board.Options().ZoomStep
	factor := step
	if ev.DeltaY > 0 {
		factor = 1 / step
	}
	pivot := ev.Screen
	m.board.Viewport.ZoomBy(factor, &pivot)
	return true
}

func (m *Machine) editStart(ev Event) bool {
	id := ev.Target.CardID
	if _, ok := m.board.Cards.Card(id); !ok {
		return false
	}
	m.Cancel()
	m.board.Cards.SelectCard(id)
	m.state = EditingCardText
	m.cardID = id
	return true
}

// dropExternal places a drill from the catalog at the drop point. With a
// catalog set, an id it does not know is ignored and the catalog record
// wins over the fields in the event.
func (m *Machine) dropExternal(ev Event) bool {
	if ev.Drill == nil {
		return false
	}
	drill := *ev.Drill
	if m.catalog != nil {
		d, ok := m.catalog.LookupDrill(drill.ID)
		if !ok {
			return false
		}
		drill = d
	}
	m.Cancel()
	content := drill.Content()
	_, err := m.board.Cards.AddCardAt(domain.CardKindDrill, &content, m.toCanvas(ev.Screen))
	return err == nil
}
