package session

import "github.com/specboard/specboard/document"

// EditState is the transient per-cell editing state: idle, or exactly one
// (row, column) cell being edited. It lives outside the synchronized document
// and is never serialized or published.
type EditState struct {
	active bool
	row    int
	column string
}

// Active returns the cell currently being edited, if any.
func (e EditState) Active() (row int, column string, ok bool) {
	return e.row, e.column, e.active
}

// StartEdit activates editing of (row, column), replacing any other active
// cell: at most one cell is editable at a time.
func (s *Session) StartEdit(row int, column string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editing = EditState{active: true, row: row, column: column}
}

// EndEdit returns to idle. Called on blur and on Enter-without-shift.
func (s *Session) EndEdit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editing = EditState{}
}

// Editing returns the current edit state.
func (s *Session) Editing() EditState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editing
}

// SelectOption applies a fixed-option pick (method, priority, state, owner)
// to the active cell and ends editing in the same transition.
func (s *Session) SelectOption(column string, row int, value string) (document.Document, error) {
	doc, err := s.SetCell(column, row, value)
	if err != nil {
		return document.Document{}, err
	}
	s.EndEdit()
	return doc, nil
}
