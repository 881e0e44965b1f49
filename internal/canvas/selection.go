package canvas

// Selection is shared by the card and connection stores. At most one thing
// is selected at a time: a card or a connection, never both.
type Selection struct {
	cardID       string
	connectionID string
}

func (s *Selection) CardID() string       { return s.cardID }
func (s *Selection) ConnectionID() string { return s.connectionID }

func (s *Selection) setCard(id string) {
	s.cardID = id
	s.connectionID = ""
}

func (s *Selection) setConnection(id string) {
	s.connectionID = id
	s.cardID = ""
}

// Clear deselects everything.
func (s *Selection) Clear() {
	s.cardID = ""
	s.connectionID = ""
}
