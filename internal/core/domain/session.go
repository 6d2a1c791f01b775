package domain

// Session is the live bearer credential for the remote service.
// It is replaced wholesale on every refresh, never mutated in place.
type Session struct {
	Token    string
	Identity string
}

// Valid reports whether the session carries a usable token.
func (s Session) Valid() bool {
	return s.Token != ""
}
