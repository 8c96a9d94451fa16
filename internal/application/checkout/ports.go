package checkout

// ReferenceGenerator issues opaque public order references, kept separate from
// the sequential numeric ids so references are not guessable.
type ReferenceGenerator interface {
	NewReference() string
}
