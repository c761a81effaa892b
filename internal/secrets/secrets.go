package secrets

// BytesWrapper contains the WithBytes method that provides gated access to an internal byte slice.
type BytesWrapper interface {
	WithBytes(action func([]byte) error) (err error)
}
