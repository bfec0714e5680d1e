package utils

// NewNullString is a helper for string pointers, returning nil if string is empty.
// Useful for optional text fields destined for nullable columns.
func NewNullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
