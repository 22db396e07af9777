package utils

// Ptr returns a pointer to the given value. Test helper for optional
// struct fields.
func Ptr[T any](v T) *T {
	return &v
}
