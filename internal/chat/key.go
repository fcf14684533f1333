package chat

// keySeparator joins the two participant IDs. User IDs are UUIDs and
// never contain it, so distinct pairs never collide.
const keySeparator = "_"

// Key returns the canonical conversation ID for a pair of user IDs.
// It is commutative: Key(a, b) == Key(b, a). Callers must reject a == b
// before calling; a user cannot converse with themselves.
func Key(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + keySeparator + b
}
