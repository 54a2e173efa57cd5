package discord

// HasAnyRole reports whether held contains at least one of wanted. An
// empty wanted set means the check is unrestricted.
func HasAnyRole(held, wanted []string) bool {
	if len(wanted) == 0 {
		return true
	}
	for _, w := range wanted {
		for _, h := range held {
			if h == w {
				return true
			}
		}
	}
	return false
}

// HasRole reports whether held contains roleID. Empty roleID always
// returns true.
func HasRole(held []string, roleID string) bool {
	if roleID == "" {
		return true
	}
	for _, h := range held {
		if h == roleID {
			return true
		}
	}
	return false
}
