package core

// maxItemIDLen is the suggested bound from spec §6 ("ItemID::try_new", 64 bytes).
const maxItemIDLen = 64

// ItemID is a validated name: ASCII letters, digits, underscore; must start
// with a letter or underscore. Constructed only through NewItemID.
type ItemID struct {
	name string
}

// String returns the validated name.
func (id ItemID) String() string { return id.name }

// NewItemID validates name per spec §6's identifier rules, returning
// SysBadItemID on violation.
func NewItemID(name string) (ItemID, error) {
	if name == "" || len(name) > maxItemIDLen {
		return ItemID{}, newErr(ErrSysBadItemID, "identifier length out of bounds")
	}
	first := name[0]
	if !(isAlpha(first) || first == '_') {
		return ItemID{}, newErr(ErrSysBadItemID, "identifier must start with a letter or underscore")
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if !(isAlpha(c) || isNum(c) || c == '_') {
			return ItemID{}, newErr(ErrSysBadItemID, "identifier contains a disallowed byte")
		}
	}
	return ItemID{name: name}, nil
}

func isAlpha(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isNum(c byte) bool {
	return '0' <= c && c <= '9'
}
