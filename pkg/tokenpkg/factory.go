package tokenpkg

import "fmt"

// Supported token types.
const (
	TypePaseto = "paseto"
	TypeJWT    = "jwt"
)

// New returns the maker of the given token type.
func New(tokenType, key string) (Maker, error) {
	switch tokenType {
	case TypePaseto, "":
		return NewPasetoMaker(key)
	case TypeJWT:
		return NewJWTMaker(key)
	default:
		return nil, fmt.Errorf("unsupported token type %q", tokenType)
	}
}
