package token

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
)

var ErrInvalidUserRef = errors.New("invalid user reference")

// EncodeUserRef renders a user id as the URL-safe reference used in emailed
// links.
func EncodeUserRef(id uint64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatUint(id, 10)))
}

func DecodeUserRef(ref string) (uint64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(ref, "="))
	if err != nil {
		return 0, ErrInvalidUserRef
	}
	id, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidUserRef
	}
	return id, nil
}
