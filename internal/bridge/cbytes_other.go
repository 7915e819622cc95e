//go:build !unix

package bridge

import (
	"errors"
	"strings"
)

var errNul = errors.New("invalid argument")

func cbytes(s string) ([]byte, error) {
	if strings.IndexByte(s, 0) >= 0 {
		return nil, errNul
	}
	buf := make([]byte, len(s)+1)
	copy(buf, s)
	return buf, nil
}
