package imagefile

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

var (
	ErrBadSizeSyntax = errors.New("bad size syntax")
	ErrNonPositive   = errors.New("value must be > 0")
	ErrTooLarge      = errors.New("value too large")
)

// ParseSize reads a block size such as "4096", "4K" or "1M". Suffixes are
// binary multiples.
func ParseSize(s string) (int, error) {
	ss := strings.ToUpper(strings.TrimSpace(s))
	mul := 1
	switch {
	case strings.HasSuffix(ss, "K"):
		mul = 1 << 10
	case strings.HasSuffix(ss, "M"):
		mul = 1 << 20
	case strings.HasSuffix(ss, "G"):
		mul = 1 << 30
	}
	if mul != 1 {
		ss = strings.TrimSpace(ss[:len(ss)-1])
	}
	v, err := ParseCount(ss)
	if err != nil {
		return 0, err
	}
	if v > math.MaxInt/mul {
		return 0, ErrTooLarge
	}
	return v * mul, nil
}

// ParseCount reads a plain positive integer.
func ParseCount(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrBadSizeSyntax
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, ErrTooLarge
		}
		return 0, ErrBadSizeSyntax
	}
	if v <= 0 {
		return 0, ErrNonPositive
	}
	return v, nil
}
