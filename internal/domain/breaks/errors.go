package breaks

import "errors"

var (
	ErrBreakAlreadyOpen = errors.New("a break is already open")
)
