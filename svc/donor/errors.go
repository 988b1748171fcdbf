package donor

import "errors"

var (
	ErrProfileNotFound     = errors.New("donor profile not found")
	ErrInvalidBloodType    = errors.New("invalid blood type")
	ErrInvalidAvailability = errors.New("invalid availability")
)
