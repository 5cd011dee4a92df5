package poolcore

import (
	"errors"
)

var (
	ErrCreationFailed = errors.New("pool:create failed")
	ErrPoolExhausted  = errors.New("pool:exhausted")
	ErrAcquireTimeout = errors.New("pool:acquire timeout")
	ErrNotCheckedOut  = errors.New("pool:not checked out")
	ErrPoolClosed     = errors.New("pool:closed")
	ErrInvalidOptions = errors.New("pool:invalid options")
)
