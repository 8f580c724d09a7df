package command

import "errors"

var (
	ErrDuplicateCommand = errors.New("command already registered")
	ErrUnknownCommand   = errors.New("unknown command")
	ErrInvalidCommand   = errors.New("invalid command declaration")
	ErrArgumentType     = errors.New("invalid argument type")
)
