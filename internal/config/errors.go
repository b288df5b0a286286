package config

import (
	"errors"
)

var (
	// ErrEmptyClientURL error if config webserver.clientURL is empty.
	ErrEmptyClientURL = errors.New("config webserver.clientURL can not be empty")
	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("config webserver.port listening port can not be 0")
	// ErrTokenSecretTooShort error if a configured auth.tokenSecret is shorter than MinTokenSecretLen.
	ErrTokenSecretTooShort = errors.New("config auth.tokenSecret must be at least 32 characters")
	// ErrUnknownGormEngine error if db.gormEngine names a driver that is not compiled in.
	ErrUnknownGormEngine = errors.New("config db.gormEngine must be one of sqlite, mysql, postgres")
)
