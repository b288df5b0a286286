package handler

import (
	"errors"
)

const (
	// RootPath is the root path the route group.
	RootPath = "/"

	// APIPath is the prefix of all json endpoints.
	APIPath = "/api"

	// ErrNilDepsLogMsg is used if the router or a required dependency is nil.
	ErrNilDepsLogMsg = "router or handler dependencies are nil"
)

// ErrNilDeps is returned by Init when the router or a required dependency is nil.
var ErrNilDeps = errors.New(ErrNilDepsLogMsg)
