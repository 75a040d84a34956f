package server

import "errors"

var (
	errNoListenAddress = errors.New("no control listen address configured")
)
