package realtime

import "errors"

// ErrTransportClosed is returned by operations on a closed transport.
var ErrTransportClosed = errors.New("transport closed")
