package httpserver

import "time"

// ShutdownTimeout bounds how long in-flight requests may drain after a stop signal.
var ShutdownTimeout = 15 * time.Second
