package logging

import "log/slog"

// Service tags log lines with the emitting service name.
func Service(name string) slog.Attr {
	return slog.String("service", name)
}

// Dialect tags log lines with the active appliance dialect.
func Dialect(d string) slog.Attr {
	return slog.String("dialect", d)
}

// Operation tags log lines with the logical bridge operation.
func Operation(op string) slog.Attr {
	return slog.String("operation", op)
}
