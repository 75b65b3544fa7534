package health

import "context"

// RegistryPinger checks registry database availability.
type RegistryPinger interface {
	Ping(ctx context.Context) error
}

// EnginePinger checks search engine availability.
type EnginePinger interface {
	Ping(ctx context.Context) error
}
