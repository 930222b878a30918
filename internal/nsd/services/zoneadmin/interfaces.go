package zoneadmin

import (
	"context"

	"github.com/haukened/nsdctl/internal/nsd/domain"
	"github.com/haukened/nsdctl/internal/nsd/repos/zonefiles"
)

// Controller is the subset of the control client zone administration uses.
type Controller interface {
	Status(ctx context.Context) (domain.Response, error)
	Stats(ctx context.Context, reset bool) (domain.Response, error)
	AddZone(ctx context.Context, name, data, pattern string) (domain.Response, error)
	DeleteZone(ctx context.Context, name string) (domain.Response, error)
	ZoneStatus(ctx context.Context, name string) (domain.Response, error)
	ReloadZone(ctx context.Context, name string) (domain.Response, error)
}

// Store persists zone files and the provisioned-zone registry.
type Store interface {
	Write(name, data string) (string, error)
	Remove(name string) error
	Register(name, pattern string) error
	Deregister(name string) error
	Lookup(name string) (zonefiles.Record, bool, error)
	List() ([]zonefiles.Record, error)
}

// ReplyCache caches successful read-only replies by command key.
type ReplyCache interface {
	Get(key string) (domain.Response, bool)
	Set(key string, resp domain.Response)
	Delete(key string)
}
