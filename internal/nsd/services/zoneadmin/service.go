// Package zoneadmin provisions zones end to end: it places zone files on
// disk, drives the name server over its control channel, and keeps a
// durable registry of which zones this host manages.
package zoneadmin

import (
	"context"
	"errors"
	"fmt"

	"github.com/haukened/nsdctl/internal/nsd/common/log"
	"github.com/haukened/nsdctl/internal/nsd/domain"
	"github.com/haukened/nsdctl/internal/nsd/repos/statuscache"
	"github.com/haukened/nsdctl/internal/nsd/repos/zonefiles"
)

// Result codes follow EPP conventions so provisioning systems can map
// outcomes without parsing messages.
const (
	CodeOK            = 1000
	CodeObjectExists  = 2302
	CodeObjectMissing = 2303
	CodeCommandFailed = 2400
)

const (
	msgOK            = "OK"
	msgObjectExists  = "object exists"
	msgObjectMissing = "object does not exist"
	msgCommandFailed = "command failed"

	errControllerRequired = "a controller is required"
	errStoreRequired      = "a zone store is required"
)

// Result is the outcome of a zone administration request. Transport
// failures are returned as errors instead; a Result always means the
// request reached a decision.
type Result struct {
	Code    int            `json:"code"`
	Msg     string         `json:"msg"`
	Zone    string         `json:"zone,omitempty"`
	Detail  string         `json:"detail,omitempty"`
	Fields  []domain.Field `json:"fields,omitempty"`
	Message string         `json:"message,omitempty"`
}

// Service implements zone administration on top of a control client,
// a zone file store, and an optional reply cache.
type Service struct {
	client  Controller
	store   Store
	cache   ReplyCache
	pattern string
	logger  log.Logger
}

// Options configures a zone administration service.
type Options struct {
	Client Controller
	Store  Store
	// Cache is optional; without it every read-only request hits the
	// control channel.
	Cache ReplyCache
	// DefaultPattern is the name server config pattern assigned to zones
	// added without an explicit one.
	DefaultPattern string
	Logger         log.Logger
}

func New(opts Options) (*Service, error) {
	if opts.Client == nil {
		return nil, errors.New(errControllerRequired)
	}
	if opts.Store == nil {
		return nil, errors.New(errStoreRequired)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Service{
		client:  opts.Client,
		store:   opts.Store,
		cache:   opts.Cache,
		pattern: opts.DefaultPattern,
		logger:  logger,
	}, nil
}

// AddZone registers the zone with the name server under the given config
// pattern, writes the zone file, has the server load it, and records the
// zone in the registry. A zone already present yields CodeObjectExists
// without touching the server.
func (s *Service) AddZone(ctx context.Context, name, data, pattern string) (Result, error) {
	zone, err := CleanZoneName(name)
	if err != nil {
		return Result{Code: CodeCommandFailed, Msg: err.Error(), Zone: name}, nil
	}
	if pattern == "" {
		pattern = s.pattern
	}

	if _, found, err := s.store.Lookup(zone); err != nil {
		return Result{}, err
	} else if found {
		return Result{Code: CodeObjectExists, Msg: msgObjectExists, Zone: zone}, nil
	}

	resp, err := s.client.AddZone(ctx, zone, "", pattern)
	if err != nil {
		var cmdErr *domain.CommandError
		if errors.As(err, &cmdErr) {
			return Result{Code: CodeObjectExists, Msg: msgObjectExists, Zone: zone, Detail: cmdErr.Message}, nil
		}
		return Result{}, err
	}

	// The file is written only once the server has accepted the zone, so
	// a rejection never leaves an orphaned zone file behind.
	path, err := s.store.Write(zone, data)
	if err != nil {
		return Result{}, err
	}
	if _, err := s.client.ReloadZone(ctx, zone); err != nil {
		var cmdErr *domain.CommandError
		if errors.As(err, &cmdErr) {
			return Result{Code: CodeCommandFailed, Msg: msgCommandFailed, Zone: zone, Detail: cmdErr.Message}, nil
		}
		return Result{}, err
	}

	if err := s.store.Register(zone, pattern); err != nil {
		return Result{}, fmt.Errorf("zone %q added but not registered: %w", zone, err)
	}
	s.invalidate(zone)

	s.logger.Info(map[string]any{
		"zone":    zone,
		"pattern": pattern,
		"path":    path,
	}, "zone added")
	return s.okResult(zone, resp), nil
}

// UpdateZone rewrites the zone file and reloads it on the name server. A
// zone that is neither registered locally nor known to the server yields
// CodeObjectMissing.
func (s *Service) UpdateZone(ctx context.Context, name, data string) (Result, error) {
	zone, err := CleanZoneName(name)
	if err != nil {
		return Result{Code: CodeCommandFailed, Msg: err.Error(), Zone: name}, nil
	}

	_, found, err := s.store.Lookup(zone)
	if err != nil {
		return Result{}, err
	}
	if !found {
		// Zones provisioned outside this service are still updatable if
		// the server knows them.
		if _, err := s.client.ZoneStatus(ctx, zone); err != nil {
			var cmdErr *domain.CommandError
			if errors.As(err, &cmdErr) {
				return Result{Code: CodeObjectMissing, Msg: msgObjectMissing, Zone: zone, Detail: cmdErr.Message}, nil
			}
			return Result{}, err
		}
	}

	if _, err := s.store.Write(zone, data); err != nil {
		return Result{}, err
	}

	resp, err := s.client.ReloadZone(ctx, zone)
	if err != nil {
		var cmdErr *domain.CommandError
		if errors.As(err, &cmdErr) {
			return Result{Code: CodeCommandFailed, Msg: msgCommandFailed, Zone: zone, Detail: cmdErr.Message}, nil
		}
		return Result{}, err
	}
	s.invalidate(zone)

	s.logger.Info(map[string]any{"zone": zone}, "zone updated")
	return s.okResult(zone, resp), nil
}

// DeleteZone removes the zone from the name server, then deletes its file
// and registry entry.
func (s *Service) DeleteZone(ctx context.Context, name string) (Result, error) {
	zone, err := CleanZoneName(name)
	if err != nil {
		return Result{Code: CodeCommandFailed, Msg: err.Error(), Zone: name}, nil
	}

	resp, err := s.client.DeleteZone(ctx, zone)
	if err != nil {
		var cmdErr *domain.CommandError
		if errors.As(err, &cmdErr) {
			return Result{Code: CodeCommandFailed, Msg: msgCommandFailed, Zone: zone, Detail: cmdErr.Message}, nil
		}
		return Result{}, err
	}

	if err := s.store.Remove(zone); err != nil {
		return Result{}, err
	}
	if err := s.store.Deregister(zone); err != nil {
		return Result{}, err
	}
	s.invalidate(zone)

	s.logger.Info(map[string]any{"zone": zone}, "zone deleted")
	return s.okResult(zone, resp), nil
}

// ZoneStatus reports the server's view of one zone, caching replies.
func (s *Service) ZoneStatus(ctx context.Context, name string) (Result, error) {
	zone, err := CleanZoneName(name)
	if err != nil {
		return Result{Code: CodeCommandFailed, Msg: err.Error(), Zone: name}, nil
	}

	key := statuscache.Key("zonestatus", zone)
	if resp, found := s.cached(key); found {
		return s.okResult(zone, resp), nil
	}

	resp, err := s.client.ZoneStatus(ctx, zone)
	if err != nil {
		var cmdErr *domain.CommandError
		if errors.As(err, &cmdErr) {
			return Result{Code: CodeObjectMissing, Msg: msgObjectMissing, Zone: zone, Detail: cmdErr.Message}, nil
		}
		return Result{}, err
	}
	s.cacheSet(key, resp)
	return s.okResult(zone, resp), nil
}

// Status reports overall server status, caching replies.
func (s *Service) Status(ctx context.Context) (Result, error) {
	key := statuscache.Key("status")
	if resp, found := s.cached(key); found {
		return s.okResult("", resp), nil
	}

	resp, err := s.client.Status(ctx)
	if err != nil {
		var cmdErr *domain.CommandError
		if errors.As(err, &cmdErr) {
			return Result{Code: CodeCommandFailed, Msg: msgCommandFailed, Detail: cmdErr.Message}, nil
		}
		return Result{}, err
	}
	s.cacheSet(key, resp)
	return s.okResult("", resp), nil
}

// Stats reports server statistics. Non-resetting reads are cached;
// a resetting read always goes to the server.
func (s *Service) Stats(ctx context.Context, reset bool) (Result, error) {
	key := statuscache.Key("stats_noreset")
	if !reset {
		if resp, found := s.cached(key); found {
			return s.okResult("", resp), nil
		}
	}

	resp, err := s.client.Stats(ctx, reset)
	if err != nil {
		var cmdErr *domain.CommandError
		if errors.As(err, &cmdErr) {
			return Result{Code: CodeCommandFailed, Msg: msgCommandFailed, Detail: cmdErr.Message}, nil
		}
		return Result{}, err
	}
	if reset {
		// The server just zeroed its counters; a cached non-resetting
		// reply would keep serving the pre-reset values.
		s.cacheDelete(key)
	} else {
		s.cacheSet(key, resp)
	}
	return s.okResult("", resp), nil
}

// ListZones returns the registry's view of zones provisioned here.
func (s *Service) ListZones() ([]zonefiles.Record, error) {
	return s.store.List()
}

func (s *Service) okResult(zone string, resp domain.Response) Result {
	return Result{
		Code:    CodeOK,
		Msg:     msgOK,
		Zone:    zone,
		Message: resp.Message,
		Fields:  resp.Fields,
	}
}

func (s *Service) cached(key string) (domain.Response, bool) {
	if s.cache == nil {
		return domain.Response{}, false
	}
	return s.cache.Get(key)
}

func (s *Service) cacheSet(key string, resp domain.Response) {
	if s.cache != nil {
		s.cache.Set(key, resp)
	}
}

func (s *Service) cacheDelete(key string) {
	if s.cache != nil {
		s.cache.Delete(key)
	}
}

// invalidate drops cached replies a zone mutation makes stale.
func (s *Service) invalidate(zone string) {
	if s.cache == nil {
		return
	}
	s.cache.Delete(statuscache.Key("zonestatus", zone))
	s.cache.Delete(statuscache.Key("status"))
	s.cache.Delete(statuscache.Key("stats_noreset"))
}
