// Package provision makes datasets queryable: it creates each dataset's store
// exactly once and leaves no partial store behind when creation fails.
package provision

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/leapstack-labs/leaprdf/pkg/core"
	"github.com/leapstack-labs/leaprdf/pkg/naming"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// DefaultRollbackTimeout bounds the cleanup drop when no step timeout is set.
const DefaultRollbackTimeout = 30 * time.Second

// Provisioner runs the provisioning protocol for a set of datasets.
//
// Two processes provisioning the same dataset at the same time can both see
// the store as missing. Callers that share a backend must serialize
// provisioning of a dataset name themselves.
type Provisioner struct {
	connector core.Connector
	cfg       core.ProvisionConfig
	logger    *slog.Logger
}

// New creates a provisioner. Zero config values are replaced by defaults.
// If logger is nil, a discard logger is used.
func New(cfg core.ProvisionConfig, connector core.Connector, logger *slog.Logger) (*Provisioner, error) {
	if connector == nil {
		return nil, fmt.Errorf("connector is required")
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Provisioner{connector: connector, cfg: cfg, logger: logger}, nil
}

// Config returns the effective configuration.
func (p *Provisioner) Config() core.ProvisionConfig {
	return p.cfg
}

type job struct {
	req      core.DatasetRequest
	physical string
}

// Provision ensures a populated store exists for every request.
//
// Datasets are independent: successful ones are returned in the map keyed by
// dataset name, failed ones are absent and reported as *Error values combined
// into the returned error. An invalid request set fails as a whole before any
// backend is contacted.
func (p *Provisioner) Provision(ctx context.Context, reqs []core.DatasetRequest) (map[string]core.Handle, error) {
	jobs, err := p.plan(reqs)
	if err != nil {
		return nil, err
	}

	logger := p.logger.With(slog.String("run", uuid.NewString()))
	logger.Info("provisioning datasets",
		slog.Int("count", len(jobs)),
		slog.String("backend", p.cfg.Target.Type),
		slog.String("address", p.cfg.Target.Address()),
		slog.Bool("refresh", p.cfg.Refresh))

	var g *errgroup.Group
	gctx := ctx
	if p.cfg.FailFast {
		g, gctx = errgroup.WithContext(ctx)
	} else {
		g = new(errgroup.Group)
	}
	g.SetLimit(p.cfg.Parallelism)

	var (
		mu      sync.Mutex
		handles = make(map[string]core.Handle, len(jobs))
		errs    error
	)
	for _, j := range jobs {
		g.Go(func() error {
			h, err := p.provisionOne(gctx, logger, j)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = multierr.Append(errs, err)
				return err
			}
			handles[j.req.Name] = h
			return nil
		})
	}
	_ = g.Wait()

	logger.Info("provisioning finished",
		slog.Int("succeeded", len(handles)),
		slog.Int("failed", len(multierr.Errors(errs))))
	return handles, errs
}

// plan validates the request set and resolves physical names.
func (p *Provisioner) plan(reqs []core.DatasetRequest) ([]job, error) {
	var errs error
	invalid := func(name string, format string, args ...any) {
		errs = multierr.Append(errs, &Error{
			Dataset: name,
			Phase:   PhaseValidate,
			Err:     fmt.Errorf(format, args...),
		})
	}

	jobs := make([]job, 0, len(reqs))
	seen := make(map[string]bool, len(reqs))
	owners := make(map[string]string, len(reqs))
	for _, req := range reqs {
		if strings.TrimSpace(req.Name) == "" {
			invalid(req.Name, "dataset name is empty")
			continue
		}
		if strings.TrimSpace(req.Source) == "" {
			invalid(req.Name, "source is empty")
			continue
		}
		if seen[req.Name] {
			invalid(req.Name, "dataset requested more than once")
			continue
		}
		seen[req.Name] = true

		physical, err := naming.Physical(p.cfg.Prefix, req.Name)
		if err != nil {
			invalid(req.Name, "%v", err)
			continue
		}
		if other, ok := owners[physical]; ok {
			invalid(req.Name, "store name %s is also used by dataset %q", physical, other)
			continue
		}
		owners[physical] = req.Name
		jobs = append(jobs, job{req: req, physical: physical})
	}
	if errs != nil {
		return nil, errs
	}
	return jobs, nil
}

func (p *Provisioner) provisionOne(ctx context.Context, logger *slog.Logger, j job) (_ core.Handle, err error) {
	name := j.req.Name
	log := logger.With(slog.String("dataset", name), slog.String("store", j.physical))
	fail := func(phase Phase, err error) *Error {
		return &Error{Dataset: name, Phase: phase, Err: err}
	}

	if err := ctx.Err(); err != nil {
		return core.Handle{}, fail(PhaseConnect, err)
	}

	var sess core.Session
	err = p.step(ctx, func(ctx context.Context) (err error) {
		sess, err = p.connector.Connect(ctx)
		return err
	})
	if err != nil {
		return core.Handle{}, fail(PhaseConnect, err)
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			log.Warn("failed to close session", slog.String("error", cerr.Error()))
		}
	}()

	var names []string
	err = p.step(ctx, func(ctx context.Context) (err error) {
		names, err = sess.ListStoreNames(ctx)
		return err
	})
	if err != nil {
		return core.Handle{}, fail(PhaseCatalog, err)
	}
	exists := slices.Contains(names, j.physical)

	if exists && !p.cfg.Refresh {
		log.Debug("store exists, reusing it")
		var h core.Handle
		err = p.step(ctx, func(ctx context.Context) (err error) {
			h, err = sess.Open(ctx, j.physical)
			return err
		})
		if err != nil {
			return core.Handle{}, fail(PhaseOpen, err)
		}
		h.Dataset = name
		return h, nil
	}

	if exists {
		log.Debug("store exists, forcing removal")
		err = p.step(ctx, func(ctx context.Context) error {
			return sess.Drop(ctx, j.physical)
		})
		if err != nil {
			return core.Handle{}, fail(PhaseDrop, err)
		}
	}

	log.Debug("creating store", slog.String("layout", string(p.cfg.Layout)))
	var h core.Handle
	err = p.step(ctx, func(ctx context.Context) (err error) {
		h, err = sess.Create(ctx, j.physical, p.cfg.Layout)
		return err
	})
	if err != nil {
		e := fail(PhaseCreate, err)
		e.RollbackErr = p.rollback(ctx, log, sess, j.physical, err)
		return core.Handle{}, e
	}

	log.Debug("populating store", slog.String("source", j.req.Source))
	var n int64
	err = p.step(ctx, func(ctx context.Context) (err error) {
		n, err = sess.Load(ctx, h, j.req.Source, j.req.EffectiveFormat())
		return err
	})
	if err != nil {
		e := fail(PhaseLoad, err)
		e.RollbackErr = p.rollback(ctx, log, sess, j.physical, err)
		return core.Handle{}, e
	}

	h.Dataset = name
	h.Records = n
	log.Info("store provisioned", slog.Int64("records", n))
	return h, nil
}

// step runs one backend call under the configured step timeout.
func (p *Provisioner) step(ctx context.Context, fn func(context.Context) error) error {
	if p.cfg.StepTimeout <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, p.cfg.StepTimeout)
	defer cancel()
	return fn(ctx)
}

// rollback drops a partially created store. It runs on a context detached
// from the caller's so that cancellation still cleans up.
func (p *Provisioner) rollback(ctx context.Context, log *slog.Logger, sess core.Session, physical string, cause error) error {
	log.Error("provisioning failed, dropping store", slog.String("error", cause.Error()))

	timeout := p.cfg.StepTimeout
	if timeout <= 0 {
		timeout = DefaultRollbackTimeout
	}
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if err := sess.Drop(rctx, physical); err != nil {
		log.Error("failed to drop store", slog.String("error", err.Error()))
		return err
	}
	return nil
}
