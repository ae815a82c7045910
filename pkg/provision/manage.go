package provision

import (
	"context"
	"log/slog"
	"slices"

	"github.com/leapstack-labs/leaprdf/pkg/core"
	"github.com/leapstack-labs/leaprdf/pkg/naming"
)

// Stores lists the stores in the backend that carry the configured prefix.
func (p *Provisioner) Stores(ctx context.Context) ([]string, error) {
	var out []string
	err := p.withCatalog(ctx, "", func(_ core.Session, names []string) error {
		for _, n := range names {
			if naming.HasPrefix(p.cfg.Prefix, n) {
				out = append(out, n)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(out)
	return out, nil
}

// Describe returns the handle of an existing dataset store.
// The boolean is false when the store does not exist.
func (p *Provisioner) Describe(ctx context.Context, dataset string) (core.Handle, bool, error) {
	physical, err := naming.Physical(p.cfg.Prefix, dataset)
	if err != nil {
		return core.Handle{}, false, &Error{Dataset: dataset, Phase: PhaseValidate, Err: err}
	}

	var (
		h     core.Handle
		found bool
	)
	err = p.withCatalog(ctx, dataset, func(sess core.Session, names []string) error {
		if !slices.Contains(names, physical) {
			return nil
		}
		err := p.step(ctx, func(ctx context.Context) (err error) {
			h, err = sess.Open(ctx, physical)
			return err
		})
		if err != nil {
			return &Error{Dataset: dataset, Phase: PhaseOpen, Err: err}
		}
		found = true
		return nil
	})
	if err != nil || !found {
		return core.Handle{}, false, err
	}
	h.Dataset = dataset
	return h, true, nil
}

// Remove drops the store of a dataset. It reports whether a store existed.
func (p *Provisioner) Remove(ctx context.Context, dataset string) (bool, error) {
	physical, err := naming.Physical(p.cfg.Prefix, dataset)
	if err != nil {
		return false, &Error{Dataset: dataset, Phase: PhaseValidate, Err: err}
	}

	var existed bool
	err = p.withCatalog(ctx, dataset, func(sess core.Session, names []string) error {
		if !slices.Contains(names, physical) {
			return nil
		}
		existed = true
		p.logger.Info("dropping store", slog.String("dataset", dataset), slog.String("store", physical))
		err := p.step(ctx, func(ctx context.Context) error {
			return sess.Drop(ctx, physical)
		})
		if err != nil {
			return &Error{Dataset: dataset, Phase: PhaseDrop, Err: err}
		}
		return nil
	})
	return existed, err
}

// withCatalog connects, lists the catalog and hands both to fn. Every
// backend call runs under the step timeout and the session is always closed.
func (p *Provisioner) withCatalog(ctx context.Context, dataset string, fn func(core.Session, []string) error) error {
	var sess core.Session
	err := p.step(ctx, func(ctx context.Context) (err error) {
		sess, err = p.connector.Connect(ctx)
		return err
	})
	if err != nil {
		return &Error{Dataset: dataset, Phase: PhaseConnect, Err: err}
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			p.logger.Warn("failed to close session", slog.String("error", cerr.Error()))
		}
	}()

	var names []string
	err = p.step(ctx, func(ctx context.Context) (err error) {
		names, err = sess.ListStoreNames(ctx)
		return err
	})
	if err != nil {
		return &Error{Dataset: dataset, Phase: PhaseCatalog, Err: err}
	}
	return fn(sess, names)
}
