// Package convergence drives every worker of a cluster to the registered installer.
package convergence

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strconv"
	"sync"

	"github.com/cenkalti/backoff/v5"
	"go.trai.ch/lockship/internal/core/domain"
	"go.trai.ch/lockship/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

var errUnsettled = errors.New("workers have not settled")

// permanent errors are not retried on the same worker within one registration.
var permanent = []error{
	domain.ErrInstallationFailed,
	domain.ErrToolNotFound,
	domain.ErrPayloadCorrupt,
	domain.ErrPayloadWriteFailed,
	domain.ErrUnsupportedBackend,
}

// Driver implements the blocking registration protocol against a ports.Cluster.
type Driver struct {
	cluster ports.Cluster
	tracer  ports.Tracer
	logger  ports.Logger
	cfg     domain.ConvergenceConfig
}

// NewDriver creates a new Driver. Zero poll interval and round limits take their defaults.
func NewDriver(cluster ports.Cluster, tracer ports.Tracer, logger ports.Logger, cfg domain.ConvergenceConfig) *Driver {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = domain.DefaultPollInterval
	}
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = domain.DefaultMaxRounds
	}
	return &Driver{
		cluster: cluster,
		tracer:  tracer,
		logger:  logger,
		cfg:     cfg,
	}
}

// Register stores inst on the cluster and blocks until every visible worker,
// including workers that joined meanwhile, has applied it.
func (d *Driver) Register(ctx context.Context, inst *domain.Installer) error {
	ctx, span := d.tracer.Start(ctx, "Registering installer "+inst.Fingerprint.String())
	defer span.End()

	if err := d.cluster.RegisterInstaller(ctx, inst); err != nil {
		span.RecordError(err)
		return zerr.Wrap(err, "failed to register installer")
	}

	workers, err := d.cluster.Workers(ctx)
	if err != nil {
		span.RecordError(err)
		return zerr.Wrap(err, "failed to list workers")
	}
	d.tracer.EmitPlan(ctx, workerNames(workers))

	failures, owed := d.apply(ctx, ids(workers), func(ctx context.Context, id domain.WorkerID) (bool, error) {
		return d.setup(ctx, id, inst)
	})

	err = d.converge(ctx, inst.Fingerprint, failures, owed)
	if err != nil {
		span.RecordError(err)
	}
	return err
}

// converge probes and repairs until every visible worker has applied fp and
// received the restarts it asked for. owed holds the failed restarts; a
// successful probe does not settle them.
func (d *Driver) converge(ctx context.Context, fp domain.Fingerprint, failures, owed map[domain.WorkerID]error) error {
	for round := 0; ; round++ {
		skip := abandoned(failures)

		visible, err := d.settle(ctx, skip)
		if err != nil {
			maps.Copy(failures, owed)
			return errors.Join(err, d.result(failures, nil))
		}
		forget(owed, visible)

		missing := d.probe(ctx, visible, skip, fp, failures)
		if len(missing) == 0 && len(owed) == 0 {
			return d.result(failures, visible)
		}

		if round == d.cfg.MaxRounds {
			for _, id := range missing {
				if _, ok := failures[id]; !ok {
					failures[id] = zerr.With(zerr.New("installer not applied after "+strconv.Itoa(round)+" repair rounds"), "worker", string(id))
				}
			}
			maps.Copy(failures, owed)
			return d.result(failures, visible)
		}

		if len(owed) > 0 {
			d.logger.Warn(strconv.Itoa(len(owed)) + " workers still need a restart, retrying")
			retry := slices.Sorted(maps.Keys(owed))
			clear(owed)
			maps.Copy(owed, d.restartAll(ctx, retry))
		}
		if len(missing) > 0 {
			d.logger.Warn(strconv.Itoa(len(missing)) + " workers are missing the installer, repairing")
			repaired, stillOwed := d.repair(ctx, missing)
			maps.Copy(failures, repaired)
			maps.Copy(owed, stillOwed)
		}
	}
}

// apply runs fn on every worker, then restarts the workers that asked for it.
// It returns the failed calls to fn and the failed restarts separately.
// Failures do not cancel peers.
func (d *Driver) apply(
	ctx context.Context,
	workers []domain.WorkerID,
	fn func(context.Context, domain.WorkerID) (bool, error),
) (failures, owed map[domain.WorkerID]error) {
	var (
		mu      sync.Mutex
		restart []domain.WorkerID
	)
	failures = make(map[domain.WorkerID]error)

	var g errgroup.Group
	for _, id := range workers {
		g.Go(func() error {
			needsRestart, err := fn(ctx, id)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				failures[id] = workerError(id, err)
			case needsRestart:
				restart = append(restart, id)
			}
			return nil
		})
	}
	_ = g.Wait()

	return failures, d.restartAll(ctx, restart)
}

// restartAll restarts workers concurrently and returns the restarts that failed.
func (d *Driver) restartAll(ctx context.Context, workers []domain.WorkerID) map[domain.WorkerID]error {
	var mu sync.Mutex
	failed := make(map[domain.WorkerID]error)

	var g errgroup.Group
	for _, id := range workers {
		g.Go(func() error {
			if err := d.restart(ctx, id); err != nil {
				mu.Lock()
				failed[id] = workerError(id, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return failed
}

func (d *Driver) setup(ctx context.Context, id domain.WorkerID, inst *domain.Installer) (bool, error) {
	ctx, span := d.tracer.Start(ctx, "Installing on "+string(id), ports.WithWorker(string(id)))
	defer span.End()

	result, err := d.cluster.Setup(ctx, id, inst)
	if err != nil {
		span.RecordError(err)
		return false, err
	}

	span.SetAttribute("restart", result.Restart)
	span.SetAttribute("skipped", result.Skipped)
	if result.Skipped {
		_, _ = span.Write([]byte("already applied\n"))
	} else {
		_, _ = span.Write([]byte(changesLine(result.Changes, result.Restart)))
	}
	return result.Restart, nil
}

func (d *Driver) restart(ctx context.Context, id domain.WorkerID) error {
	ctx, span := d.tracer.Start(ctx, "Restarting "+string(id), ports.WithWorker(string(id)))
	defer span.End()

	if err := d.cluster.Restart(ctx, id); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// settle waits until every worker outside skip is ready and returns the visible workers.
func (d *Driver) settle(ctx context.Context, skip map[domain.WorkerID]bool) ([]domain.WorkerInfo, error) {
	ctx, span := d.tracer.Start(ctx, "Waiting for workers to settle")
	defer span.End()

	var pending []domain.WorkerID
	op := func() ([]domain.WorkerInfo, error) {
		workers, err := d.cluster.Workers(ctx)
		if err != nil {
			return nil, err
		}
		pending = pending[:0]
		for _, w := range workers {
			if !skip[w.ID] && !w.State.Settled() {
				pending = append(pending, w.ID)
			}
		}
		if len(pending) > 0 {
			return nil, errUnsettled
		}
		return workers, nil
	}

	workers, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(d.cfg.PollInterval)),
		backoff.WithMaxElapsedTime(d.cfg.SettleTimeout),
	)
	if err == nil {
		return workers, nil
	}

	span.RecordError(err)
	if errors.Is(err, errUnsettled) {
		names := make([]string, len(pending))
		for i, id := range pending {
			names[i] = string(id)
		}
		timeout := zerr.With(zerr.Wrap(domain.ErrSettleTimeout, d.cfg.SettleTimeout.String()), "pending", names)
		return nil, timeout
	}
	return nil, zerr.Wrap(err, "failed waiting for workers to settle")
}

// probe returns the workers outside skip that have not applied fp. Probe
// errors count the worker as missing and are recorded in failures.
func (d *Driver) probe(
	ctx context.Context,
	workers []domain.WorkerInfo,
	skip map[domain.WorkerID]bool,
	fp domain.Fingerprint,
	failures map[domain.WorkerID]error,
) []domain.WorkerID {
	ctx, span := d.tracer.Start(ctx, "Probing workers")
	defer span.End()

	var (
		mu      sync.Mutex
		missing []domain.WorkerID
	)
	var g errgroup.Group
	for _, w := range workers {
		if skip[w.ID] {
			continue
		}
		g.Go(func() error {
			applied, err := d.cluster.Applied(ctx, w.ID, fp)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				failures[w.ID] = workerError(w.ID, err)
				missing = append(missing, w.ID)
			case !applied:
				missing = append(missing, w.ID)
			default:
				delete(failures, w.ID)
			}
			return nil
		})
	}
	_ = g.Wait()

	slices.Sort(missing)
	span.SetAttribute("missing", len(missing))
	return missing
}

// repair applies the coordinator's installer list directly on each missing
// worker. It returns the failed repairs and the failed restarts.
func (d *Driver) repair(ctx context.Context, missing []domain.WorkerID) (failures, owed map[domain.WorkerID]error) {
	ctx, span := d.tracer.Start(ctx, "Repairing workers")
	defer span.End()

	installers, err := d.cluster.Installers(ctx)
	if err != nil {
		span.RecordError(err)
		failed := make(map[domain.WorkerID]error, len(missing))
		for _, id := range missing {
			failed[id] = zerr.With(zerr.Wrap(err, "failed to fetch installers"), "worker", string(id))
		}
		return failed, nil
	}

	return d.apply(ctx, missing, func(ctx context.Context, id domain.WorkerID) (bool, error) {
		var restart bool
		for _, inst := range installers {
			applied, err := d.cluster.Applied(ctx, id, inst.Fingerprint)
			if err != nil {
				return false, err
			}
			if applied {
				continue
			}
			needsRestart, err := d.setup(ctx, id, inst)
			if err != nil {
				return false, err
			}
			restart = restart || needsRestart
		}
		return restart, nil
	})
}

// result builds the error for the failures of workers still visible. A nil
// visible list keeps every failure.
func (d *Driver) result(failures map[domain.WorkerID]error, visible []domain.WorkerInfo) error {
	if visible != nil {
		forget(failures, visible)
	}
	if len(failures) == 0 {
		return nil
	}

	errs := []error{domain.ErrConvergenceFailed}
	for _, id := range slices.Sorted(maps.Keys(failures)) {
		errs = append(errs, failures[id])
	}
	return errors.Join(errs...)
}

// WaitForWorkers blocks until at least n workers are ready.
func (d *Driver) WaitForWorkers(ctx context.Context, n int) error {
	ctx, span := d.tracer.Start(ctx, "Waiting for "+strconv.Itoa(n)+" workers")
	defer span.End()

	ready := 0
	op := func() (struct{}, error) {
		workers, err := d.cluster.Workers(ctx)
		if err != nil {
			return struct{}{}, err
		}
		ready = 0
		for _, w := range workers {
			if w.State.Settled() {
				ready++
			}
		}
		if ready < n {
			return struct{}{}, errUnsettled
		}
		return struct{}{}, nil
	}

	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(d.cfg.PollInterval)),
		backoff.WithMaxElapsedTime(d.cfg.SettleTimeout),
	)
	if err == nil {
		return nil
	}
	span.RecordError(err)
	if errors.Is(err, errUnsettled) {
		timeout := zerr.With(zerr.Wrap(domain.ErrSettleTimeout, d.cfg.SettleTimeout.String()), "ready", ready)
		return zerr.With(timeout, "want", n)
	}
	return zerr.Wrap(err, "failed waiting for workers")
}

// forget drops entries of workers that are no longer visible.
func forget(m map[domain.WorkerID]error, visible []domain.WorkerInfo) {
	present := make(map[domain.WorkerID]bool, len(visible))
	for _, w := range visible {
		present[w.ID] = true
	}
	maps.DeleteFunc(m, func(id domain.WorkerID, _ error) bool {
		return !present[id]
	})
}

func workerError(id domain.WorkerID, err error) error {
	return zerr.With(zerr.Wrap(err, string(id)), "worker", string(id))
}

func abandoned(failures map[domain.WorkerID]error) map[domain.WorkerID]bool {
	skip := make(map[domain.WorkerID]bool)
	for id, err := range failures {
		for _, target := range permanent {
			if errors.Is(err, target) {
				skip[id] = true
				break
			}
		}
	}
	return skip
}

func ids(workers []domain.WorkerInfo) []domain.WorkerID {
	out := make([]domain.WorkerID, len(workers))
	for i, w := range workers {
		out[i] = w.ID
	}
	return out
}

func workerNames(workers []domain.WorkerInfo) []string {
	out := make([]string, len(workers))
	for i, w := range workers {
		out[i] = string(w.ID)
	}
	return out
}

func changesLine(c domain.Changes, restart bool) string {
	line := strconv.Itoa(c.Added) + " added, " + strconv.Itoa(c.Updated) + " updated, " + strconv.Itoa(c.Removed) + " removed"
	if restart {
		line += ", restart required"
	}
	return line + "\n"
}
