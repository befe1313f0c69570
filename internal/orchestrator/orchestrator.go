// Package orchestrator runs the sync operations selected by a mode, one at a
// time, and records the outcome of every run.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/elchunenfreund/amazon-vendor-sync/internal/models"
	"github.com/elchunenfreund/amazon-vendor-sync/internal/service"
)

// Bound on recording the run once the run context is gone
const recordTimeout = 10 * time.Second

type TokenProvider interface {
	GetValidAccessToken(ctx context.Context) (string, error)
}

type ReportSyncer interface {
	SyncReport(ctx context.Context, accessToken, reportType string) (*service.ReportSyncResult, error)
}

type OrderSyncer interface {
	SyncOrders(ctx context.Context, accessToken string, daysBack int) (*service.OrderSyncResult, error)
}

// RunStore records finished runs
type RunStore interface {
	Create(ctx context.Context, run *models.SyncRun) error
}

type Deps struct {
	Tokens        TokenProvider
	Reports       ReportSyncer
	Orders        OrderSyncer
	Runs          RunStore
	OrderDaysBack int
	Logger        *zap.Logger
	// Reclaim runs between operations; defaults to debug.FreeOSMemory
	Reclaim func()
}

type Orchestrator struct {
	tokens        TokenProvider
	reports       ReportSyncer
	orders        OrderSyncer
	runs          RunStore
	orderDaysBack int
	logger        *zap.Logger
	reclaim       func()
	now           func() time.Time
}

func New(d Deps) *Orchestrator {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Reclaim == nil {
		d.Reclaim = debug.FreeOSMemory
	}
	if d.OrderDaysBack <= 0 {
		d.OrderDaysBack = 30
	}
	return &Orchestrator{
		tokens:        d.Tokens,
		reports:       d.Reports,
		orders:        d.Orders,
		runs:          d.Runs,
		orderDaysBack: d.OrderDaysBack,
		logger:        d.Logger,
		reclaim:       d.Reclaim,
		now:           time.Now,
	}
}

type OperationResult struct {
	Name       string                    `json:"name"`
	Success    bool                      `json:"success"`
	Error      string                    `json:"error,omitempty"`
	DurationMS int64                     `json:"durationMs"`
	Report     *service.ReportSyncResult `json:"report,omitempty"`
	Orders     *service.OrderSyncResult  `json:"orders,omitempty"`
}

type RunResult struct {
	RunID      string            `json:"runId"`
	Mode       Mode              `json:"mode"`
	Status     string            `json:"status"`
	StartedAt  time.Time         `json:"startedAt"`
	FinishedAt time.Time         `json:"finishedAt"`
	Operations []OperationResult `json:"operations"`
}

// Succeeded reports whether every operation succeeded
func (r *RunResult) Succeeded() bool {
	return r.Status == models.SyncRunSucceeded
}

func (r *RunResult) summarize() {
	ok := 0
	for _, op := range r.Operations {
		if op.Success {
			ok++
		}
	}
	switch {
	case len(r.Operations) > 0 && ok == len(r.Operations):
		r.Status = models.SyncRunSucceeded
	case ok == 0:
		r.Status = models.SyncRunFailed
	default:
		r.Status = models.SyncRunPartial
	}
}

// Run executes the operations of mode in order. A failed operation is
// recorded and the run moves on; only cancellation of ctx ends the run
// early and is returned as an error. The result is always returned.
func (o *Orchestrator) Run(ctx context.Context, mode Mode) (*RunResult, error) {
	ops := mode.Operations()
	if len(ops) == 0 {
		return nil, fmt.Errorf("mode %q has no operations", mode)
	}

	result := &RunResult{
		RunID:     uuid.NewString(),
		Mode:      mode,
		StartedAt: o.now().UTC(),
	}
	log := o.logger.With(zap.String("run_id", result.RunID), zap.String("mode", string(mode)))
	log.Info("sync run started", zap.Strings("operations", ops))

	var runErr error
	for i, name := range ops {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		if i > 0 {
			o.reclaim()
		}

		op := o.runOperation(ctx, name, log)
		result.Operations = append(result.Operations, op)
	}

	result.FinishedAt = o.now().UTC()
	result.summarize()
	o.record(ctx, result, log)

	log.Info("sync run finished",
		zap.String("status", result.Status),
		zap.Duration("duration", result.FinishedAt.Sub(result.StartedAt)))
	return result, runErr
}

func (o *Orchestrator) runOperation(ctx context.Context, name string, log *zap.Logger) OperationResult {
	log = log.With(zap.String("operation", name))
	started := o.now()
	op := OperationResult{Name: name}

	err := func() error {
		token, err := o.tokens.GetValidAccessToken(ctx)
		if err != nil {
			return err
		}
		if name == OperationPurchaseOrders {
			op.Orders, err = o.orders.SyncOrders(ctx, token, o.orderDaysBack)
			return err
		}
		op.Report, err = o.reports.SyncReport(ctx, token, name)
		return err
	}()

	op.DurationMS = o.now().Sub(started).Milliseconds()
	if err != nil {
		op.Error = err.Error()
		var authErr *service.AuthError
		if errors.As(err, &authErr) {
			log.Error("operation aborted, no access token", zap.Error(err))
		} else {
			log.Error("operation failed", zap.Error(err))
		}
		return op
	}

	op.Success = true
	log.Info("operation completed", zap.Int64("duration_ms", op.DurationMS))
	return op
}

// record stores the run. A failure is logged and otherwise ignored.
func (o *Orchestrator) record(ctx context.Context, result *RunResult, log *zap.Logger) {
	if o.runs == nil {
		return
	}
	payload, err := json.Marshal(result)
	if err != nil {
		log.Warn("failed to encode run result", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	err = o.runs.Create(ctx, &models.SyncRun{
		ID:         result.RunID,
		Mode:       string(result.Mode),
		Status:     result.Status,
		StartedAt:  result.StartedAt,
		FinishedAt: result.FinishedAt,
		Result:     datatypes.JSON(payload),
	})
	if err != nil {
		log.Warn("failed to record sync run", zap.Error(err))
	}
}
