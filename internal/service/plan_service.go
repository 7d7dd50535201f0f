// Package service wires rank cycle resolution, matrix construction, failover
// simulation and export into the operations the CLI exposes.
package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/zzenonn/zplan/internal/domain"
	zerrors "github.com/zzenonn/zplan/internal/errors"
	"github.com/zzenonn/zplan/internal/placement"
	"github.com/zzenonn/zplan/internal/repository/objectstore"
)

type RepositoryFactory interface {
	CreateRepository(ctx context.Context, target objectstore.Target) (objectstore.ObjectRepository, error)
}

// ExportLedger records every successful export.
type ExportLedger interface {
	RecordExport(ctx context.Context, record domain.ExportRecord) error
}

// PlanRequest carries the user-facing parameters of a plan.
type PlanRequest struct {
	SlotsPerNode int
	NodeCount    int
	// RankOrder overrides the derived rank cycle when non-zero.
	RankOrder int
	Balance   bool
	IDOrigin  int
	Variant   domain.Variant
}

// Validate rejects requests before any matrix is built.
func (req PlanRequest) Validate() error {
	if req.SlotsPerNode <= 0 {
		return fmt.Errorf("%w: got %d", zerrors.ErrInvalidSlotCount, req.SlotsPerNode)
	}
	if req.NodeCount < domain.ReplicationFactor {
		return fmt.Errorf("%w: got %d", zerrors.ErrInvalidNodeCount, req.NodeCount)
	}
	if req.RankOrder != 0 && (req.RankOrder < 1 || req.RankOrder > req.NodeCount-1) {
		return zerrors.OutOfRangeError(zerrors.ErrRankOrderOutOfRange, req.RankOrder, 1, req.NodeCount-1)
	}
	if _, err := domain.ParseVariant(string(req.Variant)); err != nil {
		return err
	}
	return nil
}

type PlanService struct {
	repos  RepositoryFactory
	ledger ExportLedger
}

// NewPlanService creates a new PlanService instance
func NewPlanService(repos RepositoryFactory) *PlanService {
	return &PlanService{
		repos: repos,
	}
}

// WithLedger records exports in ledger. A nil ledger disables recording.
func (s *PlanService) WithLedger(ledger ExportLedger) *PlanService {
	s.ledger = ledger
	return s
}

// Plan resolves the rank cycle for req and builds its placement matrix.
func (s *PlanService) Plan(req PlanRequest) (*domain.Matrix, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	variant, _ := domain.ParseVariant(string(req.Variant))

	var rc placement.RankCycle
	var err error
	if req.RankOrder != 0 {
		rc, err = placement.ResolveRankOrder(req.NodeCount, req.RankOrder)
	} else {
		rc, err = placement.ResolveRankCycle(req.NodeCount, req.Balance)
	}
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"rank_cycle":  rc.Cycle,
		"shift_table": rc.ShiftTable,
	}).Info("resolved rank cycle")

	return placement.Build(domain.Layout{
		SlotsPerNode:      req.SlotsPerNode,
		NodeCount:         req.NodeCount,
		ReplicationFactor: domain.ReplicationFactor,
		RankCycle:         rc.Cycle,
		ShiftTable:        rc.ShiftTable,
		IDOrigin:          req.IDOrigin,
		Variant:           variant,
	})
}

// Failover builds the plan for req and simulates the loss of failedNode.
func (s *PlanService) Failover(req PlanRequest, failedNode int) (*domain.Matrix, *domain.FailoverReport, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}
	if err := checkFailedNode(req, failedNode); err != nil {
		return nil, nil, err
	}
	m, err := s.Plan(req)
	if err != nil {
		return nil, nil, err
	}
	report, err := SimulateFailover(m, failedNode)
	if err != nil {
		return nil, nil, err
	}
	return m, report, nil
}

// Sweep compares failover spread across every rank cycle for req's shape.
// RankOrder and Balance are ignored since every cycle is tried.
func (s *PlanService) Sweep(ctx context.Context, req PlanRequest, failedNode int) ([]domain.SweepEntry, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := checkFailedNode(req, failedNode); err != nil {
		return nil, err
	}
	variant, _ := domain.ParseVariant(string(req.Variant))

	return FailoverDeltaSweep(ctx, SweepParams{
		SlotsPerNode: req.SlotsPerNode,
		NodeCount:    req.NodeCount,
		FailedNode:   failedNode,
		IDOrigin:     req.IDOrigin,
		Variant:      variant,
	})
}

// Export renders into memory before opening target and uploads the result.
func (s *PlanService) Export(ctx context.Context, target string, write func(io.Writer) error, quiet bool) (string, error) {
	t, err := objectstore.ParseTarget(target)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", target, err)
	}

	repo, err := s.repos.CreateRepository(ctx, t)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", target, err)
	}

	location, err := repo.Upload(ctx, t.Key, bytes.NewReader(buf.Bytes()), quiet)
	if err != nil {
		return "", fmt.Errorf("failed to write %s: %w", target, err)
	}
	log.WithFields(log.Fields{
		"location": location,
		"storage":  repo.GetStorageType(),
		"bytes":    buf.Len(),
	}).Info("exported")

	if s.ledger == nil {
		return location, nil
	}
	record := domain.ExportRecord{
		Target:      t.String(),
		ExportedAt:  time.Now().UTC(),
		Location:    location,
		StorageType: repo.GetStorageType(),
		Bytes:       int64(buf.Len()),
	}
	if err := s.ledger.RecordExport(ctx, record); err != nil {
		return location, fmt.Errorf("exported to %s but failed to record it: %w", location, err)
	}
	return location, nil
}

func checkFailedNode(req PlanRequest, failedNode int) error {
	if failedNode < 0 || failedNode >= req.NodeCount {
		return zerrors.OutOfRangeError(zerrors.ErrFailedNodeOutOfRange, failedNode, 0, req.NodeCount-1)
	}
	return nil
}
