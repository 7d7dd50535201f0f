package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zzenonn/zplan/internal/domain"
	zerrors "github.com/zzenonn/zplan/internal/errors"
	"github.com/zzenonn/zplan/internal/repository/objectstore"
)

// mockObjectRepository records uploads in memory.
type mockObjectRepository struct {
	uploadFunc func(ctx context.Context, key string, r io.Reader) error
	storage    map[string][]byte
}

func newMockObjectRepository() *mockObjectRepository {
	return &mockObjectRepository{
		storage: make(map[string][]byte),
	}
}

func (m *mockObjectRepository) Upload(ctx context.Context, key string, r io.Reader, quiet bool) (string, error) {
	if m.uploadFunc != nil {
		if err := m.uploadFunc(ctx, key, r); err != nil {
			return "", err
		}
		return "mock://" + key, nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.storage[key] = data
	return "mock://" + key, nil
}

func (m *mockObjectRepository) GetBucketName() string  { return "mock-bucket" }
func (m *mockObjectRepository) GetStorageType() string { return "mock" }

type mockRepositoryFactory struct {
	createFunc func(ctx context.Context, target objectstore.Target) (objectstore.ObjectRepository, error)
	repo       *mockObjectRepository
	targets    []objectstore.Target
}

func (f *mockRepositoryFactory) CreateRepository(ctx context.Context, target objectstore.Target) (objectstore.ObjectRepository, error) {
	f.targets = append(f.targets, target)
	if f.createFunc != nil {
		return f.createFunc(ctx, target)
	}
	return f.repo, nil
}

func newTestService() (*PlanService, *mockRepositoryFactory) {
	factory := &mockRepositoryFactory{repo: newMockObjectRepository()}
	return NewPlanService(factory), factory
}

func TestPlanRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     PlanRequest
		wantErr error
	}{
		{name: "valid", req: PlanRequest{SlotsPerNode: 9, NodeCount: 4}},
		{name: "valid override", req: PlanRequest{SlotsPerNode: 9, NodeCount: 4, RankOrder: 3}},
		{name: "zero slots", req: PlanRequest{NodeCount: 4}, wantErr: zerrors.ErrInvalidSlotCount},
		{name: "negative slots", req: PlanRequest{SlotsPerNode: -3, NodeCount: 4}, wantErr: zerrors.ErrInvalidSlotCount},
		{name: "two nodes", req: PlanRequest{SlotsPerNode: 9, NodeCount: 2}, wantErr: zerrors.ErrInvalidNodeCount},
		{name: "rank order too large", req: PlanRequest{SlotsPerNode: 9, NodeCount: 4, RankOrder: 4}, wantErr: zerrors.ErrRankOrderOutOfRange},
		{name: "negative rank order", req: PlanRequest{SlotsPerNode: 9, NodeCount: 4, RankOrder: -1}, wantErr: zerrors.ErrRankOrderOutOfRange},
		{name: "unknown variant", req: PlanRequest{SlotsPerNode: 9, NodeCount: 4, Variant: "spiral"}, wantErr: zerrors.ErrUnknownVariant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPlanService_Plan(t *testing.T) {
	svc, _ := newTestService()

	m, err := svc.Plan(PlanRequest{SlotsPerNode: 9, NodeCount: 4})
	require.NoError(t, err)
	assert.Equal(t, 3, m.RankCycle())
	assert.Equal(t, []int{1, 3, 2}, m.ShiftTable())
	assert.Equal(t, domain.VariantRotation, m.Variant())
	assert.Equal(t, []int{6, 7, 4, 5}, m.Row(4))
}

func TestPlanService_PlanBalanceAndOverride(t *testing.T) {
	svc, _ := newTestService()

	m, err := svc.Plan(PlanRequest{SlotsPerNode: 6, NodeCount: 5, Balance: true})
	require.NoError(t, err)
	assert.Equal(t, 2, m.RankCycle())

	m, err = svc.Plan(PlanRequest{SlotsPerNode: 3, NodeCount: 5, RankOrder: 1, IDOrigin: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, m.RankCycle())
	assert.Equal(t, []int{1, 2, 3, 4, 5}, m.Row(0))
}

func TestPlanService_PlanErrors(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Plan(PlanRequest{SlotsPerNode: 10, NodeCount: 4})
	assert.ErrorIs(t, err, zerrors.ErrSlotsNotMultiple)

	_, err = svc.Plan(PlanRequest{SlotsPerNode: 6, NodeCount: 4, RankOrder: 2})
	assert.ErrorIs(t, err, zerrors.ErrUnsupportedRankCycle)
}

func TestPlanService_Failover(t *testing.T) {
	svc, _ := newTestService()

	m, report, err := svc.Failover(PlanRequest{SlotsPerNode: 9, NodeCount: 4}, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, m.NodeCount())
	assert.Equal(t, []int{0, 6, 6, 6}, report.HitCounts)

	_, _, err = svc.Failover(PlanRequest{SlotsPerNode: 9, NodeCount: 4}, 7)
	assert.ErrorIs(t, err, zerrors.ErrFailedNodeOutOfRange)

	_, _, err = svc.Failover(PlanRequest{NodeCount: 4}, 0)
	assert.ErrorIs(t, err, zerrors.ErrInvalidSlotCount)
}

func TestPlanService_Sweep(t *testing.T) {
	svc, _ := newTestService()

	entries, err := svc.Sweep(context.Background(), PlanRequest{SlotsPerNode: 9, NodeCount: 4, RankOrder: 3}, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, []int{6, 6, 6}, entries[0].HitCounts)
	assert.ErrorIs(t, entries[1].Err, zerrors.ErrUnsupportedRankCycle)
	assert.Equal(t, []int{6, 6, 6}, entries[2].HitCounts)

	_, err = svc.Sweep(context.Background(), PlanRequest{SlotsPerNode: 9, NodeCount: 4}, -1)
	assert.ErrorIs(t, err, zerrors.ErrFailedNodeOutOfRange)
}

func TestPlanService_Export(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		wantType   objectstore.RepositoryType
		wantBucket string
		wantKey    string
	}{
		{name: "bare path", target: "out/plan.txt", wantType: objectstore.LocalType, wantKey: "out/plan.txt"},
		{name: "s3", target: "s3://plans/n4/plan.yaml", wantType: objectstore.S3Type, wantBucket: "plans", wantKey: "n4/plan.yaml"},
		{name: "gcs", target: "gs://plans/plan.json", wantType: objectstore.GCSType, wantBucket: "plans", wantKey: "plan.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, factory := newTestService()

			location, err := svc.Export(context.Background(), tt.target, func(w io.Writer) error {
				_, err := io.WriteString(w, "payload")
				return err
			}, true)
			require.NoError(t, err)

			assert.Equal(t, "mock://"+tt.wantKey, location)
			require.Len(t, factory.targets, 1)
			assert.Equal(t, tt.wantType, factory.targets[0].Type)
			assert.Equal(t, tt.wantBucket, factory.targets[0].Bucket)
			assert.Equal(t, []byte("payload"), factory.repo.storage[tt.wantKey])
		})
	}
}

func TestPlanService_ExportErrors(t *testing.T) {
	renderErr := errors.New("render failed")
	uploadErr := errors.New("upload failed")
	factoryErr := errors.New("no credentials")

	write := func(w io.Writer) error {
		_, err := w.Write([]byte("x"))
		return err
	}

	t.Run("invalid target", func(t *testing.T) {
		svc, factory := newTestService()
		_, err := svc.Export(context.Background(), "ftp://host/file", write, true)
		assert.ErrorIs(t, err, zerrors.ErrInvalidTarget)
		assert.Empty(t, factory.targets)
	})

	t.Run("render failure opens nothing", func(t *testing.T) {
		svc, factory := newTestService()
		_, err := svc.Export(context.Background(), "plan.txt", func(io.Writer) error { return renderErr }, true)
		assert.ErrorIs(t, err, renderErr)
		assert.Empty(t, factory.targets)
	})

	t.Run("factory failure", func(t *testing.T) {
		factory := &mockRepositoryFactory{
			createFunc: func(context.Context, objectstore.Target) (objectstore.ObjectRepository, error) {
				return nil, factoryErr
			},
		}
		_, err := NewPlanService(factory).Export(context.Background(), "s3://b/k", write, true)
		assert.ErrorIs(t, err, factoryErr)
	})

	t.Run("upload failure", func(t *testing.T) {
		svc, factory := newTestService()
		factory.repo.uploadFunc = func(_ context.Context, _ string, r io.Reader) error {
			var buf bytes.Buffer
			if _, err := buf.ReadFrom(r); err != nil {
				return err
			}
			return uploadErr
		}
		_, err := svc.Export(context.Background(), "plan.txt", write, true)
		assert.ErrorIs(t, err, uploadErr)
	})
}

type mockExportLedger struct {
	recordFunc func(ctx context.Context, record domain.ExportRecord) error
	records    []domain.ExportRecord
}

func (l *mockExportLedger) RecordExport(ctx context.Context, record domain.ExportRecord) error {
	if l.recordFunc != nil {
		return l.recordFunc(ctx, record)
	}
	l.records = append(l.records, record)
	return nil
}

func TestPlanService_ExportRecordsLedger(t *testing.T) {
	svc, _ := newTestService()
	ledger := &mockExportLedger{}
	svc.WithLedger(ledger)

	location, err := svc.Export(context.Background(), "s3://plans/n4.txt", func(w io.Writer) error {
		_, err := io.WriteString(w, "0 1 2 3\n")
		return err
	}, true)
	require.NoError(t, err)

	require.Len(t, ledger.records, 1)
	rec := ledger.records[0]
	assert.Equal(t, "s3://plans/n4.txt", rec.Target)
	assert.Equal(t, location, rec.Location)
	assert.Equal(t, "mock", rec.StorageType)
	assert.EqualValues(t, 8, rec.Bytes)
	assert.False(t, rec.ExportedAt.IsZero())
}

func TestPlanService_ExportLedgerFailure(t *testing.T) {
	ledgerErr := errors.New("table not found")
	svc, factory := newTestService()
	svc.WithLedger(&mockExportLedger{
		recordFunc: func(context.Context, domain.ExportRecord) error { return ledgerErr },
	})

	location, err := svc.Export(context.Background(), "plan.txt", func(w io.Writer) error {
		_, err := io.WriteString(w, "x")
		return err
	}, true)
	assert.ErrorIs(t, err, ledgerErr)
	assert.Equal(t, "mock://plan.txt", location)
	assert.Equal(t, []byte("x"), factory.repo.storage["plan.txt"])
}
