package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"go-training-marketplace/internal/domain"
	"go-training-marketplace/internal/usecase"
	"go-training-marketplace/pkg/apperror"
	"go-training-marketplace/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Init()
	m.Run()
}

// --- Mocks ---

type MockJobRepository struct {
	mock.Mock
}

func (m *MockJobRepository) Create(ctx context.Context, job *domain.JobPosting) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockJobRepository) GetByID(ctx context.Context, id int64) (*domain.JobPosting, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JobPosting), args.Error(1)
}

func (m *MockJobRepository) UpdateStatus(ctx context.Context, id int64, status domain.JobStatus, expectedRevision int64, clearExpiry bool) (bool, error) {
	args := m.Called(ctx, id, status, expectedRevision, clearExpiry)
	return args.Bool(0), args.Error(1)
}

func (m *MockJobRepository) FetchOpen(ctx context.Context, now time.Time, limit, offset int) ([]domain.JobPosting, int64, error) {
	args := m.Called(ctx, now, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.JobPosting), args.Get(1).(int64), args.Error(2)
}

type MockApplicationRepository struct {
	mock.Mock
}

func (m *MockApplicationRepository) GetByID(ctx context.Context, id int64) (*domain.Application, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Application), args.Error(1)
}

func (m *MockApplicationRepository) GetByJobID(ctx context.Context, jobID int64) ([]domain.Application, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Application), args.Error(1)
}

func (m *MockApplicationRepository) CountByJobID(ctx context.Context, jobID int64) (int64, error) {
	args := m.Called(ctx, jobID)
	return args.Get(0).(int64), args.Error(1)
}

// --- Helpers ---

const ownerID int64 = 42

func openJob(id int64) *domain.JobPosting {
	return &domain.JobPosting{
		ID:           id,
		CompanyID:    ownerID,
		Title:        "Leadership Workshop",
		Description:  "Two-day intensive",
		Sector:       "Technology",
		TrainingType: "Leadership",
		Status:       domain.StatusOpen,
		Revision:     3,
	}
}

func assertAppError(t *testing.T, err error, wantCode int) {
	t.Helper()
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, wantCode, appErr.Code)
}

// --- CreateJob ---

func TestCreateJob(t *testing.T) {
	t.Run("success sets ownership and revision", func(t *testing.T) {
		jobRepo := new(MockJobRepository)
		uc := usecase.NewJobUsecase(jobRepo, new(MockApplicationRepository))

		job := &domain.JobPosting{Title: "Workshop", Sector: "Technology", TrainingType: "Leadership", Status: domain.StatusDraft}
		jobRepo.On("Create", mock.Anything, job).Return(nil)

		err := uc.CreateJob(context.Background(), ownerID, job)
		require.NoError(t, err)
		assert.Equal(t, ownerID, job.CompanyID)
		assert.Equal(t, int64(1), job.Revision)
		assert.Zero(t, job.ApplicationCount)
		jobRepo.AssertExpectations(t)
	})

	t.Run("rejects missing title", func(t *testing.T) {
		uc := usecase.NewJobUsecase(new(MockJobRepository), new(MockApplicationRepository))
		err := uc.CreateJob(context.Background(), ownerID, &domain.JobPosting{Sector: "Technology", TrainingType: "Leadership", Status: domain.StatusDraft})
		assertAppError(t, err, http.StatusBadRequest)
	})

	t.Run("rejects non-initial status", func(t *testing.T) {
		uc := usecase.NewJobUsecase(new(MockJobRepository), new(MockApplicationRepository))
		err := uc.CreateJob(context.Background(), ownerID, &domain.JobPosting{Title: "W", Sector: "T", TrainingType: "L", Status: domain.StatusFilled})
		assertAppError(t, err, http.StatusBadRequest)
	})

	t.Run("rejects past expiry", func(t *testing.T) {
		uc := usecase.NewJobUsecase(new(MockJobRepository), new(MockApplicationRepository))
		past := time.Now().Add(-time.Hour)
		err := uc.CreateJob(context.Background(), ownerID, &domain.JobPosting{Title: "W", Sector: "T", TrainingType: "L", Status: domain.StatusOpen, ExpiresAt: &past})
		assertAppError(t, err, http.StatusBadRequest)
	})
}

// --- GetJob ---

func TestGetJob(t *testing.T) {
	t.Run("reads expiry lazily", func(t *testing.T) {
		jobRepo := new(MockJobRepository)
		uc := usecase.NewJobUsecase(jobRepo, new(MockApplicationRepository))

		past := time.Now().Add(-time.Hour)
		stored := openJob(1)
		stored.ExpiresAt = &past
		jobRepo.On("GetByID", mock.Anything, int64(1)).Return(stored, nil)

		got, err := uc.GetJob(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusExpired, got.Status, "a past deadline must surface as expired without any write")
	})

	t.Run("not found maps to 404", func(t *testing.T) {
		jobRepo := new(MockJobRepository)
		uc := usecase.NewJobUsecase(jobRepo, new(MockApplicationRepository))
		jobRepo.On("GetByID", mock.Anything, int64(99)).Return(nil, domain.ErrNotFound)

		_, err := uc.GetJob(context.Background(), 99)
		assertAppError(t, err, http.StatusNotFound)
	})
}

// --- Transition ---

func TestTransition(t *testing.T) {
	t.Run("legal move succeeds", func(t *testing.T) {
		jobRepo := new(MockJobRepository)
		uc := usecase.NewJobUsecase(jobRepo, new(MockApplicationRepository))

		stored := openJob(1)
		updated := openJob(1)
		updated.Status = domain.StatusPaused
		updated.Revision = 4

		jobRepo.On("GetByID", mock.Anything, int64(1)).Return(stored, nil).Once()
		jobRepo.On("UpdateStatus", mock.Anything, int64(1), domain.StatusPaused, int64(3), false).Return(true, nil)
		jobRepo.On("GetByID", mock.Anything, int64(1)).Return(updated, nil).Once()

		got, err := uc.Transition(context.Background(), ownerID, 1, domain.StatusPaused, 3)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusPaused, got.Status)
		assert.Equal(t, int64(4), got.Revision)
		jobRepo.AssertExpectations(t)
	})

	t.Run("illegal move is rejected without touching the record", func(t *testing.T) {
		jobRepo := new(MockJobRepository)
		uc := usecase.NewJobUsecase(jobRepo, new(MockApplicationRepository))

		draft := openJob(1)
		draft.Status = domain.StatusDraft
		jobRepo.On("GetByID", mock.Anything, int64(1)).Return(draft, nil)

		_, err := uc.Transition(context.Background(), ownerID, 1, domain.StatusClosed, 3)
		assertAppError(t, err, http.StatusUnprocessableEntity)
		jobRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("deleted is terminal", func(t *testing.T) {
		jobRepo := new(MockJobRepository)
		uc := usecase.NewJobUsecase(jobRepo, new(MockApplicationRepository))

		archived := openJob(1)
		archived.Status = domain.StatusDeleted
		jobRepo.On("GetByID", mock.Anything, int64(1)).Return(archived, nil)

		_, err := uc.Transition(context.Background(), ownerID, 1, domain.StatusOpen, 3)
		assertAppError(t, err, http.StatusUnprocessableEntity)
	})

	t.Run("stale revision maps to conflict", func(t *testing.T) {
		jobRepo := new(MockJobRepository)
		uc := usecase.NewJobUsecase(jobRepo, new(MockApplicationRepository))

		jobRepo.On("GetByID", mock.Anything, int64(1)).Return(openJob(1), nil)
		jobRepo.On("UpdateStatus", mock.Anything, int64(1), domain.StatusPaused, int64(2), false).Return(false, nil)

		_, err := uc.Transition(context.Background(), ownerID, 1, domain.StatusPaused, 2)
		assertAppError(t, err, http.StatusConflict)
	})

	t.Run("non-owner is forbidden", func(t *testing.T) {
		jobRepo := new(MockJobRepository)
		uc := usecase.NewJobUsecase(jobRepo, new(MockApplicationRepository))

		jobRepo.On("GetByID", mock.Anything, int64(1)).Return(openJob(1), nil)

		_, err := uc.Transition(context.Background(), ownerID+1, 1, domain.StatusPaused, 3)
		assertAppError(t, err, http.StatusForbidden)
	})

	t.Run("reopening an expired job clears the deadline", func(t *testing.T) {
		jobRepo := new(MockJobRepository)
		uc := usecase.NewJobUsecase(jobRepo, new(MockApplicationRepository))

		past := time.Now().Add(-time.Hour)
		stored := openJob(1)
		stored.ExpiresAt = &past // stored open, lazily expired

		reopened := openJob(1)
		reopened.Revision = 4

		jobRepo.On("GetByID", mock.Anything, int64(1)).Return(stored, nil).Once()
		jobRepo.On("UpdateStatus", mock.Anything, int64(1), domain.StatusOpen, int64(3), true).Return(true, nil)
		jobRepo.On("GetByID", mock.Anything, int64(1)).Return(reopened, nil).Once()

		got, err := uc.Transition(context.Background(), ownerID, 1, domain.StatusOpen, 3)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusOpen, got.Status)
		jobRepo.AssertExpectations(t)
	})

	t.Run("expired job cannot pause", func(t *testing.T) {
		jobRepo := new(MockJobRepository)
		uc := usecase.NewJobUsecase(jobRepo, new(MockApplicationRepository))

		past := time.Now().Add(-time.Hour)
		stored := openJob(1)
		stored.ExpiresAt = &past
		jobRepo.On("GetByID", mock.Anything, int64(1)).Return(stored, nil)

		_, err := uc.Transition(context.Background(), ownerID, 1, domain.StatusPaused, 3)
		assertAppError(t, err, http.StatusUnprocessableEntity)
	})
}

// --- Delete ---

func TestDelete(t *testing.T) {
	t.Run("archives and reports retained applications", func(t *testing.T) {
		jobRepo := new(MockJobRepository)
		appRepo := new(MockApplicationRepository)
		uc := usecase.NewJobUsecase(jobRepo, appRepo)

		archived := openJob(1)
		archived.Status = domain.StatusDeleted
		archived.Revision = 4

		jobRepo.On("GetByID", mock.Anything, int64(1)).Return(openJob(1), nil).Once()
		jobRepo.On("UpdateStatus", mock.Anything, int64(1), domain.StatusDeleted, int64(3), false).Return(true, nil)
		jobRepo.On("GetByID", mock.Anything, int64(1)).Return(archived, nil).Once()
		appRepo.On("CountByJobID", mock.Anything, int64(1)).Return(int64(5), nil)

		outcome, err := uc.Delete(context.Background(), ownerID, 1, 3)
		require.NoError(t, err)
		assert.True(t, outcome.HadApplications)
		assert.Equal(t, domain.StatusDeleted, outcome.Job.Status)
	})

	t.Run("no applications", func(t *testing.T) {
		jobRepo := new(MockJobRepository)
		appRepo := new(MockApplicationRepository)
		uc := usecase.NewJobUsecase(jobRepo, appRepo)

		archived := openJob(1)
		archived.Status = domain.StatusDeleted

		jobRepo.On("GetByID", mock.Anything, int64(1)).Return(openJob(1), nil).Once()
		jobRepo.On("UpdateStatus", mock.Anything, int64(1), domain.StatusDeleted, int64(3), false).Return(true, nil)
		jobRepo.On("GetByID", mock.Anything, int64(1)).Return(archived, nil).Once()
		appRepo.On("CountByJobID", mock.Anything, int64(1)).Return(int64(0), nil)

		outcome, err := uc.Delete(context.Background(), ownerID, 1, 3)
		require.NoError(t, err)
		assert.False(t, outcome.HadApplications)
	})

	t.Run("count failure does not undo the archive", func(t *testing.T) {
		jobRepo := new(MockJobRepository)
		appRepo := new(MockApplicationRepository)
		uc := usecase.NewJobUsecase(jobRepo, appRepo)

		archived := openJob(1)
		archived.Status = domain.StatusDeleted

		jobRepo.On("GetByID", mock.Anything, int64(1)).Return(openJob(1), nil).Once()
		jobRepo.On("UpdateStatus", mock.Anything, int64(1), domain.StatusDeleted, int64(3), false).Return(true, nil)
		jobRepo.On("GetByID", mock.Anything, int64(1)).Return(archived, nil).Once()
		appRepo.On("CountByJobID", mock.Anything, int64(1)).Return(int64(0), errors.New("db down"))

		outcome, err := uc.Delete(context.Background(), ownerID, 1, 3)
		require.NoError(t, err)
		assert.False(t, outcome.HadApplications)
	})
}

// --- Duplicate ---

func TestDuplicate(t *testing.T) {
	t.Run("derives a fresh open posting", func(t *testing.T) {
		jobRepo := new(MockJobRepository)
		uc := usecase.NewJobUsecase(jobRepo, new(MockApplicationRepository))

		source := openJob(1)
		source.Status = domain.StatusClosed
		source.ApplicationCount = 9
		source.Revision = 7

		jobRepo.On("GetByID", mock.Anything, int64(1)).Return(source, nil)
		jobRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		got, err := uc.Duplicate(context.Background(), ownerID, 1)
		require.NoError(t, err)
		assert.Equal(t, "Leadership Workshop (Copy)", got.Title)
		assert.Equal(t, domain.StatusOpen, got.Status)
		assert.Equal(t, int64(1), got.Revision)
		assert.Zero(t, got.ApplicationCount)
		assert.Equal(t, source.Description, got.Description)
		assert.Equal(t, ownerID, got.CompanyID)
	})

	t.Run("missing source maps to 404", func(t *testing.T) {
		jobRepo := new(MockJobRepository)
		uc := usecase.NewJobUsecase(jobRepo, new(MockApplicationRepository))
		jobRepo.On("GetByID", mock.Anything, int64(99)).Return(nil, domain.ErrNotFound)

		_, err := uc.Duplicate(context.Background(), ownerID, 99)
		assertAppError(t, err, http.StatusNotFound)
	})

	t.Run("non-owner is forbidden", func(t *testing.T) {
		jobRepo := new(MockJobRepository)
		uc := usecase.NewJobUsecase(jobRepo, new(MockApplicationRepository))
		jobRepo.On("GetByID", mock.Anything, int64(1)).Return(openJob(1), nil)

		_, err := uc.Duplicate(context.Background(), ownerID+1, 1)
		assertAppError(t, err, http.StatusForbidden)
	})
}

// --- ListOpenJobs ---

func TestListOpenJobsDefaults(t *testing.T) {
	jobRepo := new(MockJobRepository)
	uc := usecase.NewJobUsecase(jobRepo, new(MockApplicationRepository))

	jobs := []domain.JobPosting{*openJob(1), *openJob(2)}
	jobRepo.On("FetchOpen", mock.Anything, mock.Anything, 10, 0).Return(jobs, int64(2), nil)

	got, total, err := uc.ListOpenJobs(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, int64(2), total)
	jobRepo.AssertExpectations(t)
}
