package pool

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Papyszoo/Modelibr-sub005/internal/logger"
	"github.com/Papyszoo/Modelibr-sub005/internal/mocks"
	"github.com/Papyszoo/Modelibr-sub005/internal/models"
)

type nopRenderer struct{}

func (nopRenderer) Render(ctx context.Context, job *models.ThumbnailJob) (string, error) {
	return "", nil
}

func TestWorkerPool_StartAndStop(t *testing.T) {
	service := new(mocks.JobServiceMock)
	store := new(mocks.JobStoreMock)
	service.On("ClaimNext", mock.Anything, mock.Anything).Return(nil, nil)
	store.On("ListExpiredLocks", mock.Anything, mock.Anything).Return(nil, nil)

	p := NewWorkerPool(3, service, store, nopRenderer{}, logger.Nop())
	assert.Len(t, p.workers, 3)

	p.Start()
	time.Sleep(50 * time.Millisecond)
	p.Stop()

	service.AssertCalled(t, "ClaimNext", mock.Anything, mock.Anything)
}

func TestWorkerPool_StopIsIdempotentPerWorkerSet(t *testing.T) {
	service := new(mocks.JobServiceMock)
	store := new(mocks.JobStoreMock)
	service.On("ClaimNext", mock.Anything, mock.Anything).Return(nil, nil)

	p := NewWorkerPool(1, service, store, nopRenderer{}, logger.Nop())
	p.Start()
	p.Stop()
}
