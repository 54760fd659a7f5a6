package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"feedbackportal/internal/models/request_models"
	"feedbackportal/internal/models/response_models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingOtp struct {
	sweeps atomic.Int32
}

func (c *countingOtp) RequestCode(context.Context, request_models.RequestOtpRequest) error {
	return nil
}

func (c *countingOtp) VerifyCode(context.Context, request_models.VerifyOtpRequest) (*response_models.VerifyOtpResponse, error) {
	return nil, nil
}

func (c *countingOtp) SweepExpired(context.Context) (int64, error) {
	c.sweeps.Add(1)
	return 1, nil
}

func TestOtpSweeperRunsUntilStopped(t *testing.T) {
	otp := &countingOtp{}
	sweeper := NewOtpSweeper(otp, 10*time.Millisecond, testLogger())

	sweeper.Start()
	require.Eventually(t, func() bool { return otp.sweeps.Load() >= 2 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, sweeper.Stop(ctx))

	stopped := otp.sweeps.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, otp.sweeps.Load())
}

func TestOtpSweeperDisabled(t *testing.T) {
	otp := &countingOtp{}
	sweeper := NewOtpSweeper(otp, 0, testLogger())

	sweeper.Start()
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, otp.sweeps.Load())
	assert.NoError(t, sweeper.Stop(context.Background()))
}
