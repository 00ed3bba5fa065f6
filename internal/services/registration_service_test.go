package services_test

import (
	"context"
	"testing"

	"sahayak-agent/internal/models"
	"sahayak-agent/internal/repositories"
	"sahayak-agent/internal/services"
	"sahayak-agent/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistration(t *testing.T) (*services.RegistrationService, *repositories.QueueRepository) {
	t.Helper()
	s, err := store.Open(t.TempDir())
	require.NoError(t, err)

	queue := repositories.NewQueueRepository(s)
	svc := services.NewRegistrationService(repositories.NewApplicationRepository(s), queue)
	return svc, queue
}

func TestRegisterQueuesWithEvidence(t *testing.T) {
	ctx := context.Background()
	svc, queue := newRegistration(t)

	created, err := svc.Register(ctx, models.BeneficiaryApplication{
		Name:             "Sita Devi",
		IdentityNumber:   "295534461658",
		Phone:            "9876543210",
		IdentityCaptured: true,
		EvidencePath:     "/data/evidence/card_1.jpg",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationPendingVerification, created.Status)
	assert.Equal(t, "XXXX-XXXX-1658", created.IdentityNumber)

	pending, err := queue.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, models.QueueKindApplication, pending[0].Kind)
	assert.Equal(t, []string{"/data/evidence/card_1.jpg"}, pending[0].Attachments)
}

func TestDuplicateRegistrationQueuesNothing(t *testing.T) {
	ctx := context.Background()
	svc, queue := newRegistration(t)

	app := models.BeneficiaryApplication{Name: "Sita Devi", IdentityNumber: "295534461658"}
	_, err := svc.Register(ctx, app)
	require.NoError(t, err)

	_, err = svc.Register(ctx, app)
	assert.ErrorIs(t, err, repositories.ErrDuplicateIdentity)

	n, err := queue.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
