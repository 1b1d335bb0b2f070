package sync

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSignedCommand(t *testing.T, signer *HMACSigner, tenantID uuid.UUID) *SyncCommand {
	t.Helper()
	cmd, err := NewSyncCommand(ActionFetchTally, "Acme Retail", 9000)
	require.NoError(t, err)
	sig, err := signer.Sign(tenantID, cmd)
	require.NoError(t, err)
	cmd.Signature = sig
	return cmd
}

func TestNewHMACSigner_RequiresSecret(t *testing.T) {
	signer, err := NewHMACSigner("")
	assert.Nil(t, signer)
	assert.Equal(t, ErrSignerNotConfigured, err)
}

func TestHMACSigner_SignVerifyRoundTrip(t *testing.T) {
	signer, err := NewHMACSigner("master-secret-for-tests")
	require.NoError(t, err)
	tenantID := uuid.New()

	cmd := newSignedCommand(t, signer, tenantID)

	assert.NoError(t, signer.Verify(tenantID, cmd))
}

func TestHMACSigner_SignatureIsDeterministic(t *testing.T) {
	signer, err := NewHMACSigner("master-secret-for-tests")
	require.NoError(t, err)
	tenantID := uuid.New()

	cmd, err := NewSyncCommand(ActionFetchTally, "Acme Retail", 9000)
	require.NoError(t, err)

	first, err := signer.Sign(tenantID, cmd)
	require.NoError(t, err)
	second, err := signer.Sign(tenantID, cmd)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestHMACSigner_RejectsTamperedPayload(t *testing.T) {
	signer, err := NewHMACSigner("master-secret-for-tests")
	require.NoError(t, err)
	tenantID := uuid.New()

	cmd := newSignedCommand(t, signer, tenantID)
	cmd.Payload.CompanyName = "Another Company"

	assert.Equal(t, ErrInvalidSignature, signer.Verify(tenantID, cmd))
}

func TestHMACSigner_RejectsForeignTenantSignature(t *testing.T) {
	signer, err := NewHMACSigner("master-secret-for-tests")
	require.NoError(t, err)

	cmd := newSignedCommand(t, signer, uuid.New())

	assert.Equal(t, ErrInvalidSignature, signer.Verify(uuid.New(), cmd))
}
