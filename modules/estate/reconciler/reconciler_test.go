package reconciler

import (
	"context"
	"testing"

	"github.com/gaze-network/estate-ordinals/modules/estate/internal/entity"
	"github.com/gaze-network/estate-ordinals/pkg/unisat"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchAndAddNewInscriptions(t *testing.T) {
	p1 := uuid.New()
	store := newFakeStore(pendingOrder("o1", p1), pendingOrder("o2", p1))
	gateway := newFakeOrderGateway().
		on("o1", orderResult{resp: mintedResponse(addrA, idI1)}).
		on("o2", orderResult{resp: statusResponse(unisat.OrderStatusPending)})
	reconciler := newTestReconciler(t, store, gateway)

	added, err := reconciler.FetchAndAddNewInscriptions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	reconciler.Wait()

	assert.Equal(t, Status{}, reconciler.Status())
	assert.Equal(t, entity.OrderStatusMinted, store.order("o1").Status)
	assert.Equal(t, entity.OrderStatusPending, store.order("o2").Status)

	// o2 is still pending and is queued again on the next cycle
	added, err = reconciler.FetchAndAddNewInscriptions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	reconciler.Wait()
	assert.Equal(t, 2, gateway.callCount("o2"))
}

func TestStartUpdateHolders(t *testing.T) {
	inscription := newInscription(idI1, addrA)
	store := newFakeStore()
	store.inscriptions = []*entity.Inscription{inscription}

	sleeper := &fakeSleeper{}
	queue := NewQueue(newFakeOrderGateway(), store, &fakeBroadcaster{}, QueueConfig{}, WithSleeper(sleeper.Sleep))
	holders := NewHolderSynchronizer(newFakeOwnershipGateway().on(idI1, ownerResult{address: "bc1qownerb"}), store, HolderSyncConfig{}, sleeper.Sleep)
	reconciler := New(context.Background(), store, queue, holders)

	assert.True(t, reconciler.StartUpdateHolders())
	reconciler.Wait()

	assert.False(t, reconciler.Status().SyncingHolders)
	assert.Equal(t, []string{"bc1qownerb"}, store.ownerUpdates[inscription.Id])
}
