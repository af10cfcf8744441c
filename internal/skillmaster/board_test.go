package skillmaster

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupBoard(t *testing.T) *Board {
	board := NewBoard()
	t.Cleanup(func() { board.Close() })
	return board
}

func postListing(t *testing.T, board *Board) uuid.UUID {
	t.Helper()
	orderID := uuid.New()
	err := board.Post(&Listing{
		OrderID:     orderID,
		UserID:      "user1",
		PlatformID:  3,
		ProductIDs:  []int64{1, 1, 2},
		TotalAmount: 59.97,
		Currency:    "USD",
	})
	require.NoError(t, err)
	return orderID
}

func TestBoard_Post_And_List(t *testing.T) {
	board := setupBoard(t)

	id1 := postListing(t, board)
	id2 := postListing(t, board)

	listings := board.List()
	assert.Len(t, listings, 2)

	seen := make(map[uuid.UUID]Listing)
	for _, l := range listings {
		seen[l.OrderID] = l
	}
	assert.Equal(t, []int64{1, 1, 2}, seen[id1].ProductIDs)
	assert.False(t, seen[id2].PostedAt.IsZero())
}

func TestBoard_Post_Duplicate(t *testing.T) {
	board := setupBoard(t)
	orderID := postListing(t, board)

	err := board.Post(&Listing{OrderID: orderID, UserID: "user1"})
	assert.ErrorIs(t, err, ErrAlreadyPosted)
	assert.Len(t, board.List(), 1)
}

func TestBoard_Claim_HidesListing(t *testing.T) {
	board := setupBoard(t)
	orderID := postListing(t, board)

	claim, err := board.Claim(orderID, "sm-1")
	require.NoError(t, err)
	assert.Equal(t, "sm-1", claim.SkillmasterID)
	assert.True(t, claim.ExpiresAt.After(time.Now()))

	assert.Empty(t, board.List(), "claimed listing must not be offered")
}

func TestBoard_Claim_AlreadyClaimed(t *testing.T) {
	board := setupBoard(t)
	orderID := postListing(t, board)

	_, err := board.Claim(orderID, "sm-1")
	require.NoError(t, err)

	_, err = board.Claim(orderID, "sm-2")
	assert.ErrorIs(t, err, ErrAlreadyClaimed)

	// Re-claiming by the holder is a no-op
	claim, err := board.Claim(orderID, "sm-1")
	require.NoError(t, err)
	assert.Equal(t, "sm-1", claim.SkillmasterID)
}

func TestBoard_Claim_NotFound(t *testing.T) {
	board := setupBoard(t)

	_, err := board.Claim(uuid.New(), "sm-1")
	assert.ErrorIs(t, err, ErrListingNotFound)
}

func TestBoard_Confirm_RemovesListing(t *testing.T) {
	board := setupBoard(t)
	orderID := postListing(t, board)

	_, err := board.Claim(orderID, "sm-1")
	require.NoError(t, err)

	require.NoError(t, board.Confirm(orderID, "sm-1"))
	assert.Empty(t, board.List())

	// Gone for good
	_, err = board.Claim(orderID, "sm-1")
	assert.ErrorIs(t, err, ErrListingNotFound)
}

func TestBoard_Confirm_WrongHolder(t *testing.T) {
	board := setupBoard(t)
	orderID := postListing(t, board)

	_, err := board.Claim(orderID, "sm-1")
	require.NoError(t, err)

	err = board.Confirm(orderID, "sm-2")
	assert.ErrorIs(t, err, ErrNotClaimHolder)
}

func TestBoard_Confirm_NoClaim(t *testing.T) {
	board := setupBoard(t)
	orderID := postListing(t, board)

	err := board.Confirm(orderID, "sm-1")
	assert.ErrorIs(t, err, ErrClaimNotFound)
}

func TestBoard_Release_ReopensListing(t *testing.T) {
	board := setupBoard(t)
	orderID := postListing(t, board)

	_, err := board.Claim(orderID, "sm-1")
	require.NoError(t, err)
	require.NoError(t, board.Release(orderID, "sm-1"))

	assert.Len(t, board.List(), 1)

	// Another skillmaster can pick it up now
	_, err = board.Claim(orderID, "sm-2")
	assert.NoError(t, err)
}

func TestBoard_ExpireClaims(t *testing.T) {
	board := setupBoard(t)
	orderID := postListing(t, board)

	_, err := board.Claim(orderID, "sm-1")
	require.NoError(t, err)

	// Manually expire the claim by modifying ExpiresAt
	board.mu.Lock()
	board.claims[orderID].ExpiresAt = time.Now().Add(-1 * time.Minute)
	board.mu.Unlock()

	board.expireClaims()

	assert.Len(t, board.List(), 1, "listing must reopen after claim expiry")
	_, err = board.Claim(orderID, "sm-2")
	assert.NoError(t, err)
}

func TestBoard_ConcurrentClaims(t *testing.T) {
	board := setupBoard(t)
	orderID := postListing(t, board)

	var wg sync.WaitGroup
	successCount := 0
	var mu sync.Mutex

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_, err := board.Claim(orderID, "sm-"+string(rune('0'+id)))
			if err == nil {
				mu.Lock()
				successCount++
				mu.Unlock()
			}
		}(i)
	}

	wg.Wait()
	assert.Equal(t, 1, successCount, "exactly one skillmaster wins the claim")
}
