package services_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"superloja/internal/domain"
	"superloja/internal/repos"
	"superloja/internal/services"
)

func configureWatch(t *testing.T, e *env) {
	t.Helper()
	require.NoError(t, e.auctions.Configure(context.Background(), "smartwatch-01", services.AuctionConfig{
		StartingBid: 95000,
		Increment:   5000,
		End:         time.Now().Add(time.Hour),
	}))
}

func kindsFor(t *testing.T, e *env, userID string) map[string]int {
	t.Helper()
	notes, err := e.notify.List(context.Background(), userID)
	require.NoError(t, err)
	out := map[string]int{}
	for _, n := range notes {
		out[n.Kind]++
	}
	return out
}

func TestAuction_MinimumBidAndOutbid(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	configureWatch(t, e)
	bids := repos.NewAuctionRepo(e.db)

	_, err := e.auctions.PlaceBid(ctx, "smartwatch-01", "u-ana", 100000)
	require.NoError(t, err)

	_, err = e.auctions.PlaceBid(ctx, "smartwatch-01", "u-bruno", 104900)
	require.ErrorIs(t, err, services.ErrBidTooLow)
	n, err := bids.Count(ctx, "smartwatch-01")
	require.NoError(t, err)
	assert.Equal(t, 1, n, "rejected bid leaves no row")

	_, err = e.auctions.PlaceBid(ctx, "smartwatch-01", "u-bruno", 105000)
	require.NoError(t, err)

	v, err := e.auctions.View(ctx, "smartwatch-01")
	require.NoError(t, err)
	assert.Equal(t, domain.Money(105000), v.Product.CurrentBid)
	assert.Equal(t, domain.Money(110000), v.MinimumBid)
	assert.True(t, v.Open)
	assert.Greater(t, v.RemainingSeconds, int64(0))

	w, err := bids.Winning(ctx, "smartwatch-01")
	require.NoError(t, err)
	assert.Equal(t, "u-bruno", w.BidderID)

	assert.Equal(t, 1, kindsFor(t, e, "u-ana")[domain.NotifyOutbid])
	assert.Zero(t, kindsFor(t, e, "u-bruno")[domain.NotifyOutbid])
}

func TestAuction_RejectsOwnWinningBidAndNonAuctions(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	configureWatch(t, e)

	_, err := e.auctions.PlaceBid(ctx, "smartwatch-01", "u-ana", 100000)
	require.NoError(t, err)
	_, err = e.auctions.PlaceBid(ctx, "smartwatch-01", "u-ana", 200000)
	assert.ErrorIs(t, err, services.ErrOwnAuctionWinning)

	_, err = e.auctions.PlaceBid(ctx, "tenis-01", "u-ana", 100000)
	assert.ErrorIs(t, err, services.ErrNotAuction)
}

func TestAuction_ConcurrentBidsSingleWinner(t *testing.T) {
	e := newEnvAt(t, filepath.Join(t.TempDir(), "bids.db"))
	ctx := context.Background()
	configureWatch(t, e)

	const bidders = 10
	ids := make([]string, bidders)
	for i := range ids {
		ids[i] = fmt.Sprintf("u-bidder-%02d", i)
		_, err := e.db.Exec(`INSERT INTO profiles(id,email,name,password_hash) VALUES(?,?,?,?)`,
			ids[i], ids[i]+"@superloja.test", "Bidder", "x")
		require.NoError(t, err)
	}

	start := make(chan struct{})
	var wg sync.WaitGroup
	errs := make([]error, bidders)
	for i, bidder := range ids {
		wg.Add(1)
		go func(i int, bidder string) {
			defer wg.Done()
			<-start
			_, errs[i] = e.auctions.PlaceBid(ctx, "smartwatch-01", bidder, 100000)
		}(i, bidder)
	}
	close(start)
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.True(t, errorIsAny(err, services.ErrBidTooLow, services.ErrBidConflict), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, ok)

	list, err := repos.NewAuctionRepo(e.db).Bids(ctx, "smartwatch-01", 50)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].IsWinning)
	assert.Equal(t, domain.Money(100000), list[0].Amount)

	p, err := repos.NewProductRepo(e.db).Get(ctx, "smartwatch-01")
	require.NoError(t, err)
	assert.Equal(t, domain.Money(100000), p.CurrentBid)
}

func TestAuction_CloseDueIsIdempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	configureWatch(t, e)

	_, err := e.auctions.PlaceBid(ctx, "smartwatch-01", "u-bruno", 100000)
	require.NoError(t, err)

	later := time.Now().Add(2 * time.Hour)
	n, err := e.auctions.CloseDue(ctx, later)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = e.auctions.CloseDue(ctx, later)
	require.NoError(t, err)
	assert.Zero(t, n)

	p, err := repos.NewProductRepo(e.db).Get(ctx, "smartwatch-01")
	require.NoError(t, err)
	assert.Equal(t, domain.AuctionEnded, p.AuctionStatus)
	assert.Equal(t, "u-bruno", p.AuctionWinnerID)
	assert.Equal(t, 1, kindsFor(t, e, "u-bruno")[domain.NotifyAuctionWon])

	_, err = e.auctions.PlaceBid(ctx, "smartwatch-01", "u-ana", 500000)
	assert.ErrorIs(t, err, services.ErrAuctionClosed)
}

func TestAuction_ScheduledAndDisabled(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	require.NoError(t, e.auctions.Configure(ctx, "smartwatch-01", services.AuctionConfig{
		StartingBid: 1000,
		Increment:   100,
		Start:       time.Now().Add(time.Hour),
		End:         time.Now().Add(2 * time.Hour),
	}))
	_, err := e.auctions.PlaceBid(ctx, "smartwatch-01", "u-ana", 1100)
	assert.ErrorIs(t, err, services.ErrAuctionNotStarted)

	err = e.auctions.Configure(ctx, "smartwatch-01", services.AuctionConfig{
		StartingBid: 1000, Increment: 100, End: time.Now().Add(-time.Hour),
	})
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	st, err := e.settings.Load(ctx)
	require.NoError(t, err)
	st.AuctionsEnabled = false
	require.NoError(t, e.settings.Save(ctx, st))

	_, err = e.auctions.PlaceBid(ctx, "relogio-vintage", "u-ana", 105000)
	assert.ErrorIs(t, err, services.ErrAuctionsDisabled)
}

func TestAuction_ListPromotesScheduled(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	clock := time.Now()
	e.auctions.Now = func() time.Time { return clock }

	require.NoError(t, e.auctions.Configure(ctx, "smartwatch-01", services.AuctionConfig{
		StartingBid: 1000,
		Increment:   100,
		Start:       clock.Add(time.Minute),
		End:         clock.Add(time.Hour),
	}))
	clock = clock.Add(2 * time.Minute)

	list, err := e.auctions.List(ctx)
	require.NoError(t, err)
	status := map[string]string{}
	for _, p := range list {
		status[p.ID] = p.AuctionStatus
	}
	assert.Equal(t, domain.AuctionActive, status["smartwatch-01"])
	assert.Equal(t, domain.AuctionActive, status["relogio-vintage"])
}

func errorIsAny(err error, targets ...error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}
