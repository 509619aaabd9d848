package wizard

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	memmembershipstore "github.com/mecajames/NewMECAV2-sub005/internal/adapters/memory/membershipstore"
)

func TestDebouncer_OnlyLatestTokenCommits(t *testing.T) {
	d := NewDebouncer(time.Hour)
	first := d.Schedule(func(Token) {})
	second := d.Schedule(func(Token) {})
	require.NotEqual(t, first, second)
	require.Equal(t, second, d.Current())

	ran := false
	require.False(t, d.Commit(first, func() { ran = true }))
	require.False(t, ran)
	require.True(t, d.Commit(second, func() { ran = true }))
	require.True(t, ran)

	d.Cancel()
	require.False(t, d.Commit(second, func() {}))
	d.Wait()
}

func TestDebouncer_CollapsesRapidCalls(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)

	var (
		mu    sync.Mutex
		fired []Token
	)
	var last Token
	for i := 0; i < 5; i++ {
		last = d.Schedule(func(tok Token) {
			mu.Lock()
			defer mu.Unlock()
			fired = append(fired, tok)
		})
	}
	d.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []Token{last}, fired)
}

func TestDebouncer_InFlightCallSupersededBeforeCommit(t *testing.T) {
	d := NewDebouncer(time.Millisecond)

	started := make(chan struct{})
	release := make(chan struct{})
	results := make(chan bool, 2)

	stale := d.Schedule(func(tok Token) {
		close(started)
		<-release
		results <- d.Commit(tok, func() {})
	})
	<-started
	fresh := d.Schedule(func(tok Token) {
		results <- d.Commit(tok, func() {})
	})
	require.Greater(t, fresh, stale)
	close(release)
	d.Wait()
	close(results)

	var committed, dropped int
	for ok := range results {
		if ok {
			committed++
		} else {
			dropped++
		}
	}
	require.Equal(t, 1, committed)
	require.Equal(t, 1, dropped)
}

func TestLiveMasterSearch_CommitsOnlyLastQuery(t *testing.T) {
	st := newStores(t, memmembershipstore.Options{})
	st.seedMaster(t, "Alice", "Anders", "alice@example.com")
	st.seedMaster(t, "Bob", "Brown", "bob@example.com")

	live := NewLiveMasterSearch(NewMasterSearch(st.profiles, st.memberships, 0), 10*time.Millisecond)
	defer live.Stop()

	type result struct {
		cands []MasterCandidate
		err   error
	}
	got := make(chan result, 4)
	commit := func(c []MasterCandidate, err error) { got <- result{c, err} }

	ctx := context.Background()
	live.Type(ctx, "al", commit)
	live.Type(ctx, "ali", commit)
	live.Type(ctx, "bob", commit)

	select {
	case r := <-got:
		require.NoError(t, r.err)
		require.Len(t, r.cands, 1)
		require.Equal(t, "Bob", r.cands[0].Profile.FirstName)
	case <-time.After(2 * time.Second):
		t.Fatalf("search did not commit")
	}

	live.Stop()
	require.Len(t, got, 0)
}

func TestLiveMasterSearch_EmptyQueryCommitsEmpty(t *testing.T) {
	st := newStores(t, memmembershipstore.Options{})
	live := NewLiveMasterSearch(NewMasterSearch(st.profiles, st.memberships, 0), time.Millisecond)

	got := make(chan []MasterCandidate, 1)
	errs := make(chan error, 1)
	live.Type(context.Background(), "", func(c []MasterCandidate, err error) {
		errs <- err
		got <- c
	})

	select {
	case c := <-got:
		require.NoError(t, <-errs)
		require.NotNil(t, c)
		require.Empty(t, c)
	case <-time.After(2 * time.Second):
		t.Fatalf("empty query did not commit")
	}
	live.Stop()
}

func TestLiveMasterSearch_StopDropsPending(t *testing.T) {
	st := newStores(t, memmembershipstore.Options{})
	live := NewLiveMasterSearch(NewMasterSearch(st.profiles, st.memberships, 0), time.Hour)

	called := false
	live.Type(context.Background(), "alice", func([]MasterCandidate, error) { called = true })
	live.Stop()
	require.False(t, called)
}
