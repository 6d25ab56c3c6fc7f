package record_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rowgate/internal/queryir"
	"github.com/roach88/rowgate/internal/record"
	"github.com/roach88/rowgate/internal/schema"
	"github.com/roach88/rowgate/internal/store"
	"github.com/roach88/rowgate/internal/testutil"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, _ := testutil.OpenSQLite(t, testutil.ContentDDL)
	return s
}

func newContent(t *testing.T, s *store.Store, opts ...record.Option) *record.Record {
	t.Helper()
	opts = append([]record.Option{
		record.WithCache(schema.NewCache()),
		record.WithClock(testutil.NewFixedClock()),
	}, opts...)
	r, err := record.New(context.Background(), s, "content", nil, opts...)
	require.NoError(t, err)
	return r
}

func seed(t *testing.T, s *store.Store, rows ...map[string]any) []int64 {
	t.Helper()
	var ids []int64
	for _, row := range rows {
		r := newContent(t, s)
		ok, err := r.Save(context.Background(), row, "")
		require.NoError(t, err)
		require.True(t, ok)
		id, _ := r.Get("id")
		ids = append(ids, id.(int64))
	}
	return ids
}

func orderings(t *testing.T, s *store.Store, ids []int64) []int64 {
	t.Helper()
	out := make([]int64, len(ids))
	for i, id := range ids {
		r := newContent(t, s)
		ok, err := r.Load(context.Background(), id, false)
		require.NoError(t, err)
		require.True(t, ok)
		v, _ := r.Get("ordering")
		out[i] = v.(int64)
	}
	return out
}

func TestRecord_SaveLoadDelete(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	r := newContent(t, s)
	ok, err := r.Save(ctx, map[string]any{"title": "Hello", "catid": 2}, "catid")
	require.NoError(t, err)
	require.True(t, ok)
	id, _ := r.Get("id")
	assert.Equal(t, int64(1), id)

	loaded := newContent(t, s)
	ok, err = loaded.Load(ctx, id, true)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Hello", loaded.Fields()["title"])
	assert.Equal(t, int64(2), loaded.Fields()["catid"])
	// Reorder after save compacts the partition starting at 1.
	assert.Equal(t, int64(1), loaded.Fields()["ordering"])

	byTitle := newContent(t, s)
	ok, err = byTitle.Load(ctx, record.Key{"title": "Hello"}, false)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = loaded.Delete(ctx, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = newContent(t, s).Load(ctx, id, false)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRecord_UpdateKeepsUntouchedColumns(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	ids := seed(t, s, map[string]any{"title": "A", "hits": 4})

	r := newContent(t, s)
	require.NoError(t, r.Set("id", ids[0]))
	require.NoError(t, r.Set("title", "B"))
	ok, err := r.Store(ctx, false)
	require.NoError(t, err)
	require.True(t, ok)

	check := newContent(t, s)
	_, err = check.Load(ctx, ids[0], false)
	require.NoError(t, err)
	assert.Equal(t, "B", check.Fields()["title"])
	assert.Equal(t, int64(4), check.Fields()["hits"])
}

func TestRecord_CheckoutCycle(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	ids := seed(t, s, map[string]any{"title": "A"})

	editor := newContent(t, s)
	_, err := editor.Load(ctx, ids[0], false)
	require.NoError(t, err)

	ok, err := editor.CheckOut(ctx, 9, nil)
	require.NoError(t, err)
	require.True(t, ok)

	other := newContent(t, s)
	_, err = other.Load(ctx, ids[0], false)
	require.NoError(t, err)
	assert.Equal(t, int64(9), other.Fields()["checked_out"])
	assert.Equal(t, "2024-01-15 10:30:00", other.Fields()["checked_out_time"])

	busy, err := other.IsCheckedOut(ctx, 7, nil)
	require.NoError(t, err)
	assert.True(t, busy)

	busy, err = other.IsCheckedOut(ctx, 9, nil)
	require.NoError(t, err)
	assert.False(t, busy)

	ok, err = editor.CheckIn(ctx, nil)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = other.Load(ctx, ids[0], false)
	require.NoError(t, err)
	busy, err = other.IsCheckedOut(ctx, 7, nil)
	require.NoError(t, err)
	assert.False(t, busy)
	assert.Equal(t, "0000-00-00 00:00:00", other.Fields()["checked_out_time"])
}

func TestRecord_PublishRespectsForeignCheckout(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	ids := seed(t, s,
		map[string]any{"title": "A"},
		map[string]any{"title": "B"},
		map[string]any{"title": "C"},
	)

	holder := newContent(t, s)
	_, err := holder.CheckOut(ctx, 9, ids[1])
	require.NoError(t, err)

	r := newContent(t, s)
	keys := []record.Key{{"id": ids[0]}, {"id": ids[1]}, {"id": ids[2]}}
	ok, err := r.Publish(ctx, keys, 1, 7)
	require.NoError(t, err)
	assert.True(t, ok)

	published := func(id int64) (int64, int64) {
		row := newContent(t, s)
		_, err := row.Load(ctx, id, false)
		require.NoError(t, err)
		p, _ := row.Get("published")
		c, _ := row.Get("checked_out")
		return p.(int64), c.(int64)
	}

	p, c := published(ids[0])
	assert.Equal(t, int64(1), p)
	assert.Equal(t, int64(0), c)

	p, c = published(ids[1])
	assert.Equal(t, int64(0), p, "row held by actor 9 is skipped")
	assert.Equal(t, int64(9), c, "partial publish does not check rows in")

	// Only the locked row: nothing changes, soft failure.
	ok, err = r.Publish(ctx, []record.Key{{"id": ids[1]}}, 1, 7)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NotEmpty(t, r.LastError())

	// The holder can publish its own row, which checks it in.
	ok, err = r.Publish(ctx, []record.Key{{"id": ids[1]}}, 1, 9)
	require.NoError(t, err)
	assert.True(t, ok)
	p, c = published(ids[1])
	assert.Equal(t, int64(1), p)
	assert.Equal(t, int64(0), c)
}

func TestRecord_ReorderAndMove(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	ids := seed(t, s,
		map[string]any{"title": "A", "catid": 1, "ordering": 5},
		map[string]any{"title": "B", "catid": 1, "ordering": 1},
		map[string]any{"title": "C", "catid": 1, "ordering": 2},
		map[string]any{"title": "D", "catid": 1, "ordering": 4},
		map[string]any{"title": "X", "catid": 2, "ordering": 9},
		map[string]any{"title": "N", "catid": 1, "ordering": -1},
	)
	inCat1 := queryir.Eq("catid", 1)

	r := newContent(t, s)
	ok, err := r.Reorder(ctx, inCat1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []int64{4, 1, 2, 3, 9, -1}, orderings(t, s, ids))

	next, err := r.GetNextOrder(ctx, inCat1)
	require.NoError(t, err)
	assert.Equal(t, int64(5), next)

	// Move D (3) up: swaps with C (2).
	mover := newContent(t, s)
	_, err = mover.Load(ctx, ids[3], false)
	require.NoError(t, err)
	ok, err = mover.Move(ctx, -1, inCat1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []int64{4, 1, 3, 2, 9, -1}, orderings(t, s, ids))

	// B is first once negative orderings are filtered out.
	first := newContent(t, s)
	_, err = first.Load(ctx, ids[1], false)
	require.NoError(t, err)
	bounded := queryir.AllOf(inCat1, queryir.Compare{Field: "ordering", Op: queryir.OpGreaterEqual, Value: 0})
	ok, err = first.Move(ctx, -1, bounded)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []int64{4, 1, 3, 2, 9, -1}, orderings(t, s, ids))
}

func TestRecord_Hit(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	ids := seed(t, s, map[string]any{"title": "A"})

	r := newContent(t, s)
	_, err := r.Load(ctx, ids[0], false)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := r.Hit(ctx, nil)
		require.NoError(t, err)
	}
	assert.Equal(t, int64(3), r.Fields()["hits"])

	check := newContent(t, s)
	_, err = check.Load(ctx, ids[0], false)
	require.NoError(t, err)
	assert.Equal(t, int64(3), check.Fields()["hits"])
}

func TestRecord_LockReleasedByStore(t *testing.T) {
	s, path := testutil.OpenSQLite(t, testutil.ContentDDL)
	ctx := context.Background()

	r := newContent(t, s)
	require.NoError(t, r.Lock(ctx))
	assert.True(t, r.Locked())

	other, err := store.Open(ctx, "sqlite", path)
	require.NoError(t, err)
	defer other.Close()
	assert.ErrorIs(t, other.LockTable(ctx, "content"), store.ErrTableLocked)

	require.NoError(t, r.Bind(map[string]any{"title": "locked write"}))
	ok, err := r.Store(ctx, false)
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, r.Locked())

	require.NoError(t, other.LockTable(ctx, "content"))
	require.NoError(t, other.UnlockAll(ctx))
}

func TestRecord_SaveStructWithUnsignedKey(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	type article struct {
		ID    uint32 `db:"id"`
		Title string
	}

	for i, title := range []string{"first", "second"} {
		r := newContent(t, s)
		ok, err := r.Save(ctx, article{Title: title}, "")
		require.NoError(t, err)
		require.True(t, ok, r.LastError())
		id, _ := r.Get("id")
		assert.Equal(t, int64(i+1), id)
	}

	r := newContent(t, s)
	ok, err := r.Load(ctx, int64(2), true)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "second", r.Fields()["title"])
}

func TestRecord_UnknownKeyColumnRejected(t *testing.T) {
	s := openStore(t)

	_, err := record.New(context.Background(), s, "content", []string{"uid"}, record.WithCache(schema.NewCache()))
	require.Error(t, err)
	assert.True(t, record.IsUnknownFieldError(err))

	n, err := s.LoadScalar(context.Background(), s.NewQuery().SelectExpr("COUNT(*)").From("content"))
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestRecord_PublishOwnKeyMatchesLoadedType(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	ids := seed(t, s, map[string]any{"title": "A"})

	r := newContent(t, s)
	ok, err := r.Load(ctx, ids[0], true)
	require.NoError(t, err)
	require.True(t, ok)
	assert.IsType(t, int64(0), r.Fields()["published"])

	ok, err = r.Publish(ctx, nil, 1, 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1), r.Fields()["published"])

	reloaded := newContent(t, s)
	_, err = reloaded.Load(ctx, ids[0], true)
	require.NoError(t, err)
	assert.Equal(t, reloaded.Fields()["published"], r.Fields()["published"])
}
