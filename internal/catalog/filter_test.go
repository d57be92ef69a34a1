package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocksync/internal/platform/woocommerce"
)

func TestFilter_ByCategory_SecondLevel(t *testing.T) {
	draft := published(5, "Draft course", "Programmes", "Tri-Love Elderly: NSA")
	draft.Status = "draft"

	lister := &pagedLister{pages: [][]woocommerce.Product{{
		published(1, "NSA Morning", "Programmes", "Tri-Love Elderly: NSA"),
		published(2, "Single level", "Tri-Love Elderly: NSA"),
		published(3, "Three levels", "Programmes", "Tri-Love Elderly: NSA", "Archive"),
		published(4, "Other programme", "Programmes", "Tri-Love Elderly: ILP"),
		draft,
	}}}
	f := NewFilter(lister, DefaultScanConfig(), quietLogger())

	got, err := f.ByCategory(context.Background(), PredicateSecondLevel, "Tri-Love Elderly: NSA")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].ID)
}

func TestFilter_ByCategory_TopThree(t *testing.T) {
	lister := &pagedLister{pages: [][]woocommerce.Product{{
		published(1, "Top level", "Talks And Seminar"),
		published(2, "Second level", "Programmes", "Talks And Seminar"),
		published(3, "Third level", "Programmes", "Events", "Talks And Seminar"),
		published(4, "Fourth level", "A", "B", "C", "Talks And Seminar"),
		published(5, "No categories"),
	}}}
	f := NewFilter(lister, DefaultScanConfig(), quietLogger())

	got, err := f.ByCategory(context.Background(), PredicateTopThree, "Talks And Seminar")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{got[0].ID, got[1].ID, got[2].ID})
}

func TestFilter_ByCategory_ShallowAny(t *testing.T) {
	lister := &pagedLister{pages: [][]woocommerce.Product{{
		published(1, "Donation drive", "Support Us"),
		published(2, "Gala dinner", "Events", "Support Us"),
		published(3, "Too deep", "A", "B", "Support Us"),
		published(4, "Unrelated", "Events"),
	}}}
	f := NewFilter(lister, DefaultScanConfig(), quietLogger())

	got, err := f.ByCategory(context.Background(), PredicateShallowAny, "Support Us")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].ID)
	assert.Equal(t, 2, got[1].ID)
}

func TestFilter_ByCategory_SpansPages(t *testing.T) {
	lister := &pagedLister{pages: [][]woocommerce.Product{
		{published(1, "Page one", "Programmes", "Tri-Love Elderly: ILP")},
		{published(2, "Page two", "Programmes", "Tri-Love Elderly: ILP")},
	}}
	f := NewFilter(lister, DefaultScanConfig(), quietLogger())

	got, err := f.ByCategory(context.Background(), PredicateSecondLevel, "Tri-Love Elderly: ILP")
	require.NoError(t, err)
	require.Len(t, got, 2)
	// Three calls: two pages plus the empty page that ends the scan.
	assert.Equal(t, 3, lister.calls)
}

func TestFilter_ByCategory_TransportFailureReturnsPartial(t *testing.T) {
	lister := &pagedLister{
		pages: [][]woocommerce.Product{
			{published(1, "Found", "Programmes", "Tri-Love Elderly: NSA")},
			{published(2, "Never seen", "Programmes", "Tri-Love Elderly: NSA")},
			{published(3, "Never seen either", "Programmes", "Tri-Love Elderly: NSA")},
		},
		errAt: map[int]error{2: &woocommerce.TransportError{Op: "GET /products", Err: errors.New("connection reset")}},
	}
	f := NewFilter(lister, DefaultScanConfig(), quietLogger())

	got, err := f.ByCategory(context.Background(), PredicateSecondLevel, "Tri-Love Elderly: NSA")
	require.ErrorIs(t, err, ErrScanTruncated)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].ID)
}

func TestFilter_ByCategory_PageCap(t *testing.T) {
	// Every page is full, so the scan can only stop at the cap.
	pages := make([][]woocommerce.Product, 10)
	for i := range pages {
		pages[i] = []woocommerce.Product{published(i+1, "Endless", "Programmes", "X")}
	}
	lister := &pagedLister{pages: pages}
	f := NewFilter(lister, ScanConfig{PageSize: 100, MaxPages: 3}, quietLogger())

	got, err := f.ByCategory(context.Background(), PredicateSecondLevel, "X")
	require.ErrorIs(t, err, ErrScanTruncated)
	assert.Len(t, got, 3)
}

func TestFilter_ByCategory_EmptyCatalog(t *testing.T) {
	f := NewFilter(&pagedLister{}, DefaultScanConfig(), quietLogger())

	got, err := f.ByCategory(context.Background(), PredicateSecondLevel, "Anything")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseCategoryPredicate(t *testing.T) {
	for _, valid := range []string{"second_level", "top_three", "shallow_any"} {
		_, err := ParseCategoryPredicate(valid)
		assert.NoError(t, err, valid)
	}
	_, err := ParseCategoryPredicate("nonsense")
	assert.Error(t, err)
}
