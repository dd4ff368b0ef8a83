package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/actuallystonmai/product-recommender/internal/recommend"
	"github.com/actuallystonmai/product-recommender/internal/service"
)

var (
	_ recommend.BehaviorStore = (*Repository)(nil)
	_ recommend.Catalog       = (*Repository)(nil)
	_ service.Store           = (*Repository)(nil)
)

func TestNonNilIDs(t *testing.T) {
	assert.Equal(t, []int64{}, nonNilIDs(nil))
	assert.Equal(t, []int64{3}, nonNilIDs([]int64{3}))
}
