package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPredicate_SealedTypes(t *testing.T) {
	preds := []Predicate{
		Equals{Field: "id", Value: 1},
		&Equals{Field: "id", Value: 1},
		Compare{Field: "ordering", Op: OpLess, Value: 3},
		And{},
		Or{},
		Raw{SQL: "catid = ?", Args: []any{5}},
	}

	for _, p := range preds {
		switch p.(type) {
		case Equals, *Equals, Compare, And, Or, Raw:
			// Expected
		default:
			t.Fatalf("unexpected predicate type %T", p)
		}
	}
}

func TestOp_Valid(t *testing.T) {
	for _, op := range []Op{OpLess, OpLessEqual, OpGreater, OpGreaterEqual, OpNotEqual} {
		assert.True(t, op.Valid(), "op %q", op)
	}
	assert.False(t, Op("LIKE").Valid())
	assert.False(t, Op("").Valid())
}

func TestEq(t *testing.T) {
	assert.Equal(t, Equals{Field: "catid", Value: 5}, Eq("catid", 5))
}

func TestAllOf(t *testing.T) {
	t.Run("no predicates", func(t *testing.T) {
		assert.Nil(t, AllOf())
		assert.Nil(t, AllOf(nil, nil))
	})

	t.Run("single predicate is returned as is", func(t *testing.T) {
		p := Eq("id", 1)
		assert.Equal(t, p, AllOf(nil, p))
	})

	t.Run("multiple predicates are wrapped in And", func(t *testing.T) {
		a, b := Eq("id", 1), Eq("lang", "en")
		assert.Equal(t, And{Predicates: []Predicate{a, b}}, AllOf(a, nil, b))
	})
}
