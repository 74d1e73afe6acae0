package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
	"shopledger/internal/domain/documents/order"
)

type stamped struct {
	CreatedAt time.Time `db:"created_at"`
}

type row struct {
	stamped
	ID      id.ID  `db:"id"`
	Name    string `db:"name"`
	Ignored string `db:"-"`
	NoTag   string
}

func TestExtractDBColumns(t *testing.T) {
	assert.Equal(t, []string{"created_at", "id", "name"}, ExtractDBColumns[row]())

	cols := ExtractDBColumns[order.Item]()
	assert.Equal(t, "id", cols[0])
	assert.Contains(t, cols, "base_quantity")
	assert.Contains(t, cols, "line_total")
}

func TestStructToMap(t *testing.T) {
	now := time.Now().UTC()
	r := row{stamped: stamped{CreatedAt: now}, ID: id.New(), Name: "x", Ignored: "y", NoTag: "z"}

	m := StructToMap(&r)

	assert.Len(t, m, 3)
	assert.Equal(t, r.ID, m["id"])
	assert.Equal(t, now, m["created_at"])
	assert.NotContains(t, m, "-")
	assert.Nil(t, StructToMap(42))
}

func TestStructValues(t *testing.T) {
	item := order.Item{ID: id.New(), Quantity: 3, UnitPrice: types.MustMoney("2.5")}

	vals := StructValues(item, []string{"quantity", "id"})

	assert.Equal(t, []any{int64(3), item.ID}, vals)
}
