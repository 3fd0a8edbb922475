package router

import (
	"context"

	"github.com/mgiraldodev/templaria-backend/internal/analytics/types"
)

type fakeWriter struct {
	rows []types.StoreEventRow
	err  error
}

func (f *fakeWriter) InsertStoreEvent(_ context.Context, row types.StoreEventRow) error {
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, row)
	return nil
}
