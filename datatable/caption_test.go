package datatable

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCaption(t *testing.T) {
	m := DefaultMessages()
	tests := []struct {
		total, pageIndex, pageSize int
		want                       string
	}{
		{0, 0, 10, "No hay resultados."},
		{25, 2, 10, "21-25 de 25 resultados."},
		{25, 0, 10, "1-10 de 25 resultados."},
		{12, 1, 10, "11-12 de 12 resultados."},
		{75, 0, 75, "1-75 de 75 resultados."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Caption(tt.total, tt.pageIndex, tt.pageSize, m))
	}

	en := m
	en.ResultsRange = "%d-%d of %d results."
	assert.Equal(t, "1-10 of 12 results.", Caption(12, 0, 10, en))
}

func TestPageControls(t *testing.T) {
	assert.False(t, CanPreviousPage(0))
	assert.True(t, CanPreviousPage(1))
	assert.True(t, CanNextPage(25, 1, 10))
	assert.False(t, CanNextPage(25, 2, 10))
	assert.False(t, CanNextPage(20, 1, 10))
	assert.False(t, CanNextPage(0, 0, 10))
}
