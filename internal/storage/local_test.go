package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voyage-backend/internal/apperr"
)

func TestCleanKey(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "clients/3/a.pdf", want: "clients/3/a.pdf"},
		{in: "/uploads/clients/3/a.pdf", want: "clients/3/a.pdf"},
		{in: "dossiers\\4\\b.pdf", want: "dossiers/4/b.pdf"},
		{in: "a/../b.pdf", want: "b.pdf"},
		{in: "../etc/passwd", wantErr: true},
		{in: "clients/../../x", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := CleanKey(tt.in)
			if tt.wantErr {
				assert.True(t, errors.Is(err, apperr.ErrValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLocalStore_SaveOpenDelete(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	body := "%PDF-1.4 test"
	require.NoError(t, s.Save(ctx, "clients/1/doc.pdf", strings.NewReader(body), int64(len(body)), "application/pdf"))

	rc, err := s.Open(ctx, "clients/1/doc.pdf")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, body, string(data))

	// keys are never overwritten
	assert.Error(t, s.Save(ctx, "clients/1/doc.pdf", strings.NewReader(body), int64(len(body)), "application/pdf"))

	require.NoError(t, s.Delete(ctx, "clients/1/doc.pdf"))
	_, err = s.Open(ctx, "clients/1/doc.pdf")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
	assert.True(t, errors.Is(s.Delete(ctx, "clients/1/doc.pdf"), apperr.ErrNotFound))
}

func TestLocalStore_RejectsTraversal(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, err = s.Open(context.Background(), "../../etc/passwd")
	assert.Error(t, err)
}
