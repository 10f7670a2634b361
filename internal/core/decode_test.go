package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeUpload(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{"plain ascii", []byte("Ana,551199999999\n"), "Ana,551199999999\n"},
		{"utf-8 bom stripped", []byte("\xEF\xBB\xBFAna,551199999999"), "Ana,551199999999"},
		{"accents preserved", []byte("João,551199999999"), "João,551199999999"},
		{"invalid utf-8 replaced", []byte("Jo\xffo,551199999999"), "Jo�o,551199999999"},
		{
			name:  "utf-16le with bom",
			input: []byte{0xFF, 0xFE, 'A', 0, 'n', 0, 'a', 0, ',', 0, '1', 0},
			want:  "Ana,1",
		},
		{"empty", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := DecodeUpload(strings.NewReader(string(tt.input)), 1024)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeUpload_SizeLimit(t *testing.T) {
	t.Parallel()

	got, err := DecodeUpload(strings.NewReader("0123456789"), 10)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", got)

	_, err = DecodeUpload(strings.NewReader("0123456789X"), 10)
	require.ErrorIs(t, err, ErrFileTooLarge)

	got, err = DecodeUpload(strings.NewReader(strings.Repeat("a", 5000)), 0)
	require.NoError(t, err)
	assert.Len(t, got, 5000)
}
