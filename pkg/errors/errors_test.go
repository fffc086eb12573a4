package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryDerivation(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want ErrorCategory
	}{
		{ErrCodeNotFound, CategoryFilesystem},
		{ErrCodeNoCredentials, CategoryCredential},
		{ErrCodeCredentialsExposed, CategoryCredential},
		{ErrCodeAuthFailed, CategoryService},
		{ErrCodeCatalogFetch, CategoryService},
		{ErrCodeStreamOpen, CategoryStream},
		{ErrCodeStreamRead, CategoryStream},
		{ErrCodeSizeProbe, CategoryStream},
		{ErrCodeInvalidConfig, CategoryConfig},
		{ErrCodeMountFailed, CategoryFilesystem},
		{ErrCodeContractViolation, CategoryInternal},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.code, "x").Category)
		})
	}
}

func TestErrorString(t *testing.T) {
	err := New(ErrCodeNotFound, "no such entry").
		WithComponent("router").
		WithPath("/artists/nobody")
	assert.Equal(t, "[router] NOT_FOUND: no such entry: /artists/nobody", err.Error())
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := Wrap(ErrCodeStreamRead, "read failed", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestIsMatchesByCode(t *testing.T) {
	wrapped := fmt.Errorf("op: %w", New(ErrCodeNotFound, "gone"))
	assert.True(t, stderrors.Is(wrapped, New(ErrCodeNotFound, "anything")))
	assert.False(t, stderrors.Is(wrapped, New(ErrCodeStreamOpen, "anything")))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(New(ErrCodeNotFound, "x")))
	assert.True(t, IsNotFound(fmt.Errorf("wrap: %w", New(ErrCodeNotFound, "x"))))
	assert.False(t, IsNotFound(New(ErrCodeStreamOpen, "x")))
	assert.False(t, IsNotFound(stderrors.New("plain")))
}

func TestIsCredential(t *testing.T) {
	assert.True(t, IsCredential(New(ErrCodeNoCredentials, "missing")))
	assert.True(t, IsCredential(New(ErrCodeCredentialsExposed, "0644")))
	assert.False(t, IsCredential(New(ErrCodeAuthFailed, "denied")))
}

func TestCodeOf(t *testing.T) {
	code, ok := CodeOf(fmt.Errorf("wrap: %w", New(ErrCodeSizeProbe, "x")))
	assert.True(t, ok)
	assert.Equal(t, ErrCodeSizeProbe, code)

	_, ok = CodeOf(stderrors.New("plain"))
	assert.False(t, ok)
}
