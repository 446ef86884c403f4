package repository

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestCreateWithNumberRetry_RetriesOnceOnDuplicateNumber(t *testing.T) {
	attempts := 0
	err := createWithNumberRetry(func() error {
		attempts++
		if attempts == 1 {
			return gorm.ErrDuplicatedKey
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestCreateWithNumberRetry_NoRetryOnOtherErrors(t *testing.T) {
	attempts := 0
	boom := errors.New("connection reset")
	err := createWithNumberRetry(func() error {
		attempts++
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, attempts)
}

func TestCreateWithNumberRetry_SecondCollisionSurfaces(t *testing.T) {
	attempts := 0
	err := createWithNumberRetry(func() error {
		attempts++
		return gorm.ErrDuplicatedKey
	})

	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
	assert.Equal(t, 2, attempts)
}
