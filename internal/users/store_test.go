package users

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestStore(t *testing.T) *MemoryStore {
	t.Helper()
	hash, err := HashPassword("admin", bcrypt.MinCost)
	require.NoError(t, err)
	other, err := HashPassword("s3cret-Pass", bcrypt.MinCost)
	require.NoError(t, err)

	store, err := NewMemoryStore(
		UserRecord{
			ID:           1,
			Email:        "admin@admin.com",
			PasswordHash: hash,
			Profile:      Profile{Name: "David", LastName: "Cruz", BirthDate: "2004-07-09"},
		},
		UserRecord{ID: 2, Email: "jane@example.com", PasswordHash: other},
	)
	require.NoError(t, err)
	return store
}

func TestVerifySuccess(t *testing.T) {
	store := newTestStore(t)

	rec, err := store.Verify("admin@admin.com", "admin")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.ID)
	assert.Equal(t, "David", rec.Profile.Name)

	rec, err = store.Verify("jane@example.com", "s3cret-Pass")
	require.NoError(t, err)
	assert.Equal(t, int64(2), rec.ID)
}

func TestVerifyBitFlipFails(t *testing.T) {
	store := newTestStore(t)
	password := []byte("s3cret-Pass")

	for i := range password {
		for bit := 0; bit < 8; bit++ {
			flipped := make([]byte, len(password))
			copy(flipped, password)
			flipped[i] ^= 1 << bit

			_, err := store.Verify("jane@example.com", string(flipped))
			assert.ErrorIs(t, err, ErrInvalidCredentials, "byte %d bit %d", i, bit)
		}
	}
}

func TestVerifyUnknownEmailIndistinguishable(t *testing.T) {
	store := newTestStore(t)

	_, errUnknown := store.Verify("nobody@admin.com", "admin")
	_, errWrong := store.Verify("admin@admin.com", "wrong")

	assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
	assert.ErrorIs(t, errWrong, ErrInvalidCredentials)
	assert.Equal(t, errUnknown, errWrong)
}

func TestVerifyEmailIsCaseSensitive(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Verify("Admin@Admin.com", "admin")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyEmptyInput(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Verify("", "admin")
	assert.ErrorIs(t, err, ErrMalformedRequest)
	_, err = store.Verify("admin@admin.com", "")
	assert.ErrorIs(t, err, ErrMalformedRequest)
}

func TestVerifyCorruptHashIsInternalError(t *testing.T) {
	store, err := NewMemoryStore(UserRecord{ID: 7, Email: "broken@example.com", PasswordHash: "not-a-bcrypt-hash"})
	require.NoError(t, err)

	_, err = store.Verify("broken@example.com", "whatever")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyReturnsCopy(t *testing.T) {
	store := newTestStore(t)

	rec, err := store.Verify("admin@admin.com", "admin")
	require.NoError(t, err)
	rec.Email = "mutated@example.com"

	again, err := store.FindByID(1)
	require.NoError(t, err)
	assert.Equal(t, "admin@admin.com", again.Email)
}

func TestFindByID(t *testing.T) {
	store := newTestStore(t)

	rec, err := store.FindByID(2)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", rec.Email)

	_, err = store.FindByID(99)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestNewMemoryStoreRejectsDuplicates(t *testing.T) {
	hash, err := HashPassword("pw", bcrypt.MinCost)
	require.NoError(t, err)

	_, err = NewMemoryStore(
		UserRecord{ID: 1, Email: "a@example.com", PasswordHash: hash},
		UserRecord{ID: 2, Email: "a@example.com", PasswordHash: hash},
	)
	assert.Error(t, err)

	_, err = NewMemoryStore(
		UserRecord{ID: 1, Email: "a@example.com", PasswordHash: hash},
		UserRecord{ID: 1, Email: "b@example.com", PasswordHash: hash},
	)
	assert.Error(t, err)

	_, err = NewMemoryStore(UserRecord{ID: 1, Email: "a@example.com"})
	assert.Error(t, err)
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("admin", bcrypt.MinCost)
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("admin")))

	_, err = HashPassword("", bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrMalformedRequest)
}

func TestHashPasswordRejectsCostOutOfRange(t *testing.T) {
	for _, cost := range []int{0, bcrypt.MinCost - 1, bcrypt.MaxCost + 1} {
		_, err := HashPassword("admin", cost)
		assert.ErrorIs(t, err, ErrInvalidCost, "cost %d", cost)
	}
}

func TestVerifyRejectsPasswordBeyondBcryptLimit(t *testing.T) {
	password := strings.Repeat("p", 72)
	hash, err := HashPassword(password, bcrypt.MinCost)
	require.NoError(t, err)
	store, err := NewMemoryStore(UserRecord{ID: 1, Email: "admin@admin.com", PasswordHash: hash})
	require.NoError(t, err)

	rec, err := store.Verify("admin@admin.com", password)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.ID)

	// 先頭72バイトが一致していても、それ以降が異なれば別のパスワード
	_, err = store.Verify("admin@admin.com", password+"EXTRA-NOT-THE-PASSWORD")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, errKnown := store.Verify("admin@admin.com", strings.Repeat("x", 100))
	_, errUnknown := store.Verify("ghost@admin.com", strings.Repeat("x", 100))
	assert.Equal(t, errKnown, errUnknown)
}
