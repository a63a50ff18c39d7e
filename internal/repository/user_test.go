package repository

import (
	"regexp"
	"testing"

	"yatube/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_GetByUsername(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE username = $1 ORDER BY "users"."id" LIMIT $2`)).
		WithArgs("leo", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "is_staff"}).AddRow(5, "leo", true))

	user, err := repo.GetByUsername(bg, "leo")
	require.NoError(t, err)
	assert.Equal(t, uint(5), user.ID)
	assert.True(t, user.IsStaff)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateDuplicate(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewUserRepository(db)

	require.NoError(t, repo.Create(bg, &models.User{Username: "leo", Password: "x"}))
	err := repo.Create(bg, &models.User{Username: "leo", Password: "y"})
	assert.True(t, models.HasCode(err, models.CodeValidation))
}

func TestUserRepository_SetStaff(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewUserRepository(db)
	leo := createUser(t, db, "leo")

	require.NoError(t, repo.SetStaff(bg, leo.ID, true))
	got, err := repo.GetByID(bg, leo.ID)
	require.NoError(t, err)
	assert.True(t, got.IsStaff)

	require.NoError(t, repo.SetStaff(bg, leo.ID, true))
	assert.True(t, models.IsNotFound(repo.SetStaff(bg, 999, true)))
}

func TestUserRepository_DeleteCascades(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewUserRepository(db)

	leo := createUser(t, db, "leo")
	anna := createUser(t, db, "anna")
	leoPost := createPosts(t, db, leo, nil, 1)[0]
	annaPost := createPosts(t, db, anna, nil, 1)[0]

	require.NoError(t, db.Create(&models.Comment{Text: "anna on leo", PostID: leoPost.ID, AuthorID: anna.ID}).Error)
	require.NoError(t, db.Create(&models.Comment{Text: "leo on anna", PostID: annaPost.ID, AuthorID: leo.ID}).Error)
	require.NoError(t, db.Create(&models.Comment{Text: "anna on anna", PostID: annaPost.ID, AuthorID: anna.ID}).Error)
	require.NoError(t, db.Create(&models.Follow{UserID: anna.ID, AuthorID: leo.ID}).Error)

	require.NoError(t, repo.Delete(bg, leo.ID))

	var posts, comments, follows int64
	db.Model(&models.Post{}).Count(&posts)
	db.Model(&models.Comment{}).Count(&comments)
	db.Model(&models.Follow{}).Count(&follows)
	assert.Equal(t, int64(1), posts)
	assert.Equal(t, int64(1), comments)
	assert.Zero(t, follows)

	_, err := repo.GetByUsername(bg, "leo")
	assert.True(t, models.IsNotFound(err))
	assert.True(t, models.IsNotFound(repo.Delete(bg, leo.ID)))
}
