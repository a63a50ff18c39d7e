// Package forms binds and validates user input for posts and comments.
package forms

import (
	"errors"
	"mime/multipart"
	"strconv"
	"strings"

	"yatube/internal/media"
	"yatube/internal/models"
)

const (
	msgRequired      = "Обязательное поле."
	msgInvalidChoice = "Выберите корректный вариант. Этого варианта нет среди допустимых значений."
	msgInvalidImage  = "Загрузите правильное изображение. Файл, который вы загрузили, поврежден или не является изображением."
	msgEmptyFile     = "Отправленный файл пуст."
	msgTooLarge      = "Файл слишком большой."
	msgUploadFailed  = "Не удалось прочитать загруженный файл."
)

// Field is one form input with its bound value and validation errors.
type Field struct {
	Name     string
	Label    string
	HelpText string
	Value    string
	Required bool
	Errors   []string
}

func (f *Field) AddError(msg string) {
	f.Errors = append(f.Errors, msg)
}

func (f *Field) HasErrors() bool {
	return len(f.Errors) > 0
}

// PostValues is the raw submitted data of a post form.
type PostValues struct {
	Text  string
	Group string
	Image *multipart.FileHeader
}

// PostForm creates or edits a post: required text, optional group and image.
type PostForm struct {
	Text  Field
	Group Field
	Image Field

	Choices []models.Group
	// CurrentImage is the stored image key of the post being edited.
	CurrentImage string

	values    PostValues
	maxUpload int64
	bound     bool
	validated bool
	upload    *media.Upload
	groupID   *uint
}

// NewPostForm returns an unbound form offering groups as choices.
func NewPostForm(groups []models.Group, maxUpload int64) *PostForm {
	return &PostForm{
		Text:      Field{Name: "text", Label: "Текст поста", HelpText: "Введите текст поста", Required: true},
		Group:     Field{Name: "group", Label: "Группа поста", HelpText: "Выберите группу поста (опционально)"},
		Image:     Field{Name: "image", Label: "Картинка"},
		Choices:   groups,
		maxUpload: maxUpload,
	}
}

// SetInitial fills the displayed values from an existing post.
func (f *PostForm) SetInitial(p *models.Post) {
	f.Text.Value = p.Text
	if p.GroupID != nil {
		f.Group.Value = strconv.FormatUint(uint64(*p.GroupID), 10)
	}
	f.CurrentImage = p.Image
}

// Bind attaches submitted values; validation runs on the first IsValid call.
func (f *PostForm) Bind(v PostValues) {
	f.values = v
	f.Text.Value = v.Text
	f.Group.Value = strings.TrimSpace(v.Group)
	f.bound = true
	f.validated = false
}

// IsValid validates the bound values. An unbound form is never valid.
func (f *PostForm) IsValid() bool {
	if !f.bound {
		return false
	}
	if !f.validated {
		f.clean()
		f.validated = true
	}
	return !f.Text.HasErrors() && !f.Group.HasErrors() && !f.Image.HasErrors()
}

func (f *PostForm) clean() {
	f.Text.Errors, f.Group.Errors, f.Image.Errors = nil, nil, nil
	f.groupID, f.upload = nil, nil

	f.Text.Value = strings.TrimSpace(f.values.Text)
	if f.Text.Value == "" {
		f.Text.AddError(msgRequired)
	}

	if f.Group.Value != "" {
		id, err := strconv.ParseUint(f.Group.Value, 10, 64)
		if err != nil || !f.hasChoice(uint(id)) {
			f.Group.AddError(msgInvalidChoice)
		} else {
			gid := uint(id)
			f.groupID = &gid
		}
	}

	up, err := media.ReadUpload(f.values.Image, f.maxUpload)
	if err != nil {
		f.Image.AddError(imageMessage(err))
	} else {
		f.upload = up
	}
}

func (f *PostForm) hasChoice(id uint) bool {
	for _, g := range f.Choices {
		if g.ID == id {
			return true
		}
	}
	return false
}

// IsSelected reports whether the group choice is the current value.
func (f *PostForm) IsSelected(id uint) bool {
	return f.Group.Value == strconv.FormatUint(uint64(id), 10)
}

// Apply copies the cleaned text and group onto p. The image is handled by the caller through Upload.
func (f *PostForm) Apply(p *models.Post) {
	p.Text = f.Text.Value
	p.GroupID = f.groupID
}

// Upload returns the validated image, or nil when none was submitted.
func (f *PostForm) Upload() *media.Upload {
	return f.upload
}

func imageMessage(err error) string {
	var tooLarge *media.TooLargeError
	switch {
	case errors.As(err, &tooLarge):
		return msgTooLarge
	case errors.Is(err, media.ErrEmptyFile):
		return msgEmptyFile
	case errors.Is(err, media.ErrNotImage), errors.Is(err, media.ErrUnsupportedType):
		return msgInvalidImage
	default:
		return msgUploadFailed
	}
}

// CommentForm adds a comment to a post.
type CommentForm struct {
	Text Field

	bound     bool
	validated bool
}

// NewCommentForm returns an empty comment form.
func NewCommentForm() *CommentForm {
	return &CommentForm{
		Text: Field{Name: "text", Label: "Комментарий", Required: true},
	}
}

func (f *CommentForm) Bind(text string) {
	f.Text.Value = text
	f.bound = true
	f.validated = false
}

func (f *CommentForm) IsValid() bool {
	if !f.bound {
		return false
	}
	if !f.validated {
		f.Text.Errors = nil
		f.Text.Value = strings.TrimSpace(f.Text.Value)
		if f.Text.Value == "" {
			f.Text.AddError(msgRequired)
		} else if err := cleanCommentText(f.Text.Value); err != nil {
			f.Text.AddError(err.Error())
		}
		f.validated = true
	}
	return !f.Text.HasErrors()
}

// cleanCommentText is a second guard against empty comments after the required check.
func cleanCommentText(text string) error {
	if text == "" {
		return errors.New(msgRequired)
	}
	return nil
}

// Comment builds the comment to persist; call only after IsValid.
func (f *CommentForm) Comment(postID, authorID uint) *models.Comment {
	return &models.Comment{Text: f.Text.Value, PostID: postID, AuthorID: authorID}
}
