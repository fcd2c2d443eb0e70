package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type submission struct {
	Title string `json:"title" validate:"present,min=3,max=10"`
	Link  string `json:"link" validate:"omitempty,linkuri"`
	Body  string `json:"body"`
}

func (s *submission) ValidateConditional(errs Errors) {
	if s.Link == "" {
		Field(errs, "body", s.Body, "present,min=5")
	}
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name string
		in   submission
		want Errors
	}{
		{
			name: "valid link submission",
			in:   submission{Title: "Hello", Link: "example.com"},
			want: Errors{},
		},
		{
			name: "valid text submission",
			in:   submission{Title: "Hello", Body: "long enough"},
			want: Errors{},
		},
		{
			name: "blank title",
			in:   submission{Title: "   ", Link: "example.com"},
			want: Errors{"title": {"can't be blank"}},
		},
		{
			name: "short title",
			in:   submission{Title: "Hi", Link: "example.com"},
			want: Errors{"title": {"is too short (minimum is 3 characters)"}},
		},
		{
			name: "long title",
			in:   submission{Title: strings.Repeat("a", 11), Link: "example.com"},
			want: Errors{"title": {"is too long (maximum is 10 characters)"}},
		},
		{
			name: "bad link",
			in:   submission{Title: "Hello", Link: "ftp://example.com"},
			want: Errors{"link": {"is not a valid HTTP or HTTPS URI"}},
		},
		{
			name: "conditional rule fires without link",
			in:   submission{Title: "Hello", Body: "abc"},
			want: Errors{"body": {"is too short (minimum is 5 characters)"}},
		},
		{
			name: "all failures collected",
			in:   submission{Title: "", Body: ""},
			want: Errors{"title": {"can't be blank"}, "body": {"can't be blank"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.in
			got := Struct(&in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, len(tt.want) == 0, got.Empty())
		})
	}
}

func TestLengthCountsCharacters(t *testing.T) {
	errs := Errors{}
	Field(errs, "title", "日本語", "min=3,max=3")
	assert.True(t, errs.Empty())
}

func TestErrorsFull(t *testing.T) {
	errs := Errors{}
	errs.Add("url", "is invalid")
	errs.Add("title", "can't be blank")
	errs.Add("title", "is too short (minimum is 3 characters)")

	assert.Equal(t, []string{
		"title can't be blank",
		"title is too short (minimum is 3 characters)",
		"url is invalid",
	}, errs.Full())
	assert.Contains(t, errs.Error(), "url is invalid")
	assert.Equal(t, []string{"is invalid"}, errs.On("url"))
}
