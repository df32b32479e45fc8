package confirmation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ivyforms/ivyforms/internal/model"
	"github.com/ivyforms/ivyforms/internal/placeholder"
)

var data = placeholder.FieldData{{Key: "text_0", Value: "Ann"}}

func TestResolveSuccessMessage(t *testing.T) {
	confirmations := []model.Confirmation{
		{Name: "disabled", Enabled: false, Type: model.ConfirmSuccessMessage, Message: "never"},
		{Name: "redirect", Enabled: true, Type: model.ConfirmRedirectURL, URL: "https://example.com"},
		{Name: "first", Enabled: true, Type: model.ConfirmSuccessMessage, Message: "Thanks {{text_0}} from {{wp.site_title}}{{nope}}"},
		{Name: "second", Enabled: true, Type: model.ConfirmSuccessMessage, Message: "second"},
	}

	got := ResolveSuccessMessage(confirmations, data, placeholder.GeneralData{"site_title": "Ivy"}, nil)

	assert.Equal(t, "Thanks Ann from Ivy", got)
}

func TestResolveSuccessMessage_None(t *testing.T) {
	assert.Equal(t, "", ResolveSuccessMessage(nil, data, nil, nil))
	assert.Equal(t, "", ResolveSuccessMessage([]model.Confirmation{
		{Enabled: false, Type: model.ConfirmSuccessMessage, Message: "x"},
	}, data, nil, nil))
}

type pages map[int64]model.Page

func (p pages) GetPage(_ context.Context, id int64) (*model.Page, error) {
	pg, ok := p[id]
	if !ok {
		return nil, errors.New("missing")
	}
	return &pg, nil
}

func TestResolver(t *testing.T) {
	r := &Resolver{Pages: pages{2: {ID: 2, Title: "Thanks", Permalink: "https://example.com/thanks"}}}
	ctx := context.Background()

	t.Run("redirect to url", func(t *testing.T) {
		out := r.Resolve(ctx, []model.Confirmation{
			{Enabled: true, Type: model.ConfirmRedirectURL, URL: "https://example.com/done"},
		}, data, nil, nil)
		assert.Equal(t, Outcome{Type: model.ConfirmRedirectURL, RedirectURL: "https://example.com/done"}, out)
	})

	t.Run("missing page falls through", func(t *testing.T) {
		out := r.Resolve(ctx, []model.Confirmation{
			{Enabled: true, Type: model.ConfirmRedirectPage, PageID: 9},
			{Enabled: true, Type: model.ConfirmRedirectPage, PageID: 2},
		}, data, nil, nil)
		assert.Equal(t, "https://example.com/thanks", out.RedirectURL)
	})

	t.Run("message rendered", func(t *testing.T) {
		out := r.Resolve(ctx, []model.Confirmation{
			{Enabled: true, Type: model.ConfirmSuccessMessage, Message: "Hi {{text_0}}"},
		}, data, nil, nil)
		assert.Equal(t, "Hi Ann", out.Message)
	})

	t.Run("nothing enabled", func(t *testing.T) {
		out := r.Resolve(ctx, nil, data, nil, nil)
		assert.Equal(t, model.ConfirmSuccessMessage, out.Type)
		assert.Empty(t, out.Message)
	})
}
