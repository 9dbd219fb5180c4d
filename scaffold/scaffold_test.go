package scaffold

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/pagecraft/builder"
)

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"bio", "landing", "newsletter"}, Names())
}

func TestEveryTemplateLoads(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			doc, err := Load(name, nil)
			require.NoError(t, err)
			require.NoError(t, doc.Validate())
			assert.Empty(t, doc.ID)
			assert.Positive(t, doc.Count())
			doc.Walk(func(el *builder.Element, _ int) bool {
				assert.False(t, el.Unknown(), "element %s is not in the catalog", el.Kind)
				assert.Empty(t, el.Missing(), "element %s", el.Kind)
				return true
			})
		})
	}
}

func TestLoadReassignsIDs(t *testing.T) {
	n := 0
	gen := func() string { n++; return fmt.Sprintf("x%d", n) }
	doc, err := Load("newsletter", gen)
	require.NoError(t, err)

	var ids []string
	doc.Walk(func(el *builder.Element, _ int) bool {
		ids = append(ids, el.ID)
		return true
	})
	assert.Len(t, ids, doc.Count())
	for _, id := range ids {
		assert.Regexp(t, `^x\d+$`, id)
	}

	// Loading twice never shares ids or element pointers.
	again, err := Load("newsletter", nil)
	require.NoError(t, err)
	assert.NotEqual(t, doc.Elements[0].ID, again.Elements[0].ID)
}

func TestLoadUnknown(t *testing.T) {
	for _, name := range []string{"", "nope", "../go", "bio.json"} {
		_, err := Load(name, nil)
		assert.ErrorIs(t, err, builder.ErrNotFound, name)
	}
}

func TestNew(t *testing.T) {
	empty, err := New(builder.DocumentForm, "Contact", "contact", "", nil)
	require.NoError(t, err)
	assert.Zero(t, empty.Count())
	assert.Equal(t, builder.DocumentForm, empty.Kind)

	fromTemplate, err := New(builder.DocumentLanding, "Spring sale", "spring-sale", "bio", nil)
	require.NoError(t, err)
	assert.Equal(t, "spring-sale", fromTemplate.Slug)
	assert.Equal(t, "Spring sale", fromTemplate.Title)
	assert.Equal(t, builder.DocumentLanding, fromTemplate.Kind)
	assert.Equal(t, 5, fromTemplate.Count())
	require.NoError(t, fromTemplate.Validate())
}
