package comment_test

import (
	"testing"

	"github.com/rpggio/syncteam/internal/domain/comment"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	c := comment.Comment{EntityType: comment.EntityTask, EntityID: "7", AuthorID: "u1", Text: "Looks good"}
	require.NoError(t, comment.Validate(c))
	require.True(t, c.On(comment.EntityTask, "7"))
	require.False(t, c.On(comment.EntityProject, "7"))

	c.Text = "  "
	require.ErrorIs(t, comment.Validate(c), comment.ErrInvalidInput)

	c.Text = "ok"
	c.EntityType = "invoice"
	require.ErrorIs(t, comment.Validate(c), comment.ErrInvalidInput)
}
