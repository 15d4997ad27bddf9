package notify

import (
	"context"
	"strings"

	"git.home.luguber.info/inful/promoter/internal/store"
)

// CommentSink upserts a single marked comment on the source pull request.
// The marker keys the upsert: the first comment containing it gets edited in
// place, so reruns and later failures reuse one comment instead of piling up.
type CommentSink struct {
	client   store.CommentClient
	prNumber int
}

// NewCommentSink builds a sink posting to the given pull request.
func NewCommentSink(client store.CommentClient, prNumber int) *CommentSink {
	return &CommentSink{client: client, prNumber: prNumber}
}

func (s *CommentSink) Name() string { return "comment" }

func (s *CommentSink) Publish(ctx context.Context, rep *Report) error {
	marker := Marker(rep.Environment, rep.Service)
	body := marker + "\n" + renderBody(rep)

	comments, err := s.client.ListComments(ctx, s.prNumber)
	if err != nil {
		return err
	}

	for _, comment := range comments {
		if strings.Contains(comment.Body, marker) {
			_, err := s.client.UpdateComment(ctx, comment.ID, body)
			return err
		}
	}

	_, err = s.client.CreateComment(ctx, s.prNumber, body)
	return err
}
