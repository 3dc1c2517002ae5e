package services_test

import (
	"context"
	"errors"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/rs/zerolog"

	"github.com/yigit/feedsphere/internal/app/models"
	"github.com/yigit/feedsphere/internal/app/services"
	"github.com/yigit/feedsphere/internal/pkg/apperrors"
)

var _ = Describe("CommentService", func() {
	var (
		svc       services.CommentService
		store     *memoryCommentStore
		scorer    *mockScorer
		publisher *mockPublisher
		message   *models.Message
		ctx       context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		message = &models.Message{ID: uuid.New(), Author: "alice@example.com", CommentIDs: []uuid.UUID{}}
		store = newMemoryCommentStore(message)
		scorer = &mockScorer{score: -0.2}
		publisher = &mockPublisher{}
	})

	JustBeforeEach(func() {
		svc = services.NewCommentService(store, scorer, publisher, zerolog.Nop())
	})

	Describe("AddComment", func() {
		It("should reject an unauthenticated request without touching the message", func() {
			comment, err := svc.AddComment(ctx, "", message.ID, "nice")

			Expect(err).To(MatchError(apperrors.ErrUnauthenticated))
			Expect(comment).To(BeNil())
			Expect(store.comments).To(BeEmpty())
			Expect(message.CommentIDs).To(BeEmpty())
			Expect(scorer.calls()).To(BeEmpty())
		})

		It("should sanitize the stored text and score the raw text", func() {
			comment, err := svc.AddComment(ctx, "bob@example.com", message.ID, "<i>great</i> <img src=x onerror=y>")

			Expect(err).NotTo(HaveOccurred())
			Expect(comment.Text).To(Equal("<i>great</i> "))
			Expect(comment.SentimentScore).To(Equal(-0.2))
			Expect(comment.MessageID).To(Equal(message.ID))
			Expect(comment.Author).To(Equal("bob@example.com"))
			Expect(scorer.calls()).To(Equal([]string{"<i>great</i> <img src=x onerror=y>"}))
			Expect(publisher.comments).To(ConsistOf(comment))
		})

		It("should append ids without reordering earlier ones", func() {
			first, err := svc.AddComment(ctx, "bob@example.com", message.ID, "one")
			Expect(err).NotTo(HaveOccurred())
			second, err := svc.AddComment(ctx, "carol@example.com", message.ID, "two")
			Expect(err).NotTo(HaveOccurred())
			third, err := svc.AddComment(ctx, "bob@example.com", message.ID, "three")
			Expect(err).NotTo(HaveOccurred())

			Expect(message.CommentIDs).To(Equal([]uuid.UUID{first.ID, second.ID, third.ID}))
		})

		It("should reject a comment on an unknown message", func() {
			comment, err := svc.AddComment(ctx, "bob@example.com", uuid.New(), "hello?")

			Expect(comment).To(BeNil())
			Expect(errors.Is(err, apperrors.ErrMessageNotFound)).To(BeTrue())
			Expect(store.comments).To(BeEmpty())
			Expect(publisher.comments).To(BeEmpty())
		})

		It("should persist nothing when scoring fails", func() {
			scorer.err = errors.New("timeout")

			comment, err := svc.AddComment(ctx, "bob@example.com", message.ID, "hello")

			Expect(comment).To(BeNil())
			Expect(errors.Is(err, apperrors.ErrRequiredStage)).To(BeTrue())
			Expect(store.comments).To(BeEmpty())
			Expect(message.CommentIDs).To(BeEmpty())
		})

		It("should report storage failures", func() {
			store.writeErr = errors.New("deadlock detected")

			_, err := svc.AddComment(ctx, "bob@example.com", message.ID, "hello")

			Expect(errors.Is(err, apperrors.ErrStorage)).To(BeTrue())
		})
	})

	Describe("ListComments", func() {
		It("should return comments in creation order", func() {
			first, _ := svc.AddComment(ctx, "bob@example.com", message.ID, "one")
			second, _ := svc.AddComment(ctx, "bob@example.com", message.ID, "two")

			comments, err := svc.ListComments(ctx, message.ID.String())

			Expect(err).NotTo(HaveOccurred())
			Expect(comments).To(Equal([]*models.Comment{first, second}))
		})

		DescribeTable("should return an empty list",
			func(id string) {
				comments, err := svc.ListComments(ctx, id)

				Expect(err).NotTo(HaveOccurred())
				Expect(comments).NotTo(BeNil())
				Expect(comments).To(BeEmpty())
			},
			Entry("for a missing id", ""),
			Entry("for a malformed id", "not-a-uuid"),
			Entry("for an unknown id", uuid.NewString()),
		)

		It("should report storage failures", func() {
			store.listErr = errors.New("connection refused")

			_, err := svc.ListComments(ctx, message.ID.String())

			Expect(errors.Is(err, apperrors.ErrStorage)).To(BeTrue())
		})
	})
})
