package services_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yigit/feedsphere/internal/app/models"
	"github.com/yigit/feedsphere/internal/app/services"
	"github.com/yigit/feedsphere/internal/pkg/apperrors"
)

var _ = Describe("FeedService", func() {
	var (
		cat      *models.Message
		dog      *models.Message
		bird     *models.Message
		plain    *models.Message
		messages *mockMessageStore
		svc      services.FeedService
		ctx      context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		imageURL := func(name string) *string {
			url := "http://localhost:8080/uploads/" + name
			return &url
		}
		cat = &models.Message{ID: uuid.New(), Text: "my pet", ImageURL: imageURL("cat.jpg"), ImageLabels: []string{"Cat", "Whiskers"}}
		dog = &models.Message{ID: uuid.New(), Text: "good boy", ImageURL: imageURL("dog.jpg"), ImageLabels: []string{"DOG"}}
		bird = &models.Message{ID: uuid.New(), Text: "tweet", ImageURL: imageURL("bird.jpg"), ImageLabels: []string{"Bird"}}
		plain = &models.Message{ID: uuid.New(), Text: "I love my cat"}
		messages = &mockMessageStore{created: []*models.Message{cat, dog, bird, plain}}
		svc = services.NewFeedService(messages, zerolog.Nop())
	})

	Describe("FilterByLabels", func() {
		It("should keep messages whose labels intersect the wanted set, ignoring case", func() {
			Expect(services.FilterByLabels(messages.created, []string{"cat", "dog"})).To(Equal([]*models.Message{cat, dog}))
		})

		It("should exclude messages without labels even if the text matches", func() {
			Expect(services.FilterByLabels(messages.created, []string{"cat"})).NotTo(ContainElement(plain))
		})

		It("should never match a message without an image", func() {
			stray := &models.Message{Text: "labels without a picture", ImageLabels: []string{"Cat"}}

			Expect(services.FilterByLabels([]*models.Message{stray, cat}, []string{"cat"})).To(Equal([]*models.Message{cat}))
		})

		It("should lower-case the requested labels too", func() {
			Expect(services.FilterByLabels(messages.created, []string{"BIRD"})).To(Equal([]*models.Message{bird}))
		})

		It("should return everything when no label is requested", func() {
			Expect(services.FilterByLabels(messages.created, nil)).To(HaveLen(4))
			Expect(services.FilterByLabels(messages.created, []string{"", "  "})).To(HaveLen(4))
		})

		It("should return an empty list when nothing matches", func() {
			filtered := services.FilterByLabels(messages.created, []string{"fish"})
			Expect(filtered).NotTo(BeNil())
			Expect(filtered).To(BeEmpty())
		})
	})

	Describe("Feed", func() {
		It("should filter the listing", func() {
			feed, err := svc.Feed(ctx, []string{"whiskers"})

			Expect(err).NotTo(HaveOccurred())
			Expect(feed).To(Equal([]*models.Message{cat}))
		})

		It("should report storage failures", func() {
			messages.listAllFn = func(context.Context) ([]*models.Message, error) {
				return nil, errors.New("pool exhausted")
			}

			_, err := svc.Feed(ctx, nil)

			Expect(errors.Is(err, apperrors.ErrStorage)).To(BeTrue())
		})
	})

	Describe("GetMessage", func() {
		It("should return a stored message", func() {
			message, err := svc.GetMessage(ctx, dog.ID.String())

			Expect(err).NotTo(HaveOccurred())
			Expect(message).To(Equal(dog))
		})

		It("should report malformed and unknown ids as not found", func() {
			for _, id := range []string{"not-a-uuid", "", uuid.NewString()} {
				_, err := svc.GetMessage(ctx, id)

				Expect(errors.Is(err, apperrors.ErrResourceNotFound)).To(BeTrue(), "id %q", id)
			}
		})

		It("should report storage failures", func() {
			messages.getByIDFn = func(context.Context, uuid.UUID) (*models.Message, error) {
				return nil, errors.New("connection reset")
			}

			_, err := svc.GetMessage(ctx, cat.ID.String())

			Expect(errors.Is(err, apperrors.ErrStorage)).To(BeTrue())
		})
	})

	Describe("UserMessages", func() {
		It("should return an empty list without an author", func() {
			called := false
			messages.listByAuthorFn = func(context.Context, string) ([]*models.Message, error) {
				called = true
				return nil, nil
			}

			list, err := svc.UserMessages(ctx, " ")

			Expect(err).NotTo(HaveOccurred())
			Expect(list).NotTo(BeNil())
			Expect(list).To(BeEmpty())
			Expect(called).To(BeFalse())
		})

		It("should list by author", func() {
			messages.listByAuthorFn = func(_ context.Context, author string) ([]*models.Message, error) {
				Expect(author).To(Equal("alice@example.com"))
				return []*models.Message{dog}, nil
			}

			list, err := svc.UserMessages(ctx, "alice@example.com")

			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(Equal([]*models.Message{dog}))
		})
	})
})

var _ = Describe("MarkerService", func() {
	It("should list markers and never return nil", func() {
		store := &mockMarkerStore{}
		markers, err := services.NewMarkerService(store).ListMarkers(context.Background())

		Expect(err).NotTo(HaveOccurred())
		Expect(markers).NotTo(BeNil())
	})

	It("should report storage failures", func() {
		store := &mockMarkerStore{listFn: func(context.Context) ([]*models.Marker, error) {
			return nil, errors.New("boom")
		}}

		_, err := services.NewMarkerService(store).ListMarkers(context.Background())

		Expect(errors.Is(err, apperrors.ErrStorage)).To(BeTrue())
	})
})
